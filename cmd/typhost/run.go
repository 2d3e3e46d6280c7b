// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petar-djukic/typhost/internal/ipc"
	"github.com/petar-djukic/typhost/internal/report"
	"github.com/petar-djukic/typhost/internal/watch"
	"github.com/petar-djukic/typhost/pkg/host"
	"github.com/petar-djukic/typhost/pkg/types"
)

// newCompileCmd creates the "compile" command.
func newCompileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compile",
		Short: "Compile the entry file and print diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.newHost()
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			return compileAndReport(ctx, h, cmd.OutOrStdout())
		},
	}
}

// compileAndReport compiles and prints the diagnostics. It returns
// errCompileFailed when the compilation had errors.
func compileAndReport(ctx context.Context, h host.Host, out io.Writer) error {
	diags, err := h.Compile(ctx)
	var compErr *types.CompilationError
	if errors.As(err, &compErr) {
		fmt.Fprint(out, h.Report(compErr.Diagnostics))
		fmt.Fprintf(out, "compilation failed: %s\n", report.Summary(compErr.Diagnostics))
		return errCompileFailed
	}
	if err != nil {
		return err
	}
	fmt.Fprint(out, h.Report(diags))
	pages, err := h.PageCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "compiled %d pages", pages)
	if len(diags) > 0 {
		fmt.Fprintf(out, " with %s", report.Summary(diags))
	}
	fmt.Fprintln(out)
	return nil
}

// newRenderCmd creates the "render" command.
func newRenderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render every page as a preview PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("out")
			h, err := a.newHost()
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			if err := compileAndReport(ctx, h, cmd.ErrOrStderr()); err != nil {
				return err
			}
			images, err := h.RenderAll(ctx)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			for i, img := range images {
				name := filepath.Join(dir, fmt.Sprintf("page-%d.png", i+1))
				if err := os.WriteFile(name, img.PNG, 0o644); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", "preview", "Output directory")
	return cmd
}

// exportFlags are shared by export and watch.
type exportFlags struct {
	format   string
	start    int
	end      int
	merged   bool
	gap      float64
	pngScale float64
}

func (f *exportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: pdf, png or svg (default from the output extension)")
	cmd.Flags().IntVar(&f.start, "start", 1, "First page to export (1-based, png and svg)")
	cmd.Flags().IntVar(&f.end, "end", 0, "Last page to export (1-based, 0 for the last page)")
	cmd.Flags().BoolVar(&f.merged, "merged", false, "Write all svg pages into one file")
	cmd.Flags().Float64Var(&f.gap, "gap", 0, "Gap between merged svg pages in points")
	cmd.Flags().Float64Var(&f.pngScale, "png-scale", 0, "PNG pixels per point (default from config)")
}

// resolve returns the format name and options for output.
func (f *exportFlags) resolve(output string) (string, types.ExportOptions) {
	format := f.format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(output), ".")
	}
	return format, types.ExportOptions{
		StartPage: f.start - 1,
		EndPage:   f.end - 1,
		Merged:    f.merged,
		MergedGap: f.gap,
		PNGScale:  f.pngScale,
	}
}

// newExportCmd creates the "export" command.
func newExportCmd(a *app) *cobra.Command {
	var flags exportFlags
	cmd := &cobra.Command{
		Use:   "export OUTPUT",
		Short: "Compile and export the document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.newHost()
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			return export(ctx, h, args[0], &flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	flags.register(cmd)
	return cmd
}

func export(ctx context.Context, h host.Host, output string, flags *exportFlags, out, errOut io.Writer) error {
	format, opts := flags.resolve(output)
	files, err := h.Export(ctx, output, format, opts)
	var compErr *types.CompilationError
	if errors.As(err, &compErr) {
		fmt.Fprint(errOut, h.Report(compErr.Diagnostics))
		fmt.Fprintf(errOut, "export aborted: %s\n", report.Summary(compErr.Diagnostics))
		return errCompileFailed
	}
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintln(out, f)
	}
	return nil
}

// newWatchCmd creates the "watch" command.
func newWatchCmd(a *app) *cobra.Command {
	var flags exportFlags
	cmd := &cobra.Command{
		Use:   "watch OUTPUT",
		Short: "Export again whenever a file the document depends on changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.newHost()
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			w, err := watch.New(watch.Options{Debounce: a.cfg.Watch.Debounce, Logger: a.log})
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			output := args[0]
			build := func() {
				err := export(ctx, h, output, &flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
				if err != nil && !errors.Is(err, errCompileFailed) {
					a.log.Error().Err(err).Msg("export failed")
				}
				deps, err := h.Dependencies(ctx)
				if err != nil {
					return
				}
				if err := w.Sync(deps); err != nil {
					a.log.Warn().Err(err).Msg("cannot watch dependencies")
				}
			}

			build()
			a.log.Info().Strs("watching", w.Watched()).Msg("watching for changes")
			err = w.Run(ctx, func(paths []string) {
				a.log.Info().Strs("changed", paths).Msg("recompiling")
				build()
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

// newServeCmd creates the "serve" command.
func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve JSON-lines requests on stdin and stdout",
		Long:  "Serve reads one JSON request per line from stdin and writes one JSON response per line to stdout. Logs go to stderr as JSON.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.logFormat = "json"
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.newHost()
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			srv := ipc.New(h, a.log)
			a.log.Info().Str("root", h.Root()).Strs("commands", srv.Commands()).Msg("serving")
			err = srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
