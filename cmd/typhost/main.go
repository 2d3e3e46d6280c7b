// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command typhost compiles, previews and exports typesetting projects from
// the command line, and serves editor front ends over JSON lines.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/typhost/internal/config"
	"github.com/petar-djukic/typhost/internal/logging"
	"github.com/petar-djukic/typhost/internal/textset"
	"github.com/petar-djukic/typhost/pkg/host"
)

const version = "0.1.0"

// errCompileFailed signals that diagnostics were already printed.
var errCompileFailed = errors.New("compilation failed")

// app carries the loaded settings to every command.
type app struct {
	v   *viper.Viper
	cfg *config.Config
	log zerolog.Logger

	// logFormat overrides the configured format, for commands that own
	// stdout.
	logFormat string
}

func main() {
	a := &app{v: viper.New()}
	rootCmd := &cobra.Command{
		Use:           "typhost",
		Short:         "Typesetting compilation host",
		Long:          "typhost compiles a project's entry file, renders pages and exports PDF, PNG and SVG.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	// Global flags.
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default .typhost.yaml in the working directory)")
	flags.String("root", ".", "Project root directory")
	flags.String("main", "main.typ", "Entry file relative to the root")
	flags.Float64("scale", 1.0, "Preview pixels per point")
	flags.String("log-level", "info", "Log level")
	flags.String("log-format", "console", "Log format: console or json")
	flags.Bool("offline", false, "Never download packages")

	// Bind flags to viper keys.
	a.v.BindPFlag("root", flags.Lookup("root"))
	a.v.BindPFlag("main", flags.Lookup("main"))
	a.v.BindPFlag("render.scale", flags.Lookup("scale"))
	a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	a.v.BindPFlag("log.format", flags.Lookup("log-format"))
	a.v.BindPFlag("packages.offline", flags.Lookup("offline"))

	rootCmd.AddCommand(newCompileCmd(a))
	rootCmd.AddCommand(newRenderCmd(a))
	rootCmd.AddCommand(newExportCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errCompileFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// load reads the config and sets up logging.
func (a *app) load(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(a.v, path)
	if err != nil {
		return err
	}
	format := cfg.Log.Format
	if a.logFormat != "" {
		format = a.logFormat
	}
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: format, Writer: os.Stderr})
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

// newHost opens the configured project with the built-in engine.
func (a *app) newHost() (host.Host, error) {
	registry := a.cfg.Packages.Registry
	if a.cfg.Packages.Offline {
		registry = ""
	}
	return host.New(host.Config{
		Root:           a.cfg.Root,
		Main:           a.cfg.Main,
		Scale:          a.cfg.Render.Scale,
		PNGExportScale: a.cfg.Render.PNGExportScale,
		CacheDir:       a.cfg.Packages.CacheDir,
		DataDir:        a.cfg.Packages.DataDir,
		Registry:       registry,
		Progress:       os.Stderr,
		Logger:         a.log,
	}, textset.New(a.log))
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print typhost version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "typhost %s\n", version)
		},
	}
}
