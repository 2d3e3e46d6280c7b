// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ipc serves a host over a JSON-lines stream so an editor process
// can drive it. Every input line is one request; every request gets exactly
// one response line, in order.
//
//	-> {"id": 1, "cmd": "compile"}
//	<- {"id": 1, "ok": true, "result": {"success": true, "pages": 2}}
package ipc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/rs/zerolog"

	"github.com/petar-djukic/typhost/pkg/host"
	"github.com/petar-djukic/typhost/pkg/types"
)

// Request is one command sent by the client.
type Request struct {
	ID   json.RawMessage `json:"id,omitempty"`
	Cmd  string          `json:"cmd"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Response answers one request. Exactly one of Result and Error is set.
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	OK     bool            `json:"ok"`
	Result any             `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// CompileResult reports a compilation. A failed compilation is a normal
// result, not an error response.
type CompileResult struct {
	Success     bool               `json:"success"`
	Pages       int                `json:"pages"`
	Diagnostics []types.Diagnostic `json:"diagnostics"`
}

type handler func(ctx context.Context, args json.RawMessage) (any, error)

// Server dispatches requests to a host.
type Server struct {
	host     host.Host
	log      zerolog.Logger
	handlers map[string]handler
}

// New creates a server for h.
func New(h host.Host, log zerolog.Logger) *Server {
	s := &Server{host: h, log: log}
	s.handlers = map[string]handler{
		"open_workspace":     s.openWorkspace,
		"set_main_file":      s.setMainFile,
		"update_file_source": s.updateFileSource,
		"add_file":           s.addFile,
		"compile":            s.compile,
		"render_pages":       s.renderPages,
		"render_page":        s.renderPage,
		"pages_len":          s.pagesLen,
		"set_scale":          s.setScale,
		"cursor_position":    s.cursorPosition,
		"click":              s.click,
		"autocomplete":       s.autocomplete,
		"hover":              s.hover,
		"export":             s.export,
		"dependencies":       s.dependencies,
		"entries":            s.entries,
	}
	return s
}

// Commands returns the supported command names, sorted.
func (s *Server) Commands() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Serve reads requests from r until EOF or ctx ends and writes responses
// to w. Malformed lines get an error response; blank lines are skipped.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, readErr := br.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			resp := s.handleLine(ctx, line)
			if err := enc.Encode(resp); err != nil {
				return fmt.Errorf("writing response: %w", err)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("reading request: %w", readErr)
		}
	}
}

func (s *Server) handleLine(ctx context.Context, line []byte) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.log.Warn().Err(err).Msg("malformed request")
		return Response{Error: fmt.Sprintf("malformed request: %v", err)}
	}
	return s.Handle(ctx, req)
}

// Handle runs one request.
func (s *Server) Handle(ctx context.Context, req Request) Response {
	h, ok := s.handlers[req.Cmd]
	if !ok {
		return Response{ID: req.ID, Error: fmt.Sprintf("unknown command %q", req.Cmd)}
	}
	result, err := h(ctx, req.Args)
	if err != nil {
		s.log.Debug().Err(err).Str("cmd", req.Cmd).Msg("command failed")
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, OK: true, Result: result}
}

// decode unmarshals args into v. Missing args leave v untouched.
func decode(args json.RawMessage, v any) error {
	if len(bytes.TrimSpace(args)) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

type pathArgs struct {
	Path string `json:"path"`
}

type fileArgs struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

type cursorArgs struct {
	Text     string `json:"text"`
	Cursor   int    `json:"cursor"`
	Explicit bool   `json:"explicit"`
}

type clickArgs struct {
	Text string  `json:"text"`
	Page int     `json:"page"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type exportArgs struct {
	Path    string               `json:"path"`
	Format  string               `json:"format"`
	Options *types.ExportOptions `json:"options,omitempty"`
}

func (s *Server) openWorkspace(ctx context.Context, raw json.RawMessage) (any, error) {
	var a pathArgs
	if err := decode(raw, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	if err := s.host.OpenWorkspace(ctx, a.Path); err != nil {
		return nil, err
	}
	return map[string]any{"root": s.host.Root(), "entries": s.host.Entries()}, nil
}

func (s *Server) entries(context.Context, json.RawMessage) (any, error) {
	return map[string]any{"root": s.host.Root(), "entries": s.host.Entries()}, nil
}

func (s *Server) setMainFile(ctx context.Context, raw json.RawMessage) (any, error) {
	var a pathArgs
	if err := decode(raw, &a); err != nil {
		return nil, err
	}
	return nil, s.host.SetMainFile(ctx, a.Path)
}

func (s *Server) updateFileSource(ctx context.Context, raw json.RawMessage) (any, error) {
	var a fileArgs
	if err := decode(raw, &a); err != nil {
		return nil, err
	}
	return nil, s.host.UpdateFileSource(ctx, a.Path, a.Text)
}

func (s *Server) addFile(ctx context.Context, raw json.RawMessage) (any, error) {
	var a fileArgs
	if err := decode(raw, &a); err != nil {
		return nil, err
	}
	return nil, s.host.AddFile(ctx, a.Path, a.Text)
}

func (s *Server) compile(ctx context.Context, _ json.RawMessage) (any, error) {
	diags, err := s.host.Compile(ctx)
	var compErr *types.CompilationError
	switch {
	case errors.As(err, &compErr):
		diags = compErr.Diagnostics
	case err != nil:
		return nil, err
	}
	pages, perr := s.host.PageCount(ctx)
	if perr != nil {
		return nil, perr
	}
	if diags == nil {
		diags = []types.Diagnostic{}
	}
	return CompileResult{Success: err == nil, Pages: pages, Diagnostics: diags}, nil
}

func (s *Server) renderPages(ctx context.Context, _ json.RawMessage) (any, error) {
	return s.host.RenderAll(ctx)
}

func (s *Server) renderPage(ctx context.Context, raw json.RawMessage) (any, error) {
	var a struct {
		Page int `json:"page"`
	}
	if err := decode(raw, &a); err != nil {
		return nil, err
	}
	return s.host.RenderPage(ctx, a.Page)
}

func (s *Server) pagesLen(ctx context.Context, _ json.RawMessage) (any, error) {
	return s.host.PageCount(ctx)
}

func (s *Server) setScale(ctx context.Context, raw json.RawMessage) (any, error) {
	var a struct {
		Scale float64 `json:"scale"`
	}
	if err := decode(raw, &a); err != nil {
		return nil, err
	}
	return nil, s.host.SetScale(ctx, a.Scale)
}

func (s *Server) cursorPosition(ctx context.Context, raw json.RawMessage) (any, error) {
	var a cursorArgs
	if err := decode(raw, &a); err != nil {
		return nil, err
	}
	return s.host.CursorToPreview(ctx, a.Cursor, a.Text)
}

func (s *Server) click(ctx context.Context, raw json.RawMessage) (any, error) {
	var a clickArgs
	if err := decode(raw, &a); err != nil {
		return nil, err
	}
	return s.host.Click(ctx, a.Text, a.Page, a.X, a.Y)
}

func (s *Server) autocomplete(ctx context.Context, raw json.RawMessage) (any, error) {
	var a cursorArgs
	if err := decode(raw, &a); err != nil {
		return nil, err
	}
	return s.host.Autocomplete(ctx, a.Text, a.Cursor, a.Explicit)
}

func (s *Server) hover(ctx context.Context, raw json.RawMessage) (any, error) {
	var a cursorArgs
	if err := decode(raw, &a); err != nil {
		return nil, err
	}
	return s.host.Hover(ctx, a.Text, a.Cursor)
}

func (s *Server) export(ctx context.Context, raw json.RawMessage) (any, error) {
	var a exportArgs
	if err := decode(raw, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	opts := types.AllPages()
	if a.Options != nil {
		opts = *a.Options
	}
	files, err := s.host.Export(ctx, a.Path, a.Format, opts)
	if err != nil {
		return nil, err
	}
	return map[string]any{"files": files}, nil
}

func (s *Server) dependencies(ctx context.Context, _ json.RawMessage) (any, error) {
	deps, err := s.host.Dependencies(ctx)
	if err != nil {
		return nil, err
	}
	if deps == nil {
		deps = []string{}
	}
	return deps, nil
}
