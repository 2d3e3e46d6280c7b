// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package ipc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/typhost/internal/textset"
	"github.com/petar-djukic/typhost/pkg/host"
)

type reply struct {
	ID     json.RawMessage `json:"id"`
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func newServer(t *testing.T, files map[string]string) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	h, err := host.New(host.Config{Root: root, Logger: zerolog.Nop()}, textset.New(zerolog.Nop()))
	require.NoError(t, err)
	return New(h, zerolog.Nop()), h.Root()
}

// serve runs the requests through Serve and returns one reply per line.
func serve(t *testing.T, s *Server, requests ...string) []reply {
	t.Helper()
	var out bytes.Buffer
	in := strings.Join(requests, "\n")
	require.NoError(t, s.Serve(context.Background(), strings.NewReader(in), &out))

	var replies []reply
	sc := bufio.NewScanner(&out)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<24)
	for sc.Scan() {
		var r reply
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r), sc.Text())
		replies = append(replies, r)
	}
	require.NoError(t, sc.Err())
	return replies
}

func TestServe_CompileAndQuery(t *testing.T) {
	s, root := newServer(t, map[string]string{"main.typ": "hello\nworld"})

	replies := serve(t, s,
		`{"id": 1, "cmd": "compile"}`,
		`{"id": 2, "cmd": "pages_len"}`,
		`{"id": 3, "cmd": "cursor_position", "args": {"text": "hello\nworld", "cursor": 8}}`,
		`{"id": 4, "cmd": "click", "args": {"text": "hello\nworld", "page": 0, "x": 69.2, "y": 70}}`,
		`{"id": 5, "cmd": "dependencies"}`,
	)
	require.Len(t, replies, 5)
	for i, r := range replies {
		assert.True(t, r.OK, "reply %d: %s", i, r.Error)
	}

	var compiled CompileResult
	require.NoError(t, json.Unmarshal(replies[0].Result, &compiled))
	assert.True(t, compiled.Success)
	assert.Equal(t, 1, compiled.Pages)
	assert.Empty(t, compiled.Diagnostics)
	assert.JSONEq(t, `1`, string(replies[0].ID))

	assert.JSONEq(t, `1`, string(replies[1].Result))
	var pos struct {
		Page int     `json:"page"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
	}
	require.NoError(t, json.Unmarshal(replies[2].Result, &pos))
	assert.Equal(t, 1, pos.Page)
	assert.InDelta(t, 69.2, pos.X, 1e-9)
	assert.InDelta(t, 70, pos.Y, 1e-9)

	var target struct {
		Kind   string `json:"kind"`
		Path   string `json:"path"`
		Offset int    `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(replies[3].Result, &target))
	assert.Equal(t, "file", target.Kind)
	assert.Equal(t, 8, target.Offset)
	assert.Equal(t, filepath.Join(root, "main.typ"), target.Path)

	var deps []string
	require.NoError(t, json.Unmarshal(replies[4].Result, &deps))
	assert.Equal(t, []string{filepath.Join(root, "main.typ")}, deps)
}

func TestServe_FailedCompileIsAResult(t *testing.T) {
	s, root := newServer(t, map[string]string{"main.typ": "fine"})

	replies := serve(t, s,
		`{"id": "a", "cmd": "compile"}`,
		`{"id": "b", "cmd": "update_file_source", "args": {"path": "main.typ", "text": "#oops()"}}`,
		`{"id": "c", "cmd": "compile"}`,
	)
	require.Len(t, replies, 3)
	require.True(t, replies[1].OK, replies[1].Error)
	require.True(t, replies[2].OK, replies[2].Error)

	var compiled CompileResult
	require.NoError(t, json.Unmarshal(replies[2].Result, &compiled))
	assert.False(t, compiled.Success)
	assert.Equal(t, 1, compiled.Pages, "the last good document is kept")
	require.Len(t, compiled.Diagnostics, 1)
	assert.Equal(t, "unknown function: oops", compiled.Diagnostics[0].Message)
	assert.Equal(t, filepath.Join(root, "main.typ"), compiled.Diagnostics[0].Path)
}

func TestServe_Errors(t *testing.T) {
	s, _ := newServer(t, map[string]string{"main.typ": "x"})

	tests := []struct {
		name    string
		request string
		wantErr string
	}{
		{name: "unknown command", request: `{"id": 1, "cmd": "shutdown_everything"}`, wantErr: `unknown command "shutdown_everything"`},
		{name: "malformed json", request: `{"id": 1, "cmd": `, wantErr: "malformed request"},
		{name: "bad arguments", request: `{"id": 1, "cmd": "set_scale", "args": {"scale": "big"}}`, wantErr: "invalid arguments"},
		{name: "render without document", request: `{"id": 1, "cmd": "render_page", "args": {"page": 0}}`, wantErr: "no compiled document"},
		{name: "export without path", request: `{"id": 1, "cmd": "export", "args": {"format": "pdf"}}`, wantErr: "path is required"},
		{name: "missing main file", request: `{"id": 1, "cmd": "set_main_file", "args": {"path": "nope.typ"}}`, wantErr: "file not found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			replies := serve(t, s, tc.request)
			require.Len(t, replies, 1)
			assert.False(t, replies[0].OK)
			assert.Contains(t, replies[0].Error, tc.wantErr)
		})
	}
}

func TestServe_SkipsBlankLines(t *testing.T) {
	s, _ := newServer(t, map[string]string{"main.typ": "x"})
	replies := serve(t, s, "", `{"cmd": "pages_len"}`, "   ", "")
	require.Len(t, replies, 1)
	assert.True(t, replies[0].OK)
	assert.JSONEq(t, `0`, string(replies[0].Result))
}

func TestServe_Export(t *testing.T) {
	s, _ := newServer(t, map[string]string{"main.typ": "a\n#pagebreak()\nb"})
	out := filepath.Join(t.TempDir(), "doc.svg")

	req, err := json.Marshal(map[string]any{
		"id":   7,
		"cmd":  "export",
		"args": map[string]any{"path": out, "format": "svg", "options": map[string]any{"startPage": 0, "endPage": -1, "merged": true}},
	})
	require.NoError(t, err)

	replies := serve(t, s, string(req))
	require.Len(t, replies, 1)
	require.True(t, replies[0].OK, replies[0].Error)
	assert.JSONEq(t, `{"files": [`+string(mustJSON(t, out))+`]}`, string(replies[0].Result))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `id="page-2"`)
}

func TestServe_AutocompleteAndOpenWorkspace(t *testing.T) {
	s, _ := newServer(t, map[string]string{"main.typ": "#li"})
	other := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(other, "main.typ"), []byte("other"), 0o644))

	open, err := json.Marshal(map[string]any{"cmd": "open_workspace", "args": map[string]any{"path": other}})
	require.NoError(t, err)

	replies := serve(t, s,
		`{"cmd": "autocomplete", "args": {"text": "#li", "cursor": 3}}`,
		string(open),
		`{"cmd": "entries"}`,
	)
	require.Len(t, replies, 3)
	for i, r := range replies {
		require.True(t, r.OK, "reply %d: %s", i, r.Error)
	}
	assert.Contains(t, string(replies[0].Result), `"label":"link"`)
	assert.Contains(t, string(replies[2].Result), `"name":"main.typ"`)
}

func TestCommands(t *testing.T) {
	s, _ := newServer(t, map[string]string{"main.typ": "x"})
	cmds := s.Commands()
	for _, want := range []string{
		"open_workspace", "set_main_file", "update_file_source", "add_file", "compile",
		"render_pages", "render_page", "pages_len", "set_scale", "cursor_position",
		"click", "autocomplete", "hover", "export", "dependencies",
	} {
		assert.Contains(t, cmds, want)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
