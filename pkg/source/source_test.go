// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/typhost/pkg/types"
)

func TestSource_LineIndex(t *testing.T) {
	s := New(types.ProjectFile("main.typ"), "ab\ncd\n\nef")
	assert.Equal(t, 4, s.LineCount())

	tests := []struct {
		offset int
		line   int
		column int
		ok     bool
	}{
		{offset: 0, line: 0, column: 0, ok: true},
		{offset: 2, line: 0, column: 2, ok: true},
		{offset: 3, line: 1, column: 0, ok: true},
		{offset: 6, line: 2, column: 0, ok: true},
		{offset: 9, line: 3, column: 2, ok: true},
		{offset: 10, ok: false},
		{offset: -1, ok: false},
	}
	for _, tt := range tests {
		line, ok := s.ByteToLine(tt.offset)
		assert.Equal(t, tt.ok, ok, "offset %d", tt.offset)
		if !tt.ok {
			continue
		}
		assert.Equal(t, tt.line, line, "offset %d", tt.offset)
		col, ok := s.ByteToColumn(tt.offset)
		require.True(t, ok)
		assert.Equal(t, tt.column, col, "offset %d", tt.offset)
	}
}

func TestSource_ColumnCountsCharacters(t *testing.T) {
	s := New(types.ProjectFile("main.typ"), "x\näöü!")
	col, ok := s.ByteToColumn(2 + 6)
	require.True(t, ok)
	assert.Equal(t, 3, col)

	_, ok = s.ByteToColumn(3) // Inside 'ä'
	assert.False(t, ok)

	b, ok := s.LineColumnToByte(1, 3)
	require.True(t, ok)
	assert.Equal(t, 8, b)
}

func TestSource_Line(t *testing.T) {
	s := New(types.ProjectFile("main.typ"), "first\r\nsecond\nlast")
	l, ok := s.Line(0)
	require.True(t, ok)
	assert.Equal(t, "first", l)
	l, ok = s.Line(2)
	require.True(t, ok)
	assert.Equal(t, "last", l)
	_, ok = s.Line(3)
	assert.False(t, ok)
}

func TestSource_ReplaceMatchesFreshIndex(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
	}{
		{name: "insert line", old: "a\nb\nc\n", new: "a\nb\nx\nc\n"},
		{name: "delete line", old: "a\nb\nc\n", new: "a\nc\n"},
		{name: "edit inside line", old: "hello world\nbye\n", new: "hello there world\nbye\n"},
		{name: "append", old: "a", new: "a\nb\nc"},
		{name: "clear", old: "a\nb", new: ""},
		{name: "from empty", old: "", new: "x\ny"},
		{name: "multibyte", old: "ä\nö\n", new: "ä\nüü\nö\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := types.ProjectFile("main.typ")
			got := New(id, tt.old).Replace(tt.new)
			want := New(id, tt.new)
			assert.Equal(t, want.lines, got.lines)
			assert.Equal(t, tt.new, got.Text())
			assert.Equal(t, id, got.ID())

			edit, ok := got.LastEdit()
			require.True(t, ok)
			assert.Equal(t, tt.old[:edit.Start], tt.new[:edit.Start])
			assert.Equal(t, tt.old[edit.OldEnd:], tt.new[edit.NewEnd:])
		})
	}
}

func TestSource_ReplaceUnchangedReturnsSame(t *testing.T) {
	s := New(types.ProjectFile("main.typ"), "same")
	assert.Same(t, s, s.Replace("same"))
	_, ok := s.LastEdit()
	assert.False(t, ok)
}
