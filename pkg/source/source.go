// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package source holds decoded source files together with a line index.
//
// A Source is immutable. Replace produces a new Source and reuses the line
// index of the unchanged prefix and suffix, so small editor edits do not
// rescan the whole file.
package source

import (
	"sort"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/petar-djukic/typhost/pkg/types"
)

// Edit describes the byte range that changed between two versions of a
// source: Old[Start:OldEnd] was replaced by New[Start:NewEnd].
type Edit struct {
	Start  int
	OldEnd int
	NewEnd int
}

// Source is a decoded text file.
type Source struct {
	id    types.FileID
	text  string
	lines []int // Byte offsets of line starts; lines[0] == 0
	edit  *Edit
}

// New creates a source for the given identity.
func New(id types.FileID, text string) *Source {
	return &Source{id: id, text: text, lines: lineStarts(text, 0, []int{0})}
}

// Detached creates a source that does not belong to any file.
func Detached(text string) *Source {
	return New(types.ProjectFile("/detached.typ"), text)
}

// ID returns the identity of the file.
func (s *Source) ID() types.FileID { return s.id }

// Text returns the full text.
func (s *Source) Text() string { return s.text }

// Len returns the length of the text in bytes.
func (s *Source) Len() int { return len(s.text) }

// LineCount returns the number of lines. An empty text has one line.
func (s *Source) LineCount() int { return len(s.lines) }

// LastEdit returns the range changed by the Replace call that produced this
// source.
func (s *Source) LastEdit() (Edit, bool) {
	if s.edit == nil {
		return Edit{}, false
	}
	return *s.edit, true
}

// Replace returns a source with the same identity and the new text. When
// the text is unchanged the receiver itself is returned.
func (s *Source) Replace(text string) *Source {
	if text == s.text {
		return s
	}
	e := diffRange(s.text, text)

	k := sort.Search(len(s.lines), func(i int) bool { return s.lines[i] > e.Start })
	lines := make([]int, k, len(s.lines)+8)
	copy(lines, s.lines[:k])
	lines = lineStarts(text[:e.NewEnd], e.Start, lines)

	delta := e.NewEnd - e.OldEnd
	j := sort.Search(len(s.lines), func(i int) bool { return s.lines[i] > e.OldEnd })
	for _, l := range s.lines[j:] {
		lines = append(lines, l+delta)
	}
	return &Source{id: s.id, text: text, lines: lines, edit: &e}
}

// ByteToLine returns the 0-based line containing the byte offset.
func (s *Source) ByteToLine(offset int) (int, bool) {
	if offset < 0 || offset > len(s.text) {
		return 0, false
	}
	return sort.Search(len(s.lines), func(i int) bool { return s.lines[i] > offset }) - 1, true
}

// ByteToColumn returns the 0-based column of the byte offset, counted in
// characters from the start of its line. The offset must lie on a
// character boundary.
func (s *Source) ByteToColumn(offset int) (int, bool) {
	line, ok := s.ByteToLine(offset)
	if !ok || !s.isBoundary(offset) {
		return 0, false
	}
	return utf8.RuneCountInString(s.text[s.lines[line]:offset]), true
}

// LineToByte returns the byte offset at which the 0-based line starts.
func (s *Source) LineToByte(line int) (int, bool) {
	if line < 0 || line >= len(s.lines) {
		return 0, false
	}
	return s.lines[line], true
}

// LineColumnToByte is the inverse of ByteToLine and ByteToColumn.
func (s *Source) LineColumnToByte(line, column int) (int, bool) {
	start, ok := s.LineToByte(line)
	if !ok || column < 0 {
		return 0, false
	}
	end := len(s.text)
	if line+1 < len(s.lines) {
		end = s.lines[line+1]
	}
	n := 0
	for i := range s.text[start:end] {
		if n == column {
			return start + i, true
		}
		n++
	}
	if n == column {
		return end, true
	}
	return 0, false
}

// Line returns the text of the 0-based line without its line terminator.
func (s *Source) Line(line int) (string, bool) {
	start, ok := s.LineToByte(line)
	if !ok {
		return "", false
	}
	end := len(s.text)
	if line+1 < len(s.lines) {
		end = s.lines[line+1] - 1
		if end > start && s.text[end-1] == '\r' {
			end--
		}
	}
	return s.text[start:end], true
}

func (s *Source) isBoundary(offset int) bool {
	return offset == len(s.text) || utf8.RuneStart(s.text[offset])
}

// lineStarts appends the start of every line that begins after a newline
// in text[from:].
func lineStarts(text string, from int, lines []int) []int {
	for i := from; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, i+1)
		}
	}
	return lines
}

// diffRange finds the single changed region between old and new. The
// leading and trailing equalities reported by the diff are the common
// prefix and suffix; everything between them counts as changed.
func diffRange(old, new string) Edit {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(old, new, false)

	prefix, suffix := 0, 0
	if len(diffs) > 0 && diffs[0].Type == diffmatchpatch.DiffEqual {
		prefix = len(diffs[0].Text)
	}
	if n := len(diffs); n > 1 && diffs[n-1].Type == diffmatchpatch.DiffEqual {
		suffix = len(diffs[n-1].Text)
	}
	return Edit{Start: prefix, OldEnd: len(old) - suffix, NewEnd: len(new) - suffix}
}
