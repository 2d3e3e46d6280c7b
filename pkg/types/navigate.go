// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import (
	"encoding/json"
	"fmt"
)

// Point is a location on a page in typographic points.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a page size in typographic points.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ClickKind discriminates ClickTarget.
type ClickKind int

const (
	ClickNone ClickKind = iota
	ClickFile
	ClickPosition
	ClickURL
)

func (k ClickKind) String() string {
	switch k {
	case ClickNone:
		return "none"
	case ClickFile:
		return "file"
	case ClickPosition:
		return "position"
	case ClickURL:
		return "url"
	default:
		return fmt.Sprintf("ClickKind(%d)", int(k))
	}
}

// MarshalJSON encodes the kind by name.
func (k ClickKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// ClickTarget is the result of a click on a rendered page. Only the fields
// belonging to Kind are meaningful.
type ClickTarget struct {
	Kind ClickKind `json:"kind"`

	// ClickFile
	ID     FileID `json:"id,omitempty"`
	Path   string `json:"path,omitempty"`
	Offset int    `json:"offset,omitempty"` // Character offset into the file

	// ClickPosition
	Page  int   `json:"page,omitempty"` // 1-based page number
	Point Point `json:"point"`

	// ClickURL
	URL string `json:"url,omitempty"`
}

// NoJump is the target of a click that leads nowhere.
var NoJump = ClickTarget{Kind: ClickNone}

// PreviewPosition is a location in the rendered preview: the engine's
// 1-based page number and a point scaled to pixels.
type PreviewPosition struct {
	Page int     `json:"page"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// RenderedImage is one rasterized page. PNG is empty when encoding failed.
type RenderedImage struct {
	PNG    []byte `json:"image"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Completion is one autocompletion candidate.
type Completion struct {
	Kind   string `json:"kind"`
	Label  string `json:"label"`
	Apply  string `json:"apply,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// CompletionResponse is the result of an autocomplete query. Offset is the
// character offset where the completed text starts.
type CompletionResponse struct {
	Offset      int          `json:"offset"`
	Completions []Completion `json:"completions"`
}

// TooltipKind says how a tooltip body should be displayed.
type TooltipKind int

const (
	TooltipText TooltipKind = iota
	TooltipCode
)

func (k TooltipKind) String() string {
	if k == TooltipCode {
		return "code"
	}
	return "text"
}

// MarshalJSON encodes the kind by name.
func (k TooltipKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Tooltip is the hover information at a cursor position.
type Tooltip struct {
	Kind TooltipKind `json:"kind"`
	Text string      `json:"text"`
}
