// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package textset

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/petar-djukic/typhost/pkg/engine"
)

var (
	inkColor  = image.NewUniform(color.Black)
	linkColor = image.NewUniform(color.RGBA{R: 0, G: 0, B: 0xee, A: 0xff})
)

// Rasterize draws a page at one pixel per point and resamples it to scale
// pixels per point.
func (e *Engine) Rasterize(page engine.Page, scale float64) image.Image {
	if scale <= 0 {
		scale = 1
	}
	f := frameOf(page.Frame)
	size := f.Size()
	base := image.NewRGBA(image.Rect(0, 0, int(math.Ceil(size.Width)), int(math.Ceil(size.Height))))
	draw.Draw(base, base.Bounds(), image.White, image.Point{}, draw.Src)

	d := &font.Drawer{Dst: base, Face: basicfont.Face7x13}
	for _, it := range f.Items {
		d.Src = inkColor
		if it.Link != nil {
			d.Src = linkColor
		}
		x := it.Pos.X
		y := int(math.Round(it.Pos.Y))
		for _, r := range it.Text {
			d.Dot = fixed.P(int(math.Round(x)), y)
			d.DrawString(string(r))
			x += CharWidth
		}
		if it.Heading || it.Link != nil {
			rule := image.Rect(int(it.Pos.X), y+2, int(math.Ceil(it.Pos.X+it.Width())), y+3)
			draw.Draw(base, rule, d.Src, image.Point{}, draw.Src)
		}
	}

	if scale == 1 {
		return base
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(math.Ceil(size.Width*scale)), int(math.Ceil(size.Height*scale))))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), base, base.Bounds(), draw.Src, nil)
	return dst
}
