// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package readout

import (
	"image"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const panelMargin = 4

// Panel renders the readings as a framed image, one reading per line.
// Invalid readings are drawn in red.
func Panel(readings []Reading, face font.Face) image.Image {
	if face == nil {
		face = basicfont.Face7x13
	}
	m := face.Metrics()
	lineHeight := float64(m.Height.Ceil())
	width := 0
	for _, r := range readings {
		if w := font.MeasureString(face, r.Label()).Ceil(); w > width {
			width = w
		}
	}
	dc := gg.NewContext(width+4*panelMargin, int(lineHeight)*len(readings)+4*panelMargin)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 1)
	dc.SetLineWidth(1)
	dc.DrawRectangle(panelMargin/2, panelMargin/2, float64(dc.Width()-panelMargin), float64(dc.Height()-panelMargin))
	dc.Stroke()
	dc.SetFontFace(face)
	y := float64(2*panelMargin + m.Ascent.Ceil())
	for _, r := range readings {
		if r.Valid {
			dc.SetRGB(1, 1, 1)
		} else {
			dc.SetRGB(1, 0, 0)
		}
		dc.DrawString(r.Label(), 2*panelMargin, y)
		y += lineHeight
	}
	return dc.Image()
}

// Snapshot writes the Panel of readings to a PNG file.
func Snapshot(path string, readings []Reading, face font.Face) error {
	return gg.SavePNG(path, Panel(readings, face))
}
