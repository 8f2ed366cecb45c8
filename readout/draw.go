// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package readout

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/display"
)

// LargeFace returns the Go Regular TrueType font at size points, for
// displays larger than a few lines of 7x13 text.
func LargeFace(size float64) (font.Face, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

// Draw clears dst and writes one line per reading, using face or
// basicfont.Face7x13 if face is nil. Text is drawn in fg on bg.
func Draw(dst draw.Image, readings []Reading, face font.Face, fg, bg color.Color) {
	if face == nil {
		face = basicfont.Face7x13
	}
	b := dst.Bounds()
	draw.Draw(dst, b, &image.Uniform{bg}, image.Point{}, draw.Src)
	m := face.Metrics()
	lineHeight := m.Height.Ceil()
	y := b.Min.Y + m.Ascent.Ceil()
	drawer := font.Drawer{Dst: dst, Src: &image.Uniform{fg}, Face: face}
	for _, r := range readings {
		if y > b.Max.Y {
			return
		}
		drawer.Dot = fixed.P(b.Min.X, y)
		drawer.DrawString(r.Label())
		y += lineHeight
	}
}

// Show renders the readings on a periph display.
func Show(dev display.Drawer, readings []Reading, face font.Face) error {
	img := image.NewRGBA(dev.Bounds())
	Draw(img, readings, face, color.White, color.Black)
	return dev.Draw(dev.Bounds(), img, image.Point{})
}
