// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package readout

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

var (
	validColor   = color.NRGBA{0, 200, 0, 255}
	invalidColor = color.NRGBA{220, 0, 0, 255}
)

// Terminal prints readings on a single, continuously rewritten console line.
// Each reading is prefixed by a green block when valid and a red one when
// it failed its checksum.
type Terminal struct {
	w       io.Writer
	palette ansi256.Palette
	buf     bytes.Buffer
}

// NewTerminal returns a Terminal writing to stdout. The palette can be nil.
func NewTerminal(palette *ansi256.Palette) *Terminal {
	return newTerminal(colorable.NewColorableStdout(), palette)
}

func newTerminal(w io.Writer, palette *ansi256.Palette) *Terminal {
	if palette == nil {
		palette = ansi256.Default
	}
	return &Terminal{w: w, palette: *palette}
}

// Write prints the readings.
func (t *Terminal) Write(readings []Reading) error {
	t.buf.Reset()
	_, _ = t.buf.WriteString("\r\033[0m")
	for _, r := range readings {
		c := validColor
		if !r.Valid {
			c = invalidColor
		}
		_, _ = io.WriteString(&t.buf, t.palette.Block(c))
		_, _ = fmt.Fprintf(&t.buf, "\033[0m %s  ", r.Label())
	}
	_, err := t.buf.WriteTo(t.w)
	return err
}

// Halt ends the status line and resets the terminal colors.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\n\033[0m"))
	return err
}

func (t *Terminal) String() string {
	return "Terminal"
}
