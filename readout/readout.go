// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package readout formats validated sensor readings for small displays.
//
// The layout mimics a 5 cell segment LCD: values are right aligned,
// temperature and humidity are shown with two decimals.
package readout

import (
	"math"
	"strconv"
)

// Kind is the physical quantity of a Reading.
type Kind int

const (
	CO2 Kind = iota
	Temperature
	Humidity
)

// Unit returns the ASCII unit label of k.
func (k Kind) Unit() string {
	switch k {
	case CO2:
		return "ppm"
	case Temperature:
		return "C"
	case Humidity:
		return "%RH"
	default:
		return "?"
	}
}

func (k Kind) String() string {
	switch k {
	case CO2:
		return "CO2"
	case Temperature:
		return "Temperature"
	case Humidity:
		return "Humidity"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Reading is a value to display. Valid is false when the sensor data failed
// its checksum or could not be read.
type Reading struct {
	Kind  Kind
	Value float64
	Valid bool
}

// Cells is the number of digit positions of the display.
const Cells = 5

// Digits is a formatted value.
type Digits struct {
	Kind Kind
	// Cells holds right aligned characters, blank cells are ' '.
	Cells [Cells]byte
	// Point is the index of the cell followed by the decimal point, -1 if
	// there is none.
	Point int
}

var overflow = Digits{Cells: [Cells]byte{'-', '-', '-', '-', '-'}, Point: -1}

// Format lays out v for a display of Cells digits. Values that don't fit are
// shown as dashes.
func Format(k Kind, v float64) Digits {
	d := overflow
	d.Kind = k
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return d
	}
	var s string
	point := -1
	if k == CO2 {
		s = strconv.FormatInt(int64(math.Round(v)), 10)
	} else {
		// The decimal point is a segment between two cells; it doesn't
		// take a cell of its own.
		hundredths := int64(math.Round(v * 100))
		neg := hundredths < 0
		if neg {
			hundredths = -hundredths
		}
		s = strconv.FormatInt(hundredths, 10)
		for len(s) < 3 {
			s = "0" + s
		}
		if neg {
			s = "-" + s
		}
		point = Cells - 3
	}
	if len(s) > Cells {
		return d
	}
	d.Point = point
	for i := range d.Cells {
		d.Cells[i] = ' '
	}
	copy(d.Cells[Cells-len(s):], s)
	return d
}

// String returns the digits with the decimal point inserted.
func (d Digits) String() string {
	b := make([]byte, 0, Cells+1)
	for i, c := range d.Cells {
		b = append(b, c)
		if i == d.Point {
			b = append(b, '.')
		}
	}
	return string(b)
}

// Label returns the formatted value followed by its unit, or "Err" and the
// unit for an invalid reading.
func (r Reading) Label() string {
	if !r.Valid {
		return "  Err " + r.Kind.Unit()
	}
	return Format(r.Kind, r.Value).String() + " " + r.Kind.Unit()
}
