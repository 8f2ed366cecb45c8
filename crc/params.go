// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package crc

import (
	"errors"
	"fmt"
)

// Params describes a CRC standard.
//
// Poly is written without its implicit top bit, i.e. x^8 + x^5 + x^4 + 1 is
// 0x31. All numeric fields must fit in Width bits.
type Params struct {
	Width  uint
	Poly   uint64
	Init   uint64
	XorOut uint64
	RefIn  bool
	RefOut bool
	// Check is the published CRC of the ASCII string "123456789".
	Check uint64
	Name  string
}

// Presets. CRC8 is the standard used by the sensors in this repository.
var (
	CRC8      = Params{Width: 8, Poly: 0x31, Init: 0xff, Check: 0xf7, Name: "CRC-8"}
	CRC8Maxim = Params{Width: 8, Poly: 0x31, RefIn: true, RefOut: true, Check: 0xa1, Name: "CRC-8/MAXIM"}
	CRC8SMBus = Params{Width: 8, Poly: 0x07, Check: 0xf4, Name: "CRC-8/SMBUS"}
	CRCCCITT  = Params{Width: 16, Poly: 0x1021, Init: 0xffff, Check: 0x29b1, Name: "CRC-CCITT"}
	CRC16     = Params{Width: 16, Poly: 0x8005, RefIn: true, RefOut: true, Check: 0xbb3d, Name: "CRC-16"}
	CRC32     = Params{
		Width:  32,
		Poly:   0x04c11db7,
		Init:   0xffffffff,
		XorOut: 0xffffffff,
		RefIn:  true,
		RefOut: true,
		Check:  0xcbf43926,
		Name:   "CRC-32",
	}
	CRC64XZ = Params{
		Width:  64,
		Poly:   0x42f0e1eba9ea3693,
		Init:   0xffffffffffffffff,
		XorOut: 0xffffffffffffffff,
		RefIn:  true,
		RefOut: true,
		Check:  0x995dc9bbdf1939fa,
		Name:   "CRC-64/XZ",
	}
)

// Presets lists every predefined standard.
var Presets = []Params{CRC8, CRC8Maxim, CRC8SMBus, CRCCCITT, CRC16, CRC32, CRC64XZ}

var errWidth = errors.New("crc: width must be a non-zero multiple of 8 and at most 64")

// Validate returns an error if p cannot be used to compute a CRC.
func (p Params) Validate() error {
	if p.Width == 0 || p.Width > 64 || p.Width%8 != 0 {
		return errWidth
	}
	m := p.mask()
	if p.Poly&^m != 0 {
		return fmt.Errorf("crc: %s polynomial 0x%x wider than %d bits", p.name(), p.Poly, p.Width)
	}
	if p.Init&^m != 0 {
		return fmt.Errorf("crc: %s initial value 0x%x wider than %d bits", p.name(), p.Init, p.Width)
	}
	if p.XorOut&^m != 0 {
		return fmt.Errorf("crc: %s final xor 0x%x wider than %d bits", p.name(), p.XorOut, p.Width)
	}
	return nil
}

// Size returns the number of bytes of a checksum.
func (p Params) Size() int {
	return int(p.Width / 8)
}

func (p Params) String() string {
	return fmt.Sprintf("%s(width=%d poly=0x%0*x init=0x%0*x xorout=0x%0*x refin=%t refout=%t)",
		p.name(), p.Width, p.Size()*2, p.Poly, p.Size()*2, p.Init, p.Size()*2, p.XorOut, p.RefIn, p.RefOut)
}

func (p Params) name() string {
	if p.Name == "" {
		return "CRC"
	}
	return p.Name
}

func (p Params) mask() uint64 {
	return ^uint64(0) >> (64 - p.Width)
}

func (p Params) topBit() uint64 {
	return 1 << (p.Width - 1)
}
