// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package crc implements a parameterizable cyclic redundancy check.
//
// A CRC variant is fully described by a Params value: width, generator
// polynomial, initial register value, final XOR mask and the two reflection
// flags. Reference computes the checksum one bit at a time and is the
// ground truth. New builds a Table for a Params value; Table.Checksum
// computes the same result one byte at a time using the 256 precomputed
// remainders.
//
// The CRC8 preset is the one used by Sensirion and TI sensors (SHT2x, SHT4x,
// SGP30, SCD4x, HDC302x).
//
// # Reference
//
// http://www.sunshine2k.de/articles/coding/crc/understanding_crc.html
//
// https://reveng.sourceforge.io/crc-catalogue/all.htm
package crc
