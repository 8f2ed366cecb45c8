// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, the CRC8 calculation and word framing used by Sensirion sensors.
package common

import (
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/envcrc/crc"
)

// crc8Table is built on first use and shared read-only afterwards.
var crc8Table = sync.OnceValue(func() *crc.Table {
	return crc.MustNew(crc.CRC8)
})

// CRC8 calculates the 8-bit CRC of the byte slice parameter and returns the
// calculated value. CRC bytes are used in sensors from TI and Sensirion.
func CRC8(bytes []byte) byte {
	return byte(crc8Table().Checksum(bytes))
}

// ChecksumError is returned when a word read from a sensor does not match
// its CRC.
type ChecksumError struct {
	// Word is the index of the first 3 byte word that failed.
	Word     int
	Got      byte
	Expected byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("crc mismatch in word %d: received 0x%02x calculated 0x%02x", e.Word, e.Got, e.Expected)
}

// CheckWords verifies a sensor response made of 16 bit words, each followed
// by the CRC8 of its two bytes. It returns a *ChecksumError for the first
// word that doesn't match.
func CheckWords(b []byte) error {
	return CheckWordsTable(crc8Table(), b)
}

// CheckWordsTable is like CheckWords for sensors using another 8 bit CRC
// standard, e.g. the SHT2x family which starts from 0x00.
func CheckWordsTable(tab *crc.Table, b []byte) error {
	if tab.Params().Width != 8 {
		return fmt.Errorf("%s is not an 8 bit CRC", tab.Params().Name)
	}
	if len(b)%3 != 0 {
		return fmt.Errorf("response length %d is not a multiple of 3", len(b))
	}
	for ix := 0; ix < len(b); ix += 3 {
		if c := byte(tab.Checksum(b[ix : ix+2])); c != b[ix+2] {
			return &ChecksumError{Word: ix / 3, Got: b[ix+2], Expected: c}
		}
	}
	return nil
}

// Words verifies b with CheckWords and returns the decoded big endian
// words.
func Words(b []byte) ([]uint16, error) {
	if err := CheckWords(b); err != nil {
		return nil, err
	}
	words := make([]uint16, len(b)/3)
	for ix := range words {
		words[ix] = uint16(b[ix*3])<<8 | uint16(b[ix*3+1])
	}
	return words, nil
}

// MakeWords converts the word values into bytes with the CRC following each
// word.
func MakeWords(words ...uint16) []byte {
	bytes := make([]byte, len(words)*3)
	for ix, val := range words {
		bytes[ix*3] = byte(val >> 8)
		bytes[ix*3+1] = byte(val)
		bytes[ix*3+2] = CRC8(bytes[ix*3 : ix*3+2])
	}
	return bytes
}
