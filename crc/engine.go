// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package crc

import (
	"errors"
	"sync/atomic"
)

var errNoTable = errors.New("crc: Engine used before a standard was selected; use NewEngine")

// Engine holds the active CRC standard of a process and allows switching it
// at runtime.
//
// Use builds the new table completely before publishing it, so concurrent
// Checksum calls observe either the previous or the new standard.
type Engine struct {
	t atomic.Pointer[Table]
}

// NewEngine returns an Engine with p as the active standard.
func NewEngine(p Params) (*Engine, error) {
	t, err := New(p)
	if err != nil {
		return nil, err
	}
	e := &Engine{}
	e.t.Store(t)
	return e, nil
}

// Use makes p the active standard.
func (e *Engine) Use(p Params) error {
	t, err := New(p)
	if err != nil {
		return err
	}
	e.t.Store(t)
	return nil
}

// Table returns the table of the active standard.
//
// Results computed with the returned Table stay consistent even if Use is
// called concurrently.
func (e *Engine) Table() *Table {
	t := e.t.Load()
	if t == nil {
		panic(errNoTable)
	}
	return t
}

// Params returns the active standard.
func (e *Engine) Params() Params {
	return e.Table().Params()
}

// Checksum returns the CRC of msg using the active standard.
func (e *Engine) Checksum(msg []byte) uint64 {
	return e.Table().Checksum(msg)
}

// Verify returns true if the CRC of msg using the active standard is want.
func (e *Engine) Verify(msg []byte, want uint64) bool {
	return e.Table().Verify(msg, want)
}
