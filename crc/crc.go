// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package crc

// Reflect returns v with its low n bits in reverse order. Bits of v at
// position n and above are discarded.
func Reflect(v uint64, n uint) uint64 {
	var r uint64
	for i := uint(0); i < n; i++ {
		if v&1 != 0 {
			r |= 1 << (n - 1 - i)
		}
		v >>= 1
	}
	return r
}

// Reference computes the CRC of msg one bit at a time.
//
// It is slow and is kept as the oracle the table driven Table.Checksum is
// verified against. It panics if p is invalid.
func Reference(p Params, msg []byte) uint64 {
	if err := p.Validate(); err != nil {
		panic(err)
	}
	r := p.Init
	for _, b := range msg {
		r ^= p.in(b) << (p.Width - 8)
		r = p.divide(r)
	}
	return p.out(r)
}

// divide runs 8 rounds of modulo-2 division of the register r by the
// polynomial.
func (p Params) divide(r uint64) uint64 {
	m := p.mask()
	top := p.topBit()
	for range 8 {
		if r&top != 0 {
			r = (r<<1 ^ p.Poly) & m
		} else {
			r = (r << 1) & m
		}
	}
	return r
}

func (p Params) in(b byte) uint64 {
	if p.RefIn {
		return Reflect(uint64(b), 8)
	}
	return uint64(b)
}

func (p Params) out(r uint64) uint64 {
	if p.RefOut {
		r = Reflect(r, p.Width)
	}
	return r ^ p.XorOut
}

// Table is the lookup table of a CRC standard. Entry b holds the remainder of
// b<<(Width-8) divided by the polynomial.
//
// A Table is immutable once returned by New and is safe for concurrent use.
type Table struct {
	p       Params
	entries [256]uint64
}

// New validates p and builds its lookup table.
func New(p Params) (*Table, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	t := &Table{p: p}
	for d := range t.entries {
		t.entries[d] = p.divide(uint64(d) << (p.Width - 8))
	}
	return t, nil
}

// MustNew is like New but panics on invalid parameters. Use it for the
// presets.
func MustNew(p Params) *Table {
	t, err := New(p)
	if err != nil {
		panic(err)
	}
	return t
}

// Params returns the standard the table was built for.
func (t *Table) Params() Params {
	return t.p
}

// Entry returns the remainder for the dividend b.
func (t *Table) Entry(b byte) uint64 {
	return t.entries[b]
}

// Checksum returns the CRC of msg. The result is identical to
// Reference(t.Params(), msg).
func (t *Table) Checksum(msg []byte) uint64 {
	return t.Finish(t.Update(t.p.Init, msg))
}

// Update feeds msg into the raw CRC register r and returns the new register.
// Start with Params().Init and call Finish on the last value returned.
func (t *Table) Update(r uint64, msg []byte) uint64 {
	shift := t.p.Width - 8
	m := t.p.mask()
	for _, b := range msg {
		idx := byte(t.p.in(b) ^ r>>shift)
		r = (t.entries[idx] ^ r<<8) & m
	}
	return r
}

// Finish applies the output reflection and the final XOR to the raw
// register r.
func (t *Table) Finish(r uint64) uint64 {
	return t.p.out(r)
}

// Verify returns true if the CRC of msg is want.
func (t *Table) Verify(msg []byte, want uint64) bool {
	return t.Checksum(msg) == want
}
