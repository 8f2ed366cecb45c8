// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package crc

import (
	"hash/crc32"
	"hash/crc64"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sigurn/crc16"
	"github.com/sigurn/crc8"
)

var checkInput = []byte("123456789")

func TestReflect(t *testing.T) {
	var tests = []struct {
		v    uint64
		n    uint
		want uint64
	}{
		{v: 0x01, n: 8, want: 0x80},
		{v: 0x80, n: 8, want: 0x01},
		{v: 0x123, n: 8, want: 0xc4},
		{v: 0x03, n: 4, want: 0x0c},
		{v: 0xf0f, n: 4, want: 0x0f},
		{v: 0x01, n: 32, want: 0x80000000},
		{v: 0x1021, n: 16, want: 0x8408},
		{v: 0x04c11db7, n: 32, want: 0xedb88320},
		{v: 0x42f0e1eba9ea3693, n: 64, want: 0xc96c5795d7870f42},
		{v: 0xff, n: 0, want: 0},
	}
	for _, test := range tests {
		if got := Reflect(test.v, test.n); got != test.want {
			t.Errorf("Reflect(0x%x, %d)=0x%x expected 0x%x", test.v, test.n, got, test.want)
		}
	}
}

func TestReflectInvolution(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, n := range []uint{1, 4, 8, 16, 24, 32, 63, 64} {
		mask := ^uint64(0) >> (64 - n)
		for range 100 {
			v := rnd.Uint64()
			once := Reflect(v, n)
			if once&^mask != 0 {
				t.Fatalf("Reflect(0x%x, %d)=0x%x has bits above %d", v, n, once, n)
			}
			if twice := Reflect(once, n); twice != v&mask {
				t.Fatalf("Reflect(Reflect(0x%x, %d))=0x%x expected 0x%x", v, n, twice, v&mask)
			}
		}
	}
}

func TestCheckValues(t *testing.T) {
	for _, p := range Presets {
		if got := Reference(p, checkInput); got != p.Check {
			t.Errorf("Reference(%s)=0x%x expected 0x%x", p.Name, got, p.Check)
		}
		if got := MustNew(p).Checksum(checkInput); got != p.Check {
			t.Errorf("Checksum(%s)=0x%x expected 0x%x", p.Name, got, p.Check)
		}
	}
}

func TestEmpty(t *testing.T) {
	for _, p := range Presets {
		want := p.Init
		if p.RefOut {
			want = Reflect(want, p.Width)
		}
		want ^= p.XorOut
		if got := Reference(p, nil); got != want {
			t.Errorf("Reference(%s, nil)=0x%x expected 0x%x", p.Name, got, want)
		}
		if got := MustNew(p).Checksum([]byte{}); got != want {
			t.Errorf("Checksum(%s, {})=0x%x expected 0x%x", p.Name, got, want)
		}
	}
	if got := MustNew(CRC8).Checksum(nil); got != 0xff {
		t.Errorf("CRC8 of nothing is 0x%x expected 0xff", got)
	}
}

// The table and bitwise paths must agree for every length up to 256.
func TestChecksumMatchesReference(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	buf := make([]byte, 256)
	for _, p := range Presets {
		tab := MustNew(p)
		for l := 0; l <= len(buf); l++ {
			rnd.Read(buf[:l])
			want := Reference(p, buf[:l])
			if got := tab.Checksum(buf[:l]); got != want {
				t.Fatalf("%s len=%d Checksum=0x%x Reference=0x%x", p.Name, l, got, want)
			}
		}
	}
}

func TestCustomParams(t *testing.T) {
	// Non-preset combinations, including a 24 bit width and xorout with
	// reflection only on one side.
	params := []Params{
		{Width: 8, Poly: 0x1d, Init: 0xff, XorOut: 0xff, Name: "CRC-8/SAE-J1850"},
		{Width: 16, Poly: 0x1021, RefIn: true, Name: "refin-only"},
		{Width: 16, Poly: 0x1021, Init: 0x1d0f, RefOut: true, XorOut: 0xffff, Name: "refout-only"},
		{Width: 24, Poly: 0x864cfb, Init: 0xb704ce, Name: "CRC-24/OPENPGP"},
	}
	rnd := rand.New(rand.NewSource(7))
	buf := make([]byte, 64)
	for _, p := range params {
		tab, err := New(p)
		if err != nil {
			t.Fatal(err)
		}
		for range 50 {
			l := rnd.Intn(len(buf) + 1)
			rnd.Read(buf[:l])
			if got, want := tab.Checksum(buf[:l]), Reference(p, buf[:l]); got != want {
				t.Fatalf("%s Checksum(%x)=0x%x Reference=0x%x", p.Name, buf[:l], got, want)
			}
		}
	}
	if got := Reference(params[0], checkInput); got != 0x4b {
		t.Errorf("CRC-8/SAE-J1850 check=0x%x expected 0x4b", got)
	}
	if got := Reference(params[3], checkInput); got != 0x21cf02 {
		t.Errorf("CRC-24/OPENPGP check=0x%x expected 0x21cf02", got)
	}
}

func TestTableEntries(t *testing.T) {
	for _, p := range Presets {
		tab := MustNew(p)
		raw := Params{Width: p.Width, Poly: p.Poly}
		for b := range 256 {
			want := Reference(raw, []byte{byte(b)})
			if got := tab.Entry(byte(b)); got != want {
				t.Fatalf("%s entry[0x%02x]=0x%x expected 0x%x", p.Name, b, got, want)
			}
		}
	}
	tab := MustNew(CRC8)
	if tab.Entry(0) != 0 || tab.Entry(1) != 0x31 {
		t.Errorf("CRC8 entry[0]=0x%x entry[1]=0x%x", tab.Entry(0), tab.Entry(1))
	}
}

func TestTableDeterministic(t *testing.T) {
	a := MustNew(CRC32)
	b := MustNew(CRC32)
	if diff := cmp.Diff(a, b, cmp.AllowUnexported(Table{})); diff != "" {
		t.Errorf("tables differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(a.Params(), CRC32); diff != "" {
		t.Errorf("Params() mismatch (-got +want):\n%s", diff)
	}
}

func TestUpdateFinish(t *testing.T) {
	msg := []byte("The quick brown fox jumps over the lazy dog")
	for _, p := range Presets {
		tab := MustNew(p)
		r := p.Init
		for i := 0; i < len(msg); i += 5 {
			r = tab.Update(r, msg[i:min(i+5, len(msg))])
		}
		if got, want := tab.Finish(r), tab.Checksum(msg); got != want {
			t.Errorf("%s incremental=0x%x one shot=0x%x", p.Name, got, want)
		}
	}
}

func TestVerify(t *testing.T) {
	tab := MustNew(CRC8)
	var tests = []struct {
		bytes []byte
		crc   uint64
		ok    bool
	}{
		{bytes: []byte{0xbe, 0xef}, crc: 0x92, ok: true},
		{bytes: []byte{0x01, 0xa4}, crc: 0x4d, ok: true},
		{bytes: []byte{0xab, 0xcd}, crc: 0x6f, ok: true},
		{bytes: []byte{0xd4, 0x00}, crc: 0xc6, ok: true},
		{bytes: []byte{0xbe, 0xef}, crc: 0x93, ok: false},
		{bytes: []byte{0xbf, 0xef}, crc: 0x92, ok: false},
	}
	for _, test := range tests {
		if got := tab.Verify(test.bytes, test.crc); got != test.ok {
			t.Errorf("Verify(%#v, 0x%x)=%t expected %t", test.bytes, test.crc, got, test.ok)
		}
	}
}

// Any single bit error must change a CRC-8 checksum.
func TestSingleBitSensitivity(t *testing.T) {
	const trials = 2000
	rnd := rand.New(rand.NewSource(3))
	tab := MustNew(CRC8)
	detected := 0
	for range trials {
		msg := make([]byte, 1+rnd.Intn(32))
		rnd.Read(msg)
		want := tab.Checksum(msg)
		bit := rnd.Intn(len(msg) * 8)
		msg[bit/8] ^= 1 << (bit % 8)
		if tab.Checksum(msg) != want {
			detected++
		}
	}
	if detected*100 < trials*99 {
		t.Errorf("detected %d of %d single bit errors", detected, trials)
	}
}

func TestAgainstSigurn(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	buf := make([]byte, 100)
	for _, p := range []Params{CRC8, CRC8Maxim, CRC8SMBus} {
		ref := crc8.MakeTable(crc8.Params{
			Poly: uint8(p.Poly), Init: uint8(p.Init), XorOut: uint8(p.XorOut),
			RefIn: p.RefIn, RefOut: p.RefOut, Check: uint8(p.Check), Name: p.Name,
		})
		tab := MustNew(p)
		for range 20 {
			rnd.Read(buf)
			if got, want := tab.Checksum(buf), uint64(crc8.Checksum(buf, ref)); got != want {
				t.Fatalf("%s 0x%x != sigurn 0x%x", p.Name, got, want)
			}
		}
	}
	for _, p := range []Params{CRCCCITT, CRC16} {
		ref := crc16.MakeTable(crc16.Params{
			Poly: uint16(p.Poly), Init: uint16(p.Init), XorOut: uint16(p.XorOut),
			RefIn: p.RefIn, RefOut: p.RefOut, Check: uint16(p.Check), Name: p.Name,
		})
		tab := MustNew(p)
		for range 20 {
			rnd.Read(buf)
			if got, want := tab.Checksum(buf), uint64(crc16.Checksum(buf, ref)); got != want {
				t.Fatalf("%s 0x%x != sigurn 0x%x", p.Name, got, want)
			}
		}
	}
}

func TestAgainstStdlib(t *testing.T) {
	rnd := rand.New(rand.NewSource(13))
	buf := make([]byte, 300)
	t32 := MustNew(CRC32)
	t64 := MustNew(CRC64XZ)
	ecma := crc64.MakeTable(crc64.ECMA)
	for range 20 {
		rnd.Read(buf)
		if got, want := t32.Checksum(buf), uint64(crc32.ChecksumIEEE(buf)); got != want {
			t.Fatalf("CRC-32 0x%x != hash/crc32 0x%x", got, want)
		}
		if got, want := t64.Checksum(buf), crc64.Checksum(buf, ecma); got != want {
			t.Fatalf("CRC-64/XZ 0x%x != hash/crc64 0x%x", got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	var tests = []struct {
		p  Params
		ok bool
	}{
		{p: CRC8, ok: true},
		{p: CRC64XZ, ok: true},
		{p: Params{Width: 0, Poly: 1}},
		{p: Params{Width: 12, Poly: 0x80f}},
		{p: Params{Width: 72, Poly: 1}},
		{p: Params{Width: 8, Poly: 0x131}},
		{p: Params{Width: 8, Poly: 0x31, Init: 0x100}},
		{p: Params{Width: 16, Poly: 0x1021, XorOut: 0x10000}},
	}
	for _, test := range tests {
		err := test.p.Validate()
		if (err == nil) != test.ok {
			t.Errorf("Validate(%s) returned %v", test.p, err)
		}
		if _, err := New(test.p); (err == nil) != test.ok {
			t.Errorf("New(%s) returned %v", test.p, err)
		}
	}
}

func TestReferencePanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Reference with width 12 did not panic")
		}
	}()
	Reference(Params{Width: 12, Poly: 0x80f}, checkInput)
}

func TestParity(t *testing.T) {
	var tests = []struct {
		b   byte
		odd bool
	}{
		{b: 0x01, odd: true},
		{b: 0x80, odd: true},
		{b: 0x07, odd: true},
		{b: 0xfe, odd: true},
		{b: 0x00, odd: false},
		{b: 0x03, odd: false},
		{b: 0xff, odd: false},
		{b: 0xa5, odd: false},
	}
	for _, test := range tests {
		if got := OddParity(test.b); got != test.odd {
			t.Errorf("OddParity(0x%02x)=%t expected %t", test.b, got, test.odd)
		}
	}
	for b := range 256 {
		n := 0
		for v := b; v != 0; v >>= 1 {
			n += v & 1
		}
		if OddParity(byte(b)) != (n%2 == 1) {
			t.Fatalf("OddParity(0x%02x) wrong for %d bits set", b, n)
		}
	}
}

func BenchmarkReference(b *testing.B) {
	buf := make([]byte, 1024)
	b.SetBytes(int64(len(buf)))
	for range b.N {
		Reference(CRC32, buf)
	}
}

func BenchmarkChecksum(b *testing.B) {
	buf := make([]byte, 1024)
	tab := MustNew(CRC32)
	b.SetBytes(int64(len(buf)))
	for range b.N {
		tab.Checksum(buf)
	}
}
