// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package ans

import (
	"errors"
	"math/rand"
	"testing"

	"golang.org/x/exp/slices"

	"github.com/SnellerInc/bvans/fold"
)

type sym struct {
	lane int
	v    uint64
}

// genSymbols generates a skewed stream of
// symbols over the given number of lanes.
func genSymbols(rng *rand.Rand, lanes, n int) []sym {
	out := make([]sym, n)
	for i := range out {
		lane := rng.Intn(lanes)
		var v uint64
		switch lane % 4 {
		case 0:
			v = uint64(rng.Intn(4))
		case 1:
			v = uint64(rng.ExpFloat64() * 100)
		case 2:
			v = rng.Uint64() & fold.MaxRawSymbol >> uint(rng.Intn(48))
		case 3:
			v = 7
		}
		out[i] = sym{lane, v}
	}
	return out
}

func buildModel(t testing.TB, lanes int, syms []sym) *Model {
	st := NewStatistics(lanes)
	for _, s := range syms {
		if err := st.Push(s.lane, s.v); err != nil {
			t.Fatal(err)
		}
	}
	m, _, err := st.Build()
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func encode(t testing.TB, m *Model, syms []sym) []byte {
	enc := NewEncoder(m)
	for i := len(syms) - 1; i >= 0; i-- {
		if err := enc.Put(syms[i].lane, syms[i].v); err != nil {
			t.Fatalf("put %d (%v): %s", i, syms[i], err)
		}
	}
	return enc.Finish(nil)
}

func decodeAll(t testing.TB, m *Model, buf []byte, syms []sym) {
	dec := NewDecoder(m, buf)
	if err := dec.LoadStates(); err != nil {
		t.Fatal(err)
	}
	for i, s := range syms {
		v, err := dec.Get(s.lane)
		if err != nil {
			t.Fatalf("get %d: %s", i, err)
		}
		if v != s.v {
			t.Fatalf("symbol %d: got %d, want %d", i, v, s.v)
		}
	}
	if !dec.AtRest() {
		t.Fatalf("lanes not at rest: %x", dec.States(nil))
	}
	if dec.Remaining() != 0 {
		t.Fatalf("%d bytes left over", dec.Remaining())
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 1, 10, 1000, 50000} {
		syms := genSymbols(rng, 8, n)
		m := buildModel(t, 8, syms)
		buf := encode(t, m, syms)
		t.Logf("%d symbols -> %d bytes", n, len(buf))
		decodeAll(t, m, buf, syms)
	}
}

func TestDegenerateTables(t *testing.T) {
	testcases := []struct {
		name string
		syms []sym
	}{
		{"zero", []sym{{0, 0}, {0, 0}, {0, 0}}},
		{"single-large", []sym{{0, 1 << 40}, {0, 1 << 40}}},
		{"max", []sym{{0, fold.MaxRawSymbol}}},
		{"two-lanes-one-empty", []sym{{1, 3}, {1, 3}, {1, 9}}},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			m := buildModel(t, 2, tc.syms)
			for lane, tbl := range m.Tables {
				sum := uint64(0)
				for _, f := range tbl.Freqs {
					sum += uint64(f)
				}
				if sum != 1<<tbl.FrameBits {
					t.Fatalf("lane %d: frequencies sum to %d, frame 2^%d", lane, sum, tbl.FrameBits)
				}
			}
			decodeAll(t, m, encode(t, m, tc.syms), tc.syms)
		})
	}
}

func TestEmptyLane(t *testing.T) {
	m := buildModel(t, 3, []sym{{1, 5}})
	for _, lane := range []int{0, 2} {
		tbl := m.Tables[lane]
		if tbl.Params != fold.Default || tbl.FrameBits != 0 || !slices.Equal(tbl.Freqs, []uint32{1}) {
			t.Fatalf("lane %d: unexpected fallback table %v 2^%d %v", lane, tbl.Params, tbl.FrameBits, tbl.Freqs)
		}
	}
	// a lane with the identity table
	// never emits a word for quantile zero
	enc := NewEncoder(m)
	for i := 0; i < 100; i++ {
		if err := enc.Put(0, 0); err != nil {
			t.Fatal(err)
		}
	}
	if enc.Emitted() != 0 {
		t.Fatalf("emitted %d words", enc.Emitted())
	}
	if err := enc.Put(0, 1); !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
	if err := enc.Put(1, fold.MaxRawSymbol+1); !errors.Is(err, ErrSymbolTooLarge) {
		t.Fatalf("expected ErrSymbolTooLarge, got %v", err)
	}
}

func TestSeek(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	syms := genSymbols(rng, 4, 5000)
	m := buildModel(t, 4, syms)
	type snap struct {
		index   int
		emitted int
		states  []uint64
	}
	var snaps []snap
	enc := NewEncoder(m)
	for i := len(syms) - 1; i >= 0; i-- {
		if err := enc.Put(syms[i].lane, syms[i].v); err != nil {
			t.Fatal(err)
		}
		if i%333 == 0 {
			snaps = append(snaps, snap{i, enc.Emitted(), enc.States(nil)})
		}
	}
	buf := enc.Finish(nil)
	words := len(buf) / WordSize
	for _, s := range snaps {
		dec := NewDecoder(m, buf)
		if err := dec.Seek((words-s.emitted)*WordSize, s.states); err != nil {
			t.Fatal(err)
		}
		for i := s.index; i < len(syms); i++ {
			v, err := dec.Get(syms[i].lane)
			if err != nil {
				t.Fatalf("from %d: get %d: %s", s.index, i, err)
			}
			if v != syms[i].v {
				t.Fatalf("from %d: symbol %d: got %d, want %d", s.index, i, v, syms[i].v)
			}
		}
		if !dec.AtRest() || dec.Remaining() != 0 {
			t.Fatalf("from %d: decoder did not end at rest", s.index)
		}
	}
}

func TestSeekInvalid(t *testing.T) {
	m := buildModel(t, 1, []sym{{0, 1}, {0, 2}})
	dec := NewDecoder(m, make([]byte, 16))
	if err := dec.Seek(3, []uint64{InitialState}); err == nil {
		t.Fatal("unaligned offset accepted")
	}
	if err := dec.Seek(0, []uint64{5}); !errors.Is(err, ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState, got %v", err)
	}
	if err := dec.Seek(0, []uint64{InitialState, InitialState}); err == nil {
		t.Fatal("wrong lane count accepted")
	}
}

func TestTruncated(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	syms := genSymbols(rng, 2, 2000)
	m := buildModel(t, 2, syms)
	buf := encode(t, m, syms)
	dec := NewDecoder(m, buf[:len(buf)/2])
	if err := dec.LoadStates(); err != nil {
		t.Fatal(err)
	}
	var err error
	for _, s := range syms {
		if _, err = dec.Get(s.lane); err != nil {
			break
		}
	}
	if !errors.Is(err, ErrOutOfData) {
		t.Fatalf("expected ErrOutOfData, got %v", err)
	}
}

func TestBuildDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	syms := genSymbols(rng, 8, 20000)
	a := buildModel(t, 8, syms).AppendBinary(nil)
	b := buildModel(t, 8, syms).AppendBinary(nil)
	if !slices.Equal(a, b) {
		t.Fatal("models differ")
	}
}

func TestModelBinary(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	syms := genSymbols(rng, 8, 20000)
	m := buildModel(t, 8, syms)
	buf := m.AppendBinary(nil)
	buf = append(buf, 0xff)
	m2, n, err := DecodeModel(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(buf)-1 {
		t.Fatalf("consumed %d of %d bytes", n, len(buf)-1)
	}
	for i := range m.Tables {
		a, b := m.Tables[i], m2.Tables[i]
		if a.Params != b.Params || a.FrameBits != b.FrameBits {
			t.Fatalf("lane %d: header mismatch", i)
		}
		for q := range b.Freqs {
			if a.Freqs[q] != b.Freqs[q] {
				t.Fatalf("lane %d: quantile %d frequency mismatch", i, q)
			}
		}
	}
	// decoding with the decoded model works
	decodeAll(t, m2, encode(t, m, syms), syms)

	for _, cut := range []int{0, 1, len(buf) / 2, len(buf) - 2} {
		if _, _, err := DecodeModel(buf[:cut]); err == nil {
			t.Fatalf("model truncated to %d bytes decoded", cut)
		}
	}
}

func TestNewTableInvalid(t *testing.T) {
	testcases := []struct {
		params fold.Params
		bits   uint8
		freqs  []uint32
	}{
		{fold.Params{Fidelity: 0, Radix: 4}, 1, []uint32{1, 1}},
		{fold.Default, 17, []uint32{1 << 17}},
		{fold.Default, 2, []uint32{1, 1}},
		{fold.Default, 1, []uint32{1, 1, 1}},
		{fold.Default, 1, nil},
	}
	for i, tc := range testcases {
		if _, err := NewTable(tc.params, tc.bits, tc.freqs); !errors.Is(err, ErrInvalidTable) {
			t.Errorf("case %d: expected ErrInvalidTable, got %v", i, err)
		}
	}
}

func TestCost(t *testing.T) {
	tbl, err := NewTable(fold.Params{Fidelity: 2, Radix: 2}, 2, []uint32{2, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	if c := tbl.Cost(0); c != costScale {
		t.Fatalf("cost of 0 = %d", c)
	}
	if c := tbl.Cost(1); c != 2*costScale {
		t.Fatalf("cost of 1 = %d", c)
	}
	if tbl.Cost(100) <= tbl.Cost(1) {
		t.Fatal("unseen symbol should be expensive")
	}
}

func FuzzANSRoundtrip(f *testing.F) {
	f.Add([]byte("test message 123 test message 456"))
	f.Fuzz(func(t *testing.T, ref []byte) {
		var syms []sym
		for i := 0; i+1 < len(ref); i += 2 {
			syms = append(syms, sym{int(ref[i] % 3), uint64(ref[i+1]) << (ref[i] % 40)})
		}
		m := buildModel(t, 3, syms)
		decodeAll(t, m, encode(t, m, syms), syms)
	})
}
