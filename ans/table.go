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
	"encoding/binary"
	"fmt"
	"math"

	"github.com/SnellerInc/bvans/fold"
)

// costScale is the fixed-point scale of Table.Cost.
const costScale = 1 << 16

// Table is the immutable frequency table of one lane.
type Table struct {
	// Params are the fold parameters of the lane.
	Params fold.Params
	// FrameBits is log2 of the sum of Freqs.
	FrameBits uint8
	// Freqs holds the normalized frequency of
	// every quantile; unseen quantiles are zero.
	Freqs []uint32

	cum   []uint32
	bound []uint64 // renormalization bound; 0 means never
	slots []uint16 // quantile of every slot in the frame
	costs []uint32
}

// NewTable validates the table and builds
// the derived encoding and decoding tables.
func NewTable(params fold.Params, frameBits uint8, freqs []uint32) (*Table, error) {
	if !params.Valid() {
		return nil, fmt.Errorf("%w: fold parameters %v", ErrInvalidTable, params)
	}
	if frameBits > MaxFrameBits {
		return nil, fmt.Errorf("%w: frame of 2^%d", ErrInvalidTable, frameBits)
	}
	if len(freqs) == 0 || len(freqs) > int(params.MaxQuantile())+1 {
		return nil, fmt.Errorf("%w: %d quantiles", ErrInvalidTable, len(freqs))
	}
	t := &Table{
		Params:    params,
		FrameBits: frameBits,
		Freqs:     freqs,
		cum:       make([]uint32, len(freqs)),
		bound:     make([]uint64, len(freqs)),
		costs:     make([]uint32, len(freqs)),
	}
	frame := uint64(1) << frameBits
	sum := uint64(0)
	for q, f := range freqs {
		t.cum[q] = uint32(sum)
		sum += uint64(f)
		if sum > frame {
			return nil, fmt.Errorf("%w: frequencies exceed 2^%d", ErrInvalidTable, frameBits)
		}
		if f == 0 {
			continue
		}
		if uint64(f) < frame {
			t.bound[q] = uint64(f) << (64 - frameBits)
		}
		t.costs[q] = uint32(math.Round(-math.Log2(float64(f)/float64(frame)) * costScale))
	}
	if sum != frame {
		return nil, fmt.Errorf("%w: frequencies sum to %d, not 2^%d", ErrInvalidTable, sum, frameBits)
	}
	t.slots = make([]uint16, frame)
	for q, f := range freqs {
		c := t.cum[q]
		for i := uint32(0); i < f; i++ {
			t.slots[c+i] = uint16(q)
		}
	}
	return t, nil
}

// Quantiles returns the number of quantiles
// with a nonzero frequency.
func (t *Table) Quantiles() int {
	n := 0
	for _, f := range t.Freqs {
		if f != 0 {
			n++
		}
	}
	return n
}

// Cost returns the estimated cost of coding v,
// in 1/65536ths of a bit. Values that cannot be
// coded get a prohibitive cost.
func (t *Table) Cost(v uint64) uint64 {
	if v > fold.MaxRawSymbol {
		return math.MaxUint32 * costScale
	}
	q, folds, _ := t.Params.Fold(v)
	extra := uint64(folds) * uint64(t.Params.Radix) * costScale
	if int(q) >= len(t.Freqs) || t.Freqs[q] == 0 {
		return 64*costScale + extra
	}
	return uint64(t.costs[q]) + extra
}

// Model holds one table per lane. It is immutable
// once built and may be shared by any number of
// encoders and decoders.
type Model struct {
	Tables []*Table
}

// Lanes returns the number of lanes.
func (m *Model) Lanes() int { return len(m.Tables) }

// AppendBinary appends the serialized model to dst.
func (m *Model) AppendBinary(dst []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(m.Tables)))
	for _, t := range m.Tables {
		dst = binary.AppendUvarint(dst, uint64(t.Params.Fidelity))
		dst = binary.AppendUvarint(dst, uint64(t.Params.Radix))
		dst = binary.AppendUvarint(dst, uint64(t.FrameBits))
		n := len(t.Freqs)
		for n > 1 && t.Freqs[n-1] == 0 {
			n--
		}
		dst = binary.AppendUvarint(dst, uint64(n))
		for _, f := range t.Freqs[:n] {
			dst = binary.AppendUvarint(dst, uint64(f))
		}
	}
	return dst
}

// DecodeModel decodes a model serialized with
// AppendBinary and returns it along with the
// number of bytes consumed.
func DecodeModel(src []byte) (*Model, int, error) {
	s := stream{data: src}
	lanes, ec := s.fetchUvarint()
	if ec != ecOK {
		return nil, s.cursor, errs[ec]
	}
	if lanes == 0 || lanes > 255 {
		return nil, s.cursor, fmt.Errorf("%w: %d lanes", ErrInvalidTable, lanes)
	}
	m := &Model{Tables: make([]*Table, lanes)}
	for i := range m.Tables {
		var hdr [4]uint64
		for j := range hdr {
			hdr[j], ec = s.fetchUvarint()
			if ec != ecOK {
				return nil, s.cursor, fmt.Errorf("lane %d: %w", i, errs[ec])
			}
		}
		if hdr[0] > fold.MaxBits || hdr[1] > fold.MaxBits || hdr[2] > MaxFrameBits {
			return nil, s.cursor, fmt.Errorf("lane %d: %w: header %v", i, ErrInvalidTable, hdr)
		}
		params := fold.Params{Fidelity: uint8(hdr[0]), Radix: uint8(hdr[1])}
		if !params.Valid() || hdr[3] == 0 || hdr[3] > uint64(params.MaxQuantile())+1 {
			return nil, s.cursor, fmt.Errorf("lane %d: %w: header %v", i, ErrInvalidTable, hdr)
		}
		freqs := make([]uint32, hdr[3])
		for q := range freqs {
			f, ec := s.fetchUvarint()
			if ec != ecOK {
				return nil, s.cursor, fmt.Errorf("lane %d: %w", i, errs[ec])
			}
			if f > 1<<MaxFrameBits {
				return nil, s.cursor, fmt.Errorf("lane %d: %w: frequency %d", i, ErrInvalidTable, f)
			}
			freqs[q] = uint32(f)
		}
		t, err := NewTable(params, uint8(hdr[2]), freqs)
		if err != nil {
			return nil, s.cursor, fmt.Errorf("lane %d: %w", i, err)
		}
		m.Tables[i] = t
	}
	return m, s.cursor, nil
}
