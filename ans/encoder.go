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

	"golang.org/x/exp/slices"

	"github.com/SnellerInc/bvans/fold"
)

const encoderInitialWords = 1 << 12

// Encoder codes symbols into lanes.
//
// Symbols must be presented in the reverse of
// the order in which they will be decoded.
// An Encoder is not safe for concurrent use,
// but any number of Encoders may share a Model.
type Encoder struct {
	model  *Model
	states []uint64
	buf    []uint32
}

// NewEncoder returns an encoder for m with
// every lane in the initial state.
func NewEncoder(m *Model) *Encoder {
	e := &Encoder{model: m}
	e.Reset()
	return e
}

// Reset discards the emitted words and returns
// every lane to the initial state.
func (e *Encoder) Reset() {
	e.states = slices.Grow(e.states[:0], e.model.Lanes())[:e.model.Lanes()]
	for i := range e.states {
		e.states[i] = InitialState
	}
	e.buf = slices.Grow(e.buf[:0], encoderInitialWords)
}

// Emitted returns the number of words
// emitted since the last Reset.
func (e *Encoder) Emitted() int { return len(e.buf) }

// States appends the current lane states to dst.
func (e *Encoder) States(dst []uint64) []uint64 {
	return append(dst, e.states...)
}

func (e *Encoder) emit(w uint64) {
	e.buf = append(e.buf, uint32(w))
}

// Put encodes v into the given lane.
func (e *Encoder) Put(lane int, v uint64) error {
	if v > fold.MaxRawSymbol {
		return ErrSymbolTooLarge
	}
	t := e.model.Tables[lane]
	q, folds, rem := t.Params.Fold(v)
	if int(q) >= len(t.Freqs) || t.Freqs[q] == 0 {
		return ErrUnknownSymbol
	}
	x := e.states[lane]

	// the remainder goes in first, low chunk first,
	// so that it comes out after the quantile with
	// the high chunk first
	r := uint(t.Params.Radix)
	mask := uint64(1)<<r - 1
	for i := 0; i < folds; i++ {
		if x >= 1<<(64-r) {
			e.emit(x)
			x >>= ansWordBits
		}
		x = x<<r | rem&mask
		rem >>= r
	}

	// renormalize
	if b := t.bound[q]; b != 0 && x >= b {
		e.emit(x)
		x >>= ansWordBits
	}
	// x = C(s,x)
	f := uint64(t.Freqs[q])
	x = ((x / f) << t.FrameBits) + (x % f) + uint64(t.cum[q])
	e.states[lane] = x
	return nil
}

// Finish flushes every lane state into the stream,
// appends the words in decoding order to dst as
// little-endian uint32s and resets the encoder.
//
// The stream begins with the final lane states,
// low word first, in lane order.
func (e *Encoder) Finish(dst []byte) []byte {
	for lane := len(e.states) - 1; lane >= 0; lane-- {
		e.emit(e.states[lane] >> ansWordBits)
		e.emit(e.states[lane])
	}
	dst = slices.Grow(dst, len(e.buf)*WordSize)
	for i := len(e.buf) - 1; i >= 0; i-- {
		dst = binary.LittleEndian.AppendUint32(dst, e.buf[i])
	}
	e.Reset()
	return dst
}

// FlushedWords returns the number of words
// Finish adds for the lane states of m.
func FlushedWords(m *Model) int { return 2 * m.Lanes() }
