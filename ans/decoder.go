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
	"fmt"
)

// Decoder decodes symbols from a word stream
// produced by Encoder.Finish.
//
// A Decoder is not safe for concurrent use;
// concurrent readers each use their own Decoder.
type Decoder struct {
	model  *Model
	src    stream
	states []uint64
}

// NewDecoder returns a decoder over src
// positioned at its first byte. The lane states
// must be set with LoadStates or Seek.
func NewDecoder(m *Model, src []byte) *Decoder {
	return &Decoder{
		model:  m,
		src:    stream{data: src},
		states: make([]uint64, m.Lanes()),
	}
}

// LoadStates reads the lane states flushed by
// Encoder.Finish at the current position.
func (d *Decoder) LoadStates() error {
	for i := range d.states {
		lo, ec := d.src.fetch32()
		if ec != ecOK {
			return errs[ec]
		}
		hi, ec := d.src.fetch32()
		if ec != ecOK {
			return errs[ec]
		}
		x := uint64(hi)<<ansWordBits | uint64(lo)
		if x < ansWordL {
			return fmt.Errorf("%w: lane %d state %#x", ErrCorruptState, i, x)
		}
		d.states[i] = x
	}
	return nil
}

// Seek repositions the decoder at the byte offset
// off with the given lane states.
func (d *Decoder) Seek(off int, states []uint64) error {
	if off < 0 || off > len(d.src.data) || off%WordSize != 0 {
		return fmt.Errorf("%w: offset %d", ErrOutOfData, off)
	}
	if len(states) != len(d.states) {
		return fmt.Errorf("%w: %d states for %d lanes", ErrCorruptState, len(states), len(d.states))
	}
	for i, x := range states {
		if x < ansWordL {
			return fmt.Errorf("%w: lane %d state %#x", ErrCorruptState, i, x)
		}
	}
	copy(d.states, states)
	d.src.cursor = off
	return nil
}

// Offset returns the current byte offset.
func (d *Decoder) Offset() int { return d.src.cursor }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return d.src.remaining() }

// States appends the current lane states to dst.
func (d *Decoder) States(dst []uint64) []uint64 {
	return append(dst, d.states...)
}

// AtRest returns whether every lane is back in
// the initial state, which is the case exactly
// when everything that was encoded since the last
// flush has been decoded.
func (d *Decoder) AtRest() bool {
	for _, x := range d.states {
		if x != InitialState {
			return false
		}
	}
	return true
}

func (d *Decoder) refill(x uint64) (uint64, errorCode) {
	if x >= ansWordL {
		return x, ecOK
	}
	w, ec := d.src.fetch32()
	if ec != ecOK {
		return x, ec
	}
	return x<<ansWordBits | uint64(w), ecOK
}

// Get decodes the next symbol of the given lane.
func (d *Decoder) Get(lane int) (uint64, error) {
	t := d.model.Tables[lane]
	x := d.states[lane]
	if x < ansWordL {
		return 0, ErrCorruptState
	}
	slot := x & (1<<t.FrameBits - 1)
	q := uint32(t.slots[slot])
	x = uint64(t.Freqs[q])*(x>>t.FrameBits) + slot - uint64(t.cum[q])
	x, ec := d.refill(x)
	if ec != ecOK {
		return 0, errs[ec]
	}

	var rem uint64
	r := uint(t.Params.Radix)
	mask := uint64(1)<<r - 1
	for i := t.Params.Folds(q); i > 0; i-- {
		rem = rem<<r | x&mask
		x >>= r
		x, ec = d.refill(x)
		if ec != ecOK {
			return 0, errs[ec]
		}
	}
	d.states[lane] = x
	return t.Params.Unfold(q, rem), nil
}
