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

// Package fold implements the reversible mapping
// of unbounded integers onto a small alphabet of
// quantiles plus a number of raw remainder bits.
//
// Values below the threshold 2^(fidelity+radix-1)
// are their own quantile. Larger values are shifted
// right by a multiple of the radix until only
// fidelity+radix-1 significant bits are left; the
// number of shifts (folds) is encoded in the quantile
// by adding folds*offset, so that the number of
// remainder bits can be recovered from the quantile
// alone.
package fold

import (
	"fmt"
	"math/bits"
)

// MaxRawSymbol is the largest value that can be folded.
const MaxRawSymbol = 1<<48 - 1

const (
	// MinBits and MaxBits bound fidelity+radix.
	MinBits = 4
	MaxBits = 11
)

// Default is used for lanes without any symbols.
var Default = Params{Fidelity: 2, Radix: 2}

// Params is a fold parameter pair.
type Params struct {
	Fidelity uint8
	Radix    uint8
}

func (p Params) String() string {
	return fmt.Sprintf("fidelity=%d radix=%d", p.Fidelity, p.Radix)
}

// Valid returns whether p is inside the
// supported parameter space.
func (p Params) Valid() bool {
	if p.Fidelity < 1 || p.Radix < 1 {
		return false
	}
	n := int(p.Fidelity) + int(p.Radix)
	return n >= MinBits && n <= MaxBits
}

// Threshold is the smallest value that is folded.
func (p Params) Threshold() uint64 {
	return 1 << (p.Fidelity + p.Radix - 1)
}

// Offset is the quantile distance between
// consecutive fold counts.
func (p Params) Offset() uint64 {
	return ((1 << p.Radix) - 1) << (p.Fidelity - 1)
}

// Fold maps x to its quantile, the number of
// folds applied and the folded-away low bits.
// The remainder has exactly folds*Radix bits.
func (p Params) Fold(x uint64) (q uint32, folds int, rem uint64) {
	if x < p.Threshold() {
		return uint32(x), 0, 0
	}
	folds = (bits.Len64(x) - int(p.Fidelity)) / int(p.Radix)
	shift := uint(folds) * uint(p.Radix)
	rem = x & (1<<shift - 1)
	q = uint32((x >> shift) + uint64(folds)*p.Offset())
	return q, folds, rem
}

// Folds returns the number of folds encoded in q.
func (p Params) Folds(q uint32) int {
	t := p.Threshold()
	if uint64(q) < t {
		return 0
	}
	return int((uint64(q)-t)/p.Offset()) + 1
}

// RemainderBits returns the number of raw bits
// that accompany quantile q.
func (p Params) RemainderBits(q uint32) int {
	return p.Folds(q) * int(p.Radix)
}

// Unfold is the inverse of Fold.
func (p Params) Unfold(q uint32, rem uint64) uint64 {
	folds := p.Folds(q)
	if folds == 0 {
		return uint64(q)
	}
	high := uint64(q) - uint64(folds)*p.Offset()
	return high<<(uint(folds)*uint(p.Radix)) | rem
}

// MaxQuantile returns the quantile of MaxRawSymbol,
// which bounds every quantile under p.
func (p Params) MaxQuantile() uint32 {
	q, _, _ := p.Fold(MaxRawSymbol)
	return q
}

// Candidates returns every valid parameter pair,
// ordered by fidelity+radix and then by fidelity.
func Candidates() []Params {
	var out []Params
	for n := MinBits; n <= MaxBits; n++ {
		for f := 1; f < n; f++ {
			out = append(out, Params{Fidelity: uint8(f), Radix: uint8(n - f)})
		}
	}
	return out
}
