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

// Package ints contains integer helpers shared
// by the graph and codec packages.
package ints

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

func Min[T constraints.Integer](x, y T) T {
	if x <= y {
		return x
	}
	return y
}

func Max[T constraints.Integer](x, y T) T {
	if x >= y {
		return x
	}
	return y
}

func Clamp[T constraints.Integer](x, lo, hi T) T {
	return Max(lo, Min(x, hi))
}

// AlignUp rounds v up to a multiple of alignment.
func AlignUp[T constraints.Integer](v, alignment T) T {
	return ((v + alignment - 1) / alignment) * alignment
}

func AlignDown[T constraints.Integer](v, alignment T) T {
	return (v / alignment) * alignment
}

// ChunkCount returns the number of chunks
// of chunkSize needed to cover n.
func ChunkCount[T constraints.Integer](n, chunkSize T) T {
	return (n + chunkSize - 1) / chunkSize
}

// Log2 returns floor(log2(v)); Log2(0) is -1.
func Log2(v uint64) int {
	return bits.Len64(v) - 1
}

// NextPow2 returns the smallest power of two
// that is greater than or equal to v.
func NextPow2(v uint64) uint64 {
	if v <= 1 {
		return 1
	}
	return 1 << bits.Len64(v-1)
}

// Int2Nat maps a signed integer onto the naturals
// by interleaving: 0, -1, 1, -2, 2 map to 0, 1, 2, 3, 4.
func Int2Nat(v int64) uint64 {
	if v >= 0 {
		return uint64(v) << 1
	}
	return (uint64(-v) << 1) - 1
}

// Nat2Int is the inverse of Int2Nat.
func Nat2Int(v uint64) int64 {
	if v&1 == 0 {
		return int64(v >> 1)
	}
	return -int64((v + 1) >> 1)
}
