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

package ints

import (
	"testing"

	"golang.org/x/exp/slices"
)

func TestAlign(t *testing.T) {
	testcases := []struct {
		v, align, up, down int
	}{
		{0, 4, 0, 0},
		{1, 4, 4, 0},
		{4, 4, 4, 4},
		{7, 2, 8, 6},
		{33, 32, 64, 32},
	}
	for _, tc := range testcases {
		if got := AlignUp(tc.v, tc.align); got != tc.up {
			t.Errorf("AlignUp(%d, %d) = %d, want %d", tc.v, tc.align, got, tc.up)
		}
		if got := AlignDown(tc.v, tc.align); got != tc.down {
			t.Errorf("AlignDown(%d, %d) = %d, want %d", tc.v, tc.align, got, tc.down)
		}
	}
	if got := ChunkCount(uint(10), 3); got != 4 {
		t.Errorf("ChunkCount(10, 3) = %d", got)
	}
	if got := Clamp(12, 0, 10); got != 10 {
		t.Errorf("Clamp = %d", got)
	}
}

func TestLog2(t *testing.T) {
	testcases := []struct {
		v    uint64
		log2 int
		pow2 uint64
	}{
		{0, -1, 1},
		{1, 0, 1},
		{2, 1, 2},
		{3, 1, 4},
		{1000, 9, 1024},
		{1 << 40, 40, 1 << 40},
	}
	for _, tc := range testcases {
		if got := Log2(tc.v); got != tc.log2 {
			t.Errorf("Log2(%d) = %d, want %d", tc.v, got, tc.log2)
		}
		if got := NextPow2(tc.v); got != tc.pow2 {
			t.Errorf("NextPow2(%d) = %d, want %d", tc.v, got, tc.pow2)
		}
	}
}

func TestInt2Nat(t *testing.T) {
	want := []uint64{4, 2, 0, 1, 3}
	for i, v := range []int64{2, 1, 0, -1, -2} {
		n := Int2Nat(v)
		if n != want[i] {
			t.Errorf("Int2Nat(%d) = %d, want %d", v, n, want[i])
		}
		if back := Nat2Int(n); back != v {
			t.Errorf("Nat2Int(%d) = %d, want %d", n, back, v)
		}
	}
}

func TestRuns(t *testing.T) {
	testcases := []struct {
		vals   []int
		minLen int
		ivals  Intervals
		rest   []int
	}{
		{
			vals:   []int{1, 2, 3, 4, 9, 11, 12, 13},
			minLen: 3,
			ivals:  Intervals{{1, 5}, {11, 14}},
			rest:   []int{9},
		},
		{
			vals:   []int{1, 2, 3, 4},
			minLen: 0,
			rest:   []int{1, 2, 3, 4},
		},
		{
			vals:   []int{0, 2, 4, 5},
			minLen: 2,
			ivals:  Intervals{{4, 6}},
			rest:   []int{0, 2},
		},
		{
			vals:   nil,
			minLen: 4,
		},
	}
	for i, tc := range testcases {
		ivals, rest := Runs(tc.vals, tc.minLen, nil, nil)
		if !slices.Equal(ivals, tc.ivals) {
			t.Errorf("case %d: intervals %v, want %v", i, ivals, tc.ivals)
		}
		if !slices.Equal(rest, tc.rest) {
			t.Errorf("case %d: rest %v, want %v", i, rest, tc.rest)
		}
		if ivals.Len()+len(rest) != len(tc.vals) {
			t.Errorf("case %d: lost values", i)
		}
	}
}
