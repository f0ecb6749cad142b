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

// Interval is a half-open interval [start, end)
// (start is always less than or equal to end)
type Interval struct {
	Start, End int
}

// Intervals represents a series of half-open
// intervals.
type Intervals []Interval

// Empty returns whether [in] is an empty
// interval.
func (in Interval) Empty() bool {
	return in.Start >= in.End
}

// Len returns the length of the interval.
func (in Interval) Len() int {
	if in.End <= in.Start {
		return 0
	}
	return in.End - in.Start
}

// Len returns the length of the intervals.
func (in Intervals) Len() int {
	n := 0
	for i := range in {
		n += in[i].Len()
	}
	return n
}

// AppendTo appends every integer in [in]
// to dst in order.
func (in Interval) AppendTo(dst []int) []int {
	for i := in.Start; i < in.End; i++ {
		dst = append(dst, i)
	}
	return dst
}

// Runs splits the strictly increasing list [vals]
// into the maximal runs of consecutive integers
// that are at least minLen long, and the residual
// values that are not part of such a run.
//
// A minLen of zero or less yields no runs.
// The returned slices are appended to ivals and rest.
func Runs(vals []int, minLen int, ivals Intervals, rest []int) (Intervals, []int) {
	if minLen <= 0 {
		return ivals, append(rest, vals...)
	}
	for i := 0; i < len(vals); {
		j := i + 1
		for j < len(vals) && vals[j] == vals[j-1]+1 {
			j++
		}
		if j-i >= minLen {
			ivals = append(ivals, Interval{vals[i], vals[j-1] + 1})
		} else {
			rest = append(rest, vals[i:j]...)
		}
		i = j
	}
	return ivals, rest
}
