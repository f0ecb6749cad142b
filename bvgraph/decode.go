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

package bvgraph

import (
	"errors"
	"fmt"

	"github.com/SnellerInc/bvans/ints"
)

// ErrCorrupt is returned for symbol groups that
// do not describe a valid successor list.
var ErrCorrupt = errors.New("bvgraph: corrupt symbol group")

// SymbolReader produces the symbols written
// by a SymbolWriter, in the same order.
type SymbolReader interface {
	ReadSymbol(c Component) (uint64, error)
}

// NodeDecoder rebuilds successor lists from
// symbol groups.
type NodeDecoder struct {
	Params   Params
	NumNodes int
	// Lookup returns the successors of a node
	// preceding the one being decoded.
	Lookup func(node int) ([]int, error)

	copied, ext, res, tail []int
}

func (d *NodeDecoder) read(r SymbolReader, x int, c Component) (uint64, error) {
	v, err := r.ReadSymbol(c)
	if err != nil {
		return 0, fmt.Errorf("node %d: %s: %w", x, c, err)
	}
	return v, nil
}

func corrupt(x int, f string, args ...interface{}) error {
	return fmt.Errorf("node %d: %w: %s", x, ErrCorrupt, fmt.Sprintf(f, args...))
}

// Decode reads the symbol group of node x from r
// and appends its successors to dst[:0].
func (d *NodeDecoder) Decode(x int, r SymbolReader, dst []int) ([]int, error) {
	dst = dst[:0]
	deg, err := d.read(r, x, Outdegree)
	if err != nil {
		return dst, err
	}
	if deg > uint64(d.NumNodes) {
		return dst, corrupt(x, "outdegree %d above node count %d", deg, d.NumNodes)
	}
	if deg == 0 {
		return dst, nil
	}
	ref := 0
	if d.Params.Window > 0 {
		v, err := d.read(r, x, Reference)
		if err != nil {
			return dst, err
		}
		if v > uint64(d.Params.Window) || v > uint64(x) {
			return dst, corrupt(x, "reference %d", v)
		}
		ref = int(v)
	}
	d.copied = d.copied[:0]
	if ref > 0 {
		list, err := d.Lookup(x - ref)
		if err != nil {
			return dst, err
		}
		if d.copied, err = d.copy(r, x, list); err != nil {
			return dst, err
		}
	}
	if uint64(len(d.copied)) > deg {
		return dst, corrupt(x, "%d copied successors for outdegree %d", len(d.copied), deg)
	}
	extra := int(deg) - len(d.copied)
	d.ext, d.res = d.ext[:0], d.res[:0]
	if extra > 0 {
		if m := d.Params.MinIntervalLength; m > 0 {
			if d.ext, err = d.intervals(r, x, extra, m); err != nil {
				return dst, err
			}
		}
		if d.res, err = d.residuals(r, x, extra-len(d.ext)); err != nil {
			return dst, err
		}
	}
	d.tail = merge(d.tail[:0], d.ext, d.res)
	dst = merge(dst, d.copied, d.tail)
	for i := 1; i < len(dst); i++ {
		if dst[i] <= dst[i-1] {
			return dst, corrupt(x, "duplicate successor %d", dst[i])
		}
	}
	return dst, nil
}

func (d *NodeDecoder) copy(r SymbolReader, x int, list []int) ([]int, error) {
	out := d.copied
	nb, err := d.read(r, x, BlockCount)
	if err != nil {
		return out, err
	}
	if nb > uint64(len(list))+1 {
		return out, corrupt(x, "%d blocks over %d references", nb, len(list))
	}
	k := 0
	for i := 0; i < int(nb); i++ {
		b, err := d.read(r, x, BlockLength)
		if err != nil {
			return out, err
		}
		if i > 0 {
			b++
		}
		if b > uint64(len(list)-k) {
			return out, corrupt(x, "block %d of length %d overruns reference list", i, b)
		}
		if i%2 == 0 {
			out = append(out, list[k:k+int(b)]...)
		}
		k += int(b)
	}
	if nb%2 == 0 {
		out = append(out, list[k:]...)
	}
	return out, nil
}

func (d *NodeDecoder) intervals(r SymbolReader, x, extra, minLen int) ([]int, error) {
	out := d.ext
	n, err := d.read(r, x, IntervalCount)
	if err != nil {
		return out, err
	}
	if n > uint64(extra/minLen) {
		return out, corrupt(x, "%d intervals for %d extra successors", n, extra)
	}
	prev := 0
	for i := 0; i < int(n); i++ {
		left, err := d.read(r, x, IntervalLeftExtreme)
		if err != nil {
			return out, err
		}
		length, err := d.read(r, x, IntervalLength)
		if err != nil {
			return out, err
		}
		var start int64
		if i == 0 {
			start = int64(x) + ints.Nat2Int(left)
		} else {
			start = int64(prev) + int64(left) + 1
		}
		end := start + int64(length) + int64(minLen)
		if start < 0 || end > int64(d.NumNodes) || int(end-start) > extra-len(out) {
			return out, corrupt(x, "interval [%d, %d)", start, end)
		}
		out = ints.Interval{Start: int(start), End: int(end)}.AppendTo(out)
		prev = int(end)
	}
	return out, nil
}

func (d *NodeDecoder) residuals(r SymbolReader, x, n int) ([]int, error) {
	out := d.res
	prev := int64(0)
	for i := 0; i < n; i++ {
		v, err := d.read(r, x, Residual)
		if err != nil {
			return out, err
		}
		var s int64
		if i == 0 {
			s = int64(x) + ints.Nat2Int(v)
		} else {
			s = prev + int64(v) + 1
		}
		if s < 0 || s >= int64(d.NumNodes) {
			return out, corrupt(x, "residual %d", s)
		}
		out = append(out, int(s))
		prev = s
	}
	return out, nil
}

// merge appends the union of the sorted
// lists a and b to dst.
func merge(dst, a, b []int) []int {
	for len(a) > 0 && len(b) > 0 {
		if a[0] <= b[0] {
			dst = append(dst, a[0])
			a = a[1:]
		} else {
			dst = append(dst, b[0])
			b = b[1:]
		}
	}
	dst = append(dst, a...)
	return append(dst, b...)
}
