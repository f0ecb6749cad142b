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
	"fmt"

	"github.com/SnellerInc/bvans/ints"
)

const (
	DefaultWindow            = 7
	DefaultMaxRefCount       = 3
	DefaultMinIntervalLength = 4

	// MaxRefCountLimit bounds Params.MaxRefCount.
	MaxRefCountLimit = 254
)

// Params are the BV coding parameters.
// They must be identical for coding and decoding.
type Params struct {
	// Window is the number of preceding lists a
	// node may reference; zero disables references.
	Window int
	// MaxRefCount bounds reference chains and
	// the replay depth of random lookups.
	MaxRefCount int
	// MinIntervalLength is the shortest run of
	// consecutive successors coded as an interval;
	// zero disables intervals.
	MinIntervalLength int
	// Segment is the distance between decoding
	// entry points (the checkpoint stride).
	// References into an earlier segment count
	// towards the replay depth.
	Segment int
}

// Validate checks p for consistency.
func (p *Params) Validate() error {
	switch {
	case p.Window < 0:
		return fmt.Errorf("bvgraph: negative window %d", p.Window)
	case p.MaxRefCount < 0 || p.MaxRefCount > MaxRefCountLimit:
		return fmt.Errorf("bvgraph: max reference count %d outside [0, %d]", p.MaxRefCount, MaxRefCountLimit)
	case p.MinIntervalLength < 0:
		return fmt.Errorf("bvgraph: negative min interval length %d", p.MinIntervalLength)
	case p.Segment < 1:
		return fmt.Errorf("bvgraph: segment %d must be positive", p.Segment)
	}
	return nil
}

// SymbolWriter consumes the symbols of a graph in
// decoding order. StartNode is called before the
// symbols of every node.
type SymbolWriter interface {
	StartNode(node int) error
	WriteSymbol(c Component, v uint64) error
}

// Symbol is a component-tagged value.
type Symbol struct {
	Component Component
	Value     uint64
}

// Compressor derives BV symbols from a graph.
type Compressor struct {
	Params    Params
	Estimator Estimator

	// per-node reference chain length and
	// replay depth
	chain []uint8
	depth []uint8

	// scratch
	best, cur []Symbol
	blocks    []int
	extras    []int
	rest      []int
	ivals     ints.Intervals
}

// Compress writes the symbols of every node of g to w.
func (c *Compressor) Compress(g Graph, w SymbolWriter) error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	est := c.Estimator
	if est == nil {
		est = Log2Estimator{}
	}
	n := g.NumNodes()
	c.chain = make([]uint8, n)
	c.depth = make([]uint8, n)
	for x := 0; x < n; x++ {
		if err := w.StartNode(x); err != nil {
			return err
		}
		succ := g.Successors(x)
		r := c.choose(g, x, succ, est)
		for _, s := range c.best {
			if err := w.WriteSymbol(s.Component, s.Value); err != nil {
				return fmt.Errorf("node %d: %s: %w", x, s.Component, err)
			}
		}
		base := c.baseDepth(x)
		if r > 0 {
			t := x - r
			c.chain[x] = c.chain[t] + 1
			c.depth[x] = uint8(c.refDepth(x, t, base))
		} else {
			c.depth[x] = uint8(base)
		}
	}
	return nil
}

// baseDepth is the replay depth inherited from
// the previous node of the same segment.
func (c *Compressor) baseDepth(x int) int {
	if x%c.Params.Segment == 0 {
		return 0
	}
	return int(c.depth[x-1])
}

// refDepth is the replay depth of x when it
// references t.
func (c *Compressor) refDepth(x, t, base int) int {
	if t < x-x%c.Params.Segment {
		return ints.Max(base, int(c.depth[t])+1)
	}
	return base
}

// choose leaves the cheapest symbol group for x
// in c.best and returns its reference.
func (c *Compressor) choose(g Graph, x int, succ []int, est Estimator) int {
	c.best = c.symbols(c.best[:0], x, succ, nil, 0)
	if len(succ) == 0 || c.Params.Window == 0 {
		return 0
	}
	bestCost := cost(c.best, est)
	bestRef := 0
	maxRef := c.Params.MaxRefCount
	base := c.baseDepth(x)
	for r := 1; r <= c.Params.Window && r <= x; r++ {
		t := x - r
		if int(c.chain[t])+1 > maxRef || c.refDepth(x, t, base) > maxRef {
			continue
		}
		c.cur = c.symbols(c.cur[:0], x, succ, g.Successors(t), r)
		if k := cost(c.cur, est); k < bestCost {
			bestCost, bestRef = k, r
			c.best, c.cur = c.cur, c.best
		}
	}
	return bestRef
}

func cost(syms []Symbol, est Estimator) uint64 {
	k := uint64(0)
	for _, s := range syms {
		k += est.Cost(s.Component, s.Value)
	}
	return k
}

// symbols appends the symbol group of x coded
// against ref at distance r (r == 0 for none).
func (c *Compressor) symbols(dst []Symbol, x int, succ, ref []int, r int) []Symbol {
	dst = append(dst, Symbol{Outdegree, uint64(len(succ))})
	if len(succ) == 0 {
		return dst
	}
	if c.Params.Window > 0 {
		dst = append(dst, Symbol{Reference, uint64(r)})
	}
	extras := succ
	if r > 0 {
		c.blocks, c.extras = copyBlocks(succ, ref, c.blocks[:0], c.extras[:0])
		dst = append(dst, Symbol{BlockCount, uint64(len(c.blocks))})
		for i, b := range c.blocks {
			if i > 0 {
				b--
			}
			dst = append(dst, Symbol{BlockLength, uint64(b)})
		}
		extras = c.extras
	}
	if len(extras) == 0 {
		return dst
	}
	residuals := extras
	if m := c.Params.MinIntervalLength; m > 0 {
		c.ivals, c.rest = ints.Runs(extras, m, c.ivals[:0], c.rest[:0])
		dst = append(dst, Symbol{IntervalCount, uint64(len(c.ivals))})
		prev := 0
		for i, iv := range c.ivals {
			if i == 0 {
				dst = append(dst, Symbol{IntervalLeftExtreme, ints.Int2Nat(int64(iv.Start - x))})
			} else {
				dst = append(dst, Symbol{IntervalLeftExtreme, uint64(iv.Start - prev - 1)})
			}
			dst = append(dst, Symbol{IntervalLength, uint64(iv.Len() - m)})
			prev = iv.End
		}
		residuals = c.rest
	}
	for i, v := range residuals {
		if i == 0 {
			dst = append(dst, Symbol{Residual, ints.Int2Nat(int64(v - x))})
		} else {
			dst = append(dst, Symbol{Residual, uint64(v - residuals[i-1] - 1)})
		}
	}
	return dst
}

// copyBlocks describes succ relative to ref as
// alternating copy and skip runs over ref, starting
// with a copy run, and returns the run lengths and
// the successors that are not copied. The run after
// the last returned one is copied iff the number of
// runs is even.
func copyBlocks(succ, ref []int, blocks, extras []int) ([]int, []int) {
	j, k, cur := 0, 0, 0
	copying := true
	for j < len(succ) && k < len(ref) {
		if copying {
			switch {
			case succ[j] > ref[k]:
				blocks = append(blocks, cur)
				copying = false
				cur = 0
			case succ[j] < ref[k]:
				extras = append(extras, succ[j])
				j++
			default:
				j++
				k++
				cur++
			}
		} else {
			switch {
			case succ[j] < ref[k]:
				extras = append(extras, succ[j])
				j++
			case succ[j] > ref[k]:
				k++
				cur++
			default:
				blocks = append(blocks, cur)
				copying = true
				cur = 0
			}
		}
	}
	if copying && k < len(ref) {
		blocks = append(blocks, cur)
	}
	extras = append(extras, succ[j:]...)
	return blocks, extras
}
