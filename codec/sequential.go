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

package codec

import (
	"github.com/SnellerInc/bvans/ans"
	"github.com/SnellerInc/bvans/bvgraph"
	"github.com/SnellerInc/bvans/ints"
)

// SequentialGraph is a graph opened for
// sequential decoding.
type SequentialGraph struct {
	a *artifact
}

// Info returns the header of the graph.
func (g *SequentialGraph) Info() *Info { return g.a.info }

func (g *SequentialGraph) NumNodes() int { return g.a.info.Nodes }

// Iter returns an iterator over every node.
func (g *SequentialGraph) Iter() *NodeIterator { return newIterator(g.a) }

// Verify checks the stream checksum and
// decodes every node.
func (g *SequentialGraph) Verify() error { return verify(g.a, nil) }

// Close releases the artifact. The graph
// and its iterators must not be used afterwards.
func (g *SequentialGraph) Close() error { return g.a.close() }

// NodeIterator decodes nodes in order.
// It is not safe for concurrent use;
// every iterator has its own lane states.
type NodeIterator struct {
	a    *artifact
	dec  *ans.Decoder
	nd   bvgraph.NodeDecoder
	ring [][]int // the last min(Window, Nodes)+1 lists
	next int
	cur  []int
	err  error
	done bool

	// check, if set, is called before every
	// node at a checkpoint position
	check func(node int, dec *ans.Decoder) error
}

func newIterator(a *artifact) *NodeIterator {
	in := a.info
	it := &NodeIterator{
		a:    a,
		dec:  a.decoder(),
		ring: make([][]int, ints.Min(in.Window, in.Nodes)+1),
	}
	it.nd = bvgraph.NodeDecoder{
		Params:   in.params(),
		NumNodes: in.Nodes,
		Lookup:   it.lookup,
	}
	return it
}

func (it *NodeIterator) lookup(node int) ([]int, error) {
	return it.ring[node%len(it.ring)], nil
}

func (it *NodeIterator) fail(node int, err error) bool {
	it.err = &ConsistencyError{Path: it.a.path, Node: node, Offset: int64(it.dec.Offset()), Err: err}
	return false
}

// Next decodes the next node and returns
// whether there was one.
func (it *NodeIterator) Next() bool {
	if it.err != nil || it.done {
		return false
	}
	in := it.a.info
	x := it.next
	if x == in.Nodes {
		it.done = true
		return it.finish()
	}
	if x%in.BlockSize == 0 {
		if x > 0 && !it.dec.AtRest() {
			return it.fail(x, errNotAtRest)
		}
		if err := it.dec.LoadStates(); err != nil {
			return it.fail(x, err)
		}
	}
	if it.check != nil && x%in.Stride == 0 {
		if err := it.check(x, it.dec); err != nil {
			it.err = err
			return false
		}
	}
	slot := x % len(it.ring)
	l, err := it.nd.Decode(x, laneReader{it.dec}, it.ring[slot])
	it.ring[slot] = l
	if err != nil {
		return it.fail(x, err)
	}
	it.cur = l
	it.next++
	return true
}

// finish checks that the stream was consumed exactly.
func (it *NodeIterator) finish() bool {
	if it.a.info.Nodes > 0 && !it.dec.AtRest() {
		return it.fail(-1, errNotAtRest)
	}
	if n := it.dec.Remaining(); n != 0 {
		return it.fail(-1, errTrailing(n))
	}
	return false
}

// Node returns the current node.
func (it *NodeIterator) Node() int { return it.next - 1 }

// Successors returns the successors of the current
// node. The slice is only valid until the next
// call to Next.
func (it *NodeIterator) Successors() []int { return it.cur }

// Err returns the error that stopped the
// iteration, if any.
func (it *NodeIterator) Err() error { return it.err }
