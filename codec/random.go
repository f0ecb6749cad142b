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
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/SnellerInc/bvans/ans"
	"github.com/SnellerInc/bvans/bvgraph"
)

// Graph is a graph opened for random access.
// Its methods are safe for concurrent use,
// except for Close.
type Graph struct {
	a            *artifact
	pointersFile *mapping
	statesFile   *mapping
	pointers     []byte
	states       []byte
}

// Info returns the header of the graph.
func (g *Graph) Info() *Info { return g.a.info }

func (g *Graph) NumNodes() int { return g.a.info.Nodes }

// Iter returns an iterator over every node.
func (g *Graph) Iter() *NodeIterator { return newIterator(g.a) }

// Close releases the artifacts.
func (g *Graph) Close() error {
	err := g.a.close()
	if err2 := g.pointersFile.close(); err == nil {
		err = err2
	}
	if err2 := g.statesFile.close(); err == nil {
		err = err2
	}
	return err
}

// Successors returns the successors of node k.
//
// The lookup resumes decoding at the last checkpoint
// at or before k and decodes forward to k. Lists
// referenced across a checkpoint are resolved the
// same way, at most MaxRefCount levels deep.
func (g *Graph) Successors(k int) ([]int, error) {
	if k < 0 || k >= g.a.info.Nodes {
		return nil, fmt.Errorf("%w: %d of %d", ErrNodeRange, k, g.a.info.Nodes)
	}
	l := &lookup{g: g, cache: make(map[int][]int)}
	return l.successors(k)
}

// Outdegree returns the number of successors of k.
func (g *Graph) Outdegree(k int) (int, error) {
	s, err := g.Successors(k)
	return len(s), err
}

// lookup resolves successor lists for one query.
type lookup struct {
	g     *Graph
	cache map[int][]int
	depth int
}

func (l *lookup) successors(k int) ([]int, error) {
	if s, ok := l.cache[k]; ok {
		return s, nil
	}
	in := l.g.a.info
	if l.depth > in.MaxRefCount {
		return nil, errconsistency(l.g.a.path, k, -1, "reference depth above %d", in.MaxRefCount)
	}
	l.depth++
	defer func() { l.depth-- }()

	cp := l.g.checkpoint(k / in.Stride)
	dec := l.g.a.decoder()
	if err := dec.Seek(int(cp.Offset), cp.States); err != nil {
		return nil, &ConsistencyError{Path: l.g.a.path, Node: cp.Node, Offset: cp.Offset, Err: err}
	}
	nd := bvgraph.NodeDecoder{
		Params:   in.params(),
		NumNodes: in.Nodes,
		Lookup:   l.successors,
	}
	var s []int
	for x := cp.Node; x <= k; x++ {
		var err error
		s, err = nd.Decode(x, laneReader{dec}, nil)
		if err != nil {
			var ce *ConsistencyError
			if errors.As(err, &ce) {
				return nil, err
			}
			return nil, &ConsistencyError{Path: l.g.a.path, Node: x, Offset: int64(dec.Offset()), Err: err}
		}
		l.cache[x] = s
	}
	return s, nil
}

// Verify checks the stream checksum, decodes every
// node and checks that every checkpoint matches the
// decoder position and lane states.
func (g *Graph) Verify() error {
	_, pointersPath, _ := Paths(g.a.base)
	return verify(g.a, func(x int, dec *ans.Decoder) error {
		cp := g.checkpoint(x / g.a.info.Stride)
		if cp.Offset != int64(dec.Offset()) {
			return errconsistency(pointersPath, x, cp.Offset, "decoder is at offset %d", dec.Offset())
		}
		if !slices.Equal(cp.States, dec.States(nil)) {
			return errconsistency(pointersPath, x, cp.Offset, "checkpoint states do not match the stream")
		}
		return nil
	})
}

func verify(a *artifact, check func(int, *ans.Decoder) error) error {
	if streamSum(a.stream) != a.info.streamSum {
		return errconsistency(a.path, -1, 0, "stream checksum mismatch")
	}
	it := newIterator(a)
	it.check = check
	arcs := int64(0)
	for it.Next() {
		arcs += int64(len(it.Successors()))
	}
	if err := it.Err(); err != nil {
		return err
	}
	if arcs != a.info.Arcs {
		return errconsistency(a.path, -1, 0, "decoded %d arcs, header says %d", arcs, a.info.Arcs)
	}
	return nil
}
