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

	"golang.org/x/exp/slices"
)

// Graph is a directed graph over the nodes
// 0 to NumNodes()-1.
type Graph interface {
	NumNodes() int
	// Successors returns the sorted, duplicate-free
	// successors of node. The caller must not
	// modify the returned slice.
	Successors(node int) []int
}

// Adjacency is an in-memory Graph.
type Adjacency struct {
	lists [][]int
	arcs  int64
}

// NewAdjacency validates lists and returns
// a graph with lists[i] as the successors of i.
func NewAdjacency(lists [][]int) (*Adjacency, error) {
	a := &Adjacency{lists: lists}
	for i, l := range lists {
		for j, v := range l {
			if v < 0 || v >= len(lists) {
				return nil, fmt.Errorf("node %d: successor %d out of range", i, v)
			}
			if j > 0 && v <= l[j-1] {
				return nil, fmt.Errorf("node %d: successors not strictly increasing at %d", i, v)
			}
		}
		a.arcs += int64(len(l))
	}
	return a, nil
}

// FromArcs builds a graph with n nodes from a list
// of (source, destination) pairs in any order.
// Duplicate arcs are dropped.
func FromArcs(n int, arcs [][2]int) (*Adjacency, error) {
	lists := make([][]int, n)
	for _, arc := range arcs {
		if arc[0] < 0 || arc[0] >= n {
			return nil, fmt.Errorf("arc %v: source out of range", arc)
		}
		lists[arc[0]] = append(lists[arc[0]], arc[1])
	}
	for i := range lists {
		slices.Sort(lists[i])
		lists[i] = slices.Compact(lists[i])
	}
	return NewAdjacency(lists)
}

func (a *Adjacency) NumNodes() int { return len(a.lists) }

// NumArcs returns the total number of successors.
func (a *Adjacency) NumArcs() int64 { return a.arcs }

func (a *Adjacency) Successors(node int) []int { return a.lists[node] }

// NumArcs counts the arcs of g.
func NumArcs(g Graph) int64 {
	if a, ok := g.(*Adjacency); ok {
		return a.arcs
	}
	n := int64(0)
	for i := 0; i < g.NumNodes(); i++ {
		n += int64(len(g.Successors(i)))
	}
	return n
}
