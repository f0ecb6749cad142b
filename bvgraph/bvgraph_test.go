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
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/exp/slices"
)

// symbolBuffer records symbols and plays them back.
type symbolBuffer struct {
	syms   []Symbol
	starts []int
	pos    int
}

func (b *symbolBuffer) StartNode(node int) error {
	if node != len(b.starts) {
		return fmt.Errorf("started node %d after %d nodes", node, len(b.starts))
	}
	b.starts = append(b.starts, len(b.syms))
	return nil
}

func (b *symbolBuffer) WriteSymbol(c Component, v uint64) error {
	b.syms = append(b.syms, Symbol{c, v})
	return nil
}

func (b *symbolBuffer) ReadSymbol(c Component) (uint64, error) {
	if b.pos >= len(b.syms) {
		return 0, errors.New("out of symbols")
	}
	s := b.syms[b.pos]
	if s.Component != c {
		return 0, fmt.Errorf("read %s, have %s", c, s.Component)
	}
	b.pos++
	return s.Value, nil
}

// randomGraph generates a graph with the locality
// and similarity that references and intervals exploit.
func randomGraph(rng *rand.Rand, n int) *Adjacency {
	lists := make([][]int, n)
	for i := range lists {
		var l []int
		if i > 0 && rng.Intn(3) > 0 {
			// copy most of a nearby list
			src := lists[i-1-rng.Intn(minInt(i, 8))]
			for _, v := range src {
				if rng.Intn(5) > 0 {
					l = append(l, v)
				}
			}
		}
		switch rng.Intn(4) {
		case 0:
			start, length := rng.Intn(n), rng.Intn(12)
			for j := start; j < n && j < start+length; j++ {
				l = append(l, j)
			}
		case 1:
			for k := rng.Intn(6); k > 0; k-- {
				l = append(l, rng.Intn(n))
			}
		}
		slices.Sort(l)
		lists[i] = slices.Compact(l)
	}
	g, err := NewAdjacency(lists)
	if err != nil {
		panic(err)
	}
	return g
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func decodeAll(t *testing.T, p Params, n int, buf *symbolBuffer) [][]int {
	out := make([][]int, 0, n)
	d := &NodeDecoder{
		Params:   p,
		NumNodes: n,
		Lookup: func(node int) ([]int, error) {
			if node >= len(out) {
				return nil, fmt.Errorf("lookup of future node %d", node)
			}
			return out[node], nil
		},
	}
	for x := 0; x < n; x++ {
		if buf.pos != buf.starts[x] {
			t.Fatalf("node %d: at symbol %d, group starts at %d", x, buf.pos, buf.starts[x])
		}
		l, err := d.Decode(x, buf, nil)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, l)
	}
	if buf.pos != len(buf.syms) {
		t.Fatalf("%d symbols left over", len(buf.syms)-buf.pos)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	params := []Params{
		{Window: 7, MaxRefCount: 3, MinIntervalLength: 4, Segment: 1},
		{Window: 7, MaxRefCount: 3, MinIntervalLength: 4, Segment: 16},
		{Window: 0, MaxRefCount: 3, MinIntervalLength: 4, Segment: 8},
		{Window: 3, MaxRefCount: 0, MinIntervalLength: 0, Segment: 4},
		{Window: 20, MaxRefCount: 100, MinIntervalLength: 2, Segment: 32},
	}
	for _, p := range params {
		t.Run(fmt.Sprintf("%+v", p), func(t *testing.T) {
			g := randomGraph(rng, 500)
			c := &Compressor{Params: p}
			var buf symbolBuffer
			if err := c.Compress(g, &buf); err != nil {
				t.Fatal(err)
			}
			got := decodeAll(t, p, g.NumNodes(), &buf)
			for x := range got {
				if !slices.Equal(got[x], g.Successors(x)) {
					t.Fatalf("node %d: got %v, want %v", x, got[x], g.Successors(x))
				}
			}
		})
	}
}

// references extracts the reference of every node.
func references(t *testing.T, buf *symbolBuffer, n int) []int {
	refs := make([]int, n)
	for x := 0; x < n; x++ {
		end := len(buf.syms)
		if x+1 < n {
			end = buf.starts[x+1]
		}
		for _, s := range buf.syms[buf.starts[x]:end] {
			if s.Component == Reference {
				refs[x] = int(s.Value)
			}
		}
	}
	return refs
}

func TestReplayDepth(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	g := randomGraph(rng, 2000)
	for _, seg := range []int{1, 2, 7, 64} {
		for _, maxRef := range []int{0, 1, 3} {
			p := Params{Window: 7, MaxRefCount: maxRef, MinIntervalLength: 4, Segment: seg}
			var buf symbolBuffer
			if err := (&Compressor{Params: p}).Compress(g, &buf); err != nil {
				t.Fatal(err)
			}
			refs := references(t, &buf, g.NumNodes())
			chain := make([]int, len(refs))
			depth := make([]int, len(refs))
			used := 0
			for x, r := range refs {
				if x%seg != 0 {
					depth[x] = depth[x-1]
				}
				if r == 0 {
					continue
				}
				used++
				tgt := x - r
				chain[x] = chain[tgt] + 1
				if tgt < x-x%seg && depth[tgt]+1 > depth[x] {
					depth[x] = depth[tgt] + 1
				}
				if chain[x] > maxRef || depth[x] > maxRef {
					t.Fatalf("segment %d max %d: node %d has chain %d depth %d", seg, maxRef, x, chain[x], depth[x])
				}
			}
			if maxRef == 0 && used > 0 {
				t.Fatalf("%d references with max reference count 0", used)
			}
			if maxRef == 3 && used == 0 {
				t.Fatal("no references were used")
			}
		}
	}
}

func TestNoWindow(t *testing.T) {
	g := randomGraph(rand.New(rand.NewSource(3)), 100)
	var buf symbolBuffer
	if err := (&Compressor{Params: Params{MinIntervalLength: 4, Segment: 1}}).Compress(g, &buf); err != nil {
		t.Fatal(err)
	}
	for _, s := range buf.syms {
		switch s.Component {
		case Reference, BlockCount, BlockLength:
			t.Fatalf("unexpected %s symbol without a window", s.Component)
		}
	}
}

func TestCopyBlocks(t *testing.T) {
	testcases := []struct {
		succ, ref      []int
		blocks, extras []int
	}{
		{
			succ:   []int{1, 2, 3},
			ref:    []int{1, 2, 3},
			blocks: nil,
		},
		{
			succ:   []int{1, 3, 5},
			ref:    []int{1, 2, 3, 4},
			blocks: []int{1, 1, 1},
			extras: []int{5},
		},
		{
			succ:   []int{0, 7},
			ref:    []int{2, 3},
			blocks: []int{0},
			extras: []int{0, 7},
		},
		{
			succ:   []int{4, 5},
			ref:    []int{1, 4, 5},
			blocks: []int{0, 1},
		},
	}
	for i, tc := range testcases {
		blocks, extras := copyBlocks(tc.succ, tc.ref, nil, nil)
		if !slices.Equal(blocks, tc.blocks) || !slices.Equal(extras, tc.extras) {
			t.Errorf("case %d: got %v %v, want %v %v", i, blocks, extras, tc.blocks, tc.extras)
		}
	}
}

func TestCorrupt(t *testing.T) {
	p := Params{Window: 2, MaxRefCount: 3, MinIntervalLength: 2, Segment: 1}
	lists := [][]int{{1, 2}, {2}, {0, 1, 2}}
	testcases := []struct {
		name string
		x    int
		syms []Symbol
	}{
		{"outdegree", 0, []Symbol{{Outdegree, 10}}},
		{"reference-beyond-node", 0, []Symbol{{Outdegree, 1}, {Reference, 1}}},
		{"reference-beyond-window", 2, []Symbol{{Outdegree, 1}, {Reference, 3}}},
		{"block-overrun", 1, []Symbol{{Outdegree, 1}, {Reference, 1}, {BlockCount, 1}, {BlockLength, 5}}},
		{"too-many-copies", 1, []Symbol{{Outdegree, 1}, {Reference, 1}, {BlockCount, 0}}},
		{"residual-range", 0, []Symbol{{Outdegree, 1}, {Reference, 0}, {IntervalCount, 0}, {Residual, 40}}},
		{"interval-range", 0, []Symbol{{Outdegree, 2}, {Reference, 0}, {IntervalCount, 1}, {IntervalLeftExtreme, 4}, {IntervalLength, 0}}},
		{"duplicate", 2, []Symbol{{Outdegree, 2}, {Reference, 1}, {BlockCount, 0}, {IntervalCount, 0}, {Residual, 0}}},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			d := &NodeDecoder{
				Params:   p,
				NumNodes: len(lists),
				Lookup:   func(node int) ([]int, error) { return lists[node], nil },
			}
			_, err := d.Decode(tc.x, &symbolBuffer{syms: tc.syms}, nil)
			if !errors.Is(err, ErrCorrupt) {
				t.Fatalf("expected ErrCorrupt, got %v", err)
			}
		})
	}
}

func TestASCII(t *testing.T) {
	text := "4\n1 2\n\n0 3\n"
	g, err := ReadASCII(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if g.NumNodes() != 4 || g.NumArcs() != 4 {
		t.Fatalf("got %d nodes %d arcs", g.NumNodes(), g.NumArcs())
	}
	if len(g.Successors(3)) != 0 {
		t.Fatal("node 3 should have no successors")
	}
	var out bytes.Buffer
	if err := WriteASCII(&out, g); err != nil {
		t.Fatal(err)
	}
	if out.String() != text+"\n" {
		t.Fatalf("got %q", out.String())
	}

	for _, bad := range []string{"", "x\n", "2\n5\n", "2\n1 0\n", "1\n0\n0\n"} {
		if _, err := ReadASCII(strings.NewReader(bad)); err == nil {
			t.Errorf("%q: expected an error", bad)
		}
	}

	g2 := randomGraph(rand.New(rand.NewSource(4)), 300)
	for _, name := range []string{"g.txt", "g.txt.zst", "g.txt.s2"} {
		path := filepath.Join(t.TempDir(), name)
		if err := StoreASCII(path, g2); err != nil {
			t.Fatal(err)
		}
		g3, err := LoadASCII(path)
		if err != nil {
			t.Fatal(err)
		}
		for x := 0; x < g2.NumNodes(); x++ {
			if !slices.Equal(g2.Successors(x), g3.Successors(x)) {
				t.Fatalf("%s: node %d differs", name, x)
			}
		}
	}
}

func TestFromArcs(t *testing.T) {
	g, err := FromArcs(3, [][2]int{{2, 0}, {0, 2}, {0, 1}, {0, 2}})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(g.Successors(0), []int{1, 2}) || NumArcs(g) != 3 {
		t.Fatalf("unexpected graph %v", g.lists)
	}
	if _, err := FromArcs(2, [][2]int{{0, 5}}); err == nil {
		t.Fatal("expected an error")
	}
}
