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

package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/SnellerInc/bvans/bvgraph"
	"github.com/SnellerInc/bvans/codec"
)

var errClosed = errors.New("closed pipe")

// failWriter accepts n writes and then fails.
type failWriter struct {
	n, calls int
}

func (f *failWriter) Write(p []byte) (int, error) {
	f.calls++
	if f.calls > f.n {
		return 0, errClosed
	}
	return len(p), nil
}

func testGraph(t *testing.T) (*bvgraph.Adjacency, string) {
	lists := make([][]int, 50)
	for i := range lists {
		for j := i % 5; j < len(lists); j += 7 {
			lists[i] = append(lists[i], j)
		}
	}
	g, err := bvgraph.NewAdjacency(lists)
	if err != nil {
		t.Fatal(err)
	}
	base := filepath.Join(t.TempDir(), "graph")
	if err := codec.Store(g, base, nil); err != nil {
		t.Fatal(err)
	}
	return g, base
}

func TestWriteAll(t *testing.T) {
	g, base := testGraph(t)
	sg, err := codec.LoadSequential(base)
	if err != nil {
		t.Fatal(err)
	}
	defer sg.Close()
	var got, want bytes.Buffer
	if err := writeAll(&got, sg); err != nil {
		t.Fatal(err)
	}
	if err := bvgraph.WriteASCII(&want, g); err != nil {
		t.Fatal(err)
	}
	if got.String() != want.String() {
		t.Fatalf("got %q, expected %q", got.String(), want.String())
	}
}

func TestWriteStopsOnError(t *testing.T) {
	_, base := testGraph(t)
	sg, err := codec.LoadSequential(base)
	if err != nil {
		t.Fatal(err)
	}
	defer sg.Close()
	fw := &failWriter{n: 3}
	if err := writeAll(fw, sg); !errors.Is(err, errClosed) {
		t.Fatalf("writeAll: got %v", err)
	}
	if fw.calls != 4 {
		t.Fatalf("%d writes after the first failure", fw.calls-4)
	}

	rg, err := codec.LoadRandom(base)
	if err != nil {
		t.Fatal(err)
	}
	defer rg.Close()
	fw = &failWriter{n: 1}
	if err := writeNodes(fw, rg, []int{1, 2, 3, 4}); !errors.Is(err, errClosed) {
		t.Fatalf("writeNodes: got %v", err)
	}
	if fw.calls != 2 {
		t.Fatalf("%d writes after the first failure", fw.calls-2)
	}
}
