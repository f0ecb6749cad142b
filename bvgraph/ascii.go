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
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/SnellerInc/bvans/compr"
)

const maxASCIILine = 1 << 26

// ReadASCII reads a graph in the ASCII graph format:
// the first line holds the number of nodes and line
// i+1 holds the successors of node i separated by
// whitespace. Missing trailing lines are empty lists.
func ReadASCII(r io.Reader) (*Adjacency, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxASCIILine)
	if !s.Scan() {
		if err := s.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("ascii graph: missing node count")
	}
	n, err := strconv.Atoi(strings.TrimSpace(s.Text()))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("ascii graph: bad node count %q", s.Text())
	}
	lists := make([][]int, n)
	for i := 0; s.Scan(); i++ {
		fields := strings.Fields(s.Text())
		if len(fields) == 0 {
			continue
		}
		if i >= n {
			return nil, fmt.Errorf("ascii graph: line %d: more than %d nodes", i+2, n)
		}
		l := make([]int, len(fields))
		for j, f := range fields {
			l[j], err = strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("ascii graph: line %d: %w", i+2, err)
			}
		}
		lists[i] = l
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return NewAdjacency(lists)
}

// LoadASCII reads an ASCII graph from path,
// decompressing .zst and .s2 files.
func LoadASCII(path string) (*Adjacency, error) {
	rc, err := compr.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	g, err := ReadASCII(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// WriteASCII writes g in the ASCII graph format.
func WriteASCII(w io.Writer, g Graph) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", g.NumNodes())
	var line []byte
	for i := 0; i < g.NumNodes(); i++ {
		line = AppendList(line[:0], g.Successors(i))
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// AppendList appends the successors in l
// separated by spaces.
func AppendList(dst []byte, l []int) []byte {
	for j, v := range l {
		if j > 0 {
			dst = append(dst, ' ')
		}
		dst = strconv.AppendInt(dst, int64(v), 10)
	}
	return dst
}

// StoreASCII writes g to path, compressing
// according to the suffix of path.
func StoreASCII(path string, g Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w, err := compr.Writer(compr.ByPath(path), f)
	if err != nil {
		f.Close()
		return err
	}
	err = WriteASCII(w, g)
	if err2 := w.Close(); err == nil {
		err = err2
	}
	if err2 := f.Close(); err == nil {
		err = err2
	}
	return err
}
