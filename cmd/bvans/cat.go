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
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/SnellerInc/bvans/bvgraph"
	"github.com/SnellerInc/bvans/codec"
	"github.com/SnellerInc/bvans/compr"
)

func output() (io.Writer, func()) {
	if dasho == "-" {
		w := bufio.NewWriter(os.Stdout)
		return w, func() {
			if err := w.Flush(); err != nil {
				exitf("%s\n", err)
			}
		}
	}
	f, err := os.Create(dasho)
	if err != nil {
		exitf("%s\n", err)
	}
	w, err := compr.Writer(compr.ByPath(dasho), f)
	if err != nil {
		exitf("%s\n", err)
	}
	bw := bufio.NewWriter(w)
	return bw, func() {
		err := bw.Flush()
		if err == nil {
			err = w.Close()
		}
		if err == nil {
			err = f.Close()
		}
		if err != nil {
			exitf("%s: %s\n", dasho, err)
		}
	}
}

// writeAll writes every successor list in the
// ASCII graph format and stops at the first
// write error.
func writeAll(w io.Writer, g *codec.SequentialGraph) error {
	if _, err := fmt.Fprintf(w, "%d\n", g.NumNodes()); err != nil {
		return err
	}
	var line []byte
	it := g.Iter()
	for it.Next() {
		line = bvgraph.AppendList(line[:0], it.Successors())
		line = append(line, '\n')
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return it.Err()
}

// writeNodes writes "node: successors" for
// each of the given nodes.
func writeNodes(w io.Writer, g *codec.Graph, nodes []int) error {
	var line []byte
	for _, k := range nodes {
		s, err := g.Successors(k)
		if err != nil {
			return err
		}
		line = strconv.AppendInt(line[:0], int64(k), 10)
		line = append(line, ':', ' ')
		line = bvgraph.AppendList(line, s)
		line = append(line, '\n')
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}

// entry point for 'bvans cat ...'
func cat(base string, args []string) {
	nodes := make([]int, len(args))
	for i, arg := range args {
		k, err := strconv.Atoi(arg)
		if err != nil {
			exitf("bad node %q\n", arg)
		}
		nodes[i] = k
	}
	w, done := output()
	if len(nodes) == 0 {
		g, err := codec.LoadSequential(base)
		if err != nil {
			exitf("%s\n", err)
		}
		err = writeAll(w, g)
		g.Close()
		if err != nil {
			exitf("%s\n", err)
		}
		done()
		return
	}
	g, err := codec.LoadRandom(base)
	if err != nil {
		exitf("%s\n", err)
	}
	err = writeNodes(w, g, nodes)
	g.Close()
	if err != nil {
		exitf("%s\n", err)
	}
	done()
}
