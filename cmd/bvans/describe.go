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
	"fmt"
	"os"

	"github.com/SnellerInc/bvans/bvgraph"
	"github.com/SnellerInc/bvans/codec"
)

var hsizes = []byte{'K', 'M', 'G', 'T', 'P', 'E'}

func human(size int64) string {
	dec := int64(0)
	trail := -1
	for size >= 1024 {
		trail++
		dec = ((size%1024)*1000 + 512) / 1024
		size /= 1024
	}
	if trail < 0 {
		return fmt.Sprintf("%d", size)
	}
	return fmt.Sprintf("%d.%03d %ciB", size, dec, hsizes[trail])
}

// entry point for 'bvans stat ...'
func stat(base string) {
	g, err := codec.LoadSequential(base)
	if err != nil {
		exitf("%s\n", err)
	}
	defer g.Close()
	in := g.Info()
	fmt.Printf("set:         %s\n", in.SetID)
	fmt.Printf("nodes:       %d\n", in.Nodes)
	fmt.Printf("arcs:        %d\n", in.Arcs)
	fmt.Printf("window:      %d\n", in.Window)
	fmt.Printf("max refs:    %d\n", in.MaxRefCount)
	fmt.Printf("min int:     %d\n", in.MinIntervalLength)
	fmt.Printf("stride:      %d\n", in.Stride)
	fmt.Printf("block size:  %d\n", in.BlockSize)
	fmt.Printf("checkpoints: %d\n", in.Checkpoints)
	fmt.Printf("stream:      %s\n", human(in.StreamBytes))
	if in.Arcs > 0 {
		fmt.Printf("bits/arc:    %.3f\n", float64(in.StreamBytes*8)/float64(in.Arcs))
	}
	for i, t := range in.Model.Tables {
		fmt.Printf("  %-22s %v frame=2^%-2d quantiles=%d\n", bvgraph.Component(i), t.Params, t.FrameBits, t.Quantiles())
	}
	a, p, s := codec.Paths(base)
	for _, path := range []string{a, p, s} {
		if info, err := os.Stat(path); err == nil {
			fmt.Printf("%-30s %s\n", path, human(info.Size()))
		}
	}
}
