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

// Command bvans stores graphs as ANS-coded
// BV streams and reads them back.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/SnellerInc/bvans/bvgraph"
	"github.com/SnellerInc/bvans/codec"
)

var (
	dashv       bool
	dashh       bool
	dashc       string
	dasho       string
	dashstride  int
	dashwindow  int
	dashmaxref  int
	dashminint  int
	dashblock   int
	dashworkers int
	dashpasses  int
)

func init() {
	flag.BoolVar(&dashv, "v", false, "verbose")
	flag.BoolVar(&dashh, "h", false, "show usage help")
	flag.StringVar(&dashc, "c", "", "configuration file (yaml or json)")
	flag.StringVar(&dasho, "o", "-", "output file (or - for stdout) for cat")
	flag.IntVar(&dashstride, "stride", codec.DefaultStride, "distance between checkpoints")
	flag.IntVar(&dashwindow, "window", bvgraph.DefaultWindow, "reference window (0 disables references)")
	flag.IntVar(&dashmaxref, "maxref", bvgraph.DefaultMaxRefCount, "maximum reference chain length")
	flag.IntVar(&dashminint, "minint", bvgraph.DefaultMinIntervalLength, "minimum interval length (0 disables intervals)")
	flag.IntVar(&dashblock, "block", codec.DefaultBlockSize, "nodes per independently coded block")
	flag.IntVar(&dashworkers, "workers", 0, "parallel block encoders (0 uses GOMAXPROCS)")
	flag.IntVar(&dashpasses, "passes", codec.DefaultEntropyPasses, "entropy-driven compression passes")
}

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func logf(f string, args ...interface{}) {
	if f[len(f)-1] != '\n' {
		f += "\n"
	}
	fmt.Fprintf(os.Stderr, f, args...)
}

// config loads the configuration file, if any,
// and applies the flags that were set explicitly.
func config() *codec.Config {
	cfg := codec.DefaultConfig()
	if dashc != "" {
		var err error
		cfg, err = codec.LoadConfig(dashc)
		if err != nil {
			exitf("%s\n", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "stride":
			cfg.Stride = dashstride
		case "window":
			cfg.Window = dashwindow
		case "maxref":
			cfg.MaxRefCount = dashmaxref
		case "minint":
			cfg.MinIntervalLength = dashminint
		case "block":
			cfg.BlockSize = dashblock
		case "workers":
			cfg.Workers = dashworkers
		case "passes":
			cfg.EntropyPasses = dashpasses
		}
	})
	if dashv {
		cfg.Logf = logf
	}
	return &cfg
}

// entry point for 'bvans store ...'
func store(src, dest string) {
	if err := codec.StoreFile(src, dest, config()); err != nil {
		exitf("store: %s\n", err)
	}
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 || dashh {
		fmt.Fprintf(os.Stderr, "usage:\n")
		fmt.Fprintf(os.Stderr, "    %s [-v] [-c <config>] [-stride n] ... store <graph.txt[.zst|.s2]> <basename>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        compress an ASCII graph into <basename>.{ans,pointers,states}\n")
		fmt.Fprintf(os.Stderr, "    %s [-o <output>] cat <basename> [node...]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        print every successor list, or those of the given nodes\n")
		fmt.Fprintf(os.Stderr, "    %s check <basename>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        verify a stored graph\n")
		fmt.Fprintf(os.Stderr, "    %s stat <basename>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        describe a stored graph\n")
		fmt.Fprintf(os.Stderr, "flag usage:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	switch args[0] {
	case "store":
		if len(args) != 3 {
			exitf("usage: store <graph> <basename>\n")
		}
		store(args[1], args[2])
	case "cat":
		if len(args) < 2 {
			exitf("usage: cat <basename> [node...]\n")
		}
		cat(args[1], args[2:])
	case "check":
		if len(args) != 2 {
			exitf("usage: check <basename>\n")
		}
		check(args[1])
	case "stat":
		if len(args) != 2 {
			exitf("usage: stat <basename>\n")
		}
		stat(args[1])
	default:
		exitf("unknown command %q\n", args[0])
	}
}
