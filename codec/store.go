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
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/SnellerInc/bvans/ans"
	"github.com/SnellerInc/bvans/bvgraph"
)

const (
	ansSuffix      = ".ans"
	pointersSuffix = ".pointers"
	statesSuffix   = ".states"
)

// Paths returns the paths of the artifacts
// stored under basename.
func Paths(basename string) (ansPath, pointersPath, statesPath string) {
	return basename + ansSuffix, basename + pointersSuffix, basename + statesSuffix
}

// StoreFile reads an ASCII graph from src
// and stores it under dest.
func StoreFile(src, dest string, cfg *Config) error {
	g, err := bvgraph.LoadASCII(src)
	if err != nil {
		return &IOError{Path: src, Op: "read", Err: err}
	}
	return Store(g, dest, cfg)
}

// Store compresses g and writes the artifacts
// dest.ans, dest.pointers and dest.states.
// A nil cfg means DefaultConfig().
//
// Storing the same graph with the same
// configuration always produces identical files.
func Store(g bvgraph.Graph, dest string, cfg *Config) error {
	if cfg == nil {
		def := DefaultConfig()
		cfg = &def
	}
	c, err := cfg.normalize()
	if err != nil {
		return err
	}
	start := time.Now()
	model, log, err := buildModel(g, &c)
	if err != nil {
		return err
	}
	stream, cps, err := encodeBlocks(&c, model, log, g.NumNodes())
	if err != nil {
		return err
	}
	in := &Info{
		Nodes:             g.NumNodes(),
		Arcs:              bvgraph.NumArcs(g),
		Window:            c.Window,
		MaxRefCount:       c.MaxRefCount,
		MinIntervalLength: c.MinIntervalLength,
		Stride:            c.Stride,
		BlockSize:         c.BlockSize,
		Checkpoints:       len(cps),
		StreamBytes:       int64(len(stream)),
		Model:             model,
		streamSum:         streamSum(stream),
	}
	pointers := pointersPayload(cps)
	states := statesPayload(cps)
	in.pointersSum = blake2b.Sum256(pointers)
	in.statesSum = blake2b.Sum256(states)
	ansFile := marshalANS(in, stream)

	ansPath, pointersPath, statesPath := Paths(dest)
	err = writeArtifacts([]artifactFile{
		{pointersPath, indexFile(pointersMagic, in.SetID, nil, pointers)},
		{statesPath, indexFile(statesMagic, in.SetID, []byte{byte(numLanes)}, states)},
		{ansPath, ansFile},
	})
	if err != nil {
		return err
	}
	c.logf("stored %d nodes, %d arcs in %s: %d stream bytes (%.3f bits/arc), %d checkpoints, took %s",
		in.Nodes, in.Arcs, ansPath, in.StreamBytes, bitsPerArc(in), len(cps), time.Since(start))
	return nil
}

func bitsPerArc(in *Info) float64 {
	if in.Arcs == 0 {
		return 0
	}
	return float64(in.StreamBytes*8) / float64(in.Arcs)
}

// buildModel derives the symbols of g, first with
// log2 costs and then EntropyPasses more times with
// the costs of the model built by the previous pass,
// and returns the model of the final symbols along
// with the symbols themselves.
func buildModel(g bvgraph.Graph, c *Config) (*ans.Model, *symbolLog, error) {
	var est bvgraph.Estimator = bvgraph.Log2Estimator{}
	for pass := 0; ; pass++ {
		final := pass == c.EntropyPasses
		log := newSymbolLog(final)
		comp := &bvgraph.Compressor{Params: c.params(), Estimator: est}
		if err := comp.Compress(g, log); err != nil {
			return nil, nil, err
		}
		model, reports, err := log.stats.Build()
		if err != nil {
			return nil, nil, err
		}
		if final {
			for i := range reports {
				c.logf("%s %s", bvgraph.Component(reports[i].Lane), &reports[i])
			}
			return model, log, nil
		}
		est = modelEstimator{model: model}
	}
}

type artifactFile struct {
	path string
	data []byte
}

// writeArtifacts writes every file to a temporary
// file next to its destination and then renames
// them into place in order. Any stale file set is
// invalidated first by removing the last file.
func writeArtifacts(files []artifactFile) error {
	tmps := make([]string, len(files))
	cleanup := func() {
		for _, tmp := range tmps {
			if tmp != "" {
				os.Remove(tmp)
			}
		}
	}
	for i, f := range files {
		dir, base := filepath.Split(f.path)
		if dir == "" {
			dir = "."
		}
		tmp, err := os.CreateTemp(dir, base+".tmp*")
		if err != nil {
			cleanup()
			return &IOError{Path: f.path, Op: "create", Err: err}
		}
		tmps[i] = tmp.Name()
		_, err = tmp.Write(f.data)
		if err == nil {
			err = tmp.Sync()
		}
		if err2 := tmp.Close(); err == nil {
			err = err2
		}
		if err != nil {
			cleanup()
			return &IOError{Path: f.path, Op: "write", Err: err}
		}
	}
	last := files[len(files)-1].path
	if err := os.Remove(last); err != nil && !errors.Is(err, fs.ErrNotExist) {
		cleanup()
		return &IOError{Path: last, Op: "remove", Err: err}
	}
	for i, f := range files {
		if err := os.Rename(tmps[i], f.path); err != nil {
			cleanup()
			return &IOError{Path: f.path, Op: "rename", Err: err}
		}
		tmps[i] = ""
	}
	return nil
}

// Remove deletes the artifacts stored under basename.
func Remove(basename string) error {
	var errs []error
	ansPath, pointersPath, statesPath := Paths(basename)
	for _, p := range []string{ansPath, pointersPath, statesPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("removing %s: %w", basename, errors.Join(errs...))
	}
	return nil
}
