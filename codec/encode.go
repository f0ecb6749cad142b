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
	"golang.org/x/sync/errgroup"

	"github.com/SnellerInc/bvans/ans"
	"github.com/SnellerInc/bvans/ints"
)

type block struct {
	data []byte
	cps  []Checkpoint
}

// encodeBlock codes the nodes [lo, hi) of log into
// a self-contained segment that starts with the
// flushed lane states.
func encodeBlock(model *ans.Model, log *symbolLog, lo, hi, stride int) (block, error) {
	enc := ans.NewEncoder(model)
	cp := checkpointer{stride: stride}
	for x := hi - 1; x >= lo; x-- {
		syms := log.group(x)
		for i := len(syms) - 1; i >= 0; i-- {
			s := &syms[i]
			if err := enc.Put(laneOf(s.Component), s.Value); err != nil {
				return block{}, &EncodingError{Node: x, Component: s.Component, Value: s.Value, Err: err}
			}
		}
		cp.observe(x, enc)
	}
	words := enc.Emitted() + ans.FlushedWords(model)
	b := block{data: enc.Finish(nil)}
	b.cps = cp.finalize(words)
	return b, nil
}

// encodeBlocks codes every block of nodes in
// parallel and concatenates the results.
func encodeBlocks(cfg *Config, model *ans.Model, log *symbolLog, nodes int) ([]byte, []Checkpoint, error) {
	n := ints.ChunkCount(nodes, cfg.BlockSize)
	blocks := make([]block, n)
	var eg errgroup.Group
	eg.SetLimit(cfg.Workers)
	for i := range blocks {
		i := i
		eg.Go(func() error {
			lo := i * cfg.BlockSize
			hi := ints.Min(lo+cfg.BlockSize, nodes)
			b, err := encodeBlock(model, log, lo, hi, cfg.Stride)
			blocks[i] = b
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	size := 0
	for i := range blocks {
		size += len(blocks[i].data)
	}
	stream := make([]byte, 0, size)
	cps := make([]Checkpoint, 0, ints.ChunkCount(nodes, cfg.Stride))
	for i := range blocks {
		base := int64(len(stream))
		for _, c := range blocks[i].cps {
			c.Offset += base
			cps = append(cps, c)
		}
		stream = append(stream, blocks[i].data...)
	}
	return stream, cps, nil
}
