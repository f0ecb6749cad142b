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
	"github.com/SnellerInc/bvans/ans"
	"github.com/SnellerInc/bvans/bvgraph"
)

// numLanes is the number of ANS lanes;
// every component has its own lane.
const numLanes = bvgraph.NumComponents

func laneOf(c bvgraph.Component) int { return int(c) }

// symbolLog is the encoding side of the stream router.
// It counts every symbol into the statistics of its
// lane and, if record is set, keeps the symbols of
// every node for the final encoding pass.
type symbolLog struct {
	stats  *ans.Statistics
	record bool

	syms   []bvgraph.Symbol
	starts []int
	node   int
}

func newSymbolLog(record bool) *symbolLog {
	return &symbolLog{stats: ans.NewStatistics(numLanes), record: record}
}

func (l *symbolLog) StartNode(node int) error {
	l.node = node
	if l.record {
		l.starts = append(l.starts, len(l.syms))
	}
	return nil
}

func (l *symbolLog) WriteSymbol(c bvgraph.Component, v uint64) error {
	if err := l.stats.Push(laneOf(c), v); err != nil {
		return &EncodingError{Node: l.node, Component: c, Value: v, Err: err}
	}
	if l.record {
		l.syms = append(l.syms, bvgraph.Symbol{Component: c, Value: v})
	}
	return nil
}

// group returns the symbols of node x.
func (l *symbolLog) group(x int) []bvgraph.Symbol {
	end := len(l.syms)
	if x+1 < len(l.starts) {
		end = l.starts[x+1]
	}
	return l.syms[l.starts[x]:end]
}

// laneReader is the decoding side of the stream
// router: it pulls every component from its lane.
type laneReader struct {
	dec *ans.Decoder
}

func (r laneReader) ReadSymbol(c bvgraph.Component) (uint64, error) {
	return r.dec.Get(laneOf(c))
}

// modelEstimator estimates costs from
// the tables of a built model.
type modelEstimator struct {
	model *ans.Model
}

func (m modelEstimator) Cost(c bvgraph.Component, v uint64) uint64 {
	return m.model.Tables[laneOf(c)].Cost(v)
}
