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

package ans

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"

	"github.com/SnellerInc/bvans/fold"
	"github.com/SnellerInc/bvans/ints"
)

// Theta bounds the relative growth of the estimated
// size of the whole stream that a lane may cause by
// folding and by approximating its frequencies.
const Theta = 1.0001

// Statistics gathers raw symbol counts per lane
// and builds a Model from them.
type Statistics struct {
	counts []map[uint64]uint64
}

// NewStatistics returns empty statistics for
// the given number of lanes.
func NewStatistics(lanes int) *Statistics {
	s := &Statistics{counts: make([]map[uint64]uint64, lanes)}
	for i := range s.counts {
		s.counts[i] = make(map[uint64]uint64)
	}
	return s
}

// Push counts one occurrence of v in lane.
func (s *Statistics) Push(lane int, v uint64) error {
	if v > fold.MaxRawSymbol {
		return ErrSymbolTooLarge
	}
	s.counts[lane][v]++
	return nil
}

// Symbols returns the number of symbols
// pushed into lane.
func (s *Statistics) Symbols(lane int) uint64 {
	n := uint64(0)
	for _, c := range s.counts[lane] {
		n += c
	}
	return n
}

// LaneReport describes the table chosen for a lane.
type LaneReport struct {
	Lane      int
	Params    fold.Params
	FrameBits uint8
	Symbols   uint64
	Distinct  int
	// RawBits is the empirical entropy of the lane
	// in bits; FoldedBits is the estimated size of
	// the lane under the chosen table.
	RawBits    float64
	FoldedBits float64
}

func (r *LaneReport) String() string {
	return fmt.Sprintf("lane %d: %v frame=2^%d symbols=%d distinct=%d raw=%.0fB coded=%.0fB",
		r.Lane, r.Params, r.FrameBits, r.Symbols, r.Distinct, r.RawBits/8, r.FoldedBits/8)
}

type histogram struct {
	values []uint64 // ascending
	counts []uint64
	total  uint64
}

func (s *Statistics) histogram(lane int) histogram {
	var h histogram
	for v := range s.counts[lane] {
		h.values = append(h.values, v)
	}
	slices.Sort(h.values)
	h.counts = make([]uint64, len(h.values))
	for i, v := range h.values {
		c := s.counts[lane][v]
		h.counts[i] = c
		h.total += c
	}
	return h
}

func (h *histogram) entropy() float64 {
	bits := 0.0
	for _, c := range h.counts {
		bits += float64(c) * -math.Log2(float64(c)/float64(h.total))
	}
	return bits
}

// Build chooses fold parameters and a frame size
// for every lane and returns the resulting model.
//
// Build is deterministic: equal statistics
// always produce equal models.
func (s *Statistics) Build() (*Model, []LaneReport, error) {
	hists := make([]histogram, len(s.counts))
	raw := make([]float64, len(s.counts))
	graph := 0.0
	for i := range s.counts {
		hists[i] = s.histogram(i)
		raw[i] = hists[i].entropy()
		graph += raw[i]
	}
	m := &Model{Tables: make([]*Table, len(s.counts))}
	reports := make([]LaneReport, len(s.counts))
	for i := range hists {
		t, folded, err := buildTable(&hists[i], raw[i], graph)
		if err != nil {
			return nil, nil, fmt.Errorf("lane %d: %w", i, err)
		}
		m.Tables[i] = t
		reports[i] = LaneReport{
			Lane:       i,
			Params:     t.Params,
			FrameBits:  t.FrameBits,
			Symbols:    hists[i].total,
			Distinct:   len(hists[i].values),
			RawBits:    raw[i],
			FoldedBits: folded,
		}
	}
	return m, reports, nil
}

type candidate struct {
	params    fold.Params
	frameBits uint8
	freqs     []uint32
	cost      float64
}

func buildTable(h *histogram, raw, graph float64) (*Table, float64, error) {
	if h.total == 0 {
		t, err := NewTable(fold.Default, 0, []uint32{1})
		return t, 0, err
	}
	var accepted, cheapest *candidate
	for _, p := range fold.Candidates() {
		qcounts, extra := foldHistogram(h, p)
		distinct := 0
		for _, c := range qcounts {
			if c != 0 {
				distinct++
			}
		}
		order := byFrequency(qcounts)
		for bits := ints.Log2(ints.NextPow2(uint64(distinct))); bits <= MaxFrameBits; bits++ {
			freqs, ok := scaleFreqs(qcounts, order, h.total, uint8(bits))
			if !ok {
				continue
			}
			c := &candidate{
				params:    p,
				frameBits: uint8(bits),
				freqs:     freqs,
				cost:      extra + foldedCost(qcounts, freqs, uint8(bits)),
			}
			if cheapest == nil || c.cost < cheapest.cost {
				cheapest = c
			}
			if graph+(c.cost-raw) <= Theta*graph {
				if accepted == nil || c.frameBits < accepted.frameBits ||
					(c.frameBits == accepted.frameBits && c.cost < accepted.cost) {
					accepted = c
				}
				break
			}
		}
	}
	best := accepted
	if best == nil {
		best = cheapest
	}
	if best == nil {
		return nil, 0, fmt.Errorf("%w: no frame fits %d symbols", ErrInvalidTable, len(h.values))
	}
	t, err := NewTable(best.params, best.frameBits, best.freqs)
	return t, best.cost, err
}

// foldHistogram returns the quantile counts of h
// under p and the total number of remainder bits.
func foldHistogram(h *histogram, p fold.Params) ([]uint64, float64) {
	var qcounts []uint64
	extra := uint64(0)
	for i, v := range h.values {
		q, folds, _ := p.Fold(v)
		if int(q) >= len(qcounts) {
			qcounts = append(qcounts, make([]uint64, int(q)+1-len(qcounts))...)
		}
		qcounts[q] += h.counts[i]
		extra += uint64(folds) * uint64(p.Radix) * h.counts[i]
	}
	return qcounts, float64(extra)
}

// byFrequency returns the nonzero quantiles
// ordered by ascending count, then by quantile.
func byFrequency(qcounts []uint64) []int {
	var order []int
	for q, c := range qcounts {
		if c != 0 {
			order = append(order, q)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch ca, cb := qcounts[a], qcounts[b]; {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		}
		return 0
	})
	return order
}

// scaleFreqs scales the counts to a frame of
// 2^bits, smallest counts first, giving every
// nonzero count a frequency of at least one.
// The frequencies always sum to the frame size.
func scaleFreqs(qcounts []uint64, order []int, total uint64, bits uint8) ([]uint32, bool) {
	frame := uint64(1) << bits
	if uint64(len(order)) > frame {
		return nil, false
	}
	freqs := make([]uint32, len(qcounts))
	mass := frame
	left := total
	for i, q := range order {
		c := qcounts[q]
		f := uint64(math.Round(float64(c) * float64(mass) / float64(left)))
		// every later quantile needs at least one
		later := uint64(len(order) - i - 1)
		f = ints.Clamp(f, 1, mass-later)
		if i == len(order)-1 {
			f = mass
		}
		freqs[q] = uint32(f)
		mass -= f
		left -= c
	}
	return freqs, true
}

// foldedCost returns the estimated size in bits
// of the quantiles coded with freqs.
func foldedCost(qcounts []uint64, freqs []uint32, bits uint8) float64 {
	frame := float64(uint64(1) << bits)
	cost := 0.0
	for q, c := range qcounts {
		if c == 0 {
			continue
		}
		cost += float64(c) * -math.Log2(float64(freqs[q])/frame)
	}
	return cost
}
