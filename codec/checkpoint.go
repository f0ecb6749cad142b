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
)

// Checkpoint is an entry point into the stream:
// decoding node Node starts at byte Offset with
// the lane states States.
type Checkpoint struct {
	Node   int
	Offset int64
	States []uint64
}

type snapshot struct {
	node    int
	emitted int
	states  []uint64
}

// checkpointer collects checkpoints while a block
// is encoded backwards. Snapshots are taken after
// the last symbol of a node (in encoding order) has
// been coded, and are recorded in descending node
// order with the number of words emitted so far.
type checkpointer struct {
	stride int
	snaps  []snapshot
}

func (c *checkpointer) observe(node int, enc *ans.Encoder) {
	if node%c.stride != 0 {
		return
	}
	c.snaps = append(c.snaps, snapshot{
		node:    node,
		emitted: enc.Emitted(),
		states:  enc.States(make([]uint64, 0, numLanes)),
	})
}

// finalize returns the checkpoints in ascending
// order. The stream of the block is words long once
// reversed, so the word emitted last before a
// snapshot is read first after it, at forward
// position words-emitted.
func (c *checkpointer) finalize(words int) []Checkpoint {
	out := make([]Checkpoint, len(c.snaps))
	for i := range out {
		s := &c.snaps[len(c.snaps)-1-i]
		out[i] = Checkpoint{
			Node:   s.node,
			Offset: int64(words-s.emitted) * ans.WordSize,
			States: s.states,
		}
	}
	c.snaps = c.snaps[:0]
	return out
}
