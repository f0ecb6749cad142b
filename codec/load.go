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
	"encoding/binary"

	"github.com/SnellerInc/bvans/ans"
)

// artifact is an open B.ans file.
type artifact struct {
	base   string
	path   string
	info   *Info
	file   *mapping
	stream []byte
}

func openArtifact(basename string) (*artifact, error) {
	ansPath, _, _ := Paths(basename)
	m, err := openMapping(ansPath)
	if err != nil {
		return nil, err
	}
	in, stream, err := parseANS(ansPath, m.mem)
	if err != nil {
		m.close()
		return nil, err
	}
	return &artifact{base: basename, path: ansPath, info: in, file: m, stream: stream}, nil
}

func (a *artifact) close() error {
	return a.file.close()
}

// LoadSequential opens the graph stored under
// basename for sequential decoding. Only the
// B.ans artifact is read.
func LoadSequential(basename string) (*SequentialGraph, error) {
	a, err := openArtifact(basename)
	if err != nil {
		return nil, err
	}
	return &SequentialGraph{a: a}, nil
}

// LoadRandom opens the graph stored under basename
// for random access, validating that the pointer
// and state indexes belong to the same store as
// B.ans.
func LoadRandom(basename string) (*Graph, error) {
	a, err := openArtifact(basename)
	if err != nil {
		return nil, err
	}
	g := &Graph{a: a}
	if err := g.openIndexes(basename); err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

func (g *Graph) openIndexes(basename string) error {
	_, pointersPath, statesPath := Paths(basename)
	in := g.a.info
	var err error
	if g.pointersFile, err = openMapping(pointersPath); err != nil {
		return err
	}
	g.pointers, err = parseIndex(pointersPath, g.pointersFile.mem, pointersMagic, in, nil, pointerRecordSize, &in.pointersSum)
	if err != nil {
		return err
	}
	if err := checkPointers(pointersPath, g.pointers, in); err != nil {
		return err
	}
	if g.statesFile, err = openMapping(statesPath); err != nil {
		return err
	}
	g.states, err = parseIndex(statesPath, g.statesFile.mem, statesMagic, in, []byte{byte(numLanes)}, numLanes*8, &in.statesSum)
	if err != nil {
		return err
	}
	return checkStates(statesPath, g.states, in)
}

// checkpoint returns checkpoint i from the indexes.
func (g *Graph) checkpoint(i int) Checkpoint {
	rec := g.pointers[i*pointerRecordSize:]
	cp := Checkpoint{
		Node:   int(binary.LittleEndian.Uint64(rec)),
		Offset: int64(binary.LittleEndian.Uint64(rec[8:])),
		States: make([]uint64, numLanes),
	}
	st := g.states[i*numLanes*8:]
	for j := range cp.States {
		cp.States[j] = binary.LittleEndian.Uint64(st[j*8:])
	}
	return cp
}

func (a *artifact) decoder() *ans.Decoder {
	return ans.NewDecoder(a.info.Model, a.stream)
}
