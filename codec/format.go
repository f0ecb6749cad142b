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
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/dchest/siphash"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/SnellerInc/bvans/ans"
	"github.com/SnellerInc/bvans/bvgraph"
	"github.com/SnellerInc/bvans/ints"
)

const (
	ansMagic      = "BVANS"
	pointersMagic = "BVPTR"
	statesMagic   = "BVSTA"
	formatVersion = 1

	prefixSize        = 6 // magic + version
	setIDSize         = 16
	pointerRecordSize = 16

	// limits on header fields
	maxNodes = 1 << 40
)

// setNamespace is the namespace of the
// name-based set identifiers.
var setNamespace = uuid.MustParse("8d0f4e52-2b47-4c7a-9f55-6a1b3c2e9d10")

// streamKey keys the stream checksum.
var streamKey = [2]uint64{0x6276616e732d7374, 0x7265616d2d73756d}

func streamSum(stream []byte) uint64 {
	return siphash.Hash(streamKey[0], streamKey[1], stream)
}

// Info is the header of a stored graph.
type Info struct {
	Nodes             int
	Arcs              int64
	Window            int
	MaxRefCount       int
	MinIntervalLength int
	Stride            int
	BlockSize         int
	Checkpoints       int
	StreamBytes       int64
	Model             *ans.Model
	// SetID binds the three artifacts
	// of one store together.
	SetID uuid.UUID

	streamSum   uint64
	pointersSum [blake2b.Size256]byte
	statesSum   [blake2b.Size256]byte
}

func (in *Info) params() bvgraph.Params {
	return bvgraph.Params{
		Window:            in.Window,
		MaxRefCount:       in.MaxRefCount,
		MinIntervalLength: in.MinIntervalLength,
		Segment:           in.Stride,
	}
}

func (in *Info) appendBody(dst []byte) []byte {
	for _, v := range []uint64{
		uint64(in.Nodes),
		uint64(in.Arcs),
		uint64(in.Window),
		uint64(in.MaxRefCount),
		uint64(in.MinIntervalLength),
		uint64(in.Stride),
		uint64(in.BlockSize),
		uint64(in.Checkpoints),
		uint64(in.StreamBytes),
	} {
		dst = binary.AppendUvarint(dst, v)
	}
	dst = in.Model.AppendBinary(dst)
	dst = binary.LittleEndian.AppendUint64(dst, in.streamSum)
	dst = append(dst, in.pointersSum[:]...)
	return append(dst, in.statesSum[:]...)
}

// bodyReader reads header fields; the first
// error sticks.
type bodyReader struct {
	buf []byte
	off int
	err error
}

func (r *bodyReader) uvarint(max uint64) uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.buf[r.off:])
	if n <= 0 {
		r.err = errors.New("truncated header field")
		return 0
	}
	if v > max {
		r.err = fmt.Errorf("header field %d above %d", v, max)
		return 0
	}
	r.off += n
	return v
}

func (r *bodyReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf)-r.off < n {
		r.err = errors.New("truncated header")
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

// marshalANS returns the contents of B.ans
// and sets in.SetID.
func marshalANS(in *Info, stream []byte) []byte {
	body := in.appendBody(nil)
	in.SetID = uuid.NewSHA1(setNamespace, body)
	out := make([]byte, 0, prefixSize+4+len(body)+setIDSize+len(stream))
	out = append(out, ansMagic...)
	out = append(out, formatVersion)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	out = append(out, body...)
	out = append(out, in.SetID[:]...)
	return append(out, stream...)
}

func checkPrefix(path string, mem []byte, magic string) error {
	if len(mem) < prefixSize {
		return errformat(path, 0, "file of %d bytes is too short", len(mem))
	}
	if !bytes.Equal(mem[:len(magic)], []byte(magic)) {
		return errformat(path, 0, "bad magic %q", mem[:len(magic)])
	}
	if v := mem[len(magic)]; v != formatVersion {
		return errformat(path, int64(len(magic)), "unsupported version %d", v)
	}
	return nil
}

// parseANS parses the contents of B.ans and
// returns the header and the stream.
func parseANS(path string, mem []byte) (*Info, []byte, error) {
	if err := checkPrefix(path, mem, ansMagic); err != nil {
		return nil, nil, err
	}
	if len(mem) < prefixSize+4 {
		return nil, nil, errformat(path, prefixSize, "truncated header length")
	}
	size := int64(binary.LittleEndian.Uint32(mem[prefixSize:]))
	start := int64(prefixSize + 4)
	if int64(len(mem))-start < size+setIDSize {
		return nil, nil, errformat(path, start, "truncated header of %d bytes", size)
	}
	body := mem[start : start+size]
	r := &bodyReader{buf: body}
	in := &Info{
		Nodes:             int(r.uvarint(maxNodes)),
		Arcs:              int64(r.uvarint(math.MaxInt64)),
		Window:            int(r.uvarint(maxNodes)),
		MaxRefCount:       int(r.uvarint(bvgraph.MaxRefCountLimit)),
		MinIntervalLength: int(r.uvarint(maxNodes)),
		Stride:            int(r.uvarint(maxNodes)),
		BlockSize:         int(r.uvarint(maxNodes)),
		Checkpoints:       int(r.uvarint(maxNodes)),
		StreamBytes:       int64(r.uvarint(math.MaxInt64)),
	}
	if r.err != nil {
		return nil, nil, errformat(path, start+int64(r.off), "%s", r.err)
	}
	m, n, err := ans.DecodeModel(body[r.off:])
	if err != nil {
		return nil, nil, errformat(path, start+int64(r.off+n), "model: %s", err)
	}
	r.off += n
	in.Model = m
	if sum := r.bytes(8); sum != nil {
		in.streamSum = binary.LittleEndian.Uint64(sum)
	}
	copy(in.pointersSum[:], r.bytes(blake2b.Size256))
	copy(in.statesSum[:], r.bytes(blake2b.Size256))
	if r.err != nil {
		return nil, nil, errformat(path, start+int64(r.off), "%s", r.err)
	}
	if r.off != len(body) {
		return nil, nil, errformat(path, start+int64(r.off), "%d trailing header bytes", len(body)-r.off)
	}
	if err := in.validate(); err != nil {
		return nil, nil, errformat(path, start, "%s", err)
	}
	copy(in.SetID[:], mem[start+size:])
	if in.SetID != uuid.NewSHA1(setNamespace, body) {
		return nil, nil, errformat(path, start+size, "set id does not match header")
	}
	stream := mem[start+size+setIDSize:]
	if int64(len(stream)) != in.StreamBytes {
		return nil, nil, errformat(path, start+size+setIDSize, "stream of %d bytes, header says %d", len(stream), in.StreamBytes)
	}
	return in, stream, nil
}

func (in *Info) validate() error {
	p := in.params()
	if err := p.Validate(); err != nil {
		return err
	}
	if in.Model.Lanes() != numLanes {
		return fmt.Errorf("model has %d lanes, want %d", in.Model.Lanes(), numLanes)
	}
	if in.BlockSize < in.Stride || in.BlockSize%in.Stride != 0 {
		return fmt.Errorf("block size %d is not a multiple of stride %d", in.BlockSize, in.Stride)
	}
	if want := ints.ChunkCount(in.Nodes, in.Stride); in.Checkpoints != want {
		return fmt.Errorf("%d checkpoints for %d nodes with stride %d", in.Checkpoints, in.Nodes, in.Stride)
	}
	if in.StreamBytes%ans.WordSize != 0 {
		return fmt.Errorf("stream length %d is not a multiple of %d", in.StreamBytes, ans.WordSize)
	}
	return nil
}

func pointersPayload(cps []Checkpoint) []byte {
	out := make([]byte, 0, len(cps)*pointerRecordSize)
	for i := range cps {
		out = binary.LittleEndian.AppendUint64(out, uint64(cps[i].Node))
		out = binary.LittleEndian.AppendUint64(out, uint64(cps[i].Offset))
	}
	return out
}

func statesPayload(cps []Checkpoint) []byte {
	out := make([]byte, 0, len(cps)*numLanes*8)
	for i := range cps {
		for _, x := range cps[i].States {
			out = binary.LittleEndian.AppendUint64(out, x)
		}
	}
	return out
}

func indexFile(magic string, id uuid.UUID, extra []byte, payload []byte) []byte {
	out := make([]byte, 0, prefixSize+setIDSize+len(extra)+len(payload))
	out = append(out, magic...)
	out = append(out, formatVersion)
	out = append(out, id[:]...)
	out = append(out, extra...)
	return append(out, payload...)
}

// parseIndex validates an index file against the
// header and returns its records.
func parseIndex(path string, mem []byte, magic string, in *Info, extra []byte, recordSize int, sum *[blake2b.Size256]byte) ([]byte, error) {
	if err := checkPrefix(path, mem, magic); err != nil {
		return nil, err
	}
	head := prefixSize + setIDSize + len(extra)
	if len(mem) < head {
		return nil, errformat(path, prefixSize, "truncated index header")
	}
	if !bytes.Equal(mem[prefixSize:prefixSize+setIDSize], in.SetID[:]) {
		return nil, errconsistency(path, -1, prefixSize, "set id does not match %s", in.SetID)
	}
	if !bytes.Equal(mem[prefixSize+setIDSize:head], extra) {
		return nil, errformat(path, prefixSize+setIDSize, "index header %x, want %x", mem[prefixSize+setIDSize:head], extra)
	}
	records := mem[head:]
	if len(records)%recordSize != 0 {
		return nil, errformat(path, int64(head+len(records)-len(records)%recordSize), "partial record of %d bytes", len(records)%recordSize)
	}
	if n := len(records) / recordSize; n != in.Checkpoints {
		return nil, errconsistency(path, -1, int64(head), "%d records, header says %d checkpoints", n, in.Checkpoints)
	}
	if blake2b.Sum256(records) != *sum {
		return nil, errconsistency(path, -1, int64(head), "checksum mismatch")
	}
	return records, nil
}

// checkPointers validates the pointer records.
func checkPointers(path string, records []byte, in *Info) error {
	prev := int64(0)
	for i := 0; i < in.Checkpoints; i++ {
		rec := records[i*pointerRecordSize:]
		node := binary.LittleEndian.Uint64(rec)
		off := int64(binary.LittleEndian.Uint64(rec[8:]))
		pos := int64(prefixSize + setIDSize + i*pointerRecordSize)
		if node != uint64(i)*uint64(in.Stride) {
			return errconsistency(path, int(node), pos, "checkpoint %d at node %d, want %d", i, node, i*in.Stride)
		}
		// symbols of single-symbol tables take no
		// space, so offsets may repeat
		if off < prev || off > in.StreamBytes || off%ans.WordSize != 0 {
			return errconsistency(path, int(node), pos, "checkpoint offset %d out of range", off)
		}
		prev = off
	}
	return nil
}

// checkStates validates the state records.
func checkStates(path string, records []byte, in *Info) error {
	for i := 0; i < len(records); i += 8 {
		if x := binary.LittleEndian.Uint64(records[i:]); x < ans.InitialState {
			cp := i / (8 * numLanes)
			return errconsistency(path, cp*in.Stride, int64(prefixSize+setIDSize+1+i), "lane state %#x below the state interval", x)
		}
	}
	return nil
}
