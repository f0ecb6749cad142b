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

	"github.com/SnellerInc/bvans/bvgraph"
)

// ErrNodeRange is returned for lookups of
// nodes outside of the graph.
var ErrNodeRange = errors.New("codec: node out of range")

var errNotAtRest = errors.New("lane states not back at the initial state")

func errTrailing(n int) error {
	return fmt.Errorf("%d bytes left after the last node", n)
}

// FormatError is returned when an artifact is
// missing, truncated or does not parse.
type FormatError struct {
	Path   string
	Offset int64
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: bad format at offset %d: %s", e.Path, e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func errformat(path string, off int64, f string, args ...interface{}) error {
	return &FormatError{Path: path, Offset: off, Err: fmt.Errorf(f, args...)}
}

// ConsistencyError is returned when artifacts
// disagree with each other or when the stream
// does not decode to a valid graph. Node is -1
// when the error is not tied to a node.
type ConsistencyError struct {
	Path   string
	Node   int
	Offset int64
	Err    error
}

func (e *ConsistencyError) Error() string {
	if e.Node < 0 {
		return fmt.Sprintf("%s: inconsistent at offset %d: %s", e.Path, e.Offset, e.Err)
	}
	return fmt.Sprintf("%s: node %d at offset %d: %s", e.Path, e.Node, e.Offset, e.Err)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

func errconsistency(path string, node int, off int64, f string, args ...interface{}) error {
	return &ConsistencyError{Path: path, Node: node, Offset: off, Err: fmt.Errorf(f, args...)}
}

// EncodingError is returned by Store for
// symbols that cannot be coded.
type EncodingError struct {
	Node      int
	Component bvgraph.Component
	Value     uint64
	Err       error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("node %d: cannot encode %s %d: %s", e.Node, e.Component, e.Value, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// IOError is returned when an artifact
// cannot be written or a source graph
// cannot be read.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
