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

// Package bvgraph derives the BV symbol stream of a
// graph and reconstructs successor lists from it.
//
// Every node contributes a group of symbols, each
// tagged with the Component it belongs to: the
// outdegree, the reference to a previous list, the
// copy blocks over the referenced list, the intervals
// of consecutive successors and the residuals.
package bvgraph

import (
	"fmt"
)

// Component identifies the kind of a symbol.
type Component uint8

const (
	Outdegree Component = iota
	Reference
	BlockCount
	BlockLength
	IntervalCount
	IntervalLeftExtreme
	IntervalLength
	Residual
)

// NumComponents is the number of components.
const NumComponents = int(Residual) + 1

var componentNames = [NumComponents]string{
	Outdegree:           "outdegree",
	Reference:           "reference",
	BlockCount:          "block-count",
	BlockLength:         "block-length",
	IntervalCount:       "interval-count",
	IntervalLeftExtreme: "interval-left-extreme",
	IntervalLength:      "interval-length",
	Residual:            "residual",
}

func (c Component) String() string {
	if int(c) < NumComponents {
		return componentNames[c]
	}
	return fmt.Sprintf("Component(%d)", uint8(c))
}
