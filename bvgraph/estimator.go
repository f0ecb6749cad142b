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

package bvgraph

import (
	"github.com/SnellerInc/bvans/ints"
)

// Estimator estimates the cost of coding a
// symbol. Only the relative magnitude of costs
// matters.
type Estimator interface {
	Cost(c Component, v uint64) uint64
}

// Log2Estimator charges floor(log2(v+2)) for
// every symbol, independently of its component.
// It is used before any statistics exist.
type Log2Estimator struct{}

func (Log2Estimator) Cost(_ Component, v uint64) uint64 {
	return uint64(ints.Log2(v + 2))
}
