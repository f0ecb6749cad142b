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

package main

import (
	"github.com/SnellerInc/bvans/codec"
)

// entry point for 'bvans check ...'
func check(base string) {
	g, err := codec.LoadRandom(base)
	if err != nil {
		exitf("%s\n", err)
	}
	defer g.Close()
	if err := g.Verify(); err != nil {
		exitf("%s\n", err)
	}
	if dashv {
		logf("%s: %d nodes, %d arcs ok", base, g.NumNodes(), g.Info().Arcs)
	}
}
