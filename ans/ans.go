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

// Package ans implements a multi-lane rANS coder
// for folded integer symbols.
//
// Every lane owns a 64-bit state and a frequency
// table; all lanes share one stream of 32-bit words.
// Symbols are encoded in reverse order and the word
// stream is reversed at the end, so that decoding
// proceeds front to back.
//
// This arithmetic coder follows the work of Fabian Giesen,
// available here: https://github.com/rygorous/ryg_rans
// and kindly placed in the Public Domain per the CC0 licence:
// https://github.com/rygorous/ryg_rans/blob/master/LICENSE
//
// For theoretical background, please refer to Jaroslaw Duda's seminal paper on rANS:
// https://arxiv.org/pdf/1311.2540.pdf
package ans

const (
	// ansWordL is the lower bound of a lane state.
	ansWordL = 1 << 32
	// ansWordBits is the renormalization unit.
	ansWordBits = 32
	ansWordMask = 1<<ansWordBits - 1

	// MaxFrameBits bounds the frame size (sum of
	// the frequencies) of a table.
	MaxFrameBits = 16

	// WordSize is the size of a stream word in bytes.
	WordSize = 4
)

// InitialState is the state of a lane that
// has not coded anything.
const InitialState uint64 = ansWordL
