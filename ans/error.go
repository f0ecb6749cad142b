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
	"errors"
)

type errorCode uint32

const (
	ecOK errorCode = iota
	ecOutOfInputData
	ecCorruptedState
	ecUnknownSymbol
	ecSymbolTooLarge
	ecInvalidTable
	ecLastCode
)

var (
	// ErrOutOfData is returned when a decoder
	// needs more words than the stream holds.
	ErrOutOfData = errors.New("ans: out of input data")
	// ErrCorruptState is returned for lane states
	// outside of the valid state interval.
	ErrCorruptState = errors.New("ans: corrupted lane state")
	// ErrUnknownSymbol is returned when a symbol
	// has no frequency in its lane's table.
	ErrUnknownSymbol = errors.New("ans: symbol not in model")
	// ErrSymbolTooLarge is returned for symbols
	// above fold.MaxRawSymbol.
	ErrSymbolTooLarge = errors.New("ans: symbol too large")
	// ErrInvalidTable is returned for frequency
	// tables that violate the model invariants.
	ErrInvalidTable = errors.New("ans: invalid frequency table")
)

var errs = [ecLastCode]error{
	ecOK:             nil,
	ecOutOfInputData: ErrOutOfData,
	ecCorruptedState: ErrCorruptState,
	ecUnknownSymbol:  ErrUnknownSymbol,
	ecSymbolTooLarge: ErrSymbolTooLarge,
	ecInvalidTable:   ErrInvalidTable,
}
