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

// Package codec stores BV graphs as ANS-coded
// symbol streams with a checkpoint index.
//
// A graph stored under a basename B consists of
// three files: B.ans holds the header, the model
// and the coded stream; B.pointers maps every
// Stride-th node to a byte offset in the stream;
// B.states holds the lane states at those offsets.
// Sequential decoding only needs B.ans; random
// access uses all three.
//
// The stream is coded in blocks of nodes. Every block
// is coded backwards from fresh lane states and its
// final states are stored at its head, so blocks can
// be coded in parallel and decoding can resume at
// any block boundary without the indexes.
package codec
