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
	"encoding/binary"
)

type stream struct {
	data   []byte
	cursor int
}

func (s *stream) remaining() int {
	return len(s.data) - s.cursor
}

func (s *stream) checkFetch(n int) errorCode {
	if k := len(s.data); s.cursor+n > k {
		return ecOutOfInputData
	}
	return ecOK
}

func (s *stream) fetch32() (uint32, errorCode) {
	if ec := s.checkFetch(4); ec != ecOK {
		return 0, ec
	}
	r := binary.LittleEndian.Uint32(s.data[s.cursor:])
	s.cursor += 4
	return r, ecOK
}

func (s *stream) fetchUvarint() (uint64, errorCode) {
	v, n := binary.Uvarint(s.data[s.cursor:])
	if n <= 0 {
		return 0, ecOutOfInputData
	}
	s.cursor += n
	return v, ecOK
}
