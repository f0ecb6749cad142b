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

// mapping is a read-only view of an artifact.
type mapping struct {
	path   string
	mem    []byte
	mapped bool
}

func openMapping(path string) (*mapping, error) {
	mem, mapped, err := mmap(path)
	if err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	return &mapping{path: path, mem: mem, mapped: mapped}, nil
}

func (m *mapping) close() error {
	if m == nil || m.mem == nil {
		return nil
	}
	mem := m.mem
	m.mem = nil
	if !m.mapped {
		return nil
	}
	return unmap(mem)
}
