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

// Package compr wraps the stream compression
// formats accepted for graph sources.
package compr

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

var suffixes = []struct {
	suffix, name string
}{
	{".zst", "zstd"},
	{".zstd", "zstd"},
	{".s2", "s2"},
}

// ByPath returns the name of the compression
// algorithm implied by the suffix of path, or
// the empty string for uncompressed files.
func ByPath(path string) string {
	for i := range suffixes {
		if strings.HasSuffix(path, suffixes[i].suffix) {
			return suffixes[i].name
		}
	}
	return ""
}

type zstdReader struct {
	*zstd.Decoder
}

func (z zstdReader) Close() error {
	z.Decoder.Close()
	return nil
}

// Reader wraps r with a decompressor for the named
// algorithm. The empty name returns r unchanged.
// Closing the returned reader does not close r.
func Reader(name string, r io.Reader) (io.ReadCloser, error) {
	switch name {
	case "":
		return io.NopCloser(r), nil
	case "zstd":
		z, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return zstdReader{z}, nil
	case "s2":
		return io.NopCloser(s2.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("compr: unknown algorithm %q", name)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Writer wraps w with a compressor for the named
// algorithm. Close flushes the compressed stream
// but does not close w.
func Writer(name string, w io.Writer) (io.WriteCloser, error) {
	switch name {
	case "":
		return nopWriteCloser{w}, nil
	case "zstd":
		z, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return z, nil
	case "s2":
		return s2.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("compr: unknown algorithm %q", name)
	}
}

type fileReader struct {
	io.ReadCloser
	f *os.File
}

func (f *fileReader) Close() error {
	err := f.ReadCloser.Close()
	if err2 := f.f.Close(); err == nil {
		err = err2
	}
	return err
}

// Open opens the file at path and decompresses
// it according to its suffix.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc, err := Reader(ByPath(path), f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileReader{ReadCloser: rc, f: f}, nil
}
