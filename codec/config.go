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
	"fmt"
	"os"
	"runtime"

	"sigs.k8s.io/yaml"

	"github.com/SnellerInc/bvans/bvgraph"
	"github.com/SnellerInc/bvans/ints"
)

const (
	// DefaultStride is the default distance
	// between checkpoints.
	DefaultStride = 32
	// DefaultBlockSize is the default number of
	// nodes encoded independently by one worker.
	DefaultBlockSize = 1 << 16
	// DefaultEntropyPasses is the default number of
	// compression passes driven by a built model.
	DefaultEntropyPasses = 1
)

// Config holds the parameters of Store.
//
// Stride trades index size against lookup latency:
// the pointer and state indexes hold one record per
// Stride nodes, and a random lookup decodes up to
// Stride-1 extra nodes per replayed segment. Small
// strides also restrict references across segments
// and therefore cost some compression.
type Config struct {
	// Stride is the distance between checkpoints.
	// Zero means DefaultStride.
	Stride int `json:"stride"`
	// Window, MaxRefCount and MinIntervalLength
	// are the BV coding parameters. A zero Window
	// disables references and a zero
	// MinIntervalLength disables intervals.
	Window            int `json:"window"`
	MaxRefCount       int `json:"max_ref_count"`
	MinIntervalLength int `json:"min_interval_length"`
	// BlockSize is the number of nodes coded as one
	// independent unit, rounded up to a multiple of
	// Stride. Zero means DefaultBlockSize.
	BlockSize int `json:"block_size"`
	// Workers bounds the number of blocks coded
	// in parallel. Zero means GOMAXPROCS.
	// The output does not depend on Workers.
	Workers int `json:"workers"`
	// EntropyPasses is the number of times the
	// symbols are derived again using the costs
	// of the previously built model.
	EntropyPasses int `json:"entropy_passes"`

	// Logf, if non-nil, receives progress
	// and model statistics.
	Logf func(f string, args ...interface{}) `json:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Stride:            DefaultStride,
		Window:            bvgraph.DefaultWindow,
		MaxRefCount:       bvgraph.DefaultMaxRefCount,
		MinIntervalLength: bvgraph.DefaultMinIntervalLength,
		BlockSize:         DefaultBlockSize,
		EntropyPasses:     DefaultEntropyPasses,
	}
}

// LoadConfig reads a YAML or JSON configuration
// file. Fields missing from the file keep their
// default values.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	buf, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.UnmarshalStrict(buf, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *Config) logf(f string, args ...interface{}) {
	if c.Logf != nil {
		c.Logf(f, args...)
	}
}

// normalize returns a copy of c with defaults
// applied, or an error if c is invalid.
func (c *Config) normalize() (Config, error) {
	out := *c
	if out.Stride == 0 {
		out.Stride = DefaultStride
	}
	if out.Stride < 0 {
		return out, fmt.Errorf("codec: negative stride %d", out.Stride)
	}
	if out.BlockSize == 0 {
		out.BlockSize = DefaultBlockSize
	}
	if out.BlockSize < 0 {
		return out, fmt.Errorf("codec: negative block size %d", out.BlockSize)
	}
	out.BlockSize = ints.AlignUp(out.BlockSize, out.Stride)
	if out.Workers <= 0 {
		out.Workers = runtime.GOMAXPROCS(0)
	}
	if out.EntropyPasses < 0 {
		return out, fmt.Errorf("codec: negative entropy passes %d", out.EntropyPasses)
	}
	p := out.params()
	if err := p.Validate(); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Config) params() bvgraph.Params {
	return bvgraph.Params{
		Window:            c.Window,
		MaxRefCount:       c.MaxRefCount,
		MinIntervalLength: c.MinIntervalLength,
		Segment:           c.Stride,
	}
}
