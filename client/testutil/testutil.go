// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package testutil contains utilities for unit tests.
package testutil

import (
	"encoding/binary"
	"errors"
	"io"
	"math/rand/v2"
	"sync"
)

// ErrRandomSourceBroken is returned by FailingReader.
var ErrRandomSourceBroken = errors.New("testutil: random source unavailable")

// FailingReader is a random source that always fails.
type FailingReader struct{}

func (FailingReader) Read([]byte) (int, error) {
	return 0, ErrRandomSourceBroken
}

// ExhaustedReader yields N bytes of zeros and then fails with io.EOF.
type ExhaustedReader struct {
	N int
}

func (r *ExhaustedReader) Read(p []byte) (int, error) {
	if r.N <= 0 {
		return 0, io.EOF
	}
	n := min(len(p), r.N)
	clear(p[:n])
	r.N -= n
	return n, nil
}

// DeterministicReader is a seeded, reproducible byte stream for tests that need identical
// splits across runs. It is safe for concurrent use. It is NOT a secure random source.
type DeterministicReader struct {
	mu sync.Mutex
	c  *rand.ChaCha8
	// Reads counts calls to Read.
	Reads int
}

// NewDeterministicReader returns a DeterministicReader seeded with seed.
func NewDeterministicReader(seed uint64) *DeterministicReader {
	var s [32]byte
	binary.LittleEndian.PutUint64(s[:], seed)
	return &DeterministicReader{c: rand.NewChaCha8(s)}
}

func (r *DeterministicReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reads++
	return r.c.Read(p)
}

// Combinations returns every k-element subset of {0..n-1} in lexicographic order.
func Combinations(n, k int) [][]int {
	var out [][]int
	idx := make([]int, k)
	var rec func(start, depth int)
	rec = func(start, depth int) {
		if depth == k {
			out = append(out, append([]int(nil), idx...))
			return
		}
		for i := start; i <= n-(k-depth); i++ {
			idx[depth] = i
			rec(i+1, depth+1)
		}
	}
	rec(0, 0)
	return out
}
