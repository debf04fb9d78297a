// Copyright 2024 Google LLC
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

package client

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/GoogleCloudPlatform/splitkey/client/secrets"
	"github.com/GoogleCloudPlatform/splitkey/client/shares"
	glog "github.com/golang/glog"
)

// ErrCombinationMismatch is returned by VerifyCombinations when a subset of shares does
// not reconstruct the expected secret.
var ErrCombinationMismatch = errors.New("share combination does not reconstruct the secret")

// VerifyCombinations checks freshly split tokens by combining every threshold-sized subset
// and comparing the result with secret. Subsets are visited in lexicographic order of
// token indices; at most limit subsets are checked, limit <= 0 checks all of them.
// It returns the number of subsets checked.
func (c *SharingClient) VerifyCombinations(ctx context.Context, tokens []string, threshold int, secret []byte, limit int) (int, error) {
	if threshold < 2 || threshold > len(tokens) {
		return 0, fmt.Errorf("%w: threshold %d with %d shares", ErrInvalidParameter, threshold, len(tokens))
	}
	decoded, err := shares.DecodeAll(tokens, c.encoding)
	if err != nil {
		return 0, fmt.Errorf("error decoding shares: %w", err)
	}
	defer func() {
		for _, s := range decoded {
			clear(s.Value)
		}
	}()

	checked := 0
	idx := make([]int, threshold)
	for i := range idx {
		idx[i] = i
	}
	subset := make([]secrets.Share, threshold)
	for {
		if limit > 0 && checked >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return checked, err
		}
		for i, j := range idx {
			subset[i] = decoded[j]
		}
		got, err := c.CombineShares(ctx, subset)
		if err != nil {
			return checked, fmt.Errorf("combining shares %v: %w", idx, err)
		}
		ok := subtle.ConstantTimeCompare(got, secret) == 1
		clear(got)
		if !ok {
			return checked, fmt.Errorf("%w: shares %v", ErrCombinationMismatch, idx)
		}
		checked++
		if !nextCombination(idx, len(decoded)) {
			break
		}
	}
	glog.V(1).Infof("Verified %d combinations of %d out of %d shares", checked, threshold, len(tokens))
	return checked, nil
}

// nextCombination advances idx to the next k-subset of {0..n-1} in lexicographic order.
// It returns false once idx was the last subset.
func nextCombination(idx []int, n int) bool {
	k := len(idx)
	i := k - 1
	for i >= 0 && idx[i] == n-k+i {
		i--
	}
	if i < 0 {
		return false
	}
	idx[i]++
	for j := i + 1; j < k; j++ {
		idx[j] = idx[j-1] + 1
	}
	return true
}
