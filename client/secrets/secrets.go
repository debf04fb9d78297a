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

// Package secrets contains types for secret sharing. When splitting a secret, a dealer needs
// to provide both the `secret` + `Metadata`. A dealer would then get a `Split`, which contains
// the `Metadata`, the secret shares, and the secret length.
//
// No metadata travels with an individual `Share`: a share only carries its x coordinate and
// its y values, one per secret byte.
package secrets

import (
	"bytes"
	"fmt"

	"github.com/GoogleCloudPlatform/splitkey/constants"
)

// Metadata contains the necessary secret sharing scheme information to split a secret.
type Metadata struct {
	NumShares int
	Threshold int
}

// Validate checks 2 <= Threshold <= NumShares <= 255.
func (m Metadata) Validate() error {
	if m.NumShares < constants.MinShares {
		return fmt.Errorf("%w: numShares must be at least %d, got %d", ErrInvalidParameter, constants.MinShares, m.NumShares)
	}
	if m.NumShares > constants.MaxShares {
		return fmt.Errorf("%w: numShares must be at most %d, got %d", ErrInvalidParameter, constants.MaxShares, m.NumShares)
	}
	if m.Threshold < constants.MinShares {
		return fmt.Errorf("%w: threshold must be at least %d, got %d", ErrInvalidParameter, constants.MinShares, m.Threshold)
	}
	if m.Threshold > m.NumShares {
		return fmt.Errorf("%w: threshold %d is larger than numShares %d", ErrInvalidParameter, m.Threshold, m.NumShares)
	}
	return nil
}

// Split represents a secret split into shares alongside the metadata used to create it.
type Split struct {
	Metadata Metadata
	Shares   []Share
	// The length of the original split secret in bytes.
	SecretLen int
}

// Share represents one share of a shared secret without any metadata.
type Share struct {
	// Value holds one evaluated polynomial per secret byte, y[i] = P_i(X).
	Value []byte
	// X is the evaluation point. It is never 0, which is reserved for the secret itself.
	X byte
}

// Equal reports whether s and o are the same point set.
func (s Share) Equal(o Share) bool {
	return s.X == o.X && bytes.Equal(s.Value, o.Value)
}
