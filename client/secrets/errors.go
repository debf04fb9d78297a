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

package secrets

import "errors"

// Error kinds returned by the secret sharing library. Returned errors wrap exactly one of
// these and can be matched with errors.Is. None of them ever carries secret material.
var (
	// ErrInvalidParameter is returned when numShares or threshold are out of bounds,
	// or the secret is empty.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrRandomnessUnavailable is returned when the random source fails while splitting.
	ErrRandomnessUnavailable = errors.New("secure randomness unavailable")
	// ErrInsufficientShares is returned when fewer than 2 shares are combined.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrLengthMismatch is returned when combined shares have different lengths.
	ErrLengthMismatch = errors.New("share length mismatch")
	// ErrDuplicateXValue is returned when two combined shares have the same x coordinate.
	ErrDuplicateXValue = errors.New("duplicate share x value")
	// ErrMalformedShare is returned for shares that cannot be decoded or have x = 0.
	ErrMalformedShare = errors.New("malformed share")
	// ErrArithmetic is returned when a field inverse of zero is requested.
	ErrArithmetic = errors.New("field arithmetic failure")
)
