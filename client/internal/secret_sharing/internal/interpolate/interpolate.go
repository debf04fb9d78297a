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

// Package interpolate recovers the constant term of a polynomial over GF(2^8) from a set of
// points using Lagrange interpolation at x = 0.
package interpolate

import (
	"fmt"

	"github.com/GoogleCloudPlatform/splitkey/client/internal/secret_sharing/internal/field/gf8"
	"github.com/GoogleCloudPlatform/splitkey/client/secrets"
)

// BasisAtZero recovers the coefficients to perform lagrange polynomial interpolation at 0
// using the x coordinates:
// l[j] = ∏m={1,n,m≠j} ( (0 - x[m]) / ( x[j] - x[m] ) )
// In GF(2^8) subtraction is xor, so (0 - x[m]) is just x[m].
//
// The basis only depends on the x coordinates, so it is computed once and reused for every
// byte position of the secret.
func BasisAtZero(x []gf8.Element) ([]gf8.Element, error) {
	if len(x) < 2 {
		return nil, fmt.Errorf("%w: must have at least 2 points, got %d", secrets.ErrInsufficientShares, len(x))
	}
	out := make([]gf8.Element, len(x))
	for j := range x {
		num, den := gf8.One, gf8.One
		for m := range x {
			if m == j {
				continue
			}
			num = num.Multiply(gf8.Zero.Subtract(x[m]))
			den = den.Multiply(x[j].Subtract(x[m]))
		}
		// den is zero only if two x coordinates collide.
		l, err := num.Divide(den)
		if err != nil {
			return nil, fmt.Errorf("%w: lagrange basis for x = %d: %v", secrets.ErrArithmetic, x[j], err)
		}
		out[j] = l
	}
	return out, nil
}

// AtZero performs lagrange polynomial interpolation at 0 from precomputed basis coefficients
// and the matching y coordinates:
// ∑j={1,n} y[j] * l[j]
func AtZero(basis []gf8.Element, y []byte) (gf8.Element, error) {
	if len(basis) != len(y) {
		return gf8.Zero, fmt.Errorf("%w: %d lagrange coefficients for %d points", secrets.ErrLengthMismatch, len(basis), len(y))
	}
	sum := gf8.Zero
	for j, yj := range y {
		sum = sum.Add(gf8.Element(yj).Multiply(basis[j]))
	}
	return sum, nil
}
