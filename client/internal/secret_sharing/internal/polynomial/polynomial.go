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

// Package polynomial builds the random polynomials used to hide each byte of a secret.
package polynomial

import (
	"fmt"
	"io"

	"github.com/GoogleCloudPlatform/splitkey/client/internal/secret_sharing/internal/field/gf8"
	"github.com/GoogleCloudPlatform/splitkey/client/secrets"
)

// Polynomial holds coefficients over GF(2^8) in ascending order:
// f(x) = c[0] + c[1] * x^1 + ... + c[n-1] * x^(n-1)
type Polynomial []gf8.Element

// Random builds a polynomial of degree threshold-1 whose constant term is intercept.
// Every other coefficient is read from rand, one byte each, so they are uniform over the
// field as long as rand is. rand must be a cryptographically secure source; a failed or
// short read returns an error wrapping secrets.ErrRandomnessUnavailable.
func Random(intercept byte, threshold int, rand io.Reader) (Polynomial, error) {
	if threshold < 1 {
		return nil, fmt.Errorf("%w: threshold must be positive, got %d", secrets.ErrInvalidParameter, threshold)
	}
	buf := make([]byte, threshold-1)
	defer clear(buf)
	if _, err := io.ReadFull(rand, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", secrets.ErrRandomnessUnavailable, err)
	}
	p := make(Polynomial, threshold)
	p[0] = gf8.Element(intercept)
	for i, b := range buf {
		p[i+1] = gf8.Element(b)
	}
	return p, nil
}

// Evaluate returns f(x) using Horner's method:
// f(x) = c[0] + x * (c[1] + x * (c[2] + ... + x * c[n-1]))
func (p Polynomial) Evaluate(x gf8.Element) gf8.Element {
	sum := gf8.Zero
	for i := len(p) - 1; i > 0; i-- {
		sum = sum.Add(p[i]).Multiply(x)
	}
	if len(p) == 0 {
		return sum
	}
	return sum.Add(p[0])
}

// Zero overwrites all coefficients.
func (p Polynomial) Zero() {
	clear(p)
}
