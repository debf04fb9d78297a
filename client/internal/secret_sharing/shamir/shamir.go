// Copyright 2022 Google LLC
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

// Package shamir encapsulates all of the logic needed to perform t-of-n [Shamir
// Secret Sharing] (SSS) on arbitrary-size secrets over GF(2^8). SSS is based on
// the Lagrange interpolation theorem, which states that `k` points are enough to
// uniquely determine a polynomial of degree less than or equal to `k - 1`.
//
// Every byte of the secret is the constant term of its own random polynomial, so
// byte positions are independent and are processed in parallel chunks.
//
// This scheme is secure under the following assumptions:
//   - The scheme requires a trusted dealer to generate the shares. Participants
//     must trust the dealer with access to the secret and to properly generate the
//     shares.
//   - The scheme assumes a passive adversary which can observe (t - 1) shares
//     without being able to reconstruct the secrets. However, this scheme
//     assumes the adversary isn't allowed to participate in the `reconstruct` step by
//     providing a chosen share.
//     Examples of this attack: https://crypto.stackexchange.com/q/41994/76875
//
// Shares carry no threshold and no integrity tag. Reconstructing from fewer shares
// than the threshold, from shares of different splits, or from corrupted shares
// returns a wrong secret without an error. Callers that need to detect this must
// check the result against an integrity value kept separately.
//
// [Shamir Secret Sharing]: https://web.mit.edu/6.857/OldStuff/Fall03/ref/Shamir-HowToShareAsecrets.pdf
package shamir

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/GoogleCloudPlatform/splitkey/client/internal/secret_sharing/internal/field/gf8"
	"github.com/GoogleCloudPlatform/splitkey/client/internal/secret_sharing/internal/interpolate"
	"github.com/GoogleCloudPlatform/splitkey/client/internal/secret_sharing/internal/polynomial"
	"github.com/GoogleCloudPlatform/splitkey/client/secrets"
	glog "github.com/golang/glog"
	"golang.org/x/sync/errgroup"
)

// minChunk is the smallest number of byte positions handed to one worker.
const minChunk = 512

// SplitSecret splits a secret into metadata.NumShares shares where metadata.Threshold
// or more shares can be combined to reconstruct the original secret.
//
// rand must be a cryptographically secure source. All randomness for the split is read
// up front in a single blocking read; if it fails nothing is evaluated. workers bounds
// the number of goroutines evaluating byte positions, <= 0 means GOMAXPROCS.
func SplitSecret(ctx context.Context, metadata secrets.Metadata, secret []byte, rand io.Reader, workers int) (secrets.Split, error) {
	if err := validateSplitInput(metadata, secret); err != nil {
		return secrets.Split{}, err
	}
	if rand == nil {
		return secrets.Split{}, fmt.Errorf("%w: no random source configured", secrets.ErrRandomnessUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return secrets.Split{}, err
	}
	threshold := metadata.Threshold
	numShares := metadata.NumShares
	secretLen := len(secret)

	// Coefficients c[1..threshold-1] of every polynomial, position after position.
	random := make([]byte, secretLen*(threshold-1))
	defer clear(random)
	if _, err := io.ReadFull(rand, random); err != nil {
		return secrets.Split{}, fmt.Errorf("%w: reading %d random bytes: %v", secrets.ErrRandomnessUnavailable, len(random), err)
	}

	shares := make([]secrets.Share, numShares)
	for i := range shares {
		shares[i] = secrets.Share{
			Value: make([]byte, secretLen),
			X:     byte(i + 1),
		}
	}

	glog.V(1).Infof("Splitting %d byte secret into %d shares with threshold %d", secretLen, numShares, threshold)

	err := forEachChunk(ctx, secretLen, workers, func(lo, hi int) error {
		// For each byte we build a polynomial of degree `threshold - 1`.
		// Each byte is the constant coefficient in the polynomial and every other coefficient
		// is a random field element:
		// secret[i] + R_1 * x^1 + R_2 * X^2 + ... + R_N * X^N
		r := bytes.NewReader(random[lo*(threshold-1) : hi*(threshold-1)])
		for i := lo; i < hi; i++ {
			p, err := polynomial.Random(secret[i], threshold, r)
			if err != nil {
				return err
			}
			// shares is a set of evaluated polynomials, one per secret byte:
			// shares[0] = 			[ F1(1), F2(1), ..., FL(1) ]
			// shares[1] = 			[ F1(2), F2(2), ..., FL(2) ]
			// shares[N - 1] = 	[ F1(N), F2(N), ..., FL(N) ]
			for j := range shares {
				shares[j].Value[i] = byte(p.Evaluate(gf8.Element(shares[j].X)))
			}
			p.Zero()
		}
		return nil
	})
	if err != nil {
		for _, s := range shares {
			clear(s.Value)
		}
		return secrets.Split{}, err
	}
	return secrets.Split{
		Shares:    shares,
		Metadata:  metadata,
		SecretLen: secretLen,
	}, nil
}

// Reconstruct reconstructs a secret from at least 2 shares using shamir secret sharing.
//
// Every supplied share takes part in the interpolation and their order does not matter.
// Reconstruct will not detect bogus, corrupted or too few shares: the result is then a
// wrong secret, not an error.
func Reconstruct(ctx context.Context, shares []secrets.Share, workers int) ([]byte, error) {
	if err := validateReconstructInput(shares); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	xVals := make([]gf8.Element, len(shares))
	for i, s := range shares {
		xVals[i] = gf8.Element(s.X)
	}
	// Precompute the Lagrange coefficients before performing polynomial interpolation.
	// They only depend on the x coordinates and are shared by every byte position.
	basis, err := interpolate.BasisAtZero(xVals)
	if err != nil {
		return nil, err
	}

	secretLen := len(shares[0].Value)
	secret := make([]byte, secretLen)

	glog.V(1).Infof("Reconstructing %d byte secret from %d shares", secretLen, len(shares))

	err = forEachChunk(ctx, secretLen, workers, func(lo, hi int) error {
		yVals := make([]byte, len(shares))
		defer clear(yVals)
		for i := lo; i < hi; i++ {
			for j, s := range shares {
				yVals[j] = s.Value[i]
			}
			// AtZero recovers the C[0] coefficient, the geometric interpretation
			// of the intersection with the Y axis.
			b, err := interpolate.AtZero(basis, yVals)
			if err != nil {
				return err
			}
			secret[i] = byte(b)
		}
		return nil
	})
	if err != nil {
		clear(secret)
		return nil, err
	}
	return secret, nil
}

// forEachChunk splits [0, n) into contiguous chunks and runs fn on them with at most
// workers goroutines. The first error cancels the remaining chunks and is returned.
func forEachChunk(ctx context.Context, n, workers int, fn func(lo, hi int) error) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := max(minChunk, (n+workers-1)/workers)
	if chunk >= n {
		return fn(0, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	glog.V(2).Infof("Processing %d positions in chunks of %d with %d workers", n, chunk, workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(lo, hi)
		})
	}
	return g.Wait()
}

func validateSplitInput(metadata secrets.Metadata, secret []byte) error {
	if len(secret) == 0 {
		return fmt.Errorf("%w: secret must not be empty", secrets.ErrInvalidParameter)
	}
	return metadata.Validate()
}

func validateReconstructInput(shares []secrets.Share) error {
	if len(shares) < 2 {
		return fmt.Errorf("%w: need at least 2 shares to reconstruct the secret, got %d", secrets.ErrInsufficientShares, len(shares))
	}
	for i, s := range shares {
		if s.X == 0 {
			return fmt.Errorf("%w: share %d has x = 0", secrets.ErrMalformedShare, i)
		}
		if len(s.Value) == 0 {
			return fmt.Errorf("%w: share %d (x = %d) has an empty value", secrets.ErrMalformedShare, i, s.X)
		}
	}
	want := len(shares[0].Value)
	for i, s := range shares[1:] {
		if len(s.Value) != want {
			return fmt.Errorf("%w: share %d (x = %d) has length %d, share 0 (x = %d) has length %d", secrets.ErrLengthMismatch, i+1, s.X, len(s.Value), shares[0].X, want)
		}
	}
	var seen [256]int
	for i, s := range shares {
		if prev := seen[s.X]; prev != 0 {
			return fmt.Errorf("%w: x = %d appears in shares %d and %d", secrets.ErrDuplicateXValue, s.X, prev-1, i)
		}
		seen[s.X] = i + 1
	}
	return nil
}
