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

// Package client is the client library for splitkey.
//
// It splits a secret into share tokens with Shamir's Secret Sharing over GF(2^8) and
// combines tokens back into the secret. Tokens carry no threshold or integrity data:
// combining too few shares, shares from different splits, or altered shares returns a
// wrong secret without an error. Callers that must detect this keep a Digest of the
// secret next to the tokens and check it with VerifyDigest after Combine.
package client

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/GoogleCloudPlatform/splitkey/client/internal/secret_sharing/shamir"
	"github.com/GoogleCloudPlatform/splitkey/client/secrets"
	"github.com/GoogleCloudPlatform/splitkey/client/shares"
	glog "github.com/golang/glog"
)

// Error kinds, see package secrets.
var (
	ErrInvalidParameter      = secrets.ErrInvalidParameter
	ErrRandomnessUnavailable = secrets.ErrRandomnessUnavailable
	ErrInsufficientShares    = secrets.ErrInsufficientShares
	ErrLengthMismatch        = secrets.ErrLengthMismatch
	ErrDuplicateXValue       = secrets.ErrDuplicateXValue
	ErrMalformedShare        = secrets.ErrMalformedShare
	ErrArithmetic            = secrets.ErrArithmetic
)

// SharingClient provides secret splitting and reconstruction. It holds no state across
// calls besides its configuration and is safe for concurrent use as long as its random
// source is.
type SharingClient struct {
	// Source of coefficients for the random polynomials. Must be a CSPRNG.
	rand io.Reader

	// Text encoding of share tokens.
	encoding shares.Encoding

	// Maximum number of goroutines per operation, <= 0 means GOMAXPROCS.
	workers int
}

// Option configures a SharingClient.
type Option func(*SharingClient)

// WithRandom sets the random source used for splitting. It exists so tests can inject a
// seeded source; production callers should keep the default crypto/rand reader.
func WithRandom(r io.Reader) Option {
	return func(c *SharingClient) { c.rand = r }
}

// WithEncoding sets the share token encoding.
func WithEncoding(enc shares.Encoding) Option {
	return func(c *SharingClient) { c.encoding = enc }
}

// WithWorkers bounds the goroutines used per operation.
func WithWorkers(n int) Option {
	return func(c *SharingClient) { c.workers = n }
}

// NewSharingClient returns a client using crypto/rand and hex tokens unless configured
// otherwise.
func NewSharingClient(opts ...Option) *SharingClient {
	c := &SharingClient{
		rand:     rand.Reader,
		encoding: shares.Hex,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encoding returns the share token encoding of the client.
func (c *SharingClient) Encoding() shares.Encoding {
	return c.encoding
}

// SplitShares splits secret into totalShares shares, any threshold of which reconstruct it.
// Share i has x coordinate i+1.
func (c *SharingClient) SplitShares(ctx context.Context, secret []byte, totalShares, threshold int) ([]secrets.Share, error) {
	md := secrets.Metadata{
		NumShares: totalShares,
		Threshold: threshold,
	}
	split, err := shamir.SplitSecret(ctx, md, secret, c.rand, c.workers)
	if err != nil {
		return nil, fmt.Errorf("error splitting secret: %w", err)
	}

	// Validate the returned data.
	if split.SecretLen != len(secret) || len(split.Shares) != totalShares {
		return nil, fmt.Errorf("split returned %d shares for a %d byte secret, expected %d shares for %d bytes", len(split.Shares), split.SecretLen, totalShares, len(secret))
	}
	return split.Shares, nil
}

// Split splits secret into totalShares encoded share tokens, any threshold of which
// reconstruct it.
func (c *SharingClient) Split(ctx context.Context, secret []byte, totalShares, threshold int) ([]string, error) {
	split, err := c.SplitShares(ctx, secret, totalShares, threshold)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, s := range split {
			clear(s.Value)
		}
	}()
	tokens, err := shares.EncodeAll(split, c.encoding)
	if err != nil {
		return nil, fmt.Errorf("error encoding shares: %w", err)
	}
	glog.V(1).Infof("Split secret into %d %v shares with threshold %d", len(tokens), c.encoding, threshold)
	return tokens, nil
}

// CombineShares reconstitutes the secret from at least 2 shares. Note that this does not
// guarantee the shares are correct (SSS will succeed at "reconstructing" data from
// even faulty or too few shares), so integrity checks are done separately.
func (c *SharingClient) CombineShares(ctx context.Context, split []secrets.Share) ([]byte, error) {
	secret, err := shamir.Reconstruct(ctx, split, c.workers)
	if err != nil {
		return nil, fmt.Errorf("error combining shares: %w", err)
	}
	return secret, nil
}

// Combine decodes share tokens and reconstitutes the secret. See CombineShares.
func (c *SharingClient) Combine(ctx context.Context, tokens []string) ([]byte, error) {
	if len(tokens) < 2 {
		return nil, fmt.Errorf("error combining shares: %w: need at least 2 shares, got %d", ErrInsufficientShares, len(tokens))
	}
	split, err := shares.DecodeAll(tokens, c.encoding)
	if err != nil {
		return nil, fmt.Errorf("error decoding shares: %w", err)
	}
	defer func() {
		for _, s := range split {
			clear(s.Value)
		}
	}()
	return c.CombineShares(ctx, split)
}

// Split splits secret into hex share tokens using crypto/rand.
func Split(ctx context.Context, secret []byte, totalShares, threshold int) ([]string, error) {
	return NewSharingClient().Split(ctx, secret, totalShares, threshold)
}

// Combine reconstitutes a secret from hex share tokens.
func Combine(ctx context.Context, tokens []string) ([]byte, error) {
	return NewSharingClient().Combine(ctx, tokens)
}
