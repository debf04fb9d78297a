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

// Binary to run the split and combine scenarios against the client library.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"flag"
	"github.com/GoogleCloudPlatform/splitkey/client"
	"github.com/GoogleCloudPlatform/splitkey/client/shares"
	"github.com/alecthomas/colour"
)

var (
	encoding = flag.String("encoding", "hex", "Share encoding to run the scenarios with, hex or base64")
	workers  = flag.Int("workers", 0, "Goroutines per operation, 0 means GOMAXPROCS")
)

type conformanceTest struct {
	testName string
	run      func(ctx context.Context, c *client.SharingClient) error
}

// combineEach checks that every k-subset of tokens reconstructs secret.
func combineEach(ctx context.Context, c *client.SharingClient, tokens []string, k int, secret []byte) error {
	idx := make([]int, k)
	var rec func(start, depth int) error
	rec = func(start, depth int) error {
		if depth == k {
			subset := make([]string, k)
			for i, j := range idx {
				subset[i] = tokens[j]
			}
			got, err := c.Combine(ctx, subset)
			if err != nil {
				return err
			}
			if !bytes.Equal(got, secret) {
				return fmt.Errorf("shares %v reconstructed the wrong secret", idx)
			}
			return nil
		}
		for i := start; i < len(tokens); i++ {
			idx[depth] = i
			if err := rec(i+1, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return rec(0, 0)
}

func expectError(err, want error) error {
	if !errors.Is(err, want) {
		return fmt.Errorf("got error %v, want %v", err, want)
	}
	return nil
}

func main() {
	flag.Parse()

	enc, err := shares.ParseEncoding(*encoding)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	c := client.NewSharingClient(client.WithEncoding(enc), client.WithWorkers(*workers))
	ctx := context.Background()

	fmt.Println("Running split and combine tests...")

	testCases := []conformanceTest{
		{
			testName: "32 zero bytes, 5 shares, any 3 reconstruct",
			run: func(ctx context.Context, c *client.SharingClient) error {
				secret := make([]byte, 32)
				tokens, err := c.Split(ctx, secret, 5, 3)
				if err != nil {
					return err
				}
				return combineEach(ctx, c, tokens, 3, secret)
			},
		},
		{
			testName: "32 zero bytes, 2 of 5 shares reconstruct the wrong secret",
			run: func(ctx context.Context, c *client.SharingClient) error {
				secret := make([]byte, 32)
				tokens, err := c.Split(ctx, secret, 5, 3)
				if err != nil {
					return err
				}
				got, err := c.Combine(ctx, tokens[:2])
				if err != nil {
					return err
				}
				if bytes.Equal(got, secret) {
					return errors.New("2 shares reconstructed the secret")
				}
				return nil
			},
		},
		{
			testName: "hello-secret, 4 shares, any 2 reconstruct",
			run: func(ctx context.Context, c *client.SharingClient) error {
				secret := []byte("hello-secret")
				tokens, err := c.Split(ctx, secret, 4, 2)
				if err != nil {
					return err
				}
				return combineEach(ctx, c, tokens, 2, secret)
			},
		},
		{
			testName: "hello-secret, altered share gives a different secret without error",
			run: func(ctx context.Context, c *client.SharingClient) error {
				secret := []byte("hello-secret")
				split, err := c.SplitShares(ctx, secret, 4, 2)
				if err != nil {
					return err
				}
				split[1].Value[0] ^= 0xFF
				got, err := c.CombineShares(ctx, split[:2])
				if err != nil {
					return err
				}
				if bytes.Equal(got, secret) {
					return errors.New("altered share reconstructed the secret")
				}
				return nil
			},
		},
		{
			testName: "single share is rejected",
			run: func(ctx context.Context, c *client.SharingClient) error {
				tokens, err := c.Split(ctx, []byte("hello-secret"), 3, 2)
				if err != nil {
					return err
				}
				_, err = c.Combine(ctx, tokens[:1])
				return expectError(err, client.ErrInsufficientShares)
			},
		},
		{
			testName: "threshold above share count is rejected",
			run: func(ctx context.Context, c *client.SharingClient) error {
				_, err := c.Split(ctx, []byte("hello-secret"), 3, 4)
				return expectError(err, client.ErrInvalidParameter)
			},
		},
		{
			testName: "one share with threshold one is rejected",
			run: func(ctx context.Context, c *client.SharingClient) error {
				_, err := c.Split(ctx, []byte("hello-secret"), 1, 1)
				return expectError(err, client.ErrInvalidParameter)
			},
		},
		{
			testName: "255 shares, threshold 255",
			run: func(ctx context.Context, c *client.SharingClient) error {
				secret := []byte("hello-secret")
				tokens, err := c.Split(ctx, secret, 255, 255)
				if err != nil {
					return err
				}
				got, err := c.Combine(ctx, tokens)
				if err != nil {
					return err
				}
				if !bytes.Equal(got, secret) {
					return errors.New("255 shares reconstructed the wrong secret")
				}
				return nil
			},
		},
		{
			testName: "256 shares are rejected",
			run: func(ctx context.Context, c *client.SharingClient) error {
				_, err := c.Split(ctx, []byte("hello-secret"), 256, 2)
				return expectError(err, client.ErrInvalidParameter)
			},
		},
		{
			testName: "shares of different lengths are rejected",
			run: func(ctx context.Context, c *client.SharingClient) error {
				a, err := c.Split(ctx, []byte("hello"), 2, 2)
				if err != nil {
					return err
				}
				b, err := c.Split(ctx, []byte("hello-secret"), 2, 2)
				if err != nil {
					return err
				}
				_, err = c.Combine(ctx, []string{a[0], b[1]})
				return expectError(err, client.ErrLengthMismatch)
			},
		},
		{
			testName: "duplicate shares are rejected",
			run: func(ctx context.Context, c *client.SharingClient) error {
				tokens, err := c.Split(ctx, []byte("hello-secret"), 3, 2)
				if err != nil {
					return err
				}
				_, err = c.Combine(ctx, []string{tokens[0], tokens[1], tokens[0]})
				return expectError(err, client.ErrDuplicateXValue)
			},
		},
	}

	failed := 0
	for _, testCase := range testCases {
		err := testCase.run(ctx, c)
		if err == nil {
			colour.Printf("^2 - %v^R\n", testCase.testName)
		} else {
			failed++
			colour.Printf("^1 - %v: %v^R\n", testCase.testName, err)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
