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

// Utility functions for checking reconstructed secrets.

package client

import (
	"crypto/hmac"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/tink/go/subtle"
)

const digestHashAlg = "SHA256"

// ErrDigestMismatch is returned by VerifyDigest when a reconstructed secret does not match
// the digest recorded at split time.
var ErrDigestMismatch = errors.New("reconstructed secret does not match digest")

// Digest performs a SHA-256 hash on the provided secret and returns it hex encoded.
// The digest is meant to be stored next to the share tokens, never inside them.
func Digest(secret []byte) (string, error) {
	h, err := hashSecret(secret)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h), nil
}

// VerifyDigest performs Digest on the provided secret, then returns ErrDigestMismatch
// if the result is not equal to the provided digest.
func VerifyDigest(secret []byte, digest string) error {
	want, err := hex.DecodeString(strings.TrimSpace(digest))
	if err != nil {
		return fmt.Errorf("invalid digest: %v", err)
	}
	got, err := hashSecret(secret)
	if err != nil {
		return err
	}
	if !hmac.Equal(got, want) {
		return ErrDigestMismatch
	}
	return nil
}

func hashSecret(secret []byte) ([]byte, error) {
	hashFunc := subtle.GetHashFunc(digestHashAlg)
	if hashFunc == nil {
		return nil, fmt.Errorf("unsupported hash algorithm %s", digestHashAlg)
	}
	h, err := subtle.ComputeHash(hashFunc, secret)
	if err != nil {
		return nil, fmt.Errorf("unable to hash secret: %v", err)
	}
	return h, nil
}
