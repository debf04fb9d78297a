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

// Package shares converts secret shares to and from their transport representation.
//
// A share token is the share's x coordinate as a single leading byte followed by its
// y values, encoded as one hex or base64 string. Tokens carry no version, threshold or
// integrity data.
package shares

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/GoogleCloudPlatform/splitkey/client/secrets"
)

// Encoding selects the text encoding of share tokens.
type Encoding int

const (
	// Hex encodes tokens as lower case hexadecimal.
	Hex Encoding = iota
	// Base64 encodes tokens as padded standard base64.
	Base64
)

func (e Encoding) String() string {
	switch e {
	case Hex:
		return "hex"
	case Base64:
		return "base64"
	default:
		return fmt.Sprintf("unknown encoding: %d", int(e))
	}
}

// ParseEncoding returns the Encoding named by s ("hex" or "base64").
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hex":
		return Hex, nil
	case "base64":
		return Base64, nil
	default:
		return Hex, fmt.Errorf("%w: unknown share encoding %q", secrets.ErrInvalidParameter, s)
	}
}

// Bytes returns the binary form of a share: x followed by the share value.
func Bytes(share secrets.Share) ([]byte, error) {
	if err := validate(share); err != nil {
		return nil, err
	}
	b := make([]byte, 0, 1+len(share.Value))
	b = append(b, share.X)
	return append(b, share.Value...), nil
}

// FromBytes parses the binary form produced by Bytes. The returned share does not alias b.
func FromBytes(b []byte) (secrets.Share, error) {
	if len(b) < 2 {
		return secrets.Share{}, fmt.Errorf("%w: share is %d bytes, need at least 2", secrets.ErrMalformedShare, len(b))
	}
	share := secrets.Share{
		X:     b[0],
		Value: append([]byte(nil), b[1:]...),
	}
	if share.X == 0 {
		return secrets.Share{}, fmt.Errorf("%w: x must not be 0", secrets.ErrMalformedShare)
	}
	return share, nil
}

// Encode returns the token for share.
func Encode(share secrets.Share, enc Encoding) (string, error) {
	b, err := Bytes(share)
	if err != nil {
		return "", err
	}
	defer clear(b)
	switch enc {
	case Hex:
		return hex.EncodeToString(b), nil
	case Base64:
		return base64.StdEncoding.EncodeToString(b), nil
	default:
		return "", fmt.Errorf("%w: %v", secrets.ErrInvalidParameter, enc)
	}
}

// Decode parses a token produced by Encode with the same encoding. Surrounding
// whitespace is ignored.
func Decode(token string, enc Encoding) (secrets.Share, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return secrets.Share{}, fmt.Errorf("%w: empty token", secrets.ErrMalformedShare)
	}
	var (
		b   []byte
		err error
	)
	switch enc {
	case Hex:
		b, err = hex.DecodeString(token)
	case Base64:
		b, err = base64.StdEncoding.DecodeString(token)
	default:
		return secrets.Share{}, fmt.Errorf("%w: %v", secrets.ErrInvalidParameter, enc)
	}
	if err != nil {
		return secrets.Share{}, fmt.Errorf("%w: invalid %v: %v", secrets.ErrMalformedShare, enc, err)
	}
	defer clear(b)
	return FromBytes(b)
}

// EncodeAll encodes every share, failing on the first invalid one.
func EncodeAll(shares []secrets.Share, enc Encoding) ([]string, error) {
	tokens := make([]string, 0, len(shares))
	for i, s := range shares {
		t, err := Encode(s, enc)
		if err != nil {
			return nil, fmt.Errorf("share %d: %w", i, err)
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

// DecodeAll decodes every token, failing on the first malformed one.
func DecodeAll(tokens []string, enc Encoding) ([]secrets.Share, error) {
	out := make([]secrets.Share, 0, len(tokens))
	for i, t := range tokens {
		s, err := Decode(t, enc)
		if err != nil {
			for _, done := range out {
				clear(done.Value)
			}
			return nil, fmt.Errorf("share %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func validate(share secrets.Share) error {
	if share.X == 0 {
		return fmt.Errorf("%w: x must not be 0", secrets.ErrMalformedShare)
	}
	if len(share.Value) == 0 {
		return fmt.Errorf("%w: share (x = %d) has an empty value", secrets.ErrMalformedShare, share.X)
	}
	return nil
}
