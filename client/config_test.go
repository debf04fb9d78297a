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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/GoogleCloudPlatform/splitkey/client/shares"
	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "splitkey.yaml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
totalShares: 5
threshold: 3
encoding: base64
storePath: /tmp/shares.db
workers: 4
`)
	got, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig() err = %v", err)
	}
	want := &Config{
		TotalShares: 5,
		Threshold:   3,
		Encoding:    "base64",
		StorePath:   "/tmp/shares.db",
		Workers:     4,
		VerifyLimit: 1000,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadConfig() unexpected diff (-want +got):\n%s", diff)
	}

	c, err := got.NewSharingClient()
	if err != nil {
		t.Fatalf("NewSharingClient() err = %v", err)
	}
	if c.Encoding() != shares.Base64 {
		t.Errorf("NewSharingClient().Encoding() = %v, want %v", c.Encoding(), shares.Base64)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	got, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig(allowMissing) err = %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), got); diff != "" {
		t.Errorf("LoadConfig(allowMissing) unexpected diff (-want +got):\n%s", diff)
	}

	if _, err := LoadConfig(path, false); err == nil {
		t.Errorf("LoadConfig() of a missing file returned no error")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	testCases := []struct {
		name      string
		contents  string
		wantError error
	}{
		{name: "unknown field", contents: "shares: 3\n"},
		{name: "threshold above shares", contents: "totalShares: 3\nthreshold: 4\n", wantError: ErrInvalidParameter},
		{name: "threshold one", contents: "threshold: 1\n", wantError: ErrInvalidParameter},
		{name: "bad encoding", contents: "encoding: base32\n", wantError: ErrInvalidParameter},
		{name: "negative workers", contents: "workers: -1\n", wantError: ErrInvalidParameter},
		{name: "negative verify limit", contents: "verifyLimit: -2\n", wantError: ErrInvalidParameter},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.contents), false)
			if err == nil {
				t.Fatalf("LoadConfig() returned no error")
			}
			if tc.wantError != nil && !errors.Is(err, tc.wantError) {
				t.Errorf("LoadConfig() err = %v, want %v", err, tc.wantError)
			}
		})
	}
}
