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

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/GoogleCloudPlatform/splitkey/client/sharestore"
	"github.com/google/subcommands"
)

// splitEnv writes a secret and a config pointing the share store at storePath.
func splitEnv(t *testing.T, storePath string) (configPath, secretPath string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "splitkey.yaml")
	if err := os.WriteFile(configPath, []byte("storePath: "+storePath+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	secretPath = filepath.Join(dir, "secret.bin")
	if err := os.WriteFile(secretPath, []byte("hello-secret"), 0600); err != nil {
		t.Fatal(err)
	}
	return configPath, secretPath
}

func runCommand(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("Parse(%v) err = %v", args, err)
	}
	return cmd.Execute(context.Background(), f)
}

func TestSplitWithIdentityThenCombine(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "splitkey.db")
	configPath, secretPath := splitEnv(t, storePath)
	outDir := t.TempDir()
	sharesPath := filepath.Join(outDir, "shares.txt")

	if got := runCommand(t, &splitCmd{}, "--config-file", configPath, "--identity", "alice", "--quiet", secretPath, sharesPath); got != subcommands.ExitSuccess {
		t.Fatalf("split exit status = %v, want %v", got, subcommands.ExitSuccess)
	}
	tokens, err := readTokens(sharesPath)
	if err != nil {
		t.Fatalf("readTokens() err = %v", err)
	}

	store, err := sharestore.Open(storePath)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := store.Get("alice")
	store.Close()
	if err != nil {
		t.Fatalf("Get(alice) err = %v", err)
	}
	if len(rec.Shares) != len(tokens) || rec.Digest == "" {
		t.Errorf("stored record has %d shares and digest %q, want %d shares and a digest", len(rec.Shares), rec.Digest, len(tokens))
	}

	recovered := filepath.Join(outDir, "recovered.bin")
	if got := runCommand(t, &combineCmd{}, "--config-file", configPath, "--identity", "alice", "--quiet", recovered); got != subcommands.ExitSuccess {
		t.Fatalf("combine exit status = %v, want %v", got, subcommands.ExitSuccess)
	}
	got, err := os.ReadFile(recovered)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("hello-secret")) {
		t.Errorf("combine wrote %q, want %q", got, "hello-secret")
	}
}

func TestSplitStoreFailureWritesNoSharesFile(t *testing.T) {
	// A regular file where the store directory should be makes the store unopenable.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0600); err != nil {
		t.Fatal(err)
	}
	configPath, secretPath := splitEnv(t, filepath.Join(blocker, "splitkey.db"))
	sharesPath := filepath.Join(t.TempDir(), "shares.txt")

	if got := runCommand(t, &splitCmd{}, "--config-file", configPath, "--identity", "alice", "--quiet", secretPath, sharesPath); got != subcommands.ExitFailure {
		t.Fatalf("split exit status = %v, want %v", got, subcommands.ExitFailure)
	}
	if _, err := os.Stat(sharesPath); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat(shares file) err = %v, want %v", err, fs.ErrNotExist)
	}
}

func TestCombineRejectsDigestMismatch(t *testing.T) {
	configPath, secretPath := splitEnv(t, filepath.Join(t.TempDir(), "splitkey.db"))
	outDir := t.TempDir()
	sharesPath := filepath.Join(outDir, "shares.txt")
	if got := runCommand(t, &splitCmd{}, "--config-file", configPath, "--quiet", secretPath, sharesPath); got != subcommands.ExitSuccess {
		t.Fatalf("split exit status = %v, want %v", got, subcommands.ExitSuccess)
	}

	wrong := "0000000000000000000000000000000000000000000000000000000000000000"
	recovered := filepath.Join(outDir, "recovered.bin")
	if got := runCommand(t, &combineCmd{}, "--config-file", configPath, "--digest", wrong, "--quiet", sharesPath, recovered); got != subcommands.ExitFailure {
		t.Fatalf("combine exit status = %v, want %v", got, subcommands.ExitFailure)
	}
	if _, err := os.Stat(recovered); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat(secret file) err = %v, want %v", err, fs.ErrNotExist)
	}
}
