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

package sharestore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "splitkey.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s) err = %v", path, err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestSaveAndGet(t *testing.T) {
	s, _ := openTestStore(t)
	rec := Record{
		TotalShares: 3,
		Threshold:   2,
		Encoding:    "hex",
		Digest:      "1efb55e28007a80fba26c3afb92a3b5a95c93e923ed0f58535c95f02c0e2162d",
		Shares:      []string{"01aa", "02bb", "03cc"},
	}

	saved, err := s.Save("alice", rec)
	if err != nil {
		t.Fatalf("Save() err = %v", err)
	}
	if _, err := uuid.Parse(saved.ID); err != nil {
		t.Errorf("Save() assigned ID %q, not a UUID: %v", saved.ID, err)
	}
	if saved.CreatedAt.IsZero() {
		t.Errorf("Save() did not set CreatedAt")
	}
	if saved.Identity != "alice" {
		t.Errorf("Save() Identity = %q, want %q", saved.Identity, "alice")
	}

	got, err := s.Get("alice")
	if err != nil {
		t.Fatalf("Get() err = %v", err)
	}
	if diff := cmp.Diff(saved, got); diff != "" {
		t.Errorf("Get() unexpected diff (-want +got):\n%s", diff)
	}
}

func TestSaveKeepsProvidedIDAndTime(t *testing.T) {
	s, _ := openTestStore(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := Record{ID: "fixed-id", CreatedAt: created, TotalShares: 2, Threshold: 2, Encoding: "base64", Shares: []string{"AQ==", "Ag=="}}

	saved, err := s.Save("bob", rec)
	if err != nil {
		t.Fatal(err)
	}
	if saved.ID != "fixed-id" || !saved.CreatedAt.Equal(created) {
		t.Errorf("Save() = {ID: %q, CreatedAt: %v}, want {ID: %q, CreatedAt: %v}", saved.ID, saved.CreatedAt, "fixed-id", created)
	}
}

func TestSaveReplaces(t *testing.T) {
	s, _ := openTestStore(t)
	if _, err := s.Save("alice", Record{Threshold: 2, TotalShares: 2, Shares: []string{"01aa", "02bb"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save("alice", Record{Threshold: 2, TotalShares: 3, Shares: []string{"01cc", "02dd", "03ee"}}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get("alice")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"01cc", "02dd", "03ee"}, got.Shares); diff != "" {
		t.Errorf("Get() after replace unexpected diff (-want +got):\n%s", diff)
	}
}

func TestSaveErrors(t *testing.T) {
	s, _ := openTestStore(t)
	if _, err := s.Save("", Record{Shares: []string{"01aa"}}); err == nil {
		t.Errorf("Save() with empty identity returned no error")
	}
	if _, err := s.Save("alice", Record{}); err == nil {
		t.Errorf("Save() without shares returned no error")
	}
}

func TestGetAndDeleteMissing(t *testing.T) {
	s, _ := openTestStore(t)
	if _, err := s.Get("nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() err = %v, want %v", err, ErrNotFound)
	}
	if err := s.Delete("nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() err = %v, want %v", err, ErrNotFound)
	}
}

func TestListAndDelete(t *testing.T) {
	s, _ := openTestStore(t)
	for _, id := range []string{"carol", "alice", "bob"} {
		if _, err := s.Save(id, Record{Threshold: 2, TotalShares: 2, Shares: []string{"01aa", "02bb"}}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.List()
	if err != nil {
		t.Fatalf("List() err = %v", err)
	}
	if diff := cmp.Diff([]string{"alice", "bob", "carol"}, got); diff != "" {
		t.Errorf("List() unexpected diff (-want +got):\n%s", diff)
	}

	if err := s.Delete("bob"); err != nil {
		t.Fatalf("Delete() err = %v", err)
	}
	if _, err := s.Get("bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete err = %v, want %v", err, ErrNotFound)
	}
	got, err = s.List()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"alice", "carol"}, got); diff != "" {
		t.Errorf("List() after Delete unexpected diff (-want +got):\n%s", diff)
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	s, path := openTestStore(t)
	saved, err := s.Save("alice", Record{Threshold: 2, TotalShares: 2, Shares: []string{"01aa", "02bb"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() after Close err = %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get("alice")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(saved, got); diff != "" {
		t.Errorf("Get() after reopen unexpected diff (-want +got):\n%s", diff)
	}
}

func TestListEmpty(t *testing.T) {
	s, _ := openTestStore(t)
	got, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("List() = %v, want empty", got)
	}
}
