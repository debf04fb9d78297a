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

// Package sharestore keeps split records in a local bolt database, keyed by identity.
//
// A record holds the share tokens together with what a token does not carry: the
// threshold, the encoding and a digest of the secret. The secret itself is never stored.
package sharestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Psiphon-Labs/bolt"
	glog "github.com/golang/glog"
	"github.com/google/uuid"
	"sigs.k8s.io/yaml"
)

var sharesBucket = []byte("shares")

// ErrNotFound is returned when no record exists for an identity.
var ErrNotFound = errors.New("no shares stored for identity")

// Record is one stored split.
type Record struct {
	ID          string    `json:"id"`
	Identity    string    `json:"identity"`
	CreatedAt   time.Time `json:"createdAt"`
	TotalShares int       `json:"totalShares"`
	Threshold   int       `json:"threshold"`
	Encoding    string    `json:"encoding"`
	Digest      string    `json:"digest,omitempty"`
	Shares      []string  `json:"shares"`
}

// Store is a bolt backed share store. It is safe for concurrent use.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %v", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open share store %s: %v", path, err)
	}

	err = db.View(func(tx *bolt.Tx) error {
		return tx.SynchronousCheck()
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("share store %s failed consistency check: %v", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sharesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize share store: %v", err)
	}

	glog.V(1).Infof("Opened share store %s", path)
	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores rec under identity, replacing any previous record. An empty ID or
// CreatedAt is filled in. The stored record is returned.
func (s *Store) Save(identity string, rec Record) (Record, error) {
	if identity == "" {
		return Record{}, errors.New("identity must not be empty")
	}
	if len(rec.Shares) == 0 {
		return Record{}, errors.New("record has no shares")
	}
	rec.Identity = identity
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	value, err := yaml.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("failed to marshal record: %v", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sharesBucket).Put([]byte(identity), value)
	})
	if err != nil {
		return Record{}, fmt.Errorf("failed to save shares for %q: %v", identity, err)
	}

	glog.V(1).Infof("Saved %d shares for %q (record %s)", len(rec.Shares), identity, rec.ID)
	return rec, nil
}

// Get returns the record stored under identity.
func (s *Store) Get(identity string) (Record, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		// Bolt values are only valid for the life of the transaction.
		if v := tx.Bucket(sharesBucket).Get([]byte(identity)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return Record{}, fmt.Errorf("failed to read shares for %q: %v", identity, err)
	}
	if value == nil {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, identity)
	}

	var rec Record
	if err := yaml.UnmarshalStrict(value, &rec); err != nil {
		return Record{}, fmt.Errorf("corrupt record for %q: %v", identity, err)
	}
	return rec, nil
}

// Delete removes the record stored under identity.
func (s *Store) Delete(identity string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sharesBucket)
		if b.Get([]byte(identity)) == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, identity)
		}
		return b.Delete([]byte(identity))
	})
	if err != nil {
		return err
	}
	glog.V(1).Infof("Deleted shares for %q", identity)
	return nil
}

// List returns the stored identities in sorted order.
func (s *Store) List() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sharesBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list share store: %v", err)
	}
	sort.Strings(ids)
	return ids, nil
}
