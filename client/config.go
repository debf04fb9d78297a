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
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/GoogleCloudPlatform/splitkey/client/secrets"
	"github.com/GoogleCloudPlatform/splitkey/client/shares"
	"github.com/GoogleCloudPlatform/splitkey/constants"
	glog "github.com/golang/glog"
	"sigs.k8s.io/yaml"
)

// Config is the splitkey configuration file.
type Config struct {
	// TotalShares is the default number of shares to split into.
	TotalShares int `json:"totalShares,omitempty"`
	// Threshold is the default number of shares needed to reconstruct.
	Threshold int `json:"threshold,omitempty"`
	// Encoding is the share token encoding, "hex" or "base64".
	Encoding string `json:"encoding,omitempty"`
	// StorePath is the location of the local share store.
	StorePath string `json:"storePath,omitempty"`
	// Workers bounds the goroutines per split or combine, 0 means GOMAXPROCS.
	Workers int `json:"workers,omitempty"`
	// VerifyLimit caps the share combinations checked after a split, 0 checks all.
	VerifyLimit int `json:"verifyLimit,omitempty"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	storePath := constants.DefaultStoreName
	if dir, err := os.UserConfigDir(); err == nil {
		storePath = filepath.Join(dir, constants.DefaultStoreName)
	}
	return &Config{
		TotalShares: constants.DefaultTotalShares,
		Threshold:   constants.DefaultThreshold,
		Encoding:    shares.Hex.String(),
		StorePath:   storePath,
		VerifyLimit: 1000,
	}
}

// DefaultConfigPath returns the location of the configuration file in the user config directory.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		glog.Errorf("Failed to get config directory location: %v", err.Error())
		return constants.DefaultConfigName
	}
	return filepath.Join(dir, constants.DefaultConfigName)
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig. A missing file is
// not an error when allowMissing is set.
func LoadConfig(path string, allowMissing bool) (*Config, error) {
	cfg := DefaultConfig()
	yamlBytes, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && allowMissing {
		glog.V(1).Infof("No config file at %s, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}
	if err := yaml.UnmarshalStrict(yamlBytes, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the share counts and the encoding.
func (c *Config) Validate() error {
	md := secrets.Metadata{NumShares: c.TotalShares, Threshold: c.Threshold}
	if err := md.Validate(); err != nil {
		return err
	}
	if _, err := shares.ParseEncoding(c.Encoding); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidParameter, c.Workers)
	}
	if c.VerifyLimit < 0 {
		return fmt.Errorf("%w: verifyLimit must not be negative, got %d", ErrInvalidParameter, c.VerifyLimit)
	}
	return nil
}

// NewSharingClient builds a client from the configuration.
func (c *Config) NewSharingClient(opts ...Option) (*SharingClient, error) {
	enc, err := shares.ParseEncoding(c.Encoding)
	if err != nil {
		return nil, err
	}
	base := []Option{WithEncoding(enc), WithWorkers(c.Workers)}
	return NewSharingClient(append(base, opts...)...), nil
}
