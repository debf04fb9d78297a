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

// Package constants contains shared constants between the client library and the binaries.
package constants

// MinShares is the smallest number of shares (and smallest threshold) a secret can be split into.
const MinShares = 2

// MaxShares is the largest number of shares a secret can be split into. Each share is
// identified by a distinct non-zero element of GF(2^8), so there can be at most 255.
const MaxShares = 255

// DefaultTotalShares is the number of shares produced when neither flags nor config say otherwise.
const DefaultTotalShares = 3

// DefaultThreshold is the threshold used when neither flags nor config say otherwise.
const DefaultThreshold = 2

// DefaultConfigName is the default name for the splitkey configuration file.
const DefaultConfigName = "splitkey.yaml"

// DefaultStoreName is the default file name of the local share store.
const DefaultStoreName = "splitkey.db"

// Version is the current version, displayed via the `version` subcommand.
const Version = "0.1.0"
