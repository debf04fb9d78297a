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

// This binary is the main entrypoint for the splitkey command line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"flag"
	"github.com/GoogleCloudPlatform/splitkey/client"
	"github.com/GoogleCloudPlatform/splitkey/client/shares"
	"github.com/GoogleCloudPlatform/splitkey/client/sharestore"
	"github.com/GoogleCloudPlatform/splitkey/constants"
	glog "github.com/golang/glog"
	"github.com/google/subcommands"
)

// splitCmd handles CLI options for the split command.
type splitCmd struct {
	configFile  string
	totalShares int
	threshold   int
	encoding    string
	identity    string
	prompt      bool
	verify      bool
	quiet       bool
}

func (*splitCmd) Name() string { return "split" }
func (*splitCmd) Synopsis() string {
	return "splits a secret into shares, any threshold of which reconstruct it"
}
func (*splitCmd) Usage() string {
	return fmt.Sprintf(`Usage: splitkey split [--config-file=<config_file>] [--shares=<n>] [--threshold=<k>] [--encoding=hex|base64] [--identity=<id>] [--verify] <secret_file> <shares_file>
       splitkey split --prompt [flags] <shares_file>

Shares are written one per line. Defaults come from %s.

Examples:
  Split a key file into 5 shares, any 3 of which reconstruct it:
    $ splitkey split --shares=5 --threshold=3 key.bin shares.txt

  Split a secret read from stdin and print the shares:
    $ my-application | splitkey split - -

  Type the secret without echo, check every share combination and keep the shares under an identity:
    $ splitkey split --prompt --verify --identity=backup-key -

Flags:
`, client.DefaultConfigPath())
}
func (s *splitCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.configFile, "config-file", client.DefaultConfigPath(), "Path to a splitkey YAML file. Optional.")
	f.IntVar(&s.totalShares, "shares", 0, "Number of shares to create. Overrides the config file.")
	f.IntVar(&s.threshold, "threshold", 0, "Number of shares needed to reconstruct. Overrides the config file.")
	f.StringVar(&s.encoding, "encoding", "", "Share encoding, hex or base64. Overrides the config file.")
	f.StringVar(&s.identity, "identity", "", "Save the shares in the share store under this identity. Optional.")
	f.BoolVar(&s.prompt, "prompt", false, "Read the secret from the terminal without echo.")
	f.BoolVar(&s.verify, "verify", false, "Check that every threshold-sized share combination reconstructs the secret.")
	f.BoolVar(&s.quiet, "quiet", false, "Suppress logging output.")
}

func (s *splitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := client.LoadConfig(s.configFile, true)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err.Error())
		return subcommands.ExitFailure
	}
	if s.totalShares != 0 {
		cfg.TotalShares = s.totalShares
	}
	if s.threshold != 0 {
		cfg.Threshold = s.threshold
	}
	if s.encoding != "" {
		cfg.Encoding = s.encoding
	}
	if err := cfg.Validate(); err != nil {
		glog.Errorf("Invalid split parameters: %v", err.Error())
		return subcommands.ExitFailure
	}

	var secret []byte
	var outPath string
	if s.prompt {
		if f.NArg() < 1 {
			glog.Errorf("Not enough arguments (expected shares file)")
			return subcommands.ExitFailure
		}
		outPath = f.Arg(0)
		secret, err = promptSecret("Secret: ")
	} else {
		if f.NArg() < 2 {
			glog.Errorf("Not enough arguments (expected secret file and shares file)")
			return subcommands.ExitFailure
		}
		outPath = f.Arg(1)
		secret, err = readSecret(f.Arg(0))
	}
	if err != nil {
		glog.Errorf("Failed to read secret: %v", err.Error())
		return subcommands.ExitFailure
	}
	defer clear(secret)

	c, err := cfg.NewSharingClient()
	if err != nil {
		glog.Errorf("Failed to create client: %v", err.Error())
		return subcommands.ExitFailure
	}

	tokens, err := c.Split(ctx, secret, cfg.TotalShares, cfg.Threshold)
	if err != nil {
		glog.Errorf("Failed to split secret: %v", err.Error())
		return subcommands.ExitFailure
	}

	if s.verify {
		n, err := c.VerifyCombinations(ctx, tokens, cfg.Threshold, secret, cfg.VerifyLimit)
		if err != nil {
			glog.Errorf("Share verification failed: %v", err.Error())
			return subcommands.ExitFailure
		}
		glog.Infof("Verified %d share combinations", n)
	}

	digest, err := client.Digest(secret)
	if err != nil {
		glog.Errorf("Failed to compute secret digest: %v", err.Error())
		return subcommands.ExitFailure
	}

	// Saved before the shares file is created.
	var saved *sharestore.Record
	if s.identity != "" {
		rec, err := saveShares(cfg.StorePath, s.identity, sharestore.Record{
			TotalShares: cfg.TotalShares,
			Threshold:   cfg.Threshold,
			Encoding:    c.Encoding().String(),
			Digest:      digest,
			Shares:      tokens,
		})
		if err != nil {
			glog.Errorf("Failed to save shares: %v", err.Error())
			return subcommands.ExitFailure
		}
		saved = &rec
	}

	out, logFile, err := openOutput(outPath)
	if err != nil {
		glog.Errorf("Failed to open file for shares: %v", err.Error())
		return subcommands.ExitFailure
	}
	defer out.Close()

	if err := writeTokens(out, tokens); err != nil {
		glog.Errorf("Failed to write shares: %v", err.Error())
		return subcommands.ExitFailure
	}

	if saved != nil && !s.quiet {
		fmt.Fprintln(logFile, "Saved shares as", saved.Identity, "with record ID", saved.ID)
	}

	if !s.quiet {
		fmt.Fprintf(logFile, "Wrote %d shares (threshold %d) to %s\n", len(tokens), cfg.Threshold, out.Name())
		fmt.Fprintln(logFile, "SHA-256 digest of secret:", digest)
	}

	return subcommands.ExitSuccess
}

// combineCmd handles CLI options for the combine command.
type combineCmd struct {
	configFile string
	encoding   string
	identity   string
	digest     string
	quiet      bool
}

func (*combineCmd) Name() string { return "combine" }
func (*combineCmd) Synopsis() string {
	return "reconstructs a secret from shares"
}
func (*combineCmd) Usage() string {
	return `Usage: splitkey combine [--config-file=<config_file>] [--encoding=hex|base64] [--digest=<sha256_hex>] <shares_file> <secret_file>
       splitkey combine --identity=<id> [flags] <secret_file>

Shares are read one per line; blank lines are ignored. A wrong or insufficient set of
shares produces a wrong secret without an error unless a digest is available.

Examples:
  Combine shares collected into a file:
    $ splitkey combine shares.txt key.bin

  Combine shares pasted on stdin and check them against the digest printed by split:
    $ splitkey combine --digest=1efb55e2... - key.bin

  Combine the shares saved under an identity, checking the stored digest:
    $ splitkey combine --identity=backup-key - | my-application

Flags:
`
}
func (cm *combineCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cm.configFile, "config-file", client.DefaultConfigPath(), "Path to a splitkey YAML file. Optional.")
	f.StringVar(&cm.encoding, "encoding", "", "Share encoding, hex or base64. Overrides the config file.")
	f.StringVar(&cm.identity, "identity", "", "Combine the shares saved in the share store under this identity. Optional.")
	f.StringVar(&cm.digest, "digest", "", "SHA-256 hex digest to check the reconstructed secret against. Optional.")
	f.BoolVar(&cm.quiet, "quiet", false, "Suppress logging output.")
}

func (cm *combineCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := client.LoadConfig(cm.configFile, true)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err.Error())
		return subcommands.ExitFailure
	}
	if cm.encoding != "" {
		cfg.Encoding = cm.encoding
	}

	var tokens []string
	var outPath string
	digest := cm.digest
	if cm.identity != "" {
		if f.NArg() < 1 {
			glog.Errorf("Not enough arguments (expected secret file)")
			return subcommands.ExitFailure
		}
		outPath = f.Arg(0)

		rec, err := loadRecord(cfg.StorePath, cm.identity)
		if err != nil {
			glog.Errorf("Failed to load shares: %v", err.Error())
			return subcommands.ExitFailure
		}
		tokens = rec.Shares
		cfg.Encoding = rec.Encoding
		if digest == "" {
			digest = rec.Digest
		}
	} else {
		if f.NArg() < 2 {
			glog.Errorf("Not enough arguments (expected shares file and secret file)")
			return subcommands.ExitFailure
		}
		outPath = f.Arg(1)

		tokens, err = readTokens(f.Arg(0))
		if err != nil {
			glog.Errorf("Failed to read shares: %v", err.Error())
			return subcommands.ExitFailure
		}
	}

	c, err := cfg.NewSharingClient()
	if err != nil {
		glog.Errorf("Failed to create client: %v", err.Error())
		return subcommands.ExitFailure
	}

	secret, err := c.Combine(ctx, tokens)
	if err != nil {
		glog.Errorf("Failed to combine shares: %v", err.Error())
		return subcommands.ExitFailure
	}
	defer clear(secret)

	if digest != "" {
		if err := client.VerifyDigest(secret, digest); err != nil {
			glog.Errorf("Reconstructed secret rejected: %v", err.Error())
			return subcommands.ExitFailure
		}
	}

	out, logFile, err := openOutput(outPath)
	if err != nil {
		glog.Errorf("Failed to open file for secret: %v", err.Error())
		return subcommands.ExitFailure
	}
	defer out.Close()

	if _, err := out.Write(secret); err != nil {
		glog.Errorf("Failed to write secret: %v", err.Error())
		return subcommands.ExitFailure
	}

	if !cm.quiet {
		fmt.Fprintf(logFile, "Combined %d shares into %s\n", len(tokens), out.Name())
		if digest != "" {
			fmt.Fprintln(logFile, "Secret matches digest", digest)
		} else {
			fmt.Fprintln(logFile, "No digest available, the secret was not checked.")
		}
	}

	return subcommands.ExitSuccess
}

// listCmd handles CLI options for the list command.
type listCmd struct {
	configFile string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "lists the identities in the share store" }
func (*listCmd) Usage() string {
	return `Usage: splitkey list [--config-file=<config_file>]

Flags:
`
}
func (l *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&l.configFile, "config-file", client.DefaultConfigPath(), "Path to a splitkey YAML file. Optional.")
}

func (l *listCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := client.LoadConfig(l.configFile, true)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err.Error())
		return subcommands.ExitFailure
	}
	store, err := sharestore.Open(cfg.StorePath)
	if err != nil {
		glog.Errorf("Failed to open share store: %v", err.Error())
		return subcommands.ExitFailure
	}
	defer store.Close()

	ids, err := store.List()
	if err != nil {
		glog.Errorf("Failed to list share store: %v", err.Error())
		return subcommands.ExitFailure
	}
	for _, id := range ids {
		rec, err := store.Get(id)
		if err != nil {
			glog.Errorf("Failed to read %q: %v", id, err.Error())
			return subcommands.ExitFailure
		}
		fmt.Printf("%s\t%d of %d\t%s\t%s\n", rec.Identity, rec.Threshold, rec.TotalShares, rec.Encoding, rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	return subcommands.ExitSuccess
}

// deleteCmd handles CLI options for the delete command.
type deleteCmd struct {
	configFile string
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "removes an identity from the share store" }
func (*deleteCmd) Usage() string {
	return `Usage: splitkey delete [--config-file=<config_file>] <identity>

Flags:
`
}
func (d *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&d.configFile, "config-file", client.DefaultConfigPath(), "Path to a splitkey YAML file. Optional.")
}

func (d *deleteCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		glog.Errorf("Not enough arguments (expected identity)")
		return subcommands.ExitUsageError
	}
	cfg, err := client.LoadConfig(d.configFile, true)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err.Error())
		return subcommands.ExitFailure
	}
	store, err := sharestore.Open(cfg.StorePath)
	if err != nil {
		glog.Errorf("Failed to open share store: %v", err.Error())
		return subcommands.ExitFailure
	}
	defer store.Close()

	if err := store.Delete(f.Arg(0)); err != nil {
		if errors.Is(err, sharestore.ErrNotFound) {
			glog.Errorf("Nothing to delete: %v", err.Error())
		} else {
			glog.Errorf("Failed to delete shares: %v", err.Error())
		}
		return subcommands.ExitFailure
	}
	fmt.Println("Deleted", f.Arg(0))
	return subcommands.ExitSuccess
}

// versionCmd handles CLI options for the version command.
type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "prints the current version" }
func (*versionCmd) Usage() string          { return "Usage: splitkey version" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}
func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Printf("splitkey Version %s\n", constants.Version)
	return subcommands.ExitSuccess
}

func saveShares(storePath, identity string, rec sharestore.Record) (sharestore.Record, error) {
	store, err := sharestore.Open(storePath)
	if err != nil {
		return sharestore.Record{}, err
	}
	defer store.Close()
	return store.Save(identity, rec)
}

func loadRecord(storePath, identity string) (sharestore.Record, error) {
	store, err := sharestore.Open(storePath)
	if err != nil {
		return sharestore.Record{}, err
	}
	defer store.Close()
	rec, err := store.Get(identity)
	if err != nil {
		return sharestore.Record{}, err
	}
	if _, err := shares.ParseEncoding(rec.Encoding); err != nil {
		return sharestore.Record{}, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	return rec, nil
}

func main() {
	flag.Parse()

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(&splitCmd{}, "")
	subcommands.Register(&combineCmd{}, "")
	subcommands.Register(&listCmd{}, "store")
	subcommands.Register(&deleteCmd{}, "store")
	subcommands.Register(&versionCmd{}, "")

	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
