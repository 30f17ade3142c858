// Package main validates a lexicon bundle and publishes it to R2, where
// running servers pick it up by polling.
//
// Usage:
//
//	lexicon -in bundle.yaml [-key lexicon/lexicon.yaml.zst] [-out file] [-dry-run]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/garyellow/companion-nlu-go/internal/config"
	"github.com/garyellow/companion-nlu-go/internal/lexicon"
	"github.com/garyellow/companion-nlu-go/internal/logger"
	"github.com/garyellow/companion-nlu-go/internal/r2client"
)

// CLI flags
var (
	inFlag     = flag.String("in", "", "Bundle to publish (.yaml or .yaml.zst)")
	keyFlag    = flag.String("key", "", "R2 object key (default R2_LEXICON_KEY)")
	outFlag    = flag.String("out", "", "Also write the encoded object to this file")
	dryRunFlag = flag.Bool("dry-run", false, "Validate and encode without uploading")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel).WithModule("lexicon")

	if *inFlag == "" {
		log.Fatal("-in is required")
	}
	key := *keyFlag
	if key == "" {
		key = cfg.R2.LexiconKey
	}

	data, b, err := prepare(*inFlag, key)
	if err != nil {
		log.WithError(err).Fatal("Bundle rejected")
	}
	log.WithFields(map[string]any{
		"entries": b.Size(),
		"bytes":   len(data),
		"key":     key,
	}).Info("Bundle validated")

	if *outFlag != "" {
		if err := os.WriteFile(*outFlag, data, 0o644); err != nil {
			log.WithError(err).Fatal("Failed to write output file")
		}
		log.Infof("Encoded bundle written to %s", *outFlag)
	}

	if *dryRunFlag {
		fmt.Printf("⏭️  Dry run: %d entries, %d bytes, not uploaded\n", b.Size(), len(data))
		return
	}
	if !cfg.R2.Enabled {
		log.Fatal("R2 is not enabled; set R2_ENABLED=true or use -dry-run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.LexiconFetch)
	defer cancel()

	client, err := r2client.New(ctx, r2client.Config{
		Endpoint:    cfg.R2.Endpoint(),
		AccessKeyID: cfg.R2.AccessKeyID,
		SecretKey:   cfg.R2.SecretAccessKey,
		BucketName:  cfg.R2.BucketName,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create R2 client")
	}

	etag, err := client.Publish(ctx, key, data, contentType(key))
	if errors.Is(err, r2client.ErrConflict) {
		log.Fatal("Bundle changed while publishing; re-run to publish on top of the new version")
	}
	if err != nil {
		log.WithError(err).Fatal("Failed to publish bundle")
	}

	log.WithField("etag", etag).Info("Bundle published")
	fmt.Printf("\n✅ Published %s: %d entries (etag %s)\n", key, b.Size(), etag)
}

// prepare loads and checks the bundle at path, then encodes it for key:
// YAML, zstd-compressed when key ends in ".zst". A bundle that makes the
// merged lexicon inconsistent is rejected.
func prepare(path, key string) ([]byte, lexicon.Bundle, error) {
	b, err := lexicon.LoadFile(path)
	if err != nil {
		return nil, lexicon.Bundle{}, err
	}
	if b.Size() == 0 {
		return nil, lexicon.Bundle{}, errors.New("bundle is empty")
	}
	if problems := lexicon.Default().Merge(b).Verify(); len(problems) > 0 {
		return nil, lexicon.Bundle{}, fmt.Errorf("lexicon inconsistent: %s", strings.Join(problems, "; "))
	}

	data, err := b.Encode()
	if err != nil {
		return nil, lexicon.Bundle{}, err
	}
	if lexicon.IsCompressed(key) {
		if data, err = r2client.Compress(data); err != nil {
			return nil, lexicon.Bundle{}, err
		}
	}
	return data, b, nil
}

func contentType(key string) string {
	if lexicon.IsCompressed(key) {
		return "application/zstd"
	}
	return "application/yaml"
}
