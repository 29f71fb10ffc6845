// Package backends opens the store.Store selected by configuration.
package backends

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"artisanverse/internal/config"
	"artisanverse/internal/store"
	"artisanverse/internal/store/bolt"
	"artisanverse/internal/store/jsonfile"
	"artisanverse/internal/store/memory"
	"artisanverse/internal/store/postgres"
	"artisanverse/internal/store/s3"
	"artisanverse/internal/store/sqlite"
)

const (
	boltFile   = "artisanverse.bolt"
	sqliteFile = "artisanverse.db"
)

// Open constructs the backend named by cfg.Backend. The data directory has
// "~/" expanded. Prepare is left to the caller.
func Open(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	dataDir := config.ExpandHome(cfg.DataDir)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case config.BackendJSON, "":
		return jsonfile.New(dataDir), nil
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendBolt:
		if err := os.MkdirAll(dataDir, 0o750); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		return wrap(bolt.Open(filepath.Join(dataDir, boltFile)))
	case config.BackendSQLite:
		return wrap(sqlite.Open(filepath.Join(dataDir, sqliteFile)))
	case config.BackendPostgres:
		return wrap(postgres.Open(ctx, cfg.Postgres.DSN))
	case config.BackendS3:
		return wrap(s3.New(ctx, s3.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			PathStyle:       cfg.S3.PathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		}))
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// wrap keeps a failed constructor's typed nil out of the interface.
func wrap[S store.Store](s S, err error) (store.Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
