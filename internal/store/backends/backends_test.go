package backends

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"artisanverse/internal/config"
	"artisanverse/internal/store"
	"artisanverse/internal/store/bolt"
	"artisanverse/internal/store/jsonfile"
	"artisanverse/internal/store/memory"
	"artisanverse/internal/store/postgres"
	"artisanverse/internal/store/s3"
	"artisanverse/internal/store/sqlite"
)

func open(t *testing.T, cfg config.StoreConfig) store.Store {
	t.Helper()
	s, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open(%s): %v", cfg.Backend, err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s := open(t, config.StoreConfig{Backend: config.BackendJSON, DataDir: dir})
	js, ok := s.(*jsonfile.Store)
	if !ok {
		t.Fatalf("expected *jsonfile.Store, got %T", s)
	}
	if js.Dir() != dir {
		t.Fatalf("Dir = %q, want %q", js.Dir(), dir)
	}
}

func TestOpenEmptyBackendIsJSON(t *testing.T) {
	s := open(t, config.StoreConfig{DataDir: t.TempDir()})
	if _, ok := s.(*jsonfile.Store); !ok {
		t.Fatalf("expected *jsonfile.Store, got %T", s)
	}
}

func TestOpenMemory(t *testing.T) {
	if _, ok := open(t, config.StoreConfig{Backend: "MEMORY"}).(*memory.Store); !ok {
		t.Fatal("expected *memory.Store")
	}
}

func TestOpenBoltCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s := open(t, config.StoreConfig{Backend: config.BackendBolt, DataDir: dir})
	if _, ok := s.(*bolt.Store); !ok {
		t.Fatalf("expected *bolt.Store, got %T", s)
	}
	if _, err := os.Stat(filepath.Join(dir, boltFile)); err != nil {
		t.Fatalf("bolt file missing: %v", err)
	}
}

func TestOpenSQLite(t *testing.T) {
	dir := t.TempDir()
	s := open(t, config.StoreConfig{Backend: config.BackendSQLite, DataDir: dir})
	lite, ok := s.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected *sqlite.Store, got %T", s)
	}
	if lite.Path() != filepath.Join(dir, sqliteFile) {
		t.Fatalf("Path = %q", lite.Path())
	}
}

func TestOpenS3(t *testing.T) {
	s := open(t, config.StoreConfig{Backend: config.BackendS3, S3: config.S3Config{
		Bucket:          "artisan-data",
		Region:          "us-east-1",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
	}})
	if _, ok := s.(*s3.Store); !ok {
		t.Fatalf("expected *s3.Store, got %T", s)
	}
}

func TestOpenPostgresPropagatesErrors(t *testing.T) {
	sentinel := errors.New("no database here")
	restore := postgres.OverrideSQLOpen(func(string, string) (*sql.DB, error) { return nil, sentinel })
	defer restore()

	_, err := Open(context.Background(), config.StoreConfig{Backend: config.BackendPostgres})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}

func TestOpenUnknown(t *testing.T) {
	if _, err := Open(context.Background(), config.StoreConfig{Backend: "mongo"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
