package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"artisanverse/internal/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, New(filepath.Join(t.TempDir(), "data")))
}

func TestPrepareCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s := New(dir)
	if err := s.Prepare(context.Background()); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Fatalf("data dir should exist: %v", err)
	}
}

func TestPrepareFailsUnderFile(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := New(filepath.Join(blocker, "data"))
	if err := s.Prepare(context.Background()); err == nil {
		t.Fatal("expected error creating dir beneath a regular file")
	}
}

func TestFileLayout(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	ctx := context.Background()
	if err := s.Put(ctx, "products", []byte("[]")); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "products.json"))
	if err != nil {
		t.Fatalf("expected products.json: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("unexpected file content %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files should be cleaned up, dir has %d entries", len(entries))
	}
}

func TestListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"users.json", "notes.txt", ".tmp-users-123"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("[]"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0o755); err != nil {
		t.Fatal(err)
	}
	names, err := New(dir).List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "users" {
		t.Fatalf("expected [users], got %v", names)
	}
}

func TestListMissingDir(t *testing.T) {
	names, err := New(filepath.Join(t.TempDir(), "absent")).List(context.Background())
	if err != nil || len(names) != 0 {
		t.Fatalf("List on missing dir = %v, %v", names, err)
	}
}

func TestRejectsTraversal(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()
	for _, name := range []string{"", "../etc", "a/b", `a\b`} {
		if err := s.Put(ctx, name, []byte("[]")); err == nil {
			t.Errorf("Put(%q) should fail", name)
		}
		if _, err := s.Get(ctx, name); err == nil {
			t.Errorf("Get(%q) should fail", name)
		}
	}
}

func TestPutFailsWhenDirMissing(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "never-created"))
	if err := s.Put(context.Background(), "users", []byte("[]")); err == nil {
		t.Fatal("Put without Prepare into a missing dir should fail")
	}
}
