package memory

import (
	"testing"

	"artisanverse/internal/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, New())
}

func TestPutCopiesInput(t *testing.T) {
	s := New()
	blob := []byte("[]")
	if err := s.Put(t.Context(), "users", blob); err != nil {
		t.Fatal(err)
	}
	blob[0] = 'X'
	got, err := s.Get(t.Context(), "users")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "[]" {
		t.Fatalf("store should keep its own copy, got %q", got)
	}
}
