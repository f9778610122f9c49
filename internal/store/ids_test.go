package store

import (
	"strings"
	"testing"
)

func TestNewRandomID_TodoIDsHaveStableLength(t *testing.T) {
	id, err := newRandomID("todo")
	if err != nil {
		t.Fatalf("newRandomID: %v", err)
	}
	if !strings.HasPrefix(id, "todo-") {
		t.Fatalf("expected todo prefix, got %q", id)
	}
	suffix := strings.TrimPrefix(id, "todo-")
	if got, want := len(suffix), 8; got != want {
		t.Fatalf("expected suffix len %d, got %d (%q)", want, got, suffix)
	}
	if suffix != strings.ToLower(suffix) {
		t.Fatalf("expected lowercase suffix, got %q", suffix)
	}
}

func TestNewRandomID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id, err := newRandomID("todo")
		if err != nil {
			t.Fatalf("newRandomID: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
