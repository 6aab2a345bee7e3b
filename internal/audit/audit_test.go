package audit

import (
	"context"
	"path/filepath"
	"testing"
)

func TestRecordAndTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()

	log.RecordModeration("lobby", "kick", "alice", "mallory")
	log.RecordModeration("lobby", "ban", "alice", "mallory")

	entries, err := log.Tail(context.Background(), 10)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != "ban" || entries[1].Action != "kick" {
		t.Fatalf("expected newest-first order, got %+v", entries)
	}
}

func TestTailLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()

	for i := 0; i < 5; i++ {
		log.RecordModeration("lobby", "kick", "alice", "bob")
	}

	entries, err := log.Tail(context.Background(), 2)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}
