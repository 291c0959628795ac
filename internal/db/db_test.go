package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "boothchat.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	var name string
	err = d.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='transcripts'`).Scan(&name)
	if err != nil {
		t.Fatalf("transcripts table missing: %v", err)
	}
}

func TestAppendAndListTranscript(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	ctx := context.Background()
	if err := d.AppendTranscript(ctx, "s1", "user", "what do you do?", "en"); err != nil {
		t.Fatal(err)
	}
	if err := d.AppendTranscript(ctx, "s1", "assistant", "we fund schools", "en"); err != nil {
		t.Fatal(err)
	}
	if err := d.AppendTranscript(ctx, "s2", "user", "hallo", "de"); err != nil {
		t.Fatal(err)
	}

	entries, err := d.ListBySession(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for s1, got %d", len(entries))
	}
	if entries[0].Role != "user" || entries[1].Role != "assistant" {
		t.Errorf("unexpected order: %+v", entries)
	}
	if entries[0].Content != "what do you do?" {
		t.Errorf("unexpected content: %q", entries[0].Content)
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("created_at must be populated")
	}

	other, err := d.ListBySession(ctx, "s2")
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 1 || other[0].Language != "de" {
		t.Errorf("unexpected s2 entries: %+v", other)
	}
}

func TestRejectsUnknownRole(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	if err := d.AppendTranscript(context.Background(), "s1", "system", "nope", "en"); err == nil {
		t.Error("system role must be rejected by the schema")
	}
}
