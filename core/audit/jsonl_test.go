package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func sampleRecord(id string, ts time.Time) Record {
	return Record{
		Timestamp:    ts,
		DispatchID:   id,
		DispatchTime: ts.Truncate(time.Minute),
		TaskCount:    2,
		Tasks: []TaskRef{
			{TaskID: "t1", PersonnelID: "p1", FormID: "f1"},
			{TaskID: "t2", PersonnelID: "p2", FormID: "f1"},
		},
	}
}

func TestJSONLStoreAppendQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firings.log")
	s, err := NewJSONLStore(path, 1, 1, 1)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	defer func() { _ = s.Close() }()

	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"d1", "d2", "d1"} {
		if err := s.Append(context.Background(), sampleRecord(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := s.Query(context.Background(), Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records got %d", len(all))
	}

	byID, err := s.Query(context.Background(), Query{DispatchID: "d1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(byID) != 2 {
		t.Fatalf("expected 2 records for d1 got %d", len(byID))
	}

	window, err := s.Query(context.Background(), Query{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(window) != 1 || window[0].DispatchID != "d2" {
		t.Fatalf("bad window result %+v", window)
	}
}

func TestJSONLStoreQueryIncludesRotatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "firings.log")
	s, err := NewJSONLStore(path, 1, 3, 0)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	defer func() { _ = s.Close() }()

	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	if err := s.Append(context.Background(), sampleRecord("d1", base)); err != nil {
		t.Fatalf("append: %v", err)
	}

	// A backup the way lumberjack leaves one behind after rotation.
	line, err := json.Marshal(sampleRecord("d2", base.Add(-time.Hour)))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	backup := filepath.Join(dir, "firings-2025-03-03T08-00-00.000.log")
	if err := os.WriteFile(backup, append(line, '\n'), 0o644); err != nil {
		t.Fatalf("write backup: %v", err)
	}
	// Unrelated files in the same directory stay out of the results.
	if err := os.WriteFile(filepath.Join(dir, "other.log"), append(line, '\n'), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}

	all, err := s.Query(context.Background(), Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected live and rotated records, got %d", len(all))
	}
	ids := map[string]bool{}
	for _, r := range all {
		ids[r.DispatchID] = true
	}
	if !ids["d1"] || !ids["d2"] {
		t.Fatalf("missing record, got %v", ids)
	}
}

func TestJSONLStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "firings.log")
	s, err := NewJSONLStore(path, 1, 1, 1)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.Append(context.Background(), sampleRecord("d1", time.Now())); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
