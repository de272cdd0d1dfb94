package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sha1n/cuvren/internal/domain"
)

func TestLoadHistory_NewFile(t *testing.T) {
	h, err := LoadHistory(filepath.Join(t.TempDir(), HistoryFilename))
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if h.Version != HistoryVersion {
		t.Errorf("Version = %d, want %d", h.Version, HistoryVersion)
	}
	if len(h.List()) != 0 {
		t.Error("Expected empty history")
	}
}

func TestHistory_RecordSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", HistoryFilename)
	first := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	h := NewHistory()
	h.RecordRun("run-1", first, []domain.FolderSummary{
		{Path: "/lotes/a", Counts: domain.Counts{XML: 2}, Errors: 1},
		{Path: "/lotes/b", Counts: domain.Counts{PDF: 1}},
	})
	h.RecordRun("run-2", second, []domain.FolderSummary{
		{Path: "/lotes/b", Counts: domain.Counts{PDF: 3, Mutated: 1}},
	})

	if err := h.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temp file to be cleaned up")
	}

	loaded, err := LoadHistory(path)
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if loaded.LastRunID != "run-2" || !loaded.LastRun.Equal(second) {
		t.Errorf("Unexpected last run: %s at %v", loaded.LastRunID, loaded.LastRun)
	}

	b, ok := loaded.Folder("/lotes/b")
	if !ok {
		t.Fatal("Expected /lotes/b in history")
	}
	if b.LastRunID != "run-2" || b.Counts.PDF != 3 || b.Counts.Mutated != 1 {
		t.Errorf("Unexpected state for /lotes/b: %+v", b)
	}

	list := loaded.List()
	if len(list) != 2 || list[0].Path != "/lotes/b" || list[1].Path != "/lotes/a" {
		t.Errorf("Expected most recent first, got %+v", list)
	}
}

func TestLoadHistory_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistoryFilename)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadHistory(path); err == nil {
		t.Error("Expected error for corrupt history")
	}
}
