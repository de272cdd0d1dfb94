package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sha1n/cuvren/internal/domain"
)

const (
	// HistoryVersion is the current schema version
	HistoryVersion = 1

	// HistoryFilename is the default history filename
	HistoryFilename = "history.json"
)

// History stores the outcome of the last run for every processed folder.
type History struct {
	Version   int                    `json:"version"`
	LastRun   time.Time              `json:"last_run"`
	LastRunID string                 `json:"last_run_id"`
	Folders   map[string]FolderState `json:"folders"`
	mu        sync.RWMutex           `json:"-"`
}

// FolderState is the last recorded run of a folder.
type FolderState struct {
	Path      string        `json:"path"`
	LastRunID string        `json:"last_run_id"`
	LastRun   time.Time     `json:"last_run"`
	Counts    domain.Counts `json:"counts"`
	Errors    int           `json:"errors"`
}

// NewHistory creates a new empty history.
func NewHistory() *History {
	return &History{
		Version: HistoryVersion,
		Folders: make(map[string]FolderState),
	}
}

// LoadHistory reads a history from disk, or creates a new one if it doesn't exist.
func LoadHistory(path string) (*History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewHistory(), nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	if h.Folders == nil {
		h.Folders = make(map[string]FolderState)
	}
	return &h, nil
}

// Save writes the history to disk atomically.
func (h *History) Save(path string) error {
	h.mu.RLock()
	data, err := json.MarshalIndent(h, "", "  ")
	h.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write history temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename history file: %w", err)
	}
	return nil
}

// RecordRun stores the summaries of a finished run.
func (h *History) RecordRun(runID string, at time.Time, folders []domain.FolderSummary) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.LastRun = at
	h.LastRunID = runID
	for _, f := range folders {
		h.Folders[f.Path] = FolderState{
			Path:      f.Path,
			LastRunID: runID,
			LastRun:   at,
			Counts:    f.Counts,
			Errors:    f.Errors,
		}
	}
}

// Folder returns the state of a folder.
func (h *History) Folder(path string) (FolderState, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	state, ok := h.Folders[path]
	return state, ok
}

// List returns all folder states, most recent first.
func (h *History) List() []FolderState {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]FolderState, 0, len(h.Folders))
	for _, state := range h.Folders {
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastRun.Equal(out[j].LastRun) {
			return out[i].LastRun.After(out[j].LastRun)
		}
		return out[i].Path < out[j].Path
	})
	return out
}
