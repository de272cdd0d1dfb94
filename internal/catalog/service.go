package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sha1n/cuvren/internal/domain"
	"go.uber.org/multierr"
)

// LockFilename is the name of the run lock file
const LockFilename = "run.lock"

var (
	// ErrRunInProgress indicates another process is using the state directory
	ErrRunInProgress = errors.New("another run is in progress")

	// ErrNoRun indicates a record was written outside of a run
	ErrNoRun = errors.New("no run in progress")
)

// Service owns the state directory: the artifact catalog, the run history and
// the lock that keeps one run at a time.
type Service struct {
	dir    string
	lock   *FileLock
	logger *slog.Logger

	mu    sync.Mutex
	runID string
	index *Index
}

// NewService creates a service for stateDir. Nothing is opened until a run begins.
func NewService(stateDir string, logger *slog.Logger) (*Service, error) {
	if stateDir == "" {
		return nil, fmt.Errorf("state directory cannot be empty")
	}
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		dir:    stateDir,
		lock:   NewFileLock(filepath.Join(stateDir, LockFilename)),
		logger: logger,
	}, nil
}

func (s *Service) indexPath() string {
	return filepath.Join(s.dir, IndexDirname)
}

func (s *Service) historyPath() string {
	return filepath.Join(s.dir, HistoryFilename)
}

// BeginRun takes the run lock and opens the catalog for writing.
func (s *Service) BeginRun(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runID != "" {
		return fmt.Errorf("%w: %s", ErrRunInProgress, s.runID)
	}

	acquired, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !acquired {
		return ErrRunInProgress
	}

	index, err := OpenIndex(s.indexPath())
	if err != nil {
		_ = s.lock.Unlock()
		return err
	}

	s.runID = runID
	s.index = index
	s.logger.Debug("Catalog run started", "run_id", runID, "dir", s.dir)
	return nil
}

// Record adds an artifact to the catalog of the current run.
func (s *Service) Record(rec domain.ArtifactRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		return ErrNoRun
	}
	if rec.RunID == "" {
		rec.RunID = s.runID
	}
	return s.index.Add(rec)
}

// FinishRun stores the folder summaries in the history, closes the catalog and
// releases the run lock.
func (s *Service) FinishRun(runID string, at time.Time, folders []domain.FolderSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		return ErrNoRun
	}

	history, err := LoadHistory(s.historyPath())
	if err == nil {
		history.RecordRun(runID, at, folders)
		err = history.Save(s.historyPath())
	}

	return multierr.Combine(err, s.closeRun())
}

// closeRun closes the index and releases the lock. Callers hold mu.
func (s *Service) closeRun() error {
	var err error
	if s.index != nil {
		err = multierr.Append(err, s.index.Close())
		s.index = nil
	}
	err = multierr.Append(err, s.lock.Unlock())
	s.runID = ""
	return err
}

// Search queries the catalog. It fails with ErrRunInProgress while a run holds the state directory.
func (s *Service) Search(req SearchRequest) (res *SearchResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		return s.index.searchFlushed(req)
	}

	acquired, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !acquired {
		return nil, ErrRunInProgress
	}
	defer func() { err = multierr.Append(err, s.lock.Unlock()) }()

	if _, statErr := os.Stat(s.indexPath()); os.IsNotExist(statErr) {
		return &SearchResult{}, nil
	}

	index, err := OpenIndex(s.indexPath())
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, index.Close()) }()

	return index.Search(req)
}

// History returns the recorded state of every processed folder, most recent first.
func (s *Service) History() ([]FolderState, error) {
	h, err := LoadHistory(s.historyPath())
	if err != nil {
		return nil, err
	}
	return h.List(), nil
}

// Close ends an unfinished run without writing history.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil && !s.lock.IsLocked() {
		return nil
	}
	return s.closeRun()
}
