package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sha1n/cuvren/internal/domain"
	"github.com/sha1n/cuvren/internal/facility"
	"github.com/sha1n/cuvren/internal/matcher"
	"github.com/sha1n/cuvren/internal/rename"
	"github.com/spf13/afero"
)

// Recorder receives the artifacts touched by a run.
type Recorder interface {
	BeginRun(runID string) error
	Record(rec domain.ArtifactRecord) error
	FinishRun(runID string, at time.Time, folders []domain.FolderSummary) error
}

// Result is the outcome of a run.
type Result struct {
	RunID      string                 `json:"run_id"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Counts     domain.Counts          `json:"counts"`
	Folders    []domain.FolderSummary `json:"folders"`
	Errors     []string               `json:"errors"`
	ReportPath string                 `json:"report_path,omitempty"`
}

// Runner drives the matcher, mutator and rename executor across folders.
// Folders are processed one at a time, in the given order.
type Runner struct {
	fs       afero.Fs
	source   facility.Source
	matcher  *matcher.Matcher
	executor *rename.Executor
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithRecorder records every touched artifact in r.
func WithRecorder(r Recorder) Option {
	return func(rn *Runner) { rn.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(rn *Runner) { rn.logger = l }
}

// WithClock sets the time source used for date placeholders and timestamps.
func WithClock(now func() time.Time) Option {
	return func(rn *Runner) { rn.now = now }
}

// WithRunID sets the run id generator.
func WithRunID(newID func() string) Option {
	return func(rn *Runner) { rn.newID = newID }
}

// NewRunner creates a runner over fs. source provides the facility placeholders.
func NewRunner(fs afero.Fs, source facility.Source, opts ...Option) *Runner {
	r := &Runner{
		fs:     fs,
		source: source,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.matcher = matcher.New(fs)
	r.executor = rename.NewExecutor(fs, r.logger)
	return r
}

// Run processes opts.Folders. Precondition failures (invalid options,
// unavailable facility data, a run already in progress) abort before any
// folder is touched. Every other failure is recorded in Result.Errors and the
// run continues. When the report cannot be written the result is returned
// together with the error.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var fac facility.Facility
	if opts.Rename {
		if r.source == nil {
			return nil, ErrFacilityUnavailable
		}
		f, err := r.source.Lookup(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFacilityUnavailable, err)
		}
		fac = f
	}

	res := &Result{
		RunID:     r.newID(),
		StartedAt: r.now(),
	}

	if r.recorder != nil {
		if err := r.recorder.BeginRun(res.RunID); err != nil {
			return nil, fmt.Errorf("failed to start run: %w", err)
		}
	}

	r.logger.Info("Starting run",
		"run_id", res.RunID,
		"folders", len(opts.Folders),
		"rename", opts.Rename,
		"mutate", opts.Mutate,
		"mode", opts.Mode.String(),
	)

	seen := make(map[string]bool)
	total := len(opts.Folders)
	for i, folder := range opts.Folders {
		r.runFolder(folder, fac, opts, res, seen)
		if opts.Progress != nil {
			opts.Progress(i+1, total)
		}
	}

	res.FinishedAt = r.now()

	if r.recorder != nil {
		if err := r.recorder.FinishRun(res.RunID, res.FinishedAt, res.Folders); err != nil {
			r.logger.Warn("Failed to record run", "run_id", res.RunID, "error", err)
		}
	}

	r.logger.Info("Run finished",
		"run_id", res.RunID,
		"folders", len(res.Folders),
		"renamed", res.Counts.Renamed(),
		"mutated", res.Counts.Mutated,
		"errors", len(res.Errors),
	)

	if opts.ReportPath != "" {
		if err := WriteReport(r.fs, opts.ReportPath, res); err != nil {
			return res, fmt.Errorf("failed to write report %s: %w", opts.ReportPath, err)
		}
		res.ReportPath = opts.ReportPath
	}

	return res, nil
}

func (r *Runner) runFolder(folder string, fac facility.Facility, opts Options, res *Result, seen map[string]bool) {
	path := rename.Canonical(r.fs, folder)

	info, err := r.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			res.Errors = append(res.Errors, "Folder does not exist: "+folder)
		} else {
			res.Errors = append(res.Errors, fmt.Sprintf("Cannot read folder %s: %v", folder, err))
		}
		r.logger.Warn("Skipping folder", "folder", folder, "error", err)
		return
	}
	if !info.IsDir() {
		res.Errors = append(res.Errors, "Not a folder: "+folder)
		return
	}

	if seen[path] {
		r.logger.Debug("Folder already processed", "folder", folder, "path", path)
		return
	}
	seen[path] = true

	r.logger.Info("Processing folder", "folder", path)
	fr := &folderRun{
		runner: r,
		opts:   opts,
		fac:    fac,
		path:   path,
		runID:  res.RunID,
		now:    r.now(),
	}
	fr.process()

	res.Folders = append(res.Folders, domain.FolderSummary{
		Path:   path,
		Counts: fr.counts,
		Errors: len(fr.errors),
	})
	res.Counts.Merge(fr.counts)
	res.Errors = append(res.Errors, fr.errors...)
}
