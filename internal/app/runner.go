package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/cuvren/internal/batch"
	"github.com/sha1n/cuvren/internal/catalog"
	"github.com/sha1n/cuvren/internal/config"
	"github.com/sha1n/cuvren/internal/document"
	"github.com/sha1n/cuvren/internal/facility"
	mcputil "github.com/sha1n/cuvren/internal/mcp"
	"github.com/sha1n/cuvren/internal/naming"
	"github.com/sha1n/cuvren/internal/profiles"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
)

// RunParams contains dependencies for the commands
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	OpenFacility      func(*config.Settings) (facility.Source, io.Closer, error)
	Fs                afero.Fs
	Now               func() time.Time
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:  config.LoadSettingsWithFlags,
		ValidSettings: config.ValidateSettings,
		OpenFacility:  OpenFacility,
		Fs:            afero.NewOsFs(),
		Now:           time.Now,
	}
}

// OpenFacility creates the facility source selected by the settings.
// The database source connects on first lookup; the returned closer releases it.
func OpenFacility(settings *config.Settings) (facility.Source, io.Closer, error) {
	switch settings.Facility.Source {
	case config.FacilitySourceStatic:
		return facility.StaticSource{Code: settings.Facility.Code, TaxID: settings.Facility.TaxID}, nil, nil
	case config.FacilitySourceDatabase:
		params, err := config.LoadDatabaseParams(settings.Database.IniPath)
		if err != nil {
			return nil, nil, err
		}
		h := facility.NewHandle(settings.Database.Driver, params, settings.Database.Timeout, slog.Default())
		return h, h, nil
	default:
		return nil, nil, fmt.Errorf("unknown facility source: %s", settings.Facility.Source)
	}
}

// Env holds the resources shared by the commands and the tool server.
type Env struct {
	Settings *config.Settings
	Fs       afero.Fs
	Store    *profiles.Store
	Catalog  *catalog.Service

	params RunParams

	mu      sync.Mutex
	source  facility.Source
	closers []io.Closer
}

// Setup loads and validates the settings, configures logging and opens the state directory.
func Setup(params RunParams, flags *pflag.FlagSet) (*Env, error) {
	// Load settings
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	// Validate settings for incomplete configurations
	if err := params.ValidSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Configure logging - always use stderr, stdout carries command output and the stdio transport
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: settings.SlogLevel()})
	slog.SetDefault(slog.New(handler))

	config.Log(settings)
	slog.Debug("Resolved settings", "settings", config.SettingsLogValue(*settings))

	store, err := profiles.Open(filepath.Join(settings.StateDir, profiles.FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open profiles: %w", err)
	}

	cat, err := catalog.NewService(settings.StateDir, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	fs := params.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if params.Now == nil {
		params.Now = time.Now
	}

	return &Env{
		Settings: settings,
		Fs:       fs,
		Store:    store,
		Catalog:  cat,
		params:   params,
	}, nil
}

// facility opens the facility source on first use.
func (e *Env) facility() (facility.Source, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source != nil {
		return e.source, nil
	}
	if e.params.OpenFacility == nil {
		return nil, fmt.Errorf("no facility source configured")
	}

	src, closer, err := e.params.OpenFacility(e.Settings)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		e.closers = append(e.closers, closer)
	}
	e.source = src
	return src, nil
}

// Preview renders the templates of a profile (the active one when empty) against sample values.
// The facility placeholders are left empty when the facility source is unavailable.
func (e *Env) Preview(ctx context.Context, profile string) ([]naming.PreviewLine, error) {
	p, err := e.Store.Resolve(profile)
	if err != nil {
		return nil, err
	}

	var fac facility.Facility
	src, err := e.facility()
	if err == nil {
		fac, err = src.Lookup(ctx)
	}
	if err != nil {
		slog.Warn("Facility data unavailable for preview", "error", err)
	}

	return naming.Preview(p.NamingConfig, naming.SampleVars(fac.Code, fac.TaxID, e.params.Now())), nil
}

// Process runs a batch. When renaming, the naming configuration comes from the
// profile (the active one when empty). A report is always written, by default
// to a timestamped file in the report directory.
func (e *Env) Process(ctx context.Context, profile string, opts batch.Options) (*batch.Result, error) {
	var source facility.Source
	if opts.Rename {
		p, err := e.Store.Resolve(profile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", batch.ErrNoProfile, err)
		}
		cfg := p.NamingConfig
		opts.Naming = &cfg

		src, err := e.facility()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", batch.ErrFacilityUnavailable, err)
		}
		source = src
	}

	if opts.ReportPath == "" {
		opts.ReportPath = filepath.Join(e.Settings.ReportDir, batch.DefaultReportName(e.params.Now()))
	}

	runner := batch.NewRunner(e.Fs, source,
		batch.WithRecorder(e.Catalog),
		batch.WithLogger(slog.Default()),
		batch.WithClock(e.params.Now),
	)
	return runner.Run(ctx, opts)
}

// Search queries the artifact catalog.
func (e *Env) Search(req catalog.SearchRequest) (*catalog.SearchResult, error) {
	return e.Catalog.Search(req)
}

// Profiles lists naming profiles whose name contains filter.
func (e *Env) Profiles(filter string) []profiles.Profile {
	return e.Store.List(filter)
}

// Inspect loads a single result document.
func (e *Env) Inspect(path string) (*document.ResultDocument, error) {
	info, err := e.Fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return document.LoadResult(e.Fs, path)
}

// Close releases the facility source and any unfinished run.
func (e *Env) Close() error {
	e.mu.Lock()
	closers := e.closers
	e.closers = nil
	e.source = nil
	e.mu.Unlock()

	var err error
	for _, c := range closers {
		err = multierr.Append(err, c.Close())
	}
	return multierr.Append(err, e.Catalog.Close())
}

// Serve runs the MCP tool server until the client disconnects or ctx is done.
func Serve(ctx context.Context, env *Env, transport mcp.Transport, version string) error {
	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:    "cuvren",
		Version: version,
		Backend: env,
	})

	// Use custom transport if provided (for testing), otherwise use stdio
	if transport == nil {
		transport = &mcp.StdioTransport{}
	}
	slog.Info("Starting MCP server", "version", version)
	return server.Run(ctx, transport)
}
