package testkit

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sha1n/cuvren/internal/app"
	"github.com/spf13/pflag"
)

// Service represents a test fixture that can be started and stopped
type Service interface {
	Start() (map[string]any, error)
	Stop() error
	GetName() string
}

// TestEnvContext provides access to properties collected during environment startup
type TestEnvContext interface {
	GetProperties() map[string]any
	GetProperty(name string) (any, bool)
}

// TestEnv manages the lifecycle of test fixtures
type TestEnv interface {
	Start() (map[string]any, error)
	Stop() error
	GetContext() TestEnvContext
}

type testEnvContextImpl struct {
	properties map[string]any
}

func (c *testEnvContextImpl) GetProperties() map[string]any {
	return c.properties
}

func (c *testEnvContextImpl) GetProperty(name string) (any, bool) {
	val, ok := c.properties[name]
	return val, ok
}

type testEnvImpl struct {
	services []Service
	started  []Service
	context  *testEnvContextImpl
}

// NewTestEnv creates a new test environment with the given fixtures
func NewTestEnv(services ...Service) TestEnv {
	return &testEnvImpl{
		services: services,
		context:  &testEnvContextImpl{properties: make(map[string]any)},
	}
}

// Start starts every fixture in order and merges their properties.
// A failing fixture stops the ones already started.
func (e *testEnvImpl) Start() (map[string]any, error) {
	for _, s := range e.services {
		props, err := s.Start()
		if err != nil {
			_ = e.Stop()
			return nil, fmt.Errorf("failed to start %s: %w", s.GetName(), err)
		}
		e.started = append(e.started, s)
		for k, v := range props {
			e.context.properties[k] = v
		}
	}
	return e.context.properties, nil
}

func (e *testEnvImpl) Stop() error {
	var lastErr error
	// Stop in reverse order
	for i := len(e.started) - 1; i >= 0; i-- {
		if err := e.started[i].Stop(); err != nil {
			lastErr = err
		}
	}
	e.started = nil
	return lastErr
}

func (e *testEnvImpl) GetContext() TestEnvContext {
	return e.context
}

// FolderService lays out a tree of files under a fresh directory.
// Start publishes the directory under the property named by Name.
type FolderService struct {
	Name  string
	Files map[string]string // relative path -> content

	root string
}

// Start creates the directory and writes the files.
func (s *FolderService) Start() (map[string]any, error) {
	root, err := os.MkdirTemp("", "cuvren-"+s.Name+"-")
	if err != nil {
		return nil, err
	}
	s.root = root

	for rel, content := range s.Files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return nil, err
		}
	}
	return map[string]any{s.Name: root}, nil
}

// Stop removes the directory.
func (s *FolderService) Stop() error {
	if s.root == "" {
		return nil
	}
	err := os.RemoveAll(s.root)
	s.root = ""
	return err
}

// GetName returns the fixture name.
func (s *FolderService) GetName() string {
	return s.Name
}

// MustStart starts env and registers its shutdown with t.Cleanup.
func MustStart(t testing.TB, env TestEnv) map[string]any {
	t.Helper()
	props, err := env.Start()
	if err != nil {
		t.Fatalf("Failed to start test environment: %v", err)
	}
	t.Cleanup(func() {
		if err := env.Stop(); err != nil {
			t.Errorf("Failed to stop test environment: %v", err)
		}
	})
	return props
}

// FlagOptions configures NewTestFlags
type FlagOptions struct {
	StateDir     string // Uses a test temp dir if empty
	ReportDir    string // Uses a test temp dir if empty
	LogLevel     string // Defaults to "error"
	FacilityCode string // Defaults to "IPS001"
	TaxID        string // Defaults to "900123456"
}

// NewTestFlags creates a pflag.FlagSet with the global flags, set up for a
// static facility and an isolated state directory.
func NewTestFlags(t testing.TB, opts *FlagOptions) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	app.RegisterFlags(flags)

	o := FlagOptions{
		LogLevel:     "error",
		FacilityCode: "IPS001",
		TaxID:        "900123456",
	}
	if opts != nil {
		if opts.StateDir != "" {
			o.StateDir = opts.StateDir
		}
		if opts.ReportDir != "" {
			o.ReportDir = opts.ReportDir
		}
		if opts.LogLevel != "" {
			o.LogLevel = opts.LogLevel
		}
		if opts.FacilityCode != "" {
			o.FacilityCode = opts.FacilityCode
		}
		if opts.TaxID != "" {
			o.TaxID = opts.TaxID
		}
	}
	if o.StateDir == "" {
		o.StateDir = t.TempDir()
	}
	if o.ReportDir == "" {
		o.ReportDir = t.TempDir()
	}

	set := func(name, value string) {
		if err := flags.Set(name, value); err != nil {
			t.Fatalf("Failed to set flag %s: %v", name, err)
		}
	}
	set("state-dir", o.StateDir)
	set("report-dir", o.ReportDir)
	set("log-level", o.LogLevel)
	set("facility-source", "static")
	set("facility-code", o.FacilityCode)
	set("facility-tax-id", o.TaxID)

	return flags
}
