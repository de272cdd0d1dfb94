package profiles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sha1n/cuvren/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	// FileVersion is the current schema version
	FileVersion = 1

	// FileName is the default profiles filename
	FileName = "profiles.yaml"
)

var (
	// ErrNotFound indicates no profile has the requested name
	ErrNotFound = errors.New("profile not found")

	// ErrNoActive indicates no profile has been activated
	ErrNoActive = errors.New("no active profile")
)

// Profile is a named naming configuration.
type Profile struct {
	Name                string `yaml:"name" json:"name"`
	domain.NamingConfig `yaml:",inline"`
}

// ValidationError lists the problems found in a profile.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid profile: " + strings.Join(e.Problems, "; ")
}

// Validate checks that the profile has a name and that every defined
// template ends with the extension of its artifact kind.
func Validate(p Profile) error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	}
	for _, kind := range domain.Kinds {
		tmpl := strings.TrimSpace(p.Template(kind))
		if tmpl == "" {
			continue
		}
		ext := kind.Extension()
		if !strings.HasSuffix(strings.ToLower(tmpl), ext) {
			problems = append(problems, fmt.Sprintf("%s template must end with %s: %s", kind, ext, tmpl))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

type fileData struct {
	Version  int       `yaml:"version"`
	Active   string    `yaml:"active,omitempty"`
	Profiles []Profile `yaml:"profiles"`
}

// Store keeps naming profiles in a YAML file. Every change is saved immediately.
type Store struct {
	path string
	mu   sync.RWMutex
	data fileData
}

// Open loads the store at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, data: fileData{Version: FileVersion}}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}

	if err := yaml.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	if s.data.Version == 0 {
		s.data.Version = FileVersion
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// save writes the store atomically. Callers hold the write lock.
func (s *Store) save() error {
	raw, err := yaml.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create profiles directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write profiles temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename profiles file: %w", err)
	}
	return nil
}

func (s *Store) index(name string) int {
	for i, p := range s.data.Profiles {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}

// List returns the profiles whose name contains filter, ignoring case, sorted by name.
func (s *Store) List(filter string) []Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filter = strings.ToLower(strings.TrimSpace(filter))
	var out []Profile
	for _, p := range s.data.Profiles {
		if filter == "" || strings.Contains(strings.ToLower(p.Name), filter) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Get returns the profile with the given name.
func (s *Store) Get(name string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(name)
	if i < 0 {
		return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return s.data.Profiles[i], nil
}

// Put validates p and creates or replaces the profile with the same name.
func (s *Store) Put(p Profile) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Result = strings.TrimSpace(p.Result)
	p.Invoice = strings.TrimSpace(p.Invoice)
	p.XML = strings.TrimSpace(p.XML)
	p.PDF = strings.TrimSpace(p.PDF)
	if err := Validate(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(p.Name); i >= 0 {
		s.data.Profiles[i] = p
	} else {
		s.data.Profiles = append(s.data.Profiles, p)
	}
	return s.save()
}

// Delete removes the profile. Deleting the active profile leaves no profile active.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if strings.EqualFold(s.data.Active, s.data.Profiles[i].Name) {
		s.data.Active = ""
	}
	s.data.Profiles = append(s.data.Profiles[:i], s.data.Profiles[i+1:]...)
	return s.save()
}

// Activate marks the profile used when a run names none.
func (s *Store) Activate(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	s.data.Active = s.data.Profiles[i].Name
	return s.save()
}

// Active returns the active profile.
func (s *Store) Active() (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data.Active == "" {
		return Profile{}, ErrNoActive
	}
	i := s.index(s.data.Active)
	if i < 0 {
		return Profile{}, ErrNoActive
	}
	return s.data.Profiles[i], nil
}

// Resolve returns the named profile, or the active one when name is empty.
func (s *Store) Resolve(name string) (Profile, error) {
	if strings.TrimSpace(name) == "" {
		return s.Active()
	}
	return s.Get(name)
}
