package profiles

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sha1n/cuvren/internal/domain"
)

func sampleProfile(name string) Profile {
	return Profile{
		Name: name,
		NamingConfig: domain.NamingConfig{
			Result:  "CUV_{numFactura}.json",
			Invoice: "FAC_{numFactura}.json",
			XML:     "Fact_{numFactura}.xml",
			PDF:     "Fact_{numFactura}.pdf",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		profile  Profile
		problems int
	}{
		{"valid", sampleProfile("eps"), 0},
		{"empty templates allowed", Profile{Name: "only-name"}, 0},
		{"upper case extension", Profile{Name: "x", NamingConfig: domain.NamingConfig{XML: "A.XML"}}, 0},
		{"missing name", Profile{NamingConfig: domain.NamingConfig{XML: "a.xml"}}, 1},
		{"wrong extensions", Profile{Name: "x", NamingConfig: domain.NamingConfig{
			Result: "a.xml", Invoice: "b.txt", XML: "c.pdf", PDF: "d.json",
		}}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.profile)
			if tt.problems == 0 {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if len(verr.Problems) != tt.problems {
				t.Errorf("Expected %d problems, got %v", tt.problems, verr.Problems)
			}
		})
	}
}

func TestStore_OpenMissingFile(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(s.List("")) != 0 {
		t.Error("Expected empty store")
	}
	if _, err := s.Active(); !errors.Is(err, ErrNoActive) {
		t.Errorf("Expected ErrNoActive, got %v", err)
	}
}

func TestStore_PutGetPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", FileName)
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	p := sampleProfile(" Nueva EPS ")
	p.XML = "  Fact_{numFactura}.xml "
	if err := s.Put(p); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, err := reopened.Get("nueva eps")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Nueva EPS" || got.XML != "Fact_{numFactura}.xml" || got.Result != "CUV_{numFactura}.json" {
		t.Errorf("Unexpected profile: %+v", got)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temp file to be cleaned up")
	}
}

func TestStore_PutReplaces(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := s.Put(sampleProfile("eps")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	updated := sampleProfile("EPS")
	updated.PDF = "Soporte_{numFactura}.pdf"
	if err := s.Put(updated); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	all := s.List("")
	if len(all) != 1 {
		t.Fatalf("Expected 1 profile, got %d", len(all))
	}
	if all[0].PDF != "Soporte_{numFactura}.pdf" {
		t.Errorf("Expected replaced profile, got %+v", all[0])
	}
}

func TestStore_PutInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	p := sampleProfile("bad")
	p.XML = "Fact_{numFactura}.pdf"
	if err := s.Put(p); err == nil {
		t.Fatal("Expected validation error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected nothing to be written for an invalid profile")
	}
}

func TestStore_ListFilter(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for _, name := range []string{"Sanitas", "nueva eps", "Compensar EPS"} {
		if err := s.Put(sampleProfile(name)); err != nil {
			t.Fatalf("Put(%s) failed: %v", name, err)
		}
	}

	var names []string
	for _, p := range s.List("EPS") {
		names = append(names, p.Name)
	}
	if strings.Join(names, ",") != "Compensar EPS,nueva eps" {
		t.Errorf("List(EPS) = %v", names)
	}

	if got := len(s.List("")); got != 3 {
		t.Errorf("List(\"\") returned %d profiles, want 3", got)
	}
	if got := len(s.List("zzz")); got != 0 {
		t.Errorf("List(zzz) returned %d profiles, want 0", got)
	}
}

func TestStore_ActivateAndDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Put(sampleProfile("a")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(sampleProfile("b")); err != nil {
		t.Fatal(err)
	}

	if err := s.Activate("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := s.Activate("B"); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	active, err := reopened.Active()
	if err != nil || active.Name != "b" {
		t.Fatalf("Active() = %+v, %v", active, err)
	}

	resolved, err := reopened.Resolve("")
	if err != nil || resolved.Name != "b" {
		t.Errorf("Resolve(\"\") = %+v, %v", resolved, err)
	}
	resolved, err = reopened.Resolve("a")
	if err != nil || resolved.Name != "a" {
		t.Errorf("Resolve(a) = %+v, %v", resolved, err)
	}

	if err := reopened.Delete("b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := reopened.Active(); !errors.Is(err, ErrNoActive) {
		t.Errorf("Expected ErrNoActive after deleting the active profile, got %v", err)
	}
	if err := reopened.Delete("b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_OpenCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("profiles: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("Expected error for corrupt file")
	}
}
