package rename

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

// noRenameFs simulates a volume where direct renames are not possible.
type noRenameFs struct {
	afero.Fs
}

func (noRenameFs) Rename(oldname, newname string) error {
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: errors.New("cross-device link")}
}

// stickyFs refuses to remove the given paths.
type stickyFs struct {
	afero.Fs
	sticky map[string]bool
}

func (s stickyFs) Remove(name string) error {
	if s.sticky[name] {
		return &os.PathError{Op: "remove", Path: name, Err: os.ErrPermission}
	}
	return s.Fs.Remove(name)
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("ReadFile(%s) failed: %v", path, err)
	}
	return string(data)
}

func assertMissing(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	if _, err := fs.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected %s to be gone, stat error: %v", path, err)
	}
}

func TestPlace_Rename(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/lote/factura_1001.xml", "<xml/>")

	if err := NewExecutor(fs, nil).Place("/lote/factura_1001.xml", "/lote/Fact_1001.xml"); err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	if got := readFile(t, fs, "/lote/Fact_1001.xml"); got != "<xml/>" {
		t.Errorf("dest content = %q", got)
	}
	assertMissing(t, fs, "/lote/factura_1001.xml")
}

func TestPlace_OverwritesExistingDestination(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/lote/new.pdf", "new")
	writeFile(t, fs, "/lote/Fact_1.pdf", "old")

	if err := NewExecutor(fs, nil).Place("/lote/new.pdf", "/lote/Fact_1.pdf"); err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	if got := readFile(t, fs, "/lote/Fact_1.pdf"); got != "new" {
		t.Errorf("dest content = %q, want new", got)
	}
	assertMissing(t, fs, "/lote/new.pdf")
}

func TestPlace_SamePathIsNoop(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/lote/a.json", "content")

	for _, dest := range []string{"/lote/a.json", "/lote/./a.json", "/lote/sub/../a.json"} {
		if err := NewExecutor(fs, nil).Place("/lote/a.json", dest); err != nil {
			t.Errorf("Place(%s) failed: %v", dest, err)
		}
		if got := readFile(t, fs, "/lote/a.json"); got != "content" {
			t.Errorf("content changed to %q", got)
		}
	}
}

func TestPlace_SymlinkToSelfIsNoop(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.json")
	link := filepath.Join(dir, "link.json")
	if err := os.WriteFile(target, []byte("content"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	fs := afero.NewOsFs()
	if err := NewExecutor(fs, nil).Place(link, target); err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil || string(data) != "content" {
		t.Errorf("Expected target untouched, got %q (%v)", data, err)
	}
	if _, err := os.Lstat(link); err != nil {
		t.Errorf("Expected link untouched: %v", err)
	}
}

func TestPlace_FallbackCopy(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, "/lote/factura.pdf", "%PDF-1.4")
	writeFile(t, base, "/lote/Fact_9.pdf", "stale")

	fs := noRenameFs{Fs: base}
	if err := NewExecutor(fs, nil).Place("/lote/factura.pdf", "/lote/Fact_9.pdf"); err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	if got := readFile(t, base, "/lote/Fact_9.pdf"); got != "%PDF-1.4" {
		t.Errorf("dest content = %q", got)
	}
	assertMissing(t, base, "/lote/factura.pdf")
}

func TestPlace_DestinationNotRemovable(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, "/lote/src.xml", "src")
	writeFile(t, base, "/lote/dest.xml", "dest")

	fs := stickyFs{Fs: base, sticky: map[string]bool{"/lote/dest.xml": true}}
	if err := NewExecutor(fs, nil).Place("/lote/src.xml", "/lote/dest.xml"); err == nil {
		t.Fatal("Expected error when destination cannot be removed")
	}

	if got := readFile(t, base, "/lote/src.xml"); got != "src" {
		t.Errorf("src content = %q", got)
	}
	if got := readFile(t, base, "/lote/dest.xml"); got != "dest" {
		t.Errorf("dest content = %q", got)
	}
}

func TestPlace_SourceNotRemovableAfterCopy(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, "/lote/src.xml", "payload")

	fs := stickyFs{Fs: noRenameFs{Fs: base}, sticky: map[string]bool{"/lote/src.xml": true}}
	if err := NewExecutor(fs, nil).Place("/lote/src.xml", "/lote/dest.xml"); err == nil {
		t.Fatal("Expected error when source cannot be removed")
	}

	if got := readFile(t, base, "/lote/dest.xml"); got != "payload" {
		t.Errorf("Expected copied destination to be kept, got %q", got)
	}
}

func TestPlace_MissingSource(t *testing.T) {
	base := afero.NewMemMapFs()
	if err := base.MkdirAll("/lote", 0755); err != nil {
		t.Fatal(err)
	}

	fs := noRenameFs{Fs: base}
	if err := NewExecutor(fs, nil).Place("/lote/missing.xml", "/lote/dest.xml"); err == nil {
		t.Fatal("Expected error for missing source")
	}
	assertMissing(t, base, "/lote/dest.xml")
}

func TestCanonical(t *testing.T) {
	dir := t.TempDir()
	realDir := filepath.Join(dir, "realDir")
	if err := os.MkdirAll(realDir, 0755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "alias")
	if err := os.Symlink(realDir, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	fs := afero.NewOsFs()
	resolvedReal := Canonical(fs, realDir)
	if got := Canonical(fs, link); got != resolvedReal {
		t.Errorf("Canonical(link) = %q, want %q", got, resolvedReal)
	}
	if got := Canonical(fs, filepath.Join(link, "new.xml")); got != filepath.Join(resolvedReal, "new.xml") {
		t.Errorf("Canonical(link/new.xml) = %q", got)
	}

	if got := Canonical(afero.NewMemMapFs(), "/a/b/../c"); got != "/a/c" {
		t.Errorf("Canonical(mem) = %q, want /a/c", got)
	}
}
