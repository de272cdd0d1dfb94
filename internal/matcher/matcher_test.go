package matcher

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/afero"
)

func newTestFs(t *testing.T, files ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		if err := fs.MkdirAll(filepath.Dir(f), 0755); err != nil {
			t.Fatal(err)
		}
		if err := afero.WriteFile(fs, f, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func TestIsResultDocument(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"1001_cuv.json", true},
		{"CUV_1001.JSON", true},
		{"ResultadosCuv.json", true},
		{"/a/b/x_CuV_y.Json", true},
		{"factura_1001.json", false},
		{"1001_cuv.xml", false},
		{"1001_cuv.json.bak", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsResultDocument(tt.name); got != tt.expected {
				t.Errorf("IsResultDocument(%q) = %v, want %v", tt.name, got, tt.expected)
			}
		})
	}
}

func TestFindByExtensions(t *testing.T) {
	fs := newTestFs(t,
		"/root/b/factura_2.XML",
		"/root/a/factura_1.xml",
		"/root/a/factura_1.pdf",
		"/root/notes.txt",
		"/root/c/d/deep.Pdf",
	)
	m := New(fs)

	xmls, err := m.FindByExtensions("/root", ".xml")
	if err != nil {
		t.Fatalf("FindByExtensions failed: %v", err)
	}
	wantXML := []string{"/root/a/factura_1.xml", "/root/b/factura_2.XML"}
	if !reflect.DeepEqual(xmls, wantXML) {
		t.Errorf("xml = %v, want %v", xmls, wantXML)
	}

	both, err := m.FindByExtensions("/root", ".PDF", ".txt")
	if err != nil {
		t.Fatalf("FindByExtensions failed: %v", err)
	}
	wantBoth := []string{"/root/a/factura_1.pdf", "/root/c/d/deep.Pdf", "/root/notes.txt"}
	if !reflect.DeepEqual(both, wantBoth) {
		t.Errorf("pdf/txt = %v, want %v", both, wantBoth)
	}
}

func TestFindByExtensions_EmptyFolder(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/empty", 0755); err != nil {
		t.Fatal(err)
	}

	paths, err := New(fs).FindByExtensions("/empty", ".xml")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("Expected no paths, got %v", paths)
	}
}

func TestFindByExtensions_MissingRoot(t *testing.T) {
	_, err := New(afero.NewMemMapFs()).FindByExtensions("/missing", ".xml")
	if err == nil {
		t.Error("Expected error for missing root")
	}
	if !errors.Is(err, ErrUnreadableRoot) {
		t.Errorf("Expected ErrUnreadableRoot, got %v", err)
	}
}

func TestFindResultAndInvoiceDocuments(t *testing.T) {
	fs := newTestFs(t,
		"/lote/1001_cuv.json",
		"/lote/sub/CUV_1002.json",
		"/lote/factura_1001.json",
		"/lote/sub/factura_1002.json",
		"/lote/sub/RES_1002.json",
		"/lote/factura_1001.xml",
	)
	m := New(fs)

	results, err := m.FindResultDocuments("/lote")
	if err != nil {
		t.Fatalf("FindResultDocuments failed: %v", err)
	}
	wantResults := []string{"/lote/1001_cuv.json", "/lote/sub/CUV_1002.json"}
	if !reflect.DeepEqual(results, wantResults) {
		t.Errorf("results = %v, want %v", results, wantResults)
	}

	invoices, err := m.FindInvoiceDocuments("/lote", map[string]bool{"/lote/sub/RES_1002.json": true})
	if err != nil {
		t.Fatalf("FindInvoiceDocuments failed: %v", err)
	}
	wantInvoices := []string{"/lote/factura_1001.json", "/lote/sub/factura_1002.json"}
	if !reflect.DeepEqual(invoices, wantInvoices) {
		t.Errorf("invoices = %v, want %v", invoices, wantInvoices)
	}
}

func TestFind_UnreadableEntryIsReported(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	if err := os.MkdirAll(locked, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a_cuv.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(locked, "b_cuv.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chmod(locked, 0755) }()

	paths, err := New(afero.NewOsFs()).FindResultDocuments(dir)
	if err == nil {
		t.Error("Expected an error for the unreadable folder")
	}
	if errors.Is(err, ErrUnreadableRoot) {
		t.Error("Expected an entry error, not a root failure")
	}
	if entries := EntryErrors(err); len(entries) != 1 || entries[0].Path != locked {
		t.Errorf("Expected one entry error for %s, got %v", locked, entries)
	}
	if len(paths) != 1 || paths[0] != filepath.Join(dir, "a_cuv.json") {
		t.Errorf("Expected readable documents to be returned, got %v", paths)
	}
}

func TestCorrelate(t *testing.T) {
	xmls := []string{"/lote/b/z.xml", "/lote/a/otro.xml", "/lote/a/factura_1001.xml", "/lote/a/factura_10010.xml"}
	pdfs := []string{"/lote/a/impresion.pdf", "/lote/c/1001.pdf"}

	tests := []struct {
		name    string
		number  string
		dir     string
		xml     []string
		pdf     []string
		wantXML string
		wantPDF string
	}{
		{
			name:    "name match wins over directory",
			number:  "1001",
			dir:     "/lote/a",
			xml:     xmls,
			pdf:     pdfs,
			wantXML: "/lote/a/factura_1001.xml",
			wantPDF: "/lote/c/1001.pdf",
		},
		{
			name:    "directory fallback takes first sorted",
			number:  "2002",
			dir:     "/lote/a/",
			xml:     xmls,
			pdf:     pdfs,
			wantXML: "/lote/a/factura_1001.xml",
			wantPDF: "/lote/a/impresion.pdf",
		},
		{
			name:    "no match",
			number:  "2002",
			dir:     "/elsewhere",
			xml:     xmls,
			pdf:     pdfs,
			wantXML: "",
			wantPDF: "",
		},
		{
			name:    "empty invoice number only uses directory",
			number:  "",
			dir:     "/lote/b",
			xml:     xmls,
			pdf:     pdfs,
			wantXML: "/lote/b/z.xml",
			wantPDF: "",
		},
		{
			name:    "no candidates",
			number:  "1001",
			dir:     "/lote/a",
			wantXML: "",
			wantPDF: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotXML, gotPDF := Correlate(tt.number, tt.xml, tt.pdf, tt.dir)
			if gotXML != tt.wantXML {
				t.Errorf("xml = %q, want %q", gotXML, tt.wantXML)
			}
			if gotPDF != tt.wantPDF {
				t.Errorf("pdf = %q, want %q", gotPDF, tt.wantPDF)
			}
		})
	}
}
