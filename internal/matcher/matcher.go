package matcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

const (
	// ResultMarker is the token that identifies a result document by name.
	ResultMarker = "cuv"

	// DocumentExt is the structured document extension.
	DocumentExt = ".json"
	// XMLExt is the structured invoice copy extension.
	XMLExt = ".xml"
	// PDFExt is the printable invoice copy extension.
	PDFExt = ".pdf"
)

// ErrUnreadableRoot indicates the scanned folder itself could not be read.
var ErrUnreadableRoot = errors.New("folder cannot be read")

// EntryError is an entry below the scanned folder that could not be read.
type EntryError struct {
	Path string
	Err  error
}

func (e *EntryError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// EntryErrors returns the unreadable entries reported by a scan.
func EntryErrors(err error) []*EntryError {
	if err == nil {
		return nil
	}
	var out []*EntryError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, EntryErrors(e)...)
		}
		return out
	}
	var entry *EntryError
	if errors.As(err, &entry) {
		out = append(out, entry)
	}
	return out
}

// Matcher locates and classifies files under a folder tree.
type Matcher struct {
	fs afero.Fs
}

// New creates a matcher over fs.
func New(fs afero.Fs) *Matcher {
	return &Matcher{fs: fs}
}

// IsResultDocument reports whether the file name denotes a result document:
// its lower-cased name contains the result marker and ends with ".json".
func IsResultDocument(name string) bool {
	lower := strings.ToLower(filepath.Base(name))
	return strings.Contains(lower, ResultMarker) && strings.HasSuffix(lower, DocumentExt)
}

// FindByExtensions returns the sorted paths of regular files under root whose
// name ends with one of exts, compared case-insensitively.
// Entries that cannot be read are skipped and reported as EntryErrors alongside
// the paths that were found. A root that cannot be read yields no paths and an
// error matching ErrUnreadableRoot.
func (m *Matcher) FindByExtensions(root string, exts ...string) ([]string, error) {
	lowered := make([]string, len(exts))
	for i, ext := range exts {
		lowered[i] = strings.ToLower(ext)
	}

	return m.find(root, func(name string) bool {
		lower := strings.ToLower(name)
		for _, ext := range lowered {
			if strings.HasSuffix(lower, ext) {
				return true
			}
		}
		return false
	})
}

// FindResultDocuments returns the sorted paths of result documents under root.
func (m *Matcher) FindResultDocuments(root string) ([]string, error) {
	return m.find(root, IsResultDocument)
}

// FindInvoiceDocuments returns the sorted paths of structured documents under
// root that are not result documents and are not listed in exclude.
func (m *Matcher) FindInvoiceDocuments(root string, exclude map[string]bool) ([]string, error) {
	return m.find(root, func(name string) bool {
		return strings.HasSuffix(strings.ToLower(name), DocumentExt) && !IsResultDocument(name)
	}, exclude)
}

func (m *Matcher) find(root string, match func(name string) bool, exclude ...map[string]bool) ([]string, error) {
	var paths []string
	var errs []error

	err := afero.Walk(m.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			errs = append(errs, &EntryError{Path: path, Err: err})
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if !match(info.Name()) {
			return nil
		}
		for _, ex := range exclude {
			if ex[path] {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableRoot, root, err)
	}

	sort.Strings(paths)
	return paths, errors.Join(errs...)
}

// Correlate picks the XML and PDF copies of an invoice among sorted candidates.
// A candidate whose file name contains the invoice number wins; otherwise the
// first candidate in the invoice's directory is used. Either result may be empty.
func Correlate(invoiceNumber string, xmlCandidates, pdfCandidates []string, invoiceDir string) (xmlPath, pdfPath string) {
	return pick(invoiceNumber, xmlCandidates, invoiceDir), pick(invoiceNumber, pdfCandidates, invoiceDir)
}

func pick(invoiceNumber string, candidates []string, dir string) string {
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	if invoiceNumber != "" {
		for _, c := range sorted {
			if strings.Contains(filepath.Base(c), invoiceNumber) {
				return c
			}
		}
	}

	dir = filepath.Clean(dir)
	for _, c := range sorted {
		if filepath.Dir(c) == dir {
			return c
		}
	}
	return ""
}
