package batch

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sha1n/cuvren/internal/document"
	"github.com/sha1n/cuvren/internal/domain"
	"github.com/sha1n/cuvren/internal/facility"
	"github.com/sha1n/cuvren/internal/matcher"
	"github.com/sha1n/cuvren/internal/naming"
)

// folderRun holds the state of one folder within a run.
type folderRun struct {
	runner *Runner
	opts   Options
	fac    facility.Facility
	path   string
	runID  string
	now    time.Time

	counts domain.Counts
	errors []string

	// failed holds result documents already reported by the mutation step.
	failed map[string]bool
	// claimed holds XML and PDF files already placed for an invoice.
	claimed map[string]bool
	// unreadable holds entries already reported by a scan.
	unreadable map[string]bool
}

func (f *folderRun) fail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	f.errors = append(f.errors, msg)
	f.runner.logger.Error(msg, "folder", f.path)
}

func (f *folderRun) process() {
	f.failed = make(map[string]bool)
	f.claimed = make(map[string]bool)
	f.unreadable = make(map[string]bool)

	results, err := f.runner.matcher.FindResultDocuments(f.path)
	if !f.scanned(err) {
		return
	}

	if f.opts.Mutate {
		f.mutate(results)
	}
	if f.opts.Rename {
		f.rename(results)
	}
}

// scanned reports the errors of a folder scan and whether its paths are usable.
// Each unreadable entry is reported once per folder.
func (f *folderRun) scanned(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, matcher.ErrUnreadableRoot) {
		f.fail("Error scanning %s: %v", f.path, err)
		return false
	}
	entries := matcher.EntryErrors(err)
	if len(entries) == 0 {
		f.fail("Error scanning %s: %v", f.path, err)
		return true
	}
	for _, e := range entries {
		if f.unreadable[e.Path] {
			continue
		}
		f.unreadable[e.Path] = true
		f.fail("Error scanning %s: %v", e.Path, e.Err)
	}
	return true
}

func (f *folderRun) mutate(results []string) {
	for _, path := range results {
		doc, modified, err := document.MutateFile(f.runner.fs, path, f.opts.Mode)
		if err != nil {
			f.failed[path] = true
			f.fail("Error modifying %s: %v", path, err)
			continue
		}
		if !modified {
			continue
		}
		f.counts.Mutated++
		f.record(domain.ArtifactRecord{
			ID:            path,
			Kind:          domain.KindResult,
			InvoiceNumber: doc.InvoiceNumber,
			ProcessID:     doc.ProcessID,
			UniqueCode:    doc.UniqueCode,
			Action:        domain.ActionMutated,
		})
	}
}

func (f *folderRun) rename(results []string) {
	cfg := *f.opts.Naming

	// Result documents first; their final paths must not be taken for invoices.
	placed := make(map[string]bool, len(results))
	var resultNumbers []string
	resultDirs := make(map[string]string)

	for _, path := range results {
		if f.failed[path] {
			continue
		}
		doc, err := document.LoadResult(f.runner.fs, path)
		if err != nil {
			f.fail("Error reading result document %s: %v", path, err)
			continue
		}
		if doc.InvoiceNumber == "" {
			f.runner.logger.Info("Result document without invoice number", "path", path)
			placed[path] = true
			continue
		}

		final := f.place(domain.KindResult, cfg.Result, path, f.vars(doc.InvoiceNumber, doc.ProcessID), func(rec *domain.ArtifactRecord) {
			rec.ProcessID = doc.ProcessID
			rec.UniqueCode = doc.UniqueCode
		})
		placed[final] = true

		if _, ok := resultDirs[doc.InvoiceNumber]; !ok {
			resultNumbers = append(resultNumbers, doc.InvoiceNumber)
			resultDirs[doc.InvoiceNumber] = filepath.Dir(final)
		}
	}

	invoices, err := f.runner.matcher.FindInvoiceDocuments(f.path, placed)
	f.scanned(err)
	xmls, err := f.runner.matcher.FindByExtensions(f.path, matcher.XMLExt)
	f.scanned(err)
	pdfs, err := f.runner.matcher.FindByExtensions(f.path, matcher.PDFExt)
	f.scanned(err)

	covered := make(map[string]bool)
	for _, path := range invoices {
		inv, err := document.LoadInvoice(f.runner.fs, path)
		if err != nil {
			f.fail("Error reading invoice %s: %v", path, err)
			continue
		}
		if inv.InvoiceNumber == "" {
			f.fail("Invoice without invoice number: %s", path)
			continue
		}
		covered[inv.InvoiceNumber] = true

		vars := f.vars(inv.InvoiceNumber, "")
		f.place(domain.KindInvoice, cfg.Invoice, path, vars, nil)
		f.placeCopies(inv.InvoiceNumber, filepath.Dir(path), xmls, pdfs, vars)
	}

	// Invoice numbers only known from result documents still drive the copies.
	for _, number := range resultNumbers {
		if covered[number] {
			continue
		}
		f.placeCopies(number, resultDirs[number], xmls, pdfs, f.vars(number, ""))
	}
}

func (f *folderRun) placeCopies(invoiceNumber, dir string, xmls, pdfs []string, vars naming.Vars) {
	xmlPath, pdfPath := matcher.Correlate(invoiceNumber, f.unclaimed(xmls), f.unclaimed(pdfs), dir)
	if xmlPath != "" {
		f.claimed[xmlPath] = true
		f.place(domain.KindXML, f.opts.Naming.XML, xmlPath, vars, nil)
	}
	if pdfPath != "" {
		f.claimed[pdfPath] = true
		f.place(domain.KindPDF, f.opts.Naming.PDF, pdfPath, vars, nil)
	}
}

func (f *folderRun) unclaimed(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !f.claimed[p] {
			out = append(out, p)
		}
	}
	return out
}

func (f *folderRun) vars(invoiceNumber, processID string) naming.Vars {
	return naming.Vars{
		InvoiceNumber: invoiceNumber,
		ProcessID:     processID,
		FacilityCode:  f.fac.Code,
		TaxID:         f.fac.TaxID,
		FolderName:    filepath.Base(f.path),
		Now:           f.now,
	}
}

// place renames path according to template and returns the artifact's final
// path. An empty template or rendering leaves the artifact alone.
func (f *folderRun) place(kind domain.ArtifactKind, template, path string, vars naming.Vars, enrich func(*domain.ArtifactRecord)) string {
	name, ok := naming.Render(template, vars.Context())
	if !ok || name == "" {
		return path
	}

	if reason := naming.InvalidNameReason(name); reason != "" {
		f.fail("Error renaming %s: %s: invalid name %q (%s)", strings.ToUpper(string(kind)), path, name, reason)
		return path
	}

	dest := filepath.Join(filepath.Dir(path), name)
	action := domain.ActionUnchanged
	previous := ""
	if dest != path {
		if err := f.runner.executor.Place(path, dest); err != nil {
			f.fail("Error renaming %s: %s: %v", strings.ToUpper(string(kind)), path, err)
			return path
		}
		f.runner.logger.Debug("Renamed", "kind", kind, "from", path, "to", dest)
		action = domain.ActionRenamed
		previous = path
	}
	f.counts.AddRenamed(kind)

	rec := domain.ArtifactRecord{
		ID:            dest,
		PreviousPath:  previous,
		Kind:          kind,
		InvoiceNumber: vars.InvoiceNumber,
		Action:        action,
	}
	if enrich != nil {
		enrich(&rec)
	}
	f.record(rec)

	return dest
}

func (f *folderRun) record(rec domain.ArtifactRecord) {
	if f.runner.recorder == nil {
		return
	}
	rec.RunID = f.runID
	rec.Folder = f.path
	rec.Name = filepath.Base(rec.ID)
	rec.Timestamp = f.now
	if err := f.runner.recorder.Record(rec); err != nil {
		f.runner.logger.Warn("Failed to record artifact", "path", rec.ID, "error", err)
	}
}
