package batch

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	reportPrefix     = "cuv_report_"
	reportExt        = ".log"
	reportTimeLayout = "2006-01-02 15:04:05"
	reportSeparator  = 50
)

// DefaultReportName returns the report file name used when the caller does not choose one.
func DefaultReportName(t time.Time) string {
	return reportPrefix + t.Format("20060102_150405") + reportExt
}

// FormatReport renders res as the plain-text run report.
func FormatReport(res *Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CUV processing report - %s\n", res.FinishedAt.Format(reportTimeLayout))
	b.WriteString(strings.Repeat("=", reportSeparator))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Run: %s\n", res.RunID)
	fmt.Fprintf(&b, "Folders processed: %d\n", len(res.Folders))
	fmt.Fprintf(&b, "Result documents renamed: %d\n", res.Counts.ResultDocs)
	fmt.Fprintf(&b, "Invoices renamed: %d\n", res.Counts.Invoices)
	fmt.Fprintf(&b, "XML files renamed: %d\n", res.Counts.XML)
	fmt.Fprintf(&b, "PDF files renamed: %d\n", res.Counts.PDF)
	fmt.Fprintf(&b, "Result documents modified: %d\n", res.Counts.Mutated)
	fmt.Fprintf(&b, "Errors: %d\n", len(res.Errors))

	if len(res.Errors) > 0 {
		b.WriteString("\n--- Errors ---\n")
		for _, e := range res.Errors {
			b.WriteString(strings.ReplaceAll(e, "\n", " "))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// WriteReport writes the report of res to path, creating its directory.
func WriteReport(fs afero.Fs, path string, res *Result) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	return afero.WriteFile(fs, path, []byte(FormatReport(res)), 0o644)
}
