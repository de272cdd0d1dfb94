package batch

import (
	"strings"
	"testing"
	"time"

	"github.com/sha1n/cuvren/internal/domain"
	"github.com/spf13/afero"
)

func TestDefaultReportName(t *testing.T) {
	got := DefaultReportName(time.Date(2023, 12, 31, 23, 5, 9, 0, time.UTC))
	if got != "cuv_report_20231231_230509.log" {
		t.Errorf("DefaultReportName() = %q", got)
	}
}

func TestFormatReport(t *testing.T) {
	res := &Result{
		RunID:      "r",
		FinishedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Counts:     domain.Counts{ResultDocs: 1, Invoices: 2, XML: 3, PDF: 4, Mutated: 5},
		Folders:    []domain.FolderSummary{{Path: "/a"}, {Path: "/b"}},
		Errors:     []string{"first", "multi\nline"},
	}

	want := `CUV processing report - 2024-01-02 03:04:05
==================================================
Run: r
Folders processed: 2
Result documents renamed: 1
Invoices renamed: 2
XML files renamed: 3
PDF files renamed: 4
Result documents modified: 5
Errors: 2

--- Errors ---
first
multi line
`
	if got := FormatReport(res); got != want {
		t.Errorf("FormatReport() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatReport_NoErrors(t *testing.T) {
	got := FormatReport(&Result{})
	if strings.Contains(got, "--- Errors ---") {
		t.Errorf("unexpected error section:\n%s", got)
	}
	if !strings.HasSuffix(got, "Errors: 0\n") {
		t.Errorf("unexpected report:\n%s", got)
	}
}

func TestWriteReport_RelativePath(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := WriteReport(fs, "report.log", &Result{RunID: "x"}); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}
	data, err := afero.ReadFile(fs, "report.log")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Run: x\n") {
		t.Errorf("unexpected report:\n%s", data)
	}
}
