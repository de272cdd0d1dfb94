package domain

import (
	"fmt"
	"strings"
	"time"
)

// ArtifactKind identifies one of the four file kinds handled by a run.
type ArtifactKind string

// Artifact kinds, one per template of a NamingConfig.
const (
	KindResult  ArtifactKind = "result"
	KindInvoice ArtifactKind = "invoice"
	KindXML     ArtifactKind = "xml"
	KindPDF     ArtifactKind = "pdf"
)

// Kinds lists every artifact kind in processing order.
var Kinds = []ArtifactKind{KindResult, KindInvoice, KindXML, KindPDF}

// Extension returns the file extension (with the leading dot) an artifact of this kind carries.
func (k ArtifactKind) Extension() string {
	switch k {
	case KindXML:
		return ".xml"
	case KindPDF:
		return ".pdf"
	default:
		return ".json"
	}
}

// ParseKind parses a kind name, ignoring case. An empty string yields an empty kind.
func ParseKind(s string) (ArtifactKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q (expected result, invoice, xml or pdf)", s)
}

// NamingConfig holds the four naming templates of a run.
// It is passed by value and never modified by the engine.
type NamingConfig struct {
	// Result names validation result documents (the *cuv*.json files).
	Result string `json:"result" yaml:"result"`

	// Invoice names invoice documents (the remaining .json files).
	Invoice string `json:"invoice" yaml:"invoice"`

	// XML names structured invoice copies.
	XML string `json:"xml" yaml:"xml"`

	// PDF names printable invoice copies.
	PDF string `json:"pdf" yaml:"pdf"`
}

// Template returns the template configured for the given kind.
func (c NamingConfig) Template(kind ArtifactKind) string {
	switch kind {
	case KindResult:
		return c.Result
	case KindInvoice:
		return c.Invoice
	case KindXML:
		return c.XML
	case KindPDF:
		return c.PDF
	}
	return ""
}

// Action describes what a run did to an artifact.
type Action string

const (
	ActionRenamed   Action = "renamed"
	ActionUnchanged Action = "unchanged"
	ActionMutated   Action = "mutated"
)

// ArtifactRecord is the catalog entry written for every artifact a run touched.
// It is the document stored in the Bleve index.
type ArtifactRecord struct {
	// ID is the final absolute path of the artifact.
	ID string `json:"id"`

	// PreviousPath is the path the artifact had before the run, when it changed.
	PreviousPath string `json:"previous_path,omitempty"`

	RunID         string       `json:"run_id"`
	Kind          ArtifactKind `json:"kind"`
	InvoiceNumber string       `json:"invoice_number"`
	ProcessID     string       `json:"process_id,omitempty"`

	// UniqueCode is the validation code resolved from a rejected entry, if any.
	UniqueCode string `json:"unique_code,omitempty"`

	Folder    string    `json:"folder"`
	Name      string    `json:"name"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Bleve field name constants for consistent field references in queries and mappings.
const (
	RecordFieldID            = "id"
	RecordFieldPreviousPath  = "previous_path"
	RecordFieldRunID         = "run_id"
	RecordFieldKind          = "kind"
	RecordFieldInvoiceNumber = "invoice_number"
	RecordFieldProcessID     = "process_id"
	RecordFieldUniqueCode    = "unique_code"
	RecordFieldFolder        = "folder"
	RecordFieldName          = "name"
	RecordFieldAction        = "action"
	RecordFieldTimestamp     = "timestamp"
)
