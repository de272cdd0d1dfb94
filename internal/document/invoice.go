package document

import (
	"fmt"

	"github.com/spf13/afero"
)

// InvoiceDocument is an electronic invoice document.
// Only the invoice number is read; it correlates the invoice with its XML and PDF copies.
type InvoiceDocument struct {
	InvoiceNumber string
}

// ParseInvoice decodes an invoice document.
func ParseInvoice(data []byte) (*InvoiceDocument, error) {
	obj, err := parseObject(data)
	if err != nil {
		return nil, err
	}
	number, err := invoiceNumber(obj, FieldInvoiceNumberAlt, FieldInvoiceNumber)
	if err != nil {
		return nil, err
	}
	return &InvoiceDocument{InvoiceNumber: number}, nil
}

// LoadInvoice reads and decodes the invoice document at path.
func LoadInvoice(fs afero.Fs, path string) (*InvoiceDocument, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice document: %w", err)
	}
	doc, err := ParseInvoice(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice document %s: %w", path, err)
	}
	return doc, nil
}
