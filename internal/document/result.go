package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// Result document field names.
const (
	FieldInvoiceNumber = "NumFactura"
	FieldProcessID     = "ProcesoId"
	FieldValidations   = "ResultadosValidacion"
	FieldState         = "ResultState"
	FieldUniqueCode    = "CodigoUnicoValidacion"

	// FieldInvoiceNumberAlt is the invoice document spelling of the invoice number.
	FieldInvoiceNumberAlt = "numFactura"

	entryFieldClass       = "Clase"
	entryFieldCode        = "Codigo"
	entryFieldObservation = "Observaciones"
)

// ValidationEntry is one item of a result document's validation list.
type ValidationEntry struct {
	Class       string
	Code        string
	Observation string

	raw json.RawMessage
}

// ResultDocument is a validation result document.
// Fields that are not modeled are kept and written back unchanged.
type ResultDocument struct {
	InvoiceNumber string
	ProcessID     string
	Validations   []ValidationEntry
	// Passed is false when ResultState is missing or not a boolean.
	Passed     bool
	UniqueCode string

	obj *object

	// invalid holds the field errors found while decoding.
	invalid error
	// listInvalid is set when the validation list could not be read.
	listInvalid bool
}

// ParseResult decodes a result document. Every modeled field must have the
// expected type; a ResultState that is not a boolean reads as not passed.
func ParseResult(data []byte) (*ResultDocument, error) {
	doc, err := decodeResult(data)
	if err != nil {
		return nil, err
	}
	if doc.invalid != nil {
		return nil, doc.invalid
	}
	return doc, nil
}

// decodeResult decodes any JSON object. Modeled fields of an unexpected type
// are left empty and reported in doc.invalid.
func decodeResult(data []byte) (*ResultDocument, error) {
	obj, err := parseObject(data)
	if err != nil {
		return nil, err
	}

	doc := &ResultDocument{obj: obj}

	if doc.InvoiceNumber, err = invoiceNumber(obj, FieldInvoiceNumber, FieldInvoiceNumberAlt); err != nil {
		doc.invalid = multierr.Append(doc.invalid, err)
	}

	raw, ok := obj.get(FieldProcessID)
	if doc.ProcessID, err = scalarText(raw, ok); err != nil {
		doc.invalid = multierr.Append(doc.invalid, fmt.Errorf("field %s: %w", FieldProcessID, err))
	}

	if raw, ok := obj.get(FieldValidations); ok {
		if doc.Validations, err = parseValidations(raw); err != nil {
			doc.invalid = multierr.Append(doc.invalid, err)
			doc.listInvalid = true
		}
	}

	if raw, ok := obj.get(FieldState); ok {
		var passed bool
		if json.Unmarshal(raw, &passed) == nil {
			doc.Passed = passed
		}
	}

	if raw, ok := obj.get(FieldUniqueCode); ok {
		doc.UniqueCode = stringValue(raw)
	}

	return doc, nil
}

// LoadResult reads and decodes the result document at path.
func LoadResult(fs afero.Fs, path string) (*ResultDocument, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result document: %w", err)
	}
	doc, err := ParseResult(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse result document %s: %w", path, err)
	}
	return doc, nil
}

func parseValidations(raw json.RawMessage) ([]ValidationEntry, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("field %s is not a list", FieldValidations)
	}

	entries := make([]ValidationEntry, 0, len(items))
	for _, item := range items {
		entry := ValidationEntry{raw: item}

		// Non-object items carry no class and are never removed.
		var fields map[string]json.RawMessage
		if json.Unmarshal(item, &fields) == nil {
			entry.Class = stringValue(fields[entryFieldClass])
			entry.Code = stringValue(fields[entryFieldCode])
			entry.Observation = stringValue(fields[entryFieldObservation])
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// SetValidations replaces the validation list.
func (d *ResultDocument) SetValidations(entries []ValidationEntry) error {
	items := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		raw := e.raw
		if raw == nil {
			var err error
			raw, err = marshal(map[string]string{
				entryFieldClass:       e.Class,
				entryFieldCode:        e.Code,
				entryFieldObservation: e.Observation,
			})
			if err != nil {
				return err
			}
		}
		items = append(items, raw)
	}
	if err := d.obj.set(FieldValidations, items); err != nil {
		return err
	}
	d.Validations = entries
	return nil
}

// SetPassed sets the derived status field.
func (d *ResultDocument) SetPassed(passed bool) error {
	if err := d.obj.set(FieldState, passed); err != nil {
		return err
	}
	d.Passed = passed
	return nil
}

// SetUniqueCode sets the resolved validation code.
func (d *ResultDocument) SetUniqueCode(code string) error {
	if err := d.obj.set(FieldUniqueCode, code); err != nil {
		return err
	}
	d.UniqueCode = code
	return nil
}

// Encode returns the document as 4-space indented JSON.
func (d *ResultDocument) Encode() ([]byte, error) {
	return d.obj.encode()
}

// invoiceNumber reads the first present key among keys.
func invoiceNumber(obj *object, keys ...string) (string, error) {
	for _, key := range keys {
		raw, ok := obj.get(key)
		if !ok {
			continue
		}
		s, err := scalarText(raw, ok)
		if err != nil {
			return "", fmt.Errorf("field %s: %w", key, err)
		}
		return strings.TrimSpace(s), nil
	}
	return "", nil
}
