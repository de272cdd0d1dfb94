package document

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// MutationMode selects how a result document's validation list is edited.
type MutationMode int

const (
	// ModeNone leaves documents untouched.
	ModeNone MutationMode = iota
	// ModeDropRejected removes rejected entries and resolves the validation code.
	ModeDropRejected
	// ModeClearAll empties the validation list.
	ModeClearAll
)

const (
	rejectedClass    = "RECHAZADO"
	resolvableCode   = "RVG02"
	uniqueCodePrefix = "Ministerio de Salud; CUV "
	uniqueCodeSuffix = " del Documento"
)

// String returns the flag spelling of the mode.
func (m MutationMode) String() string {
	switch m {
	case ModeDropRejected:
		return "drop-rejected"
	case ModeClearAll:
		return "clear-all"
	default:
		return "none"
	}
}

// ModeParseError is returned by ParseMutationMode for unknown values.
type ModeParseError struct {
	Value string
}

func (e *ModeParseError) Error() string {
	return "invalid mutation mode: " + e.Value + " (expected drop-rejected or clear-all)"
}

// ParseMutationMode parses a mode flag value. The empty string is ModeNone.
func ParseMutationMode(s string) (MutationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ModeNone, nil
	case "drop-rejected", "rejected":
		return ModeDropRejected, nil
	case "clear-all", "all":
		return ModeClearAll, nil
	}
	return ModeNone, &ModeParseError{Value: s}
}

// Mutate edits doc according to mode and reports whether it must be persisted.
// ModeDropRejected always reports a modification, even when nothing was removed.
func Mutate(doc *ResultDocument, mode MutationMode) (bool, error) {
	switch mode {
	case ModeClearAll:
		if err := doc.SetValidations([]ValidationEntry{}); err != nil {
			return false, err
		}
		if err := doc.SetPassed(true); err != nil {
			return false, err
		}
		return true, nil

	case ModeDropRejected:
		if doc.listInvalid {
			return false, fmt.Errorf("field %s is not a list", FieldValidations)
		}
		kept := make([]ValidationEntry, 0, len(doc.Validations))
		var code string
		for _, e := range doc.Validations {
			if e.Class != rejectedClass {
				kept = append(kept, e)
				continue
			}
			if e.Code == resolvableCode {
				if c := ExtractUniqueCode(e.Observation); c != "" {
					code = c
				}
			}
		}

		if err := doc.SetValidations(kept); err != nil {
			return false, err
		}
		if code != "" {
			if err := doc.SetUniqueCode(code); err != nil {
				return false, err
			}
			if err := doc.SetPassed(true); err != nil {
				return false, err
			}
		}
		return true, nil
	}

	return false, nil
}

// ExtractUniqueCode returns the trimmed text between the ministry CUV marker
// and the following " del Documento" marker, or "" when either is missing.
func ExtractUniqueCode(observation string) string {
	_, rest, ok := strings.Cut(observation, uniqueCodePrefix)
	if !ok {
		return ""
	}
	code, _, ok := strings.Cut(rest, uniqueCodeSuffix)
	if !ok {
		return ""
	}
	return strings.TrimSpace(code)
}

// MutateFile loads the result document at path, mutates it and writes it back
// to the same path when modified. The returned document reflects the edit.
// Any JSON object can be mutated: naming fields of an unexpected type are left
// empty in the returned document and written back untouched.
func MutateFile(fs afero.Fs, path string, mode MutationMode) (*ResultDocument, bool, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read result document: %w", err)
	}
	doc, err := decodeResult(data)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse result document %s: %w", path, err)
	}

	modified, err := Mutate(doc, mode)
	if err != nil {
		return nil, false, fmt.Errorf("failed to mutate %s: %w", path, err)
	}
	if !modified {
		return doc, false, nil
	}

	data, err = doc.Encode()
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode %s: %w", path, err)
	}

	perm := os.FileMode(0644)
	if info, err := fs.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := afero.WriteFile(fs, path, data, perm); err != nil {
		return nil, false, fmt.Errorf("failed to write result document: %w", err)
	}

	return doc, true, nil
}
