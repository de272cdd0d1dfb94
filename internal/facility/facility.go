package facility

import (
	"context"
	"errors"
)

// ErrNoFacility is returned when the data source holds no facility record.
var ErrNoFacility = errors.New("no facility record found")

// Facility identifies the healthcare provider the files belong to.
type Facility struct {
	// Code is the provider code (the ips placeholder).
	Code string
	// TaxID is the provider tax identifier (the nit placeholder).
	TaxID string
}

// Source provides the facility data used in naming contexts.
type Source interface {
	Lookup(ctx context.Context) (Facility, error)
}

// StaticSource returns a fixed facility, typically taken from settings.
type StaticSource Facility

// Lookup returns the configured facility.
func (s StaticSource) Lookup(context.Context) (Facility, error) {
	return Facility(s), nil
}
