package naming

import "time"

// Placeholder keys recognized in naming templates.
const (
	KeyInvoiceNumber = "numFactura"
	KeyProcessID     = "ProcesoId"
	KeyFacilityCode  = "ips"
	KeyTaxID         = "nit"
	KeyDate          = "fecha"
	KeyYear          = "ano"
	KeyMonth         = "mes"
	KeyDay           = "dia"
	KeyFolderName    = "nombreCarpeta"
)

// Keys lists every placeholder key.
var Keys = []string{
	KeyInvoiceNumber,
	KeyProcessID,
	KeyFacilityCode,
	KeyTaxID,
	KeyDate,
	KeyYear,
	KeyMonth,
	KeyDay,
	KeyFolderName,
}

// Vars are the values a naming context is built from.
type Vars struct {
	InvoiceNumber string
	ProcessID     string
	FacilityCode  string
	TaxID         string
	FolderName    string
	Now           time.Time
}

// Context returns the variable context for v. Every key of Keys is present;
// unknown values are empty strings, including the date keys when Now is zero.
func (v Vars) Context() map[string]string {
	ctx := map[string]string{
		KeyInvoiceNumber: v.InvoiceNumber,
		KeyProcessID:     v.ProcessID,
		KeyFacilityCode:  v.FacilityCode,
		KeyTaxID:         v.TaxID,
		KeyFolderName:    v.FolderName,
		KeyDate:          "",
		KeyYear:          "",
		KeyMonth:         "",
		KeyDay:           "",
	}
	if !v.Now.IsZero() {
		ctx[KeyDate] = v.Now.Format("20060102")
		ctx[KeyYear] = v.Now.Format("2006")
		ctx[KeyMonth] = v.Now.Format("01")
		ctx[KeyDay] = v.Now.Format("02")
	}
	return ctx
}

// SampleVars returns the values used to preview templates.
func SampleVars(facilityCode, taxID string, now time.Time) Vars {
	return Vars{
		InvoiceNumber: "12345",
		ProcessID:     "999",
		FacilityCode:  facilityCode,
		TaxID:         taxID,
		FolderName:    "CarpetaEjemplo",
		Now:           now,
	}
}
