package naming

import (
	"strings"
	"testing"
	"time"
)

func TestRender(t *testing.T) {
	ctx := map[string]string{
		KeyInvoiceNumber: "1001",
		KeyProcessID:     "77",
		KeyFacilityCode:  "IPS01",
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"single placeholder", "Fact_{numFactura}.xml", "Fact_1001.xml"},
		{"repeated placeholder", "{numFactura}_{numFactura}.pdf", "1001_1001.pdf"},
		{"several placeholders", "{ips}_{numFactura}_{ProcesoId}.json", "IPS01_1001_77.json"},
		{"no placeholders", "constant.json", "constant.json"},
		{"unknown placeholder kept", "{unknown}_{numFactura}.xml", "{unknown}_1001.xml"},
		{"unclosed brace falls back", "{numFactura}_{ips.xml", "1001_{ips.xml"},
		{"stray closing brace falls back", "{numFactura}}.xml", "1001}.xml"},
		{"doubled braces fall back", "{{numFactura}}.xml", "{1001}.xml"},
		{"positional field falls back", "{0}_{numFactura}.xml", "{0}_1001.xml"},
		{"empty field falls back", "{}_{ProcesoId}.json", "{}_77.json"},
		{"attribute field falls back", "{numFactura.x}_{ips}.json", "{numFactura.x}_IPS01.json"},
		{"format directive falls back", "{numFactura:>8}_{ips}", "{numFactura:>8}_IPS01"},
		{"nested key rebuilt by fallback", "{num{nit}Factura}.xml", "1001.xml"},
	}

	ctx[KeyTaxID] = ""
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Render(tt.template, ctx)
			if !ok {
				t.Fatalf("Render(%q) reported empty template", tt.template)
			}
			if got != tt.expected {
				t.Errorf("Render(%q) = %q, want %q", tt.template, got, tt.expected)
			}
		})
	}
}

func TestRender_EmptyTemplate(t *testing.T) {
	for _, ctx := range []map[string]string{nil, {}, Vars{InvoiceNumber: "1"}.Context()} {
		got, ok := Render("", ctx)
		if ok || got != "" {
			t.Errorf("Render(\"\") = (%q, %v), want (\"\", false)", got, ok)
		}
	}
}

func TestRender_UnknownWithEmptyContext(t *testing.T) {
	got, ok := Render("{unknown}", map[string]string{})
	if !ok || got != "{unknown}" {
		t.Errorf("Render({unknown}) = (%q, %v), want ({unknown}, true)", got, ok)
	}
}

func TestRender_NoBracketKeyRemains(t *testing.T) {
	ctx := Vars{
		InvoiceNumber: "FE-77",
		ProcessID:     "9",
		FacilityCode:  "110010",
		TaxID:         "900123",
		FolderName:    "Marzo",
		Now:           time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}.Context()

	templates := []string{
		"{numFactura}",
		"{fecha}_{ano}{mes}{dia}_{ips}_{nit}_{nombreCarpeta}.json",
		"{numFactura}{",
		"}{numFactura}",
		"{{{numFactura}}}",
		"{numFactura}{0}{ProcesoId}",
		"x{:}{nit}{ips}{[}",
		"{numFactura{ips}}",
		"{{ProcesoId}",
	}

	for _, tmpl := range templates {
		got, _ := Render(tmpl, ctx)
		for _, key := range Keys {
			if strings.Contains(got, "{"+key+"}") {
				t.Errorf("Render(%q) = %q still contains {%s}", tmpl, got, key)
			}
		}
	}
}

func TestRender_ValueNotRescanned(t *testing.T) {
	ctx := map[string]string{KeyInvoiceNumber: "{ips}", KeyFacilityCode: "X"}

	got, _ := Render("{numFactura}.xml", ctx)
	if got != "{ips}.xml" {
		t.Errorf("Render() = %q, want %q", got, "{ips}.xml")
	}
}
