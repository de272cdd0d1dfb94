package naming

import "github.com/sha1n/cuvren/internal/domain"

// NotDefined is shown in place of a rendering when a kind has no template.
const NotDefined = "(not defined)"

// PreviewLine is the rendering of one template against sample values.
type PreviewLine struct {
	Kind     domain.ArtifactKind `json:"kind"`
	Template string              `json:"template,omitempty"`
	Name     string              `json:"name"`
}

// Preview renders every template of cfg with vars, in the order of domain.Kinds.
func Preview(cfg domain.NamingConfig, vars Vars) []PreviewLine {
	ctx := vars.Context()
	lines := make([]PreviewLine, 0, len(domain.Kinds))
	for _, kind := range domain.Kinds {
		tmpl := cfg.Template(kind)
		name, ok := Render(tmpl, ctx)
		if !ok {
			name = NotDefined
		}
		lines = append(lines, PreviewLine{Kind: kind, Template: tmpl, Name: name})
	}
	return lines
}
