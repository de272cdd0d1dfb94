package naming

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var errMalformed = errors.New("malformed template")

// Render substitutes every {key} of ctx found in template.
// It returns false when template is empty. Placeholders that are not in ctx
// are kept verbatim. When the template cannot be parsed as a brace template
// (unbalanced braces, empty or non-identifier field names) every {key} of ctx
// is replaced literally instead, so Render never fails.
func Render(template string, ctx map[string]string) (string, bool) {
	if template == "" {
		return "", false
	}

	out, err := substitute(template, ctx)
	if err != nil {
		return replaceLiteral(template, ctx), true
	}
	return out, true
}

// substitute is the brace-field pass.
func substitute(template string, ctx map[string]string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(template))

	for i := 0; i < len(template); {
		c := template[i]
		switch c {
		case '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed '{' at %d", errMalformed, i)
			}
			name := template[i+1 : i+1+end]
			if err := checkFieldName(name); err != nil {
				return "", err
			}
			if v, ok := ctx[name]; ok {
				sb.WriteString(v)
			} else {
				sb.WriteString(template[i : i+end+2])
			}
			i += end + 2
		case '}':
			return "", fmt.Errorf("%w: single '}' at %d", errMalformed, i)
		default:
			sb.WriteByte(c)
			i++
		}
	}

	return sb.String(), nil
}

func checkFieldName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty field name", errMalformed)
	}
	if strings.ContainsAny(name, "{:!.[]") {
		return fmt.Errorf("%w: unsupported field %q", errMalformed, name)
	}
	if strings.Trim(name, "0123456789") == "" {
		return fmt.Errorf("%w: positional field %q", errMalformed, name)
	}
	return nil
}

// maxLiteralPasses bounds replaceLiteral when values themselves contain placeholders.
const maxLiteralPasses = 4

// replaceLiteral replaces {key} with its value for every key of ctx.
// Passes repeat while a replacement joins the surrounding text into a new {key}.
func replaceLiteral(template string, ctx map[string]string) string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", ctx[k])
	}
	r := strings.NewReplacer(pairs...)

	out := template
	for range maxLiteralPasses {
		next := r.Replace(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}
