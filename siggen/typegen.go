package siggen

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// identRe matches property names that can appear unquoted in a
// TypeScript declaration.
var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// asSchema normalizes a decoded schema fragment into a map.
func asSchema(v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema fragment is %T, not an object", v)
	}
	return m, nil
}

// typeRef renders a schema fragment as an inline TypeScript type.
func typeRef(v any) (string, error) {
	m, err := asSchema(v)
	if err != nil {
		return "", err
	}

	if enum, ok := m["enum"].([]any); ok && len(enum) > 0 {
		return literalUnion(enum)
	}
	if c, ok := m["const"]; ok {
		return literal(c)
	}
	for _, key := range []string{"anyOf", "oneOf"} {
		if alts, ok := m[key].([]any); ok && len(alts) > 0 {
			return altUnion(alts)
		}
	}

	switch t := m["type"].(type) {
	case string:
		return typeForName(t, m)
	case []any:
		parts := make([]string, 0, len(t))
		for _, alt := range t {
			name, ok := alt.(string)
			if !ok {
				return "", fmt.Errorf("type list holds %T, not a string", alt)
			}
			p, err := typeForName(name, m)
			if err != nil {
				return "", err
			}
			parts = append(parts, p)
		}
		return strings.Join(parts, " | "), nil
	case nil:
		// No explicit type; objects are often declared by properties alone.
		if _, ok := m["properties"]; ok {
			return objectRef(m)
		}
		return "", fmt.Errorf("schema fragment has no type")
	default:
		return "", fmt.Errorf("schema type is %T", t)
	}
}

func typeForName(name string, m map[string]any) (string, error) {
	switch name {
	case "string":
		return "string", nil
	case "number", "integer":
		return "number", nil
	case "boolean":
		return "boolean", nil
	case "null":
		return "null", nil
	case "array":
		items, ok := m["items"]
		if !ok {
			return "unknown[]", nil
		}
		ref, err := typeRef(items)
		if err != nil {
			return "", err
		}
		if strings.ContainsAny(ref, " |") {
			return "(" + ref + ")[]", nil
		}
		return ref + "[]", nil
	case "object":
		return objectRef(m)
	default:
		return "", fmt.Errorf("unsupported schema type %q", name)
	}
}

// objectRef renders an object schema inline: { a: string; b?: number }.
func objectRef(m map[string]any) (string, error) {
	props, hasProps := m["properties"].(map[string]any)
	if !hasProps || len(props) == 0 {
		if ap, ok := m["additionalProperties"]; ok {
			if apm, ok := ap.(map[string]any); ok {
				ref, err := typeRef(apm)
				if err != nil {
					return "", err
				}
				return "Record<string, " + ref + ">", nil
			}
		}
		return "Record<string, unknown>", nil
	}

	required := requiredSet(m)
	var parts []string
	for _, name := range sortedKeys(props) {
		ref, err := typeRef(props[name])
		if err != nil {
			return "", err
		}
		parts = append(parts, propertyName(name)+optionalMark(required[name])+": "+ref)
	}
	return "{ " + strings.Join(parts, "; ") + " }", nil
}

// interfaceMembers renders a top-level object schema as indented
// interface member lines, one per property, with description comments.
func interfaceMembers(m map[string]any, indent string) ([]string, error) {
	props, ok := m["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		return nil, nil
	}

	required := requiredSet(m)
	var lines []string
	for _, name := range sortedKeys(props) {
		ref, err := typeRef(props[name])
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		if pm, ok := props[name].(map[string]any); ok {
			if desc, ok := pm["description"].(string); ok && desc != "" {
				lines = append(lines, indent+"/** "+collapseSpace(desc)+" */")
			}
		}
		lines = append(lines, indent+propertyName(name)+optionalMark(required[name])+": "+ref+";")
	}
	return lines, nil
}

// schemaFields summarizes a schema's properties for documentation:
// name, type label, required flag, description.
type schemaField struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

func schemaFields(v any) []schemaField {
	m, err := asSchema(v)
	if err != nil {
		return nil
	}
	props, ok := m["properties"].(map[string]any)
	if !ok {
		return nil
	}
	required := requiredSet(m)

	var out []schemaField
	for _, name := range sortedKeys(props) {
		f := schemaField{Name: name, Required: required[name], Type: "unknown"}
		if pm, ok := props[name].(map[string]any); ok {
			f.Type = fieldTypeLabel(pm)
			if desc, ok := pm["description"].(string); ok {
				f.Description = collapseSpace(desc)
			}
		}
		out = append(out, f)
	}
	return out
}

func fieldTypeLabel(m map[string]any) string {
	if _, ok := m["enum"].([]any); ok {
		return "enum"
	}
	switch t := m["type"].(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, alt := range t {
			if s, ok := alt.(string); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "|")
		}
	}
	if _, ok := m["properties"]; ok {
		return "object"
	}
	return "unknown"
}

func requiredSet(m map[string]any) map[string]bool {
	out := make(map[string]bool)
	if req, ok := m["required"].([]any); ok {
		for _, r := range req {
			if name, ok := r.(string); ok {
				out[name] = true
			}
		}
	}
	return out
}

func literalUnion(values []any) (string, error) {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		lit, err := literal(v)
		if err != nil {
			return "", err
		}
		parts = append(parts, lit)
	}
	return strings.Join(parts, " | "), nil
}

func altUnion(alts []any) (string, error) {
	parts := make([]string, 0, len(alts))
	for _, alt := range alts {
		ref, err := typeRef(alt)
		if err != nil {
			return "", err
		}
		parts = append(parts, ref)
	}
	return strings.Join(parts, " | "), nil
}

func literal(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case nil:
		return "null", nil
	default:
		return "", fmt.Errorf("unsupported literal %T", v)
	}
}

func propertyName(name string) string {
	if identRe.MatchString(name) {
		return name
	}
	return strconv.Quote(name)
}

func optionalMark(required bool) string {
	if required {
		return ""
	}
	return "?"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
