package siggen

import (
	"fmt"
	"strings"

	"github.com/jonwraymond/codemode/model"
	"github.com/jonwraymond/codemode/naming"
)

// DocSource supplies augmentation bodies for (service object, method)
// pairs. Nil is a valid source with no entries.
type DocSource interface {
	LookupBody(object, method string) (string, bool)
}

// Output is the result of one generation batch.
type Output struct {
	// Text is the full generated declaration text.
	Text string

	// Warnings lists tools whose schemas could not be compiled and fell
	// back to untyped declarations.
	Warnings []string
}

// resultHeader declares the shared envelope every tool method returns.
const resultHeader = `// Tool call results share this envelope. Check isError before using a
// result; remote failures are returned, not thrown.
interface ContentItem {
  type: string;
  text?: string;
}

interface ToolResult<T = unknown> {
  content: ContentItem[];
  isError?: boolean;
  structuredOutput?: T;
}`

// Generate produces the declaration text for a batch of tools. Tools
// are grouped by service namespace in first-seen order; tool order
// within a service is preserved.
func Generate(tools []model.Tool, docs DocSource) Output {
	var out Output

	type group struct {
		serviceID string
		tools     []model.Tool
	}
	var groups []*group
	byID := make(map[string]*group)
	for _, t := range tools {
		g, ok := byID[t.ServiceID]
		if !ok {
			g = &group{serviceID: t.ServiceID}
			byID[t.ServiceID] = g
			groups = append(groups, g)
		}
		g.tools = append(g.tools, t)
	}

	blocks := []string{resultHeader}
	var declares []string
	for _, g := range groups {
		ns, iface := generateService(g.serviceID, g.tools, docs, &out)
		if ns != "" {
			blocks = append(blocks, ns)
		}
		blocks = append(blocks, iface)
		object := naming.ServiceObjectName(g.serviceID)
		declares = append(declares, fmt.Sprintf("declare const %s: %sTools;",
			object, naming.ServiceNamespaceName(g.serviceID)))
	}
	blocks = append(blocks, strings.Join(declares, "\n"))

	out.Text = strings.Join(blocks, "\n\n") + "\n"
	return out
}

// generateService emits the namespace block (input/output types) and the
// tools interface for one service.
func generateService(serviceID string, tools []model.Tool, docs DocSource, out *Output) (namespace, iface string) {
	nsName := naming.ServiceNamespaceName(serviceID)
	object := naming.ServiceObjectName(serviceID)

	var nsDecls []string
	var methods []string

	for _, t := range tools {
		method := naming.MethodName(t.Name)
		inputType := nsName + "." + naming.InputTypeName(method)
		inputDecl, inputOptional := inputDeclaration(t, method, out)
		nsDecls = append(nsDecls, inputDecl)

		resultType := "ToolResult"
		if t.OutputSchema != nil {
			if outDecl, ok := outputDeclaration(t, method, out); ok {
				nsDecls = append(nsDecls, outDecl)
				resultType = "ToolResult<" + nsName + "." + naming.OutputTypeName(method) + ">"
			}
		}

		param := "input: " + inputType
		if inputOptional {
			param = "input?: " + inputType
		}

		var m strings.Builder
		m.WriteString(methodDoc(t, object, method, docs))
		m.WriteString(fmt.Sprintf("  %s(%s): Promise<%s>;", method, param, resultType))
		methods = append(methods, m.String())
	}

	if len(nsDecls) > 0 {
		namespace = "export namespace " + nsName + " {\n" +
			strings.Join(nsDecls, "\n\n") + "\n}"
	}
	iface = "interface " + nsName + "Tools {\n" + strings.Join(methods, "\n\n") + "\n}"
	return namespace, iface
}

// inputDeclaration renders the input interface for a tool. A tool with
// no input schema gets an empty interface; a schema that fails to
// compile gets the same fallback plus a warning. The second return
// reports whether the method's input parameter should be optional
// (no required fields).
func inputDeclaration(t model.Tool, method string, out *Output) (string, bool) {
	name := naming.InputTypeName(method)
	empty := "  export interface " + name + " {}"

	if t.InputSchema == nil {
		return empty, true
	}
	m, err := asSchema(t.InputSchema)
	if err == nil {
		var members []string
		members, err = interfaceMembers(m, "    ")
		if err == nil {
			optional := len(requiredSet(m)) == 0
			if len(members) == 0 {
				return empty, optional
			}
			return "  export interface " + name + " {\n" +
				strings.Join(members, "\n") + "\n  }", optional
		}
	}
	out.Warnings = append(out.Warnings,
		fmt.Sprintf("%s: input schema not convertible (%v); using untyped fallback", t.Key(), err))
	return empty, true
}

// outputDeclaration renders the output type for a tool. A schema that
// fails to compile yields no declaration at all; the method falls back
// to the untyped result type rather than a fabricated output type.
func outputDeclaration(t model.Tool, method string, out *Output) (string, bool) {
	name := naming.OutputTypeName(method)

	if m, err := asSchema(t.OutputSchema); err == nil {
		if _, hasProps := m["properties"]; hasProps {
			members, err := interfaceMembers(m, "    ")
			if err == nil {
				if len(members) == 0 {
					return "  export interface " + name + " {}", true
				}
				return "  export interface " + name + " {\n" +
					strings.Join(members, "\n") + "\n  }", true
			}
		} else if ref, err := typeRef(m); err == nil {
			return "  export type " + name + " = " + ref + ";", true
		}
	}
	out.Warnings = append(out.Warnings,
		fmt.Sprintf("%s: output schema not convertible; using untyped result", t.Key()))
	return "", false
}

// methodDoc assembles the documentation comment for one method: the
// tool's description, per-field breakdowns of the input and output
// schemas, and any matching augmentation body appended verbatim.
func methodDoc(t model.Tool, object, method string, docs DocSource) string {
	var lines []string
	if t.Description != "" {
		lines = append(lines, strings.Split(strings.TrimSpace(t.Description), "\n")...)
	}

	if fields := schemaFields(t.InputSchema); len(fields) > 0 {
		lines = append(lines, "", "Input fields:")
		lines = append(lines, fieldLines(fields)...)
	}
	if t.OutputSchema != nil {
		if fields := schemaFields(t.OutputSchema); len(fields) > 0 {
			lines = append(lines, "", "Output fields:")
			lines = append(lines, fieldLines(fields)...)
		}
	}

	if docs != nil {
		if body, ok := docs.LookupBody(object, method); ok {
			lines = append(lines, "")
			lines = append(lines, strings.Split(strings.TrimSpace(body), "\n")...)
		}
	}

	if len(lines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("  /**\n")
	for _, l := range lines {
		if l == "" {
			b.WriteString("   *\n")
			continue
		}
		// Descriptions and augmentation bodies are arbitrary text; a
		// literal */ would end the comment early.
		l = strings.ReplaceAll(l, "*/", `*\/`)
		b.WriteString("   * " + l + "\n")
	}
	b.WriteString("   */\n")
	return b.String()
}

func fieldLines(fields []schemaField) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		req := "optional"
		if f.Required {
			req = "required"
		}
		line := fmt.Sprintf("  - %s {%s} (%s)", f.Name, f.Type, req)
		if f.Description != "" {
			line += " " + f.Description
		}
		out = append(out, line)
	}
	return out
}
