package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonwraymond/codemode"
	"github.com/jonwraymond/codemode/connect"
)

// exploreGuidance is appended to execution renderings when the caller
// asked for exploration hints.
const exploreGuidance = "Tip: call get_tool_signatures for the tools you plan " +
	"to use next, and record_tool_doc to save what you learn about their behavior."

// renderDiscovery formats discovery results as a per-service tool list.
func renderDiscovery(results []connect.Discovery) string {
	var b strings.Builder
	total := 0
	for _, d := range results {
		total += len(d.Tools)
	}
	fmt.Fprintf(&b, "%d tools across %d services.\n", total, len(results))

	for _, d := range results {
		fmt.Fprintf(&b, "\n## %s", d.ServiceName)
		if d.Err != "" {
			fmt.Fprintf(&b, " (unavailable)\n%s\n", d.Err)
			continue
		}
		fmt.Fprintf(&b, " (%d tools)\n", len(d.Tools))
		for _, t := range d.Tools {
			fmt.Fprintf(&b, "- %s", t.Key())
			if t.Description != "" {
				fmt.Fprintf(&b, ": %s", firstLine(t.Description))
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderSignatures returns the declaration text, prefixed with a note
// for any keys that resolved to nothing.
func renderSignatures(res codemode.SignatureResult) string {
	var b strings.Builder
	if len(res.Unresolved) > 0 {
		fmt.Fprintf(&b, "Unresolved tools: %s\n\n", strings.Join(res.Unresolved, ", "))
	}
	b.WriteString(res.Text)
	return strings.TrimRight(b.String(), "\n")
}

// renderExecute formats one execution outcome: status, result, logs.
func renderExecute(res codemode.ExecuteResult, explore bool) string {
	var b strings.Builder
	if res.Success {
		fmt.Fprintf(&b, "Execution %s succeeded in %dms.\n", res.ID, res.DurationMs)
		b.WriteString("\nResult:\n")
		b.WriteString(renderValue(res.Result))
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "Execution %s failed (%s) after %dms.\n", res.ID, res.Kind, res.DurationMs)
		fmt.Fprintf(&b, "\nError:\n%s\n", res.Error)
	}

	if len(res.Unresolved) > 0 {
		fmt.Fprintf(&b, "\nUnresolved tools: %s\n", strings.Join(res.Unresolved, ", "))
	}
	if len(res.Logs) > 0 {
		b.WriteString("\nLogs:\n")
		for _, line := range res.Logs {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	if explore {
		b.WriteString("\n" + exploreGuidance + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderValue(v any) string {
	if v == nil {
		return "undefined"
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
