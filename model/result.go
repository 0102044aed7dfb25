package model

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ContentItem is one element of a tool result's content sequence.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ToolResult is the normalized outcome of one tool invocation. Transport
// and remote failures are carried in-band via IsError rather than as Go
// errors, because the invoking script must be able to branch on failure
// inline; see ErrorResult.
type ToolResult struct {
	Content          []ContentItem `json:"content"`
	IsError          bool          `json:"isError,omitempty"`
	StructuredOutput any           `json:"structuredOutput,omitempty"`
}

// TextResult builds a successful result with a single text content item.
func TextResult(text string) ToolResult {
	return ToolResult{Content: []ContentItem{{Type: "text", Text: text}}}
}

// ErrorResult builds an error-flagged result describing a failure.
func ErrorResult(format string, args ...any) ToolResult {
	return ToolResult{
		Content: []ContentItem{{Type: "text", Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// FromCallToolResult normalizes a protocol-level call result. Non-text
// content keeps its type tag with the payload elided.
func FromCallToolResult(res *mcp.CallToolResult) ToolResult {
	out := ToolResult{
		IsError:          res.IsError,
		StructuredOutput: res.StructuredContent,
	}
	for _, c := range res.Content {
		switch c := c.(type) {
		case *mcp.TextContent:
			out.Content = append(out.Content, ContentItem{Type: "text", Text: c.Text})
		case *mcp.ImageContent:
			out.Content = append(out.Content, ContentItem{Type: "image"})
		case *mcp.AudioContent:
			out.Content = append(out.Content, ContentItem{Type: "audio"})
		default:
			out.Content = append(out.Content, ContentItem{Type: fmt.Sprintf("%T", c)})
		}
	}
	return out
}

// AsMap renders the result in the shape handed to script code:
// { content: [...], isError?: bool, structuredOutput?: any }.
func (r ToolResult) AsMap() map[string]any {
	content := make([]any, 0, len(r.Content))
	for _, c := range r.Content {
		item := map[string]any{"type": c.Type}
		if c.Text != "" {
			item["text"] = c.Text
		}
		content = append(content, item)
	}
	m := map[string]any{"content": content}
	if r.IsError {
		m["isError"] = true
	}
	if r.StructuredOutput != nil {
		m["structuredOutput"] = r.StructuredOutput
	}
	return m
}
