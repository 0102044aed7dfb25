package server

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/codemode"
	"github.com/jonwraymond/codemode/connect"
)

// Logger is the minimal logging interface accepted by this package.
type Logger interface {
	Logf(format string, args ...any)
}

// Server wires a codemode client into a protocol server.
type Server struct {
	client *codemode.Client
	logger Logger
	impl   *mcp.Implementation
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Nil means silent.
func WithLogger(l Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New builds a Server around the given client.
func New(client *codemode.Client, opts ...Option) *Server {
	s := &Server{
		client: client,
		impl:   &mcp.Implementation{Name: "codemode", Version: "0.1.0"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MCPServer builds the protocol server with all four tools registered.
func (s *Server) MCPServer() *mcp.Server {
	srv := mcp.NewServer(s.impl, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "discover_tools",
		Description: "List every tool available from the configured backend " +
			"services, with their script-side identifiers.",
		InputSchema: map[string]any{"type": "object"},
	}, s.discoverTools)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "get_tool_signatures",
		Description: "Render TypeScript call signatures for tools. Pass tool " +
			"keys (serviceObject.method) to narrow the output; omit them for " +
			"the full catalog.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"tools": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Tool keys to render, e.g. weatherServer.getAlerts.",
				},
			},
		},
	}, s.getToolSignatures)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "execute_script",
		Description: "Run a TypeScript script that may call the discovered " +
			"tools as async methods, e.g. await weatherServer.getAlerts({...}). " +
			"The script's return value becomes the result.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"script": map[string]any{
					"type":        "string",
					"description": "TypeScript source to execute.",
				},
				"tools": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Tool keys the script may call. Omit to allow every discovered tool.",
				},
				"timeoutMs": map[string]any{
					"type":        "integer",
					"description": "Execution budget in milliseconds.",
				},
				"explore": map[string]any{
					"type":        "boolean",
					"description": "Include exploration guidance in the response.",
				},
			},
			"required": []any{"script"},
		},
	}, s.executeScript)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "record_tool_doc",
		Description: "Store a markdown documentation fragment for one tool. " +
			"It is appended to that tool's generated signature from then on.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"tool": map[string]any{
					"type":        "string",
					"description": "Tool key, e.g. weatherServer.getAlerts.",
				},
				"markdown": map[string]any{
					"type":        "string",
					"description": "Documentation body without the heading line.",
				},
			},
			"required": []any{"tool", "markdown"},
		},
	}, s.recordToolDoc)

	return srv
}

// Run serves the protocol on the given transport until the context is
// canceled or the transport closes.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	return s.MCPServer().Run(ctx, t)
}

type discoverInput struct{}

type discoverOutput struct {
	Services []connect.Discovery `json:"services"`
}

func (s *Server) discoverTools(ctx context.Context, _ *mcp.CallToolRequest, _ discoverInput) (*mcp.CallToolResult, discoverOutput, error) {
	results, err := s.client.Discover(ctx)
	if err != nil {
		return errorResult(err.Error()), discoverOutput{}, nil
	}
	return textResult(renderDiscovery(results)), discoverOutput{Services: results}, nil
}

type signaturesInput struct {
	Tools []string `json:"tools,omitempty"`
}

func (s *Server) getToolSignatures(ctx context.Context, _ *mcp.CallToolRequest, in signaturesInput) (*mcp.CallToolResult, codemode.SignatureResult, error) {
	res, err := s.client.Signatures(ctx, in.Tools)
	if err != nil {
		return errorResult(err.Error()), codemode.SignatureResult{}, nil
	}
	return textResult(renderSignatures(res)), res, nil
}

type executeInput struct {
	Script    string   `json:"script"`
	Tools     []string `json:"tools,omitempty"`
	TimeoutMs int      `json:"timeoutMs,omitempty"`
	Explore   bool     `json:"explore,omitempty"`
}

func (s *Server) executeScript(ctx context.Context, _ *mcp.CallToolRequest, in executeInput) (*mcp.CallToolResult, codemode.ExecuteResult, error) {
	if in.Script == "" {
		return errorResult("script is required"), codemode.ExecuteResult{}, nil
	}
	res, err := s.client.Execute(ctx, codemode.ExecuteParams{
		Script:  in.Script,
		Tools:   in.Tools,
		Timeout: time.Duration(in.TimeoutMs) * time.Millisecond,
		Explore: in.Explore,
	})
	if err != nil {
		return errorResult(err.Error()), codemode.ExecuteResult{}, nil
	}
	s.logf("execute_script %s: success=%v kind=%s", res.ID, res.Success, res.Kind)

	out := textResult(renderExecute(res, in.Explore))
	out.IsError = !res.Success
	return out, res, nil
}

type recordDocInput struct {
	Tool     string `json:"tool"`
	Markdown string `json:"markdown"`
}

type recordDocOutput struct {
	Tool  string `json:"tool"`
	Saved bool   `json:"saved"`
}

func (s *Server) recordToolDoc(_ context.Context, _ *mcp.CallToolRequest, in recordDocInput) (*mcp.CallToolResult, recordDocOutput, error) {
	if err := s.client.RecordDoc(in.Tool, in.Markdown); err != nil {
		return errorResult(err.Error()), recordDocOutput{Tool: in.Tool}, nil
	}
	return textResult("Recorded documentation for " + in.Tool + "."),
		recordDocOutput{Tool: in.Tool, Saved: true}, nil
}

func (s *Server) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Logf(format, args...)
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(text string) *mcp.CallToolResult {
	res := textResult(text)
	res.IsError = true
	return res
}
