package model

import (
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestParseToolKey(t *testing.T) {
	tests := []struct {
		key     string
		object  string
		method  string
		wantErr bool
	}{
		{"weatherServer.getAlerts", "weatherServer", "getAlerts", false},
		{"a.b", "a", "b", false},
		{"noDot", "", "", true},
		{".method", "", "", true},
		{"object.", "", "", true},
		{"a.b.c", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		object, method, err := ParseToolKey(tt.key)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseToolKey(%q): expected error", tt.key)
			} else if !errors.Is(err, ErrInvalidToolKey) {
				t.Errorf("ParseToolKey(%q): expected ErrInvalidToolKey, got %v", tt.key, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseToolKey(%q): unexpected error: %v", tt.key, err)
			continue
		}
		if object != tt.object || method != tt.method {
			t.Errorf("ParseToolKey(%q) = (%q, %q), want (%q, %q)",
				tt.key, object, method, tt.object, tt.method)
		}
	}
}

func TestToolKey(t *testing.T) {
	tool := Tool{ServiceID: "weather-server", Name: "get_alerts"}
	if got := tool.Key(); got != "weatherServer.getAlerts" {
		t.Errorf("Key() = %q, want weatherServer.getAlerts", got)
	}
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		svc     ServiceConfig
		wantErr bool
	}{
		{"valid stdio", ServiceConfig{ID: "a", Kind: KindStdio, Command: "srv"}, false},
		{"valid http", ServiceConfig{ID: "a", Kind: KindHTTP, URL: "http://localhost:8080/mcp"}, false},
		{"valid websocket", ServiceConfig{ID: "a", Kind: KindWebSocket, URL: "ws://localhost:9000"}, false},
		{"missing id", ServiceConfig{Kind: KindStdio, Command: "srv"}, true},
		{"bad kind", ServiceConfig{ID: "a", Kind: "carrier-pigeon"}, true},
		{"stdio without command", ServiceConfig{ID: "a", Kind: KindStdio}, true},
		{"http without url", ServiceConfig{ID: "a", Kind: KindHTTP}, true},
		{"websocket with http url", ServiceConfig{ID: "a", Kind: KindWebSocket, URL: "http://x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.svc.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidService) {
				t.Fatalf("expected ErrInvalidService, got %v", err)
			}
		})
	}
}

func TestServiceConfigDisplayName(t *testing.T) {
	svc := ServiceConfig{ID: "weather-server", Timeout: 5 * time.Second}
	if got := svc.DisplayName(); got != "weather-server" {
		t.Errorf("DisplayName() = %q, want weather-server", got)
	}
	svc.Name = "Weather"
	if got := svc.DisplayName(); got != "Weather" {
		t.Errorf("DisplayName() = %q, want Weather", got)
	}
}

func TestFromCallToolResult(t *testing.T) {
	res := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "hello"},
			&mcp.ImageContent{MIMEType: "image/png"},
		},
		StructuredContent: map[string]any{"temp": 72.0},
	}
	got := FromCallToolResult(res)
	if len(got.Content) != 2 {
		t.Fatalf("expected 2 content items, got %d", len(got.Content))
	}
	if got.Content[0].Type != "text" || got.Content[0].Text != "hello" {
		t.Errorf("unexpected first content item: %+v", got.Content[0])
	}
	if got.Content[1].Type != "image" {
		t.Errorf("unexpected second content item: %+v", got.Content[1])
	}
	if got.IsError {
		t.Error("expected IsError false")
	}
	if got.StructuredOutput == nil {
		t.Error("expected structured output")
	}
}

func TestToolResultAsMap(t *testing.T) {
	r := ErrorResult("boom: %s", "transport closed")
	m := r.AsMap()
	if m["isError"] != true {
		t.Error("expected isError true")
	}
	content, ok := m["content"].([]any)
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %#v", m["content"])
	}
	item := content[0].(map[string]any)
	if item["text"] != "boom: transport closed" {
		t.Errorf("unexpected text: %v", item["text"])
	}

	ok2 := TextResult("fine").AsMap()
	if _, present := ok2["isError"]; present {
		t.Error("success result must omit isError")
	}
}
