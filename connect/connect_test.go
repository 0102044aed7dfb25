package connect

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/codemode/model"
)

func TestDiscoverAll(t *testing.T) {
	dialer := &inMemoryDialer{servers: map[string]*mcp.Server{
		"weather-server": newWeatherServer(),
		"geo-server":     newGeoServer(),
	}}
	services := []model.ServiceConfig{
		stdioService("weather-server"),
		{ID: "broken", Kind: model.KindStdio}, // fails validation: no command
		stdioService("geo-server"),
		stdioService("unreachable"), // no test server behind it
	}

	results := DiscoverAll(context.Background(), services, WithDialer(dialer.dial))
	if len(results) != len(services) {
		t.Fatalf("got %d results, want %d", len(results), len(services))
	}

	for i, svc := range services {
		if results[i].ServiceID != svc.ID {
			t.Errorf("results[%d].ServiceID = %q, want %q (input order)", i, results[i].ServiceID, svc.ID)
		}
	}

	weather := results[0]
	if weather.Err != "" {
		t.Fatalf("weather discovery failed: %s", weather.Err)
	}
	keys := make(map[string]bool)
	for _, tool := range weather.Tools {
		keys[tool.Key()] = true
	}
	if !keys["weatherServer.getAlerts"] || !keys["weatherServer.alwaysFails"] {
		t.Errorf("weather tool keys = %v, want getAlerts and alwaysFails", keys)
	}
	for _, tool := range weather.Tools {
		if tool.InputSchema == nil {
			t.Errorf("tool %s has no input schema", tool.Name)
		}
	}

	if results[1].Err == "" {
		t.Error("invalid service produced no error")
	}
	if results[2].Err != "" || len(results[2].Tools) != 1 {
		t.Errorf("geo discovery = %+v, want one tool", results[2])
	}
	if results[3].Err == "" {
		t.Error("unreachable service produced no error")
	}
}

func TestSessionInvoke(t *testing.T) {
	dialer := &inMemoryDialer{servers: map[string]*mcp.Server{
		"weather-server": newWeatherServer(),
	}}
	ctx := context.Background()

	discovered := DiscoverAll(ctx, []model.ServiceConfig{stdioService("weather-server")}, WithDialer(dialer.dial))
	if discovered[0].Err != "" {
		t.Fatalf("discovery failed: %s", discovered[0].Err)
	}

	s := NewSession([]model.ServiceConfig{stdioService("weather-server")}, WithDialer(dialer.dial))
	defer s.ReleaseAll()
	s.Register(discovered[0].Tools)

	res := s.Invoke(ctx, "weatherServer", "getAlerts", map[string]any{"state": "CA"})
	if res.IsError {
		t.Fatalf("Invoke failed: %+v", res)
	}
	if len(res.Content) == 0 || !strings.Contains(res.Content[0].Text, "alerts for CA") {
		t.Errorf("Content = %+v, want echoed input", res.Content)
	}
	if res.StructuredOutput == nil {
		t.Error("StructuredOutput is nil, want typed output")
	}
}

func TestSessionInvokeErrorPaths(t *testing.T) {
	dialer := &inMemoryDialer{servers: map[string]*mcp.Server{
		"weather-server": newWeatherServer(),
	}}
	ctx := context.Background()
	services := []model.ServiceConfig{
		stdioService("weather-server"),
		stdioService("ghost-server"),
	}

	s := NewSession(services, WithDialer(dialer.dial))
	defer s.ReleaseAll()
	s.Register([]model.Tool{
		{ServiceID: "weather-server", Name: "get_alerts"},
		{ServiceID: "weather-server", Name: "always_fails"},
		{ServiceID: "ghost-server", Name: "vanish"},
		{ServiceID: "unconfigured", Name: "nothing"},
	})

	tests := []struct {
		name    string
		object  string
		method  string
		wantErr string
	}{
		{"unknown tool", "weatherServer", "noSuchMethod", "unknown tool"},
		{"undialable service", "ghostServer", "vanish", "unavailable"},
		{"unconfigured service", "unconfiguredServer", "nothing", "unavailable"},
		{"remote error result", "weatherServer", "alwaysFails", "upstream outage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Invoke(ctx, tt.object, tt.method, nil)
			if !res.IsError {
				t.Fatalf("Invoke succeeded, want error result")
			}
			if len(res.Content) == 0 || !strings.Contains(res.Content[0].Text, tt.wantErr) {
				t.Errorf("Content = %+v, want mention of %q", res.Content, tt.wantErr)
			}
		})
	}
}

func TestSessionDialsLazilyAndOnce(t *testing.T) {
	dialer := &inMemoryDialer{servers: map[string]*mcp.Server{
		"weather-server": newWeatherServer(),
	}}
	ctx := context.Background()

	s := NewSession([]model.ServiceConfig{stdioService("weather-server")}, WithDialer(dialer.dial))
	defer s.ReleaseAll()
	s.Register([]model.Tool{{ServiceID: "weather-server", Name: "get_alerts"}})

	if n := dialer.dials.Load(); n != 0 {
		t.Fatalf("dials after Register = %d, want 0", n)
	}
	for i := 0; i < 3; i++ {
		if res := s.Invoke(ctx, "weatherServer", "getAlerts", map[string]any{"state": "NY"}); res.IsError {
			t.Fatalf("Invoke %d failed: %+v", i, res)
		}
	}
	if n := dialer.dials.Load(); n != 1 {
		t.Errorf("dials after invokes = %d, want 1", n)
	}
}

func TestSessionReleaseAll(t *testing.T) {
	dialer := &inMemoryDialer{servers: map[string]*mcp.Server{
		"weather-server": newWeatherServer(),
	}}
	ctx := context.Background()

	s := NewSession([]model.ServiceConfig{stdioService("weather-server")}, WithDialer(dialer.dial))
	s.Register([]model.Tool{{ServiceID: "weather-server", Name: "get_alerts"}})
	if res := s.Invoke(ctx, "weatherServer", "getAlerts", nil); res.IsError {
		t.Fatalf("Invoke failed: %+v", res)
	}

	s.ReleaseAll()
	s.ReleaseAll() // idempotent

	res := s.Invoke(ctx, "weatherServer", "getAlerts", nil)
	if !res.IsError {
		t.Error("Invoke after release succeeded, want error result")
	}
}

func TestTransportFor(t *testing.T) {
	tests := []struct {
		name    string
		svc     model.ServiceConfig
		wantErr bool
	}{
		{"stdio", model.ServiceConfig{ID: "a", Kind: model.KindStdio, Command: "svc"}, false},
		{"http", model.ServiceConfig{ID: "b", Kind: model.KindHTTP, URL: "http://localhost:1"}, false},
		{"sse", model.ServiceConfig{ID: "c", Kind: model.KindSSE, URL: "http://localhost:1"}, false},
		{"websocket", model.ServiceConfig{ID: "d", Kind: model.KindWebSocket, URL: "ws://localhost:1"}, false},
		{"unknown", model.ServiceConfig{ID: "e", Kind: "carrier-pigeon"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := transportFor(tt.svc)
			if tt.wantErr {
				if err == nil {
					t.Fatal("transportFor succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("transportFor: %v", err)
			}
			if tr == nil {
				t.Fatal("transportFor returned nil transport")
			}
		})
	}
}

func TestCommandForMergesEnv(t *testing.T) {
	t.Setenv("CODEMODE_TEST_VAR", "parent")
	svc := model.ServiceConfig{
		ID:      "s",
		Kind:    model.KindStdio,
		Command: "svc",
		Args:    []string{"--flag"},
		Dir:     "/tmp",
		Env:     map[string]string{"CODEMODE_TEST_VAR": "service"},
	}
	cmd := commandFor(svc)
	if cmd.Dir != "/tmp" {
		t.Errorf("Dir = %q, want /tmp", cmd.Dir)
	}
	// Later entries win on collision, so the service value must come
	// after the parent's.
	last := ""
	for _, kv := range cmd.Env {
		if strings.HasPrefix(kv, "CODEMODE_TEST_VAR=") {
			last = strings.TrimPrefix(kv, "CODEMODE_TEST_VAR=")
		}
	}
	if last != "service" {
		t.Errorf("effective CODEMODE_TEST_VAR = %q, want service", last)
	}
}
