package connect

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/codemode/model"
)

// testLogger collects log lines for assertions.
type testLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *testLogger) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

type alertsInput struct {
	State string `json:"state"`
}

type alertsOutput struct {
	Count int `json:"count"`
}

// newWeatherServer builds an in-memory service with a get_alerts tool
// that echoes its input and a failing tool for error paths.
func newWeatherServer() *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{Name: "weather", Version: "1.0.0"}, nil)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_alerts",
		Description: "List active weather alerts for a state.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in alertsInput) (*mcp.CallToolResult, alertsOutput, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "alerts for " + in.State}},
		}, alertsOutput{Count: 2}, nil
	})
	mcp.AddTool(s, &mcp.Tool{
		Name:        "always_fails",
		Description: "Reports an error result.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ alertsInput) (*mcp.CallToolResult, alertsOutput, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "upstream outage"}},
			IsError: true,
		}, alertsOutput{}, nil
	})
	return s
}

type geocodeInput struct {
	Q string `json:"q"`
}

type geocodeOutput struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func newGeoServer() *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{Name: "geo", Version: "1.0.0"}, nil)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "geocode",
		Description: "Resolve a place name to coordinates.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ geocodeInput) (*mcp.CallToolResult, geocodeOutput, error) {
		return nil, geocodeOutput{Lat: 40.7, Lon: -74.0}, nil
	})
	return s
}

// inMemoryDialer connects against the test server registered for the
// service id, counting dials.
type inMemoryDialer struct {
	servers map[string]*mcp.Server
	dials   atomic.Int64
}

func (d *inMemoryDialer) dial(ctx context.Context, svc model.ServiceConfig) (*mcp.ClientSession, error) {
	d.dials.Add(1)
	srv, ok := d.servers[svc.ID]
	if !ok {
		return nil, fmt.Errorf("no server for %s", svc.ID)
	}
	clientT, serverT := mcp.NewInMemoryTransports()
	if _, err := srv.Connect(ctx, serverT, nil); err != nil {
		return nil, err
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	return client.Connect(ctx, clientT, nil)
}

func stdioService(id string) model.ServiceConfig {
	return model.ServiceConfig{ID: id, Kind: model.KindStdio, Command: "unused"}
}
