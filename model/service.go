package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TransportKind identifies how a connection to a service is established.
type TransportKind string

// Supported transport kinds.
const (
	// KindStdio spawns a subprocess and speaks the protocol over its
	// standard input/output pipes.
	KindStdio TransportKind = "stdio"

	// KindHTTP connects to a streamable HTTP endpoint.
	KindHTTP TransportKind = "http"

	// KindSSE connects to a server-sent-events endpoint.
	KindSSE TransportKind = "sse"

	// KindWebSocket connects over a websocket, one protocol message per
	// text frame.
	KindWebSocket TransportKind = "websocket"
)

// Valid reports whether k is a supported transport kind.
func (k TransportKind) Valid() bool {
	switch k {
	case KindStdio, KindHTTP, KindSSE, KindWebSocket:
		return true
	}
	return false
}

// ErrInvalidService is returned for service configurations that fail
// validation.
var ErrInvalidService = errors.New("invalid service configuration")

// ServiceConfig describes one configured backend service. It is loaded
// once per invocation context and never mutated afterwards.
type ServiceConfig struct {
	// ID uniquely identifies the service. Object and namespace names in
	// generated signatures are derived from it.
	ID string `json:"id"`

	// Name is the human-readable service name. Falls back to ID when empty.
	Name string `json:"name,omitempty"`

	// Kind selects the transport used to reach the service.
	Kind TransportKind `json:"transport"`

	// Command, Args, Dir, and Env configure subprocess transports.
	// Env entries are merged over the parent environment; service keys win.
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Dir     string            `json:"dir,omitempty"`
	Env     map[string]string `json:"env,omitempty"`

	// URL configures network transports.
	URL string `json:"url,omitempty"`

	// Timeout bounds connection establishment and discovery for this
	// service. Zero means the caller's default applies.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// DisplayName returns Name, or ID when no name is configured.
func (s ServiceConfig) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Validate checks that the configuration is internally consistent for
// its transport kind.
func (s ServiceConfig) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidService)
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("%w: service %q: unsupported transport %q", ErrInvalidService, s.ID, s.Kind)
	}
	switch s.Kind {
	case KindStdio:
		if s.Command == "" {
			return fmt.Errorf("%w: service %q: stdio transport requires a command", ErrInvalidService, s.ID)
		}
	case KindHTTP, KindSSE:
		if s.URL == "" {
			return fmt.Errorf("%w: service %q: %s transport requires a url", ErrInvalidService, s.ID, s.Kind)
		}
	case KindWebSocket:
		if s.URL == "" {
			return fmt.Errorf("%w: service %q: websocket transport requires a url", ErrInvalidService, s.ID)
		}
		if !strings.HasPrefix(s.URL, "ws://") && !strings.HasPrefix(s.URL, "wss://") {
			return fmt.Errorf("%w: service %q: websocket url must use ws:// or wss://", ErrInvalidService, s.ID)
		}
	}
	return nil
}
