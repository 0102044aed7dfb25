package connect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/codemode/model"
)

// ErrUnsupported is returned when a service configuration names a
// transport kind this package cannot build.
var ErrUnsupported = errors.New("unsupported transport kind")

// clientImpl identifies this process to the services it dials.
var clientImpl = &mcp.Implementation{Name: "codemode", Version: "0.1.0"}

// Logger is the minimal logging interface accepted by this package.
// A nil Logger disables logging.
type Logger interface {
	Logf(format string, args ...any)
}

// Dialer establishes a live protocol session with one service.
type Dialer func(ctx context.Context, svc model.ServiceConfig) (*mcp.ClientSession, error)

type options struct {
	logger Logger
	dialer Dialer
}

// Option configures discovery or a Session.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDialer replaces the default dial function. Tests use this to
// connect against in-memory servers.
func WithDialer(d Dialer) Option {
	return func(o *options) { o.dialer = d }
}

func buildOptions(opts []Option) options {
	o := options{dialer: Dial}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dialer == nil {
		o.dialer = Dial
	}
	return o
}

func (o options) logf(format string, args ...any) {
	if o.logger != nil {
		o.logger.Logf(format, args...)
	}
}

// Dial is the default Dialer. It builds the transport matching the
// service's kind and performs the protocol handshake.
func Dial(ctx context.Context, svc model.ServiceConfig) (*mcp.ClientSession, error) {
	t, err := transportFor(svc)
	if err != nil {
		return nil, err
	}
	client := mcp.NewClient(clientImpl, nil)
	session, err := client.Connect(ctx, t, nil)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", svc.ID, err)
	}
	return session, nil
}

func transportFor(svc model.ServiceConfig) (mcp.Transport, error) {
	switch svc.Kind {
	case model.KindStdio:
		return &mcp.CommandTransport{Command: commandFor(svc)}, nil
	case model.KindHTTP:
		return &mcp.StreamableClientTransport{Endpoint: svc.URL}, nil
	case model.KindSSE:
		return &mcp.SSEClientTransport{Endpoint: svc.URL}, nil
	case model.KindWebSocket:
		return &wsTransport{url: svc.URL}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, svc.Kind)
	}
}

// commandFor builds the subprocess for a stdio service. The service's
// environment entries are appended after the parent environment, so on
// key collisions the service value wins.
func commandFor(svc model.ServiceConfig) *exec.Cmd {
	cmd := exec.Command(svc.Command, svc.Args...)
	cmd.Dir = svc.Dir
	if len(svc.Env) > 0 {
		env := os.Environ()
		for k, v := range svc.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}
	return cmd
}
