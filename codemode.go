package codemode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/codemode/augment"
	"github.com/jonwraymond/codemode/connect"
	"github.com/jonwraymond/codemode/model"
	"github.com/jonwraymond/codemode/naming"
	"github.com/jonwraymond/codemode/script"
	"github.com/jonwraymond/codemode/siggen"
)

// Sentinel errors returned by Client operations.
var (
	// ErrNoServices is returned when an operation needs configured
	// services and there are none.
	ErrNoServices = errors.New("no services configured")

	// ErrUnknownObject is returned when a tool key names a service
	// object no configured service maps to.
	ErrUnknownObject = errors.New("unknown service object")

	// ErrNoAugmentDir is returned when documentation is recorded without
	// a configured augmentation directory.
	ErrNoAugmentDir = errors.New("no augmentation directory configured")
)

// Logger is the minimal logging interface accepted by this package.
// A nil Logger disables logging.
type Logger interface {
	Logf(format string, args ...any)
}

// Options configures a Client.
type Options struct {
	// Services are the backend services tools are discovered from.
	Services []model.ServiceConfig

	// AugmentDir is the directory holding tool documentation fragments.
	// Empty disables the augmentation store.
	AugmentDir string

	// Logger receives operational warnings. Nil means silent.
	Logger Logger

	// ExecTimeout bounds script executions that do not carry their own
	// timeout. Zero means the engine default.
	ExecTimeout time.Duration

	// Dialer overrides how service connections are established. Nil uses
	// the transport configured per service.
	Dialer connect.Dialer
}

// Client orchestrates discovery, signature generation, script
// execution, and documentation recording over one set of services.
// It is safe for concurrent use.
type Client struct {
	services    []model.ServiceConfig
	logger      Logger
	execTimeout time.Duration
	dialer      connect.Dialer

	engine *script.Engine
	store  *augment.Store
}

// New validates the options and builds a Client.
func New(opts Options) (*Client, error) {
	seen := make(map[string]bool, len(opts.Services))
	for _, svc := range opts.Services {
		if err := svc.Validate(); err != nil {
			return nil, err
		}
		if seen[svc.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", model.ErrInvalidService, svc.ID)
		}
		seen[svc.ID] = true
	}

	c := &Client{
		services:    opts.Services,
		logger:      opts.Logger,
		execTimeout: opts.ExecTimeout,
		dialer:      opts.Dialer,
		engine:      script.New(script.WithLogger(opts.Logger)),
	}
	if opts.AugmentDir != "" {
		c.store = augment.NewStore(opts.AugmentDir, augment.WithLogger(opts.Logger))
	}
	return c, nil
}

func (c *Client) connectOptions() []connect.Option {
	opts := []connect.Option{connect.WithLogger(c.logger)}
	if c.dialer != nil {
		opts = append(opts, connect.WithDialer(c.dialer))
	}
	return opts
}

// Discover lists the tools of every configured service, one result per
// service in configuration order.
func (c *Client) Discover(ctx context.Context) ([]connect.Discovery, error) {
	if len(c.services) == 0 {
		return nil, ErrNoServices
	}
	return connect.DiscoverAll(ctx, c.services, c.connectOptions()...), nil
}

// SignatureResult is the outcome of a Signatures call.
type SignatureResult struct {
	// Text is the generated TypeScript declaration text.
	Text string `json:"signatures"`

	// Unresolved lists requested keys no discovered tool matched.
	Unresolved []string `json:"unresolvedTools,omitempty"`

	// Warnings lists tools whose schemas fell back to untyped forms.
	Warnings []string `json:"warnings,omitempty"`
}

// Signatures discovers the current tool catalog and renders TypeScript
// declarations. With keys, only the named tools are rendered and keys
// that match nothing are reported in Unresolved; without keys the whole
// catalog is rendered. Discovery is performed fresh on every call.
func (c *Client) Signatures(ctx context.Context, keys []string) (SignatureResult, error) {
	if len(c.services) == 0 {
		return SignatureResult{}, ErrNoServices
	}
	discovered := connect.DiscoverAll(ctx, c.services, c.connectOptions()...)
	tools, unresolved := selectTools(discovered, keys)

	out := siggen.Generate(tools, c.docSource())
	return SignatureResult{Text: out.Text, Unresolved: unresolved, Warnings: out.Warnings}, nil
}

// ExecuteParams describes one script execution request.
type ExecuteParams struct {
	// Script is the TypeScript source to run.
	Script string

	// Tools restricts the execution to the named tool keys. Empty means
	// every discovered tool is callable.
	Tools []string

	// Timeout bounds the execution. Zero falls back to the client's
	// ExecTimeout, then the engine default.
	Timeout time.Duration

	// Explore requests exploration guidance in rendered output. It does
	// not change execution behavior.
	Explore bool
}

// ExecuteResult is the settled outcome of one script execution.
type ExecuteResult struct {
	ID         string             `json:"id"`
	Success    bool               `json:"success"`
	Result     any                `json:"result,omitempty"`
	Error      string             `json:"error,omitempty"`
	Kind       script.FailureKind `json:"kind,omitempty"`
	Logs       []string           `json:"logs"`
	Unresolved []string           `json:"unresolvedTools,omitempty"`
	DurationMs int64              `json:"durationMs"`
}

// Execute discovers the current tool catalog, connects the requested
// subset to a fresh session, and runs the script against it. All
// connections opened for the run are released before it returns, on
// every path.
func (c *Client) Execute(ctx context.Context, p ExecuteParams) (ExecuteResult, error) {
	if len(c.services) == 0 {
		return ExecuteResult{}, ErrNoServices
	}
	id := uuid.NewString()

	discovered := connect.DiscoverAll(ctx, c.services, c.connectOptions()...)
	tools, unresolved := selectTools(discovered, p.Tools)

	session := connect.NewSession(c.services, c.connectOptions()...)
	defer session.ReleaseAll()
	session.Register(tools)

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = c.execTimeout
	}

	c.logf("execute %s: %d tools bound, %d unresolved", id, len(tools), len(unresolved))
	out := c.engine.Run(ctx, script.Params{
		Source:  p.Script,
		Globals: bindings(session, tools),
		Timeout: timeout,
	})

	return ExecuteResult{
		ID:         id,
		Success:    out.Success,
		Result:     out.Result,
		Error:      out.Error,
		Kind:       out.Kind,
		Logs:       out.Logs,
		Unresolved: unresolved,
		DurationMs: out.DurationMs,
	}, nil
}

// RecordDoc stores a documentation fragment for the tool named by key
// (serviceObject.method). The object must map to a configured service.
func (c *Client) RecordDoc(key, markdown string) error {
	if c.store == nil {
		return ErrNoAugmentDir
	}
	object, _, err := model.ParseToolKey(key)
	if err != nil {
		return err
	}
	if !c.knownObject(object) {
		return fmt.Errorf("%w: %q", ErrUnknownObject, object)
	}
	return c.store.Upsert(key, markdown)
}

func (c *Client) knownObject(object string) bool {
	for _, svc := range c.services {
		if naming.ServiceObjectName(svc.ID) == object {
			return true
		}
	}
	return false
}

func (c *Client) docSource() siggen.DocSource {
	if c.store == nil {
		return nil
	}
	return docSource{store: c.store}
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Logf(format, args...)
	}
}

// docSource adapts the augmentation store to the generator's lookup
// interface.
type docSource struct {
	store *augment.Store
}

func (d docSource) LookupBody(object, method string) (string, bool) {
	a, ok := d.store.Lookup(object, method)
	if !ok {
		return "", false
	}
	return a.Body, true
}

// selectTools flattens discovery results into the tool subset matching
// the requested keys, preserving discovery order. Empty keys selects
// everything. Unresolved keys come back in request order, including
// malformed ones.
func selectTools(discovered []connect.Discovery, keys []string) (tools []model.Tool, unresolved []string) {
	var all []model.Tool
	for _, d := range discovered {
		all = append(all, d.Tools...)
	}
	if len(keys) == 0 {
		return all, nil
	}

	byKey := make(map[string]model.Tool, len(all))
	for _, t := range all {
		byKey[t.Key()] = t
	}

	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, _, err := model.ParseToolKey(key); err != nil {
			unresolved = append(unresolved, key)
			continue
		}
		if _, ok := byKey[key]; !ok {
			unresolved = append(unresolved, key)
		}
	}

	for _, t := range all {
		if seen[t.Key()] {
			tools = append(tools, t)
		}
	}
	return tools, unresolved
}

// bindings groups the session's tools into script globals, one object
// per service, each method forwarding to the session.
func bindings(session *connect.Session, tools []model.Tool) map[string]script.Binding {
	out := make(map[string]script.Binding)
	for _, t := range tools {
		object := naming.ServiceObjectName(t.ServiceID)
		b := out[object]
		b.Methods = append(b.Methods, naming.MethodName(t.Name))
		if b.Invoke == nil {
			obj := object
			b.Invoke = func(ctx context.Context, method string, args map[string]any) map[string]any {
				return session.Invoke(ctx, obj, method, args).AsMap()
			}
		}
		out[object] = b
	}
	return out
}
