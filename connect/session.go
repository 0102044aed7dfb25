package connect

import (
	"context"
	"errors"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/codemode/model"
)

// Session holds the connections one script execution may use. It is
// created per execution, registered with the tools that execution may
// call, and dials each backing service lazily on the first call that
// needs it.
//
// Contract:
//   - Register before the first Invoke; registration does not dial.
//   - Invoke is safe for concurrent use and never returns a Go error;
//     failures come back as error-flagged results.
//   - ReleaseAll is idempotent and must be called when the execution
//     ends, on every exit path.
type Session struct {
	services map[string]model.ServiceConfig
	logger   Logger
	dialer   Dialer

	mu       sync.Mutex
	tools    map[string]model.Tool
	conns    map[string]*serviceConn
	released bool
}

// serviceConn memoizes one service's dial so concurrent invokes against
// the same service share a single connection attempt.
type serviceConn struct {
	once    sync.Once
	session *mcp.ClientSession
	err     error
}

// NewSession creates a Session over the given service configurations.
func NewSession(services []model.ServiceConfig, opts ...Option) *Session {
	o := buildOptions(opts)
	byID := make(map[string]model.ServiceConfig, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}
	return &Session{
		services: byID,
		logger:   o.logger,
		dialer:   o.dialer,
		tools:    make(map[string]model.Tool),
		conns:    make(map[string]*serviceConn),
	}
}

// Register makes the given tools callable through Invoke, keyed by
// their scoped identifiers. Tools whose service is not configured are
// still registered; invoking one reports the missing service.
func (s *Session) Register(tools []model.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tools {
		s.tools[t.Key()] = t
	}
}

// Registered returns the scoped keys of all registered tools.
func (s *Session) Registered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.tools))
	for k := range s.tools {
		keys = append(keys, k)
	}
	return keys
}

// Invoke calls the tool identified by object and method with the given
// arguments. Unknown tools, unreachable services, and remote failures
// all come back as error-flagged results.
func (s *Session) Invoke(ctx context.Context, object, method string, args map[string]any) model.ToolResult {
	key := model.FormatToolKey(object, method)

	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return model.ErrorResult("session released: cannot call %s", key)
	}
	tool, ok := s.tools[key]
	s.mu.Unlock()
	if !ok {
		return model.ErrorResult("unknown tool %s: not registered for this execution", key)
	}

	session, err := s.sessionFor(ctx, tool.ServiceID)
	if err != nil {
		s.logf("invoke %s: %v", key, err)
		return model.ErrorResult("service %s unavailable: %v", tool.ServiceID, err)
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: tool.Name, Arguments: args})
	if err != nil {
		s.logf("invoke %s: %v", key, err)
		return model.ErrorResult("calling %s failed: %v", key, err)
	}
	return model.FromCallToolResult(res)
}

// sessionFor returns the live connection for a service, dialing it on
// first use. Exactly one dial happens per service id regardless of
// concurrency.
func (s *Session) sessionFor(ctx context.Context, serviceID string) (*mcp.ClientSession, error) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil, errors.New("session released")
	}
	svc, ok := s.services[serviceID]
	if !ok {
		s.mu.Unlock()
		return nil, errors.New("service not configured")
	}
	conn, ok := s.conns[serviceID]
	if !ok {
		conn = &serviceConn{}
		s.conns[serviceID] = conn
	}
	s.mu.Unlock()

	conn.once.Do(func() {
		dctx := ctx
		if svc.Timeout > 0 {
			var cancel context.CancelFunc
			dctx, cancel = context.WithTimeout(ctx, svc.Timeout)
			defer cancel()
		}
		conn.session, conn.err = s.dialer(dctx, svc)
	})
	return conn.session, conn.err
}

// ReleaseAll closes every connection this session opened. Further
// invokes fail with error results. Close failures are logged, not
// returned, because release runs on exit paths that cannot act on them.
func (s *Session) ReleaseAll() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	conns := make([]*serviceConn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.conns = make(map[string]*serviceConn)
	s.mu.Unlock()

	var errs []error
	for _, c := range conns {
		// Settle any in-flight dial before closing its result.
		c.once.Do(func() {})
		if c.session != nil {
			if err := c.session.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logf("release: %v", err)
	}
}

func (s *Session) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Logf(format, args...)
	}
}
