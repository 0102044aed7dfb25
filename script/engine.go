package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// DefaultTimeout is the wall-clock budget applied when Params.Timeout
// is zero.
const DefaultTimeout = 30 * time.Second

// Logger is an optional interface for engine observability.
type Logger interface {
	Logf(format string, args ...any)
}

// Invoker forwards one method call on a binding to its backing service.
// It must not return a Go error: failures are carried in-band in the
// returned result map (isError flag), because the script inspects them
// inline. It must be safe for concurrent use; fan-out awaits invoke it
// from multiple goroutines.
type Invoker func(ctx context.Context, method string, args map[string]any) map[string]any

// Binding is one named object injected into the script's global scope,
// exposing an async function per method.
type Binding struct {
	Methods []string
	Invoke  Invoker
}

// Params describes one execution request.
type Params struct {
	// Source is the script text in the scripting dialect (TypeScript).
	Source string

	// Globals maps top-level identifiers to bindings.
	Globals map[string]Binding

	// Timeout bounds the whole execution. Zero means DefaultTimeout.
	Timeout time.Duration
}

// FailureKind classifies an unsuccessful outcome.
type FailureKind string

// The three reportable failure kinds.
const (
	FailureCompile FailureKind = "compile"
	FailureRuntime FailureKind = "runtime"
	FailureTimeout FailureKind = "timeout"
)

// Outcome is the single settled result of an execution.
type Outcome struct {
	Success    bool        `json:"success"`
	Result     any         `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
	Kind       FailureKind `json:"kind,omitempty"`
	Logs       []string    `json:"logs"`
	DurationMs int64       `json:"durationMs"`
}

// Engine runs scripts. It holds no per-execution state and is safe for
// concurrent use; every Run gets its own interpreter and job loop.
type Engine struct {
	logger Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Nil means silent.
func WithLogger(l Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Logf(format, args...)
	}
}

// Run executes one script to a settled outcome. It never panics and
// never returns after the deadline: on expiry the interpreter is
// interrupted and a timeout outcome is reported even if remote calls
// are still in flight.
func (e *Engine) Run(ctx context.Context, p Params) Outcome {
	start := time.Now()
	logs := &logBuffer{}

	out := e.run(ctx, p, logs)

	out.Logs = logs.lines()
	out.DurationMs = time.Since(start).Milliseconds()
	return out
}

func (e *Engine) run(ctx context.Context, p Params, logs *logBuffer) (out Outcome) {
	// The engine's own invocation must never crash the caller; any
	// internal fault converts to a reported failure outcome.
	defer func() {
		if r := recover(); r != nil {
			out = failure(FailureRuntime, fmt.Sprintf("internal engine fault: %v", r))
		}
	}()

	js, serr := transpile(p.Source)
	if serr != nil {
		return failure(FailureCompile, serr.Error())
	}
	prog, err := goja.Compile("script.js", js, false)
	if err != nil {
		return failure(FailureCompile, err.Error())
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	vm := goja.New()
	loop := newJobLoop()
	outcome := make(chan Outcome, 1)

	go loop.run()
	defer func() {
		// Interrupt on every exit, not just the deadline: a job still
		// executing script code, or one already queued behind it, must
		// not outlive the delivered outcome. stop drops pending jobs so
		// nothing becomes observable after this point.
		vm.Interrupt("execution finished")
		loop.stop()
	}()

	loop.post(func() {
		e.setupGlobals(ctx, vm, loop, p.Globals, logs)

		val, err := vm.RunProgram(prog)
		if err != nil {
			e.scriptFault(err, outcome)
			return
		}
		entry, ok := goja.AssertFunction(val)
		if !ok {
			deliver(outcome, failure(FailureRuntime, "internal engine fault: program is not callable"))
			return
		}
		settle := vm.ToValue(e.settleFunc(outcome))
		if _, err := entry(goja.Undefined(), settle); err != nil {
			e.scriptFault(err, outcome)
		}
	})

	select {
	case o := <-outcome:
		return o
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return failure(FailureTimeout, fmt.Sprintf("%v after %v", ErrTimeout, timeout))
		}
		return failure(FailureRuntime, "execution canceled")
	}
}

// scriptFault reports an interpreter-level error. Interrupts are
// swallowed: the select in run reports the deadline itself, and after a
// delivered outcome nothing more may be reported.
func (e *Engine) scriptFault(err error, outcome chan Outcome) {
	var ierr *goja.InterruptedError
	if errors.As(err, &ierr) {
		return
	}
	// The async wrapper converts script throws into rejections, so an
	// error here is interpreter-level.
	deliver(outcome, failure(FailureRuntime, err.Error()))
}

// settleFunc builds the completion callback the wrapper's promise
// handlers invoke. It is handed to the entry function as an argument
// and never enters the script's scope.
func (e *Engine) settleFunc(outcome chan Outcome) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		errArg := call.Argument(0)
		if goja.IsNull(errArg) || goja.IsUndefined(errArg) {
			deliver(outcome, Outcome{Success: true, Result: call.Argument(1).Export()})
		} else {
			deliver(outcome, failure(FailureRuntime, errArg.String()))
		}
		return goja.Undefined()
	}
}

// setupGlobals populates the interpreter's global scope: the supplied
// bindings, the captured console, and the delay primitives. It also
// removes goja's dynamic-evaluation globals so scripts cannot
// synthesize code at runtime.
func (e *Engine) setupGlobals(ctx context.Context, vm *goja.Runtime, loop *jobLoop,
	globals map[string]Binding, logs *logBuffer) {

	global := vm.GlobalObject()
	_ = global.Delete("eval")
	_ = global.Delete("Function")

	_ = vm.Set("console", newConsole(vm, logs))

	_ = vm.Set("sleep", func(call goja.FunctionCall) goja.Value {
		ms := call.Argument(0).ToInteger()
		if ms < 0 {
			ms = 0
		}
		promise, resolve, _ := vm.NewPromise()
		loop.after(time.Duration(ms)*time.Millisecond, func() {
			resolve(goja.Undefined())
		})
		return vm.ToValue(promise)
	})

	_ = vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("setTimeout requires a function"))
		}
		ms := call.Argument(1).ToInteger()
		if ms < 0 {
			ms = 0
		}
		var extra []goja.Value
		if len(call.Arguments) > 2 {
			extra = call.Arguments[2:]
		}
		id := loop.after(time.Duration(ms)*time.Millisecond, func() {
			if _, err := fn(goja.Undefined(), extra...); err != nil {
				logs.append("uncaught exception in timer: " + err.Error())
				e.logf("timer callback failed: %v", err)
			}
		})
		return vm.ToValue(id)
	})

	_ = vm.Set("clearTimeout", func(call goja.FunctionCall) goja.Value {
		loop.cancelTimer(call.Argument(0).ToInteger())
		return goja.Undefined()
	})

	for name, binding := range globals {
		obj := vm.NewObject()
		for _, method := range binding.Methods {
			_ = obj.Set(method, e.proxyMethod(ctx, vm, loop, method, binding.Invoke))
		}
		_ = vm.Set(name, obj)
	}
}

// proxyMethod builds the native function backing one binding method. It
// returns a promise immediately and settles it from the job loop once
// the invoker's goroutine completes.
func (e *Engine) proxyMethod(ctx context.Context, vm *goja.Runtime, loop *jobLoop,
	method string, invoke Invoker) func(goja.FunctionCall) goja.Value {

	return func(call goja.FunctionCall) goja.Value {
		var args map[string]any
		if a := call.Argument(0); !goja.IsUndefined(a) && !goja.IsNull(a) {
			if m, ok := a.Export().(map[string]any); ok {
				args = m
			}
		}

		promise, resolve, _ := vm.NewPromise()
		go func() {
			res := safeInvoke(ctx, invoke, method, args)
			loop.post(func() {
				resolve(res)
			})
		}()
		return vm.ToValue(promise)
	}
}

// safeInvoke shields the loop from invoker panics; a panicking invoker
// becomes an error-flagged result like any other remote failure.
func safeInvoke(ctx context.Context, invoke Invoker, method string, args map[string]any) (res map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			res = map[string]any{
				"content": []any{map[string]any{
					"type": "text",
					"text": fmt.Sprintf("invoker panic: %v", r),
				}},
				"isError": true,
			}
		}
	}()
	return invoke(ctx, method, args)
}

// newConsole builds the captured console object. Every logged value is
// serialized and appended to the ordered log sequence; nothing reaches
// the real standard streams.
func newConsole(vm *goja.Runtime, logs *logBuffer) *goja.Object {
	capture := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, stringify(arg))
		}
		logs.append(strings.Join(parts, " "))
		return goja.Undefined()
	}

	obj := vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		_ = obj.Set(name, capture)
	}
	return obj
}

// stringify renders one logged value: strings as-is, everything else as
// JSON with a string fallback for unserializable values.
func stringify(v goja.Value) string {
	if goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	exported := v.Export()
	if s, ok := exported.(string); ok {
		return s
	}
	if data, err := json.Marshal(exported); err == nil {
		return string(data)
	}
	return v.String()
}

// deliver sends the first outcome and drops the rest.
func deliver(ch chan Outcome, out Outcome) {
	select {
	case ch <- out:
	default:
	}
}

func failure(kind FailureKind, msg string) Outcome {
	return Outcome{Kind: kind, Error: msg}
}

// logBuffer is the ordered captured log sequence. Appends happen on the
// job loop; reads happen on the caller's goroutine after shutdown.
type logBuffer struct {
	mu    sync.Mutex
	items []string
}

func (b *logBuffer) append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, line)
}

func (b *logBuffer) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.items...)
}
