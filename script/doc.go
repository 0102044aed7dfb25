// Package script compiles and runs untrusted script text inside an
// isolated, time-bounded execution context.
//
// The scripting dialect is TypeScript; source text is transformed to
// plain JavaScript before isolation, so a transform failure is reported
// as a compilation failure, distinct from runtime errors. The translated
// code runs wrapped in an implicit async function body on an embedded
// interpreter whose global scope contains only the caller-supplied
// bindings, a captured console, Promise, and the delay primitives sleep,
// setTimeout, and clearTimeout. There is no require, no filesystem, no
// network, and no dynamic code loading.
//
// # Asynchrony
//
// Each binding method returns a promise that settles when the backing
// invoker returns. The script body may await them one at a time or fan
// out with Promise.all; the engine runs one logical script thread and
// never reorders or serializes the underlying calls. All interpreter
// work happens on a single job loop goroutine; invokers run on their
// own goroutines and post their results back to the loop.
//
// # Failure taxonomy
//
// An execution settles into exactly one of three failure kinds
// (compile, runtime, or timeout) or succeeds. Captured log lines are
// returned in every case, because diagnosing a failure depends on what
// was logged before it. The engine never panics and never delivers a
// result after the deadline.
package script
