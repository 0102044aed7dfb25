// Package siggen turns discovered tools into documented, typed
// TypeScript call signatures, grouped by originating service.
//
// For each tool the generator derives an input type and, when the tool
// declares an output schema, an output type, both scoped to the tool's
// method name inside its service namespace. A per-service interface
// declares one documented async method per tool, and a declare-const
// line maps the service's runtime object identifier to that interface,
// the same objects the execution engine injects into script contexts.
//
// Generation is best-effort per tool: a schema that cannot be compiled
// into a type declaration degrades that one tool to an untyped fallback
// and is reported in Output.Warnings; the rest of the batch is
// unaffected.
package siggen
