// Package model defines the data contracts shared across the codemode
// layers: service descriptors, discovered tools, normalized invocation
// results, and the scoped tool-key format.
//
// Types in this package are plain values with no behavior beyond
// conversion and validation helpers. They are created by one layer and
// consumed read-only by the next; none of them is mutated after
// construction.
package model
