// Package codemode turns remote tool catalogs into a scriptable
// programming surface. It discovers tools from configured backend
// services, renders TypeScript call signatures for them, and executes
// submitted TypeScript scripts in an isolated engine whose global scope
// exposes the discovered tools as async methods.
//
// The package is a thin orchestration layer: discovery and invocation
// live in connect, signature rendering in siggen, documentation
// fragments in augment, and the sandbox in script. Construct a Client
// with New and use Discover, Signatures, Execute, and RecordDoc.
// The server package exposes the same four operations over the wire.
package codemode
