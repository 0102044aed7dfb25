// Package connect manages client connections to configured backend
// services over the Model Context Protocol.
//
// It offers two entry points. DiscoverAll fans out to every configured
// service concurrently, lists each service's tools, and returns one
// result per service in input order; a service that cannot be reached
// contributes an error entry instead of failing the whole sweep.
// Session is the execution-time counterpart: it is created per script
// run, registered with the subset of tools that run may call, and dials
// each backing service lazily on first use. Invoke never returns a Go
// error; transport and remote failures become error-flagged tool
// results, because the calling script inspects failures inline.
//
// Transports follow the service configuration: subprocess pipes,
// streamable HTTP, server-sent events, or websocket (one JSON-RPC
// message per text frame). The dial function is swappable via
// WithDialer, which tests use to connect against in-memory servers.
package connect
