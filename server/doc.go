// Package server exposes the codemode operations as tools on a Model
// Context Protocol server.
//
// Four tools are served: discover_tools, get_tool_signatures,
// execute_script, and record_tool_doc. Each returns a human-readable
// text rendering alongside structured content carrying the raw result,
// so both a model reading the transcript and a program consuming the
// response get what they need. The server runs over any protocol
// transport; the CLI serves it on stdio.
package server
