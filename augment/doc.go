// Package augment stores hand-editable documentation fragments for
// (service, tool) pairs and serves them to signature generation.
//
// The backing format is one markdown file per service, named after the
// service's object identifier (weatherServer.md). Each file holds zero
// or more top-level sections; a section starts with a heading line
// naming its tool key and runs until the next top-level heading or end
// of file:
//
//	# weatherServer.getAlerts
//
//	Prefer structuredOutput over parsing the text content.
//
// Files are meant to be edited by hand, so loading is lenient: sections
// with malformed headings or a heading that does not match the file's
// service are skipped with a warning rather than failing the load.
// Writes go through Upsert, which replaces an existing section for the
// same key in place, keeping at most one section per key no matter how
// often it is called.
package augment
