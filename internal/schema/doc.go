// Package schema declares the node and mark types a document may contain.
//
// A Schema is built once from an ordered Spec and is read-only afterwards.
// Every node type carries a content expression, a small grammar over node
// type names and groups:
//
//	"paragraph+"              one or more paragraphs
//	"phrasing*"               any inline content
//	"listItem+"               a non-empty list
//	"(tableCell|tableHeader)+" table row content
//	"heading paragraph{1,3}"  a heading followed by one to three paragraphs
//
// Expressions are compiled into a deterministic automaton (ContentMatch)
// when the schema is created. Validating a child sequence is a linear scan
// over that automaton; a mismatch produces a *SchemaViolationError naming
// the offending child index.
//
// # Marks
//
// Mark types are ranked by declaration order. Each mark type carries an
// excludes rule and an inclusive flag. Compatibility between mark types is
// precomputed into a lookup table so that mark set operations do not need to
// consult the specs again.
//
// # Default schema
//
// RichText returns the schema used by the markdown and HTML converters and
// by the command layer.
package schema
