// Package htmlconv converts between rich-text documents and HTML.
//
// Parsing is permissive by default: elements with a tag rule become the
// matching node or mark, unknown inline elements are kept verbatim as
// htmlInline nodes and unknown blocks as htmlBlock nodes. In strict mode
// any element without a rule fails the parse with ErrUnrecognized, which
// lets callers fall back to keeping the source as it is.
//
// Serialization is stable: attributes are written in sorted order and
// pretty output puts every block element on its own line.
package htmlconv
