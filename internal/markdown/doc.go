// Package markdown converts between rich-text documents and Markdown.
//
// Parsing runs in two stages. Tokenize parses the source with goldmark,
// extended with the dialect's inline and block syntax, and flattens the
// syntax tree into a token stream. Fold builds a document from the
// stream, checking every node against the schema.
//
// The dialect is CommonMark plus GFM tables and task lists, definition
// lists, ::: containers, $$ math blocks, and the inline marks ~~strike~~,
// ~sub~, ^sup^, ++ins++, ==highlight==, ::span:: and $math$.
//
// The Serializer writes documents back so that parsing its output yields
// an equal document. Tables that pipe syntax cannot express are written
// as HTML blocks.
package markdown
