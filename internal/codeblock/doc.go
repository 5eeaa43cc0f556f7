// Package codeblock provides the nested editor that edits the text of a
// single code block.
//
// An Editor holds plain text and a syntax tag. Edits made through
// SetText and SetSyntax are reported to OnChange listeners, which the
// outer engine turns into one replace step inside the code block. Text
// pushed from the outer document with Sync is not reported, so changes
// never echo between the two editors.
//
// Offsets count Unicode code points, matching document positions inside
// a code block.
package codeblock
