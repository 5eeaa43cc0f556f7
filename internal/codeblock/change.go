package codeblock

import (
	"fmt"
	"unicode/utf8"
)

// ChangeKind categorizes a change.
type ChangeKind uint8

const (
	ChangeText   ChangeKind = iota // Text was replaced
	ChangeSyntax                   // The syntax tag changed
)

// String returns a string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeText:
		return "text"
	case ChangeSyntax:
		return "syntax"
	default:
		return "unknown"
	}
}

// Change describes one edit made through an Editor.
type Change struct {
	Kind ChangeKind
	// From and To delimit the replaced code points of the old text.
	From, To int
	Text     string
	OldText  string
	// Syntax is the new syntax tag for ChangeSyntax.
	Syntax   string
	Revision uint64
}

// String returns a human-readable representation of the change.
func (c Change) String() string {
	if c.Kind == ChangeSyntax {
		return fmt.Sprintf("Syntax(%q)", c.Syntax)
	}
	switch {
	case c.From == c.To:
		return fmt.Sprintf("Insert(%d, %q)", c.From, c.Text)
	case c.Text == "":
		return fmt.Sprintf("Delete[%d:%d]", c.From, c.To)
	default:
		return fmt.Sprintf("Replace[%d:%d] with %q", c.From, c.To, c.Text)
	}
}

// Diff finds the single replacement that turns oldText into newText by
// trimming their common prefix and suffix. from and to are code point
// offsets into oldText; ok is false when the texts are equal.
func Diff(oldText, newText string) (from, to int, text string, ok bool) {
	if oldText == newText {
		return 0, 0, "", false
	}
	prefix := 0
	for prefix < len(oldText) && prefix < len(newText) {
		r1, n1 := utf8.DecodeRuneInString(oldText[prefix:])
		r2, n2 := utf8.DecodeRuneInString(newText[prefix:])
		if r1 != r2 || n1 != n2 {
			break
		}
		prefix += n1
	}
	oldEnd, newEnd := len(oldText), len(newText)
	for oldEnd > prefix && newEnd > prefix {
		r1, n1 := utf8.DecodeLastRuneInString(oldText[:oldEnd])
		r2, n2 := utf8.DecodeLastRuneInString(newText[:newEnd])
		if r1 != r2 || n1 != n2 {
			break
		}
		oldEnd -= n1
		newEnd -= n2
	}
	from = utf8.RuneCountInString(oldText[:prefix])
	to = from + utf8.RuneCountInString(oldText[prefix:oldEnd])
	return from, to, newText[prefix:newEnd], true
}
