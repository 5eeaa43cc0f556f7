package markdown

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// intraword reports whether the byte at i sits between two word runes.
func intraword(s string, i int) bool {
	if i == 0 || i+1 >= len(s) {
		return false
	}
	before, _ := utf8.DecodeLastRuneInString(s[:i])
	after, _ := utf8.DecodeRuneInString(s[i+1:])
	return isWordRune(before) && isWordRune(after)
}

func startsTag(s string, i int) bool {
	if i+1 >= len(s) {
		return false
	}
	c := s[i+1]
	return c == '/' || c == '!' || c == '?' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// escapeText backslash-escapes the characters of s that would otherwise
// be read as syntax. lineStart marks s as the first text on its line.
func escapeText(s string, lineStart, inTable bool) string {
	if s == "" {
		return s
	}
	needs := make([]bool, len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '`', '*', '\\', '~', '[', ']', '$', '^':
			needs[i] = true
		case '_':
			needs[i] = !intraword(s, i)
		case '+', '=', ':':
			needs[i] = (i > 0 && s[i-1] == c) || (i+1 < len(s) && s[i+1] == c)
		case '<':
			needs[i] = startsTag(s, i)
		case '&':
			_, n := entity([]byte(s[i:]))
			needs[i] = n > 0
		case '|':
			needs[i] = inTable
		}
	}
	if lineStart {
		lineStartEscapes(s, needs)
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		if needs[i] {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// lineStartEscapes marks block syntax at the start of s: headings, list
// markers, quotes, definition and container markers, setext underlines.
func lineStartEscapes(s string, needs []bool) {
	switch s[0] {
	case '-', '>', ':', '=':
		needs[0] = true
	case '+':
		needs[0] = len(s) == 1 || s[1] == ' ' || s[1] == '\t'
	case '#':
		i := 0
		for i < len(s) && s[i] == '#' {
			i++
		}
		needs[0] = i <= 6 && (i == len(s) || s[i] == ' ' || s[i] == '\t')
	}
	i := 0
	for i < len(s) && i < 9 && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') && (i+1 == len(s) || s[i+1] == ' ' || s[i+1] == '\t') {
		needs[i] = true
	}
}

// codeSpan fences text with one more backtick than its longest run.
func codeSpan(text string, inTable bool) string {
	longest, run := 0, 0
	for i := 0; i < len(text); i++ {
		if text[i] == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	fence := strings.Repeat("`", longest+1)
	pad := ""
	if text != "" {
		first, last := text[0], text[len(text)-1]
		if first == '`' || last == '`' || (first == ' ' && last == ' ' && strings.Trim(text, " ") != "") {
			pad = " "
		}
	}
	if inTable {
		text = strings.ReplaceAll(text, "|", `\|`)
	}
	return fence + pad + text + pad + fence
}

// escapeDestination writes a link or image target.
func escapeDestination(dest string) string {
	if dest == "" || strings.ContainsAny(dest, " \t\n<>") {
		r := strings.NewReplacer(`\`, `\\`, "<", `\<`, ">", `\>`, "\n", "")
		return "<" + r.Replace(dest) + ">"
	}
	var b strings.Builder
	for i := 0; i < len(dest); i++ {
		c := dest[i]
		switch {
		case c == '(' || c == ')' || c == '\\':
			b.WriteByte('\\')
		case c == '&':
			if _, n := entity([]byte(dest[i:])); n > 0 {
				b.WriteByte('\\')
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func escapeTitle(title string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(title) + `"`
}
