package htmlconv

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	classTokens   = regexp.MustCompile(`^[A-Za-z0-9_\- ]+$`)
	divClass      = regexp.MustCompile(`^(` + ClassContainer + `|` + ClassMathBlock + `)$`)
	languageClass = regexp.MustCompile(`^language-[A-Za-z0-9_+\-#.]+$`)
	kindPattern   = regexp.MustCompile(`^[A-Za-z0-9_\-]*$`)
	digits        = regexp.MustCompile(`^\d+$`)
	widthList     = regexp.MustCompile(`^\d+(,\d+)*$`)
)

// Policy returns the sanitizer policy for untrusted input. It extends the
// user-generated-content policy with the attributes the converter reads.
func Policy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("ins", "u", "mark", "s", "del", "sub", "sup", "dl", "dt", "dd")

	p.AllowAttrs("class").Matching(classTokens).OnElements("span")
	p.AllowAttrs("class").Matching(divClass).OnElements("div")
	p.AllowAttrs("class").Matching(languageClass).OnElements("code")
	p.AllowAttrs(DataKind).Matching(kindPattern).OnElements("div")
	p.AllowAttrs("data-syntax").Matching(kindPattern).OnElements("pre")

	p.AllowAttrs(DataType).Matching(regexp.MustCompile("^" + TypeTaskList + "$")).OnElements("ul")
	p.AllowAttrs(DataTight).Matching(regexp.MustCompile("^(true|false)$")).OnElements("ul", "ol")
	p.AllowAttrs(DataChecked).Matching(regexp.MustCompile("^(true|false)$")).OnElements("li")
	p.AllowAttrs("start").Matching(digits).OnElements("ol")

	p.AllowAttrs("colspan", "rowspan").Matching(digits).OnElements("td", "th")
	p.AllowAttrs("align").Matching(bluemonday.CellAlign).OnElements("td", "th")
	p.AllowAttrs(DataColwidth).Matching(widthList).OnElements("td", "th")
	p.AllowStyles("text-align").Matching(bluemonday.CellAlign).OnElements("td", "th")
	return p
}
