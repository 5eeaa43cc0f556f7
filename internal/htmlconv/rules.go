package htmlconv

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
)

// Class names and data attributes that carry engine semantics.
const (
	ClassContainer  = "container"
	ClassMathBlock  = "math-block"
	ClassMathInline = "math-inline"
	DataType        = "data-type"
	DataKind        = "data-kind"
	DataChecked     = "data-checked"
	DataTight       = "data-tight"
	DataColwidth    = "data-colwidth"
	TypeTaskList    = "taskList"
)

// Attr returns the value of attribute key on el, or "".
func Attr(el *html.Node, key string) string {
	return attrValue(el.Attr, key)
}

func attrValue(attrs []html.Attribute, key string) string {
	for _, a := range attrs {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(attrs []html.Attribute, class string) bool {
	for _, c := range strings.Fields(attrValue(attrs, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func intAttr(attrs []html.Attribute, key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(attrValue(attrs, key)))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// blockRule describes the node an element becomes.
type blockRule struct {
	node  string
	attrs func(attrs []html.Attribute) schema.Attrs
	// leaf elements take their text content as an attribute or as code.
	textAttr string
	code     bool
	// transparent elements are replaced by their children.
	transparent bool
}

var headingLevels = map[string]int{"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6}

// blockRuleFor returns the rule for a block-level element. ok is false
// for elements without a rule.
func blockRuleFor(tag string, attrs []html.Attribute, inTaskList bool) (blockRule, bool) {
	switch tag {
	case "p":
		return blockRule{node: schema.NodeParagraph}, true
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := headingLevels[tag]
		return blockRule{node: schema.NodeHeading, attrs: func([]html.Attribute) schema.Attrs {
			return schema.Attrs{"level": level}
		}}, true
	case "blockquote":
		return blockRule{node: schema.NodeBlockquote}, true
	case "pre":
		return blockRule{node: schema.NodeCodeBlock, code: true, attrs: codeAttrs}, true
	case "hr":
		return blockRule{node: schema.NodeHorizontalRule}, true
	case "ul":
		if attrValue(attrs, DataType) == TypeTaskList {
			return blockRule{node: schema.NodeTaskList, attrs: tightAttrs}, true
		}
		return blockRule{node: schema.NodeBulletList, attrs: tightAttrs}, true
	case "ol":
		return blockRule{node: schema.NodeOrderedList, attrs: func(a []html.Attribute) schema.Attrs {
			out := tightAttrs(a)
			out["start"] = intAttr(a, "start", 1)
			return out
		}}, true
	case "li":
		if inTaskList {
			return blockRule{node: schema.NodeTaskItem, attrs: func(a []html.Attribute) schema.Attrs {
				return schema.Attrs{"checked": attrValue(a, DataChecked) == "true"}
			}}, true
		}
		return blockRule{node: schema.NodeListItem}, true
	case "dl":
		return blockRule{node: schema.NodeDefinitionList}, true
	case "dt":
		return blockRule{node: schema.NodeDefinitionTerm}, true
	case "dd":
		return blockRule{node: schema.NodeDefinitionDescription}, true
	case "div":
		switch {
		case hasClass(attrs, ClassMathBlock):
			return blockRule{node: schema.NodeMathBlock, code: true}, true
		case hasClass(attrs, ClassContainer):
			return blockRule{node: schema.NodeContainer, attrs: func(a []html.Attribute) schema.Attrs {
				return schema.Attrs{"kind": attrValue(a, DataKind)}
			}}, true
		}
	case "table":
		return blockRule{node: schema.NodeTable}, true
	case "thead", "tbody", "tfoot":
		return blockRule{transparent: true}, true
	case "tr":
		return blockRule{node: schema.NodeTableRow}, true
	case "th":
		return blockRule{node: schema.NodeTableHeader, attrs: cellAttrs}, true
	case "td":
		return blockRule{node: schema.NodeTableCell, attrs: cellAttrs}, true
	}
	return blockRule{}, false
}

func tightAttrs(a []html.Attribute) schema.Attrs {
	return schema.Attrs{"tight": attrValue(a, DataTight) != "false"}
}

func codeAttrs(a []html.Attribute) schema.Attrs {
	return schema.Attrs{"syntax": attrValue(a, "data-syntax")}
}

func cellAttrs(a []html.Attribute) schema.Attrs {
	out := schema.Attrs{
		"colspan": intAttr(a, "colspan", 1),
		"rowspan": intAttr(a, "rowspan", 1),
		"align":   cellAlign(a),
	}
	if raw := attrValue(a, DataColwidth); raw != "" {
		var widths []int
		for _, part := range strings.Split(raw, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				n = 0
			}
			widths = append(widths, n)
		}
		out["colwidth"] = widths
	}
	return out
}

func cellAlign(a []html.Attribute) string {
	align := strings.ToLower(attrValue(a, "align"))
	if align == "" {
		for _, decl := range strings.Split(attrValue(a, "style"), ";") {
			key, val, ok := strings.Cut(decl, ":")
			if ok && strings.TrimSpace(strings.ToLower(key)) == "text-align" {
				align = strings.TrimSpace(strings.ToLower(val))
			}
		}
	}
	switch align {
	case "left", "right", "center":
		return align
	}
	return ""
}

// inlineBlockTags are unknown elements that still count as inline
// content when deciding between htmlInline and htmlBlock.
var inlineBlockTags = map[string]bool{
	"abbr": true, "bdi": true, "bdo": true, "big": true, "cite": true, "data": true,
	"dfn": true, "font": true, "kbd": true, "label": true, "q": true, "samp": true,
	"small": true, "time": true, "tt": true, "var": true, "wbr": true, "input": true,
	"button": true, "select": true, "textarea": true, "svg": true, "math": true,
}

// IsInline reports whether tag is an inline-level element.
func IsInline(tag string) bool {
	switch tag {
	case "img", "br":
		return true
	}
	if _, ok := markNames[tag]; ok {
		return true
	}
	return inlineBlockTags[tag]
}

// HasTagRule reports whether tag maps to a node or mark of its own
// rather than to opaque htmlInline or htmlBlock content.
func HasTagRule(tag string) bool {
	switch tag {
	case "img", "br":
		return true
	}
	if _, ok := markNames[tag]; ok {
		return true
	}
	_, ok := blockRuleFor(tag, nil, false)
	return ok
}

var markNames = map[string]string{
	"a":      schema.MarkLink,
	"strong": schema.MarkStrong,
	"b":      schema.MarkStrong,
	"em":     schema.MarkEm,
	"i":      schema.MarkEm,
	"code":   schema.MarkCode,
	"s":      schema.MarkStrike,
	"del":    schema.MarkStrike,
	"strike": schema.MarkStrike,
	"sub":    schema.MarkSub,
	"sup":    schema.MarkSup,
	"ins":    schema.MarkIns,
	"u":      schema.MarkIns,
	"mark":   schema.MarkHighlight,
	"span":   schema.MarkSpan,
}

// MarkFor returns the mark an inline element maps to. ok is false when
// tag has no mark rule or the schema lacks the mark type.
func MarkFor(sc *schema.Schema, tag string, attrs []html.Attribute) (*model.Mark, bool) {
	name, found := markNames[tag]
	if !found || (tag == "span" && hasClass(attrs, ClassMathInline)) {
		return nil, false
	}
	t := sc.MarkType(name)
	if t == nil {
		return nil, false
	}
	var markAttrs schema.Attrs
	switch name {
	case schema.MarkLink:
		href := attrValue(attrs, "href")
		if href == "" {
			return nil, false
		}
		markAttrs = schema.Attrs{"href": href, "title": attrValue(attrs, "title")}
	case schema.MarkSpan:
		markAttrs = schema.Attrs{"class": attrValue(attrs, "class")}
	}
	m, err := model.NewMark(t, markAttrs)
	if err != nil {
		return nil, false
	}
	return m, true
}

// InlineLeaf returns the inline leaf node a void or atom element maps to.
// text is the element's text content, used by inline math.
func InlineLeaf(sc *schema.Schema, tag string, attrs []html.Attribute, text string) (*model.Node, bool) {
	var name string
	var nodeAttrs schema.Attrs
	switch {
	case tag == "br":
		name = schema.NodeHardBreak
	case tag == "img":
		src := attrValue(attrs, "src")
		if src == "" {
			return nil, false
		}
		name = schema.NodeImage
		nodeAttrs = schema.Attrs{"src": src, "alt": attrValue(attrs, "alt"), "title": attrValue(attrs, "title")}
	case tag == "span" && hasClass(attrs, ClassMathInline):
		name = schema.NodeMathInline
		nodeAttrs = schema.Attrs{"tex": text}
	default:
		return nil, false
	}
	t := sc.NodeType(name)
	if t == nil {
		return nil, false
	}
	n, err := model.NewNode(t, nodeAttrs, model.EmptyFragment, nil)
	if err != nil {
		return nil, false
	}
	return n, true
}
