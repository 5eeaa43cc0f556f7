package htmlconv

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
)

// Serializer writes documents as HTML.
type Serializer struct {
	pretty bool
	indent string
	logger *slog.Logger
}

// Option configures a Serializer.
type Option func(*Serializer)

// Compact writes everything on one line with no indentation.
func Compact() Option {
	return func(s *Serializer) { s.pretty = false }
}

// WithIndent sets the indentation unit of pretty output.
func WithIndent(indent string) Option {
	return func(s *Serializer) { s.indent = indent }
}

// WithSerializerLogger sets the logger for nodes without an HTML form.
func WithSerializerLogger(l *slog.Logger) Option {
	return func(s *Serializer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSerializer creates a serializer. Output is pretty by default.
func NewSerializer(opts ...Option) *Serializer {
	s := &Serializer{pretty: true, indent: "  ", logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serialize writes doc with a serializer built from opts.
func Serialize(doc *model.Node, opts ...Option) string {
	return NewSerializer(opts...).Serialize(doc)
}

// Serialize writes the content of doc.
func (s *Serializer) Serialize(doc *model.Node) string {
	return s.SerializeFragment(doc.Content())
}

// SerializeFragment writes a sequence of block nodes.
func (s *Serializer) SerializeFragment(f model.Fragment) string {
	w := &writer{s: s}
	for _, n := range f.Children() {
		w.block(n)
	}
	return w.b.String()
}

// SerializeNode writes a single node. Inline nodes are written with
// their marks.
func (s *Serializer) SerializeNode(n *model.Node) string {
	w := &writer{s: s}
	if n.IsInline() {
		w.b.WriteString(w.inlineNodes([]*model.Node{n}))
		return w.b.String()
	}
	w.block(n)
	return w.b.String()
}

type writer struct {
	s     *Serializer
	b     strings.Builder
	depth int
}

func (w *writer) line(str string) {
	if w.s.pretty {
		if w.b.Len() > 0 {
			w.b.WriteByte('\n')
		}
		w.b.WriteString(strings.Repeat(w.s.indent, w.depth))
	}
	w.b.WriteString(str)
}

func (w *writer) wrap(open, close string, n *model.Node) {
	w.line(open)
	w.depth++
	for _, child := range n.Content().Children() {
		w.block(child)
	}
	w.depth--
	w.line(close)
}

func startTag(tag string, attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(tag)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(attrs[k]))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	return b.String()
}

func (w *writer) block(n *model.Node) {
	attrs := n.Attrs()
	switch n.Type().Name() {
	case schema.NodeParagraph:
		w.line("<p>" + w.inline(n) + "</p>")
	case schema.NodeHeading:
		tag := "h" + strconv.Itoa(min(max(attrs.Int("level"), 1), 6))
		w.line("<" + tag + ">" + w.inline(n) + "</" + tag + ">")
	case schema.NodeBlockquote:
		w.wrap("<blockquote>", "</blockquote>", n)
	case schema.NodeCodeBlock:
		class := ""
		if syntax := attrs.String("syntax"); syntax != "" {
			class = "language-" + syntax
		}
		w.line("<pre>" + startTag("code", map[string]string{"class": class}) +
			html.EscapeString(n.TextContent()) + "</code></pre>")
	case schema.NodeMathBlock:
		w.line(startTag("div", map[string]string{"class": ClassMathBlock}) +
			html.EscapeString(n.TextContent()) + "</div>")
	case schema.NodeHorizontalRule:
		w.line("<hr>")
	case schema.NodeBulletList:
		w.wrap(startTag("ul", listAttrs(attrs)), "</ul>", n)
	case schema.NodeTaskList:
		a := listAttrs(attrs)
		a[DataType] = TypeTaskList
		w.wrap(startTag("ul", a), "</ul>", n)
	case schema.NodeOrderedList:
		a := listAttrs(attrs)
		if start := attrs.Int("start"); start != 1 {
			a["start"] = strconv.Itoa(start)
		}
		w.wrap(startTag("ol", a), "</ol>", n)
	case schema.NodeListItem:
		w.wrap("<li>", "</li>", n)
	case schema.NodeTaskItem:
		w.wrap(startTag("li", map[string]string{DataChecked: strconv.FormatBool(attrs.Bool("checked"))}), "</li>", n)
	case schema.NodeDefinitionList:
		w.wrap("<dl>", "</dl>", n)
	case schema.NodeDefinitionTerm:
		w.line("<dt>" + w.inline(n) + "</dt>")
	case schema.NodeDefinitionDescription:
		w.wrap("<dd>", "</dd>", n)
	case schema.NodeContainer:
		w.wrap(startTag("div", map[string]string{"class": ClassContainer, DataKind: attrs.String("kind")}), "</div>", n)
	case schema.NodeTable:
		w.wrap("<table>", "</table>", n)
	case schema.NodeTableRow:
		w.wrap("<tr>", "</tr>", n)
	case schema.NodeTableHeader:
		w.wrap(startTag("th", cellHTMLAttrs(attrs)), "</th>", n)
	case schema.NodeTableCell:
		w.wrap(startTag("td", cellHTMLAttrs(attrs)), "</td>", n)
	case schema.NodeHTMLBlock:
		w.line(attrs.String("html"))
	default:
		w.s.logger.Warn("no HTML form for node", "type", n.Type().Name())
		for _, child := range n.Content().Children() {
			w.block(child)
		}
	}
}

func listAttrs(attrs schema.Attrs) map[string]string {
	out := map[string]string{}
	if !attrs.Bool("tight") {
		out[DataTight] = "false"
	}
	return out
}

func cellHTMLAttrs(attrs schema.Attrs) map[string]string {
	out := map[string]string{"align": attrs.String("align")}
	if n := attrs.Int("colspan"); n > 1 {
		out["colspan"] = strconv.Itoa(n)
	}
	if n := attrs.Int("rowspan"); n > 1 {
		out["rowspan"] = strconv.Itoa(n)
	}
	if widths := ColumnWidths(attrs); len(widths) > 0 {
		parts := make([]string, len(widths))
		for i, w := range widths {
			parts[i] = strconv.Itoa(w)
		}
		out[DataColwidth] = strings.Join(parts, ",")
	}
	return out
}

// ColumnWidths returns the colwidth attribute of a cell as integers.
func ColumnWidths(attrs schema.Attrs) []int {
	switch v := attrs.Get("colwidth").(type) {
	case []int:
		return v
	case []any:
		out := make([]int, 0, len(v))
		for _, item := range v {
			switch n := item.(type) {
			case int:
				out = append(out, n)
			case float64:
				out = append(out, int(n))
			}
		}
		return out
	}
	return nil
}

func (w *writer) inline(n *model.Node) string {
	return w.inlineNodes(n.Content().Children())
}

// inlineNodes writes inline content, keeping marks shared by neighbours
// open across them.
func (w *writer) inlineNodes(nodes []*model.Node) string {
	var b strings.Builder
	var active []*model.Mark
	for _, n := range nodes {
		marks := n.Marks()
		keep := 0
		for keep < len(active) && keep < len(marks) && active[keep].Eq(marks[keep]) {
			keep++
		}
		for len(active) > keep {
			b.WriteString(closeMark(active[len(active)-1]))
			active = active[:len(active)-1]
		}
		for len(active) < len(marks) {
			m := marks[len(active)]
			b.WriteString(openMark(m))
			active = append(active, m)
		}
		b.WriteString(w.leaf(n))
	}
	for i := len(active) - 1; i >= 0; i-- {
		b.WriteString(closeMark(active[i]))
	}
	return b.String()
}

var markTags = map[string]string{
	schema.MarkEm:        "em",
	schema.MarkStrong:    "strong",
	schema.MarkStrike:    "s",
	schema.MarkIns:       "ins",
	schema.MarkHighlight: "mark",
	schema.MarkSub:       "sub",
	schema.MarkSup:       "sup",
	schema.MarkCode:      "code",
	schema.MarkSpan:      "span",
	schema.MarkLink:      "a",
}

func markTag(m *model.Mark) string {
	if tag, ok := markTags[m.Type().Name()]; ok {
		return tag
	}
	return "span"
}

func openMark(m *model.Mark) string {
	attrs := m.Attrs()
	switch m.Type().Name() {
	case schema.MarkLink:
		return startTag("a", map[string]string{"href": attrs.String("href"), "title": attrs.String("title")})
	case schema.MarkSpan:
		return startTag("span", map[string]string{"class": attrs.String("class")})
	}
	return "<" + markTag(m) + ">"
}

func closeMark(m *model.Mark) string {
	return "</" + markTag(m) + ">"
}

func (w *writer) leaf(n *model.Node) string {
	attrs := n.Attrs()
	switch n.Type().Name() {
	case schema.NodeText:
		return html.EscapeString(n.Text())
	case schema.NodeHardBreak:
		return "<br>"
	case schema.NodeImage:
		return startTag("img", map[string]string{
			"src":   attrs.String("src"),
			"alt":   attrs.String("alt"),
			"title": attrs.String("title"),
		})
	case schema.NodeMathInline:
		return startTag("span", map[string]string{"class": ClassMathInline}) + html.EscapeString(attrs.String("tex")) + "</span>"
	case schema.NodeHTMLInline:
		return attrs.String("html")
	}
	w.s.logger.Warn("no HTML form for inline node", "type", n.Type().Name())
	return html.EscapeString(n.TextContent())
}
