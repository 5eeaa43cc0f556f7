package markdown

import (
	"html"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dshills/inkwell/internal/htmlconv"
	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
)

const (
	// emptyParagraph stands in for a paragraph with no content.
	emptyParagraph = "&nbsp;"
	// rawHTMLInfo marks a fenced block holding verbatim HTML.
	rawHTMLInfo = "{=html}"
)

var plainParser = goldmark.DefaultParser()

// HardBreakStyle selects how hard breaks are written.
type HardBreakStyle int

const (
	// BackslashBreak writes a backslash before the line end.
	BackslashBreak HardBreakStyle = iota
	// SpaceBreak writes two trailing spaces.
	SpaceBreak
)

// Serializer writes documents as Markdown.
type Serializer struct {
	bullet     string
	emphasis   string
	strong     string
	hardBreak  HardBreakStyle
	padTables  bool
	tightLists *bool
	html       *htmlconv.Serializer
	strict     *htmlconv.Parser
	logger     *slog.Logger
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithBullet sets the bullet list marker: "-", "*" or "+".
func WithBullet(bullet string) Option {
	return func(s *Serializer) {
		switch bullet {
		case "-", "*", "+":
			s.bullet = bullet
		}
	}
}

// WithEmphasis sets the emphasis delimiter: "*" or "_".
func WithEmphasis(delim string) Option {
	return func(s *Serializer) {
		if delim == "*" || delim == "_" {
			s.emphasis = delim
		}
	}
}

// WithStrong sets the strong delimiter: "**" or "__".
func WithStrong(delim string) Option {
	return func(s *Serializer) {
		if delim == "**" || delim == "__" {
			s.strong = delim
		}
	}
}

// WithHardBreak sets the hard break style.
func WithHardBreak(style HardBreakStyle) Option {
	return func(s *Serializer) { s.hardBreak = style }
}

// WithTablePadding pads pipe table columns to equal display width.
func WithTablePadding(pad bool) Option {
	return func(s *Serializer) { s.padTables = pad }
}

// WithTightLists writes every list tight or loose regardless of its
// tight attribute.
func WithTightLists(tight bool) Option {
	return func(s *Serializer) { s.tightLists = &tight }
}

// WithSerializerLogger sets the serializer's logger.
func WithSerializerLogger(l *slog.Logger) Option {
	return func(s *Serializer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSerializer creates a serializer.
func NewSerializer(opts ...Option) *Serializer {
	s := &Serializer{
		bullet:   "-",
		emphasis: "*",
		strong:   "**",
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.html = htmlconv.NewSerializer(htmlconv.WithSerializerLogger(s.logger))
	s.strict = htmlconv.NewParser(htmlconv.Strict(), htmlconv.WithLogger(s.logger))
	return s
}

// Serialize writes doc with a serializer built from opts.
func Serialize(doc *model.Node, opts ...Option) string {
	return NewSerializer(opts...).Serialize(doc)
}

// Serialize writes doc as Markdown.
func (s *Serializer) Serialize(doc *model.Node) string {
	w := s.newWriter()
	w.renderContent(doc)
	return string(w.out)
}

func (s *Serializer) newWriter() *writer {
	return &writer{s: s, delimEnd: -1}
}

func (s *Serializer) altBullet() string {
	if s.bullet == "-" {
		return "*"
	}
	return "-"
}

type writer struct {
	s      *Serializer
	out    []byte
	delim  string
	closed *model.Node

	inTightList  bool
	inTable      bool
	inAutolink   bool
	atBlockStart bool
	afterBreak   bool
	// noBreak forces hard breaks into HTML form on single-line blocks.
	noBreak bool
	// subHTML writes sub marks as tags when the block also has strike.
	subHTML bool
	// altMarker asks the next list to use the alternate marker.
	altMarker bool
	// delimEnd is the output length right after the last mark delimiter.
	delimEnd int
	// runs holds the em and strong delimiters of the current textblock.
	runs     []emRun
	openRuns []int
}

// emRun is one em or strong delimiter written to out.
type emRun struct {
	start, end int
	open       bool
	// pair indexes the matching delimiter in runs.
	pair int
	tag  string
	done bool
}

func (w *writer) atBlank() bool {
	return len(w.out) == 0 || w.out[len(w.out)-1] == '\n'
}

func (w *writer) ensureNewLine() {
	if !w.atBlank() {
		w.out = append(w.out, '\n')
	}
}

func (w *writer) flushClose(size int) {
	if w.closed == nil {
		return
	}
	w.ensureNewLine()
	if size > 1 {
		delimMin := strings.TrimRight(w.delim, " \t")
		for i := 1; i < size; i++ {
			w.out = append(w.out, delimMin...)
			w.out = append(w.out, '\n')
		}
	}
	w.closed = nil
}

func (w *writer) write(content string) {
	w.flushClose(2)
	if w.delim != "" && w.atBlank() {
		w.out = append(w.out, w.delim...)
	}
	w.out = append(w.out, content...)
}

func (w *writer) closeBlock(n *model.Node) { w.closed = n }

func (w *writer) wrapBlock(delim, first string, n *model.Node, fn func()) {
	old := w.delim
	w.write(first)
	w.delim += delim
	fn()
	w.delim = old
	w.closeBlock(n)
}

func (w *writer) lastByte(back int) byte {
	if len(w.out) <= back {
		return 0
	}
	return w.out[len(w.out)-1-back]
}

// text writes s, splitting it into lines that each get the current
// block delimiter.
func (w *writer) text(s string, escape bool) {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		w.write("")
		if !escape && strings.HasPrefix(line, "[") && w.lastByte(0) == '!' && w.lastByte(1) != '\\' {
			w.out = append(w.out[:len(w.out)-1], `\!`...)
		}
		if escape {
			escaped := escapeText(line, w.atBlockStart || w.afterBreak || i > 0, w.inTable)
			if len(w.out) == w.delimEnd && escaped != "" && escaped[0] == w.lastByte(0) && strings.IndexByte("+=:", escaped[0]) >= 0 {
				escaped = `\` + escaped
			}
			line = escaped
			if i == 0 && w.atBlockStart && line != "" && (line[0] == ' ' || line[0] == '\t') {
				line = spaceEntity(line[0]) + line[1:]
			}
		}
		w.out = append(w.out, line...)
		if line != "" {
			w.afterBreak = false
		}
		if i != len(lines)-1 {
			w.out = append(w.out, '\n')
		}
	}
}

// delimiter writes mark syntax. A plain text character equal to the
// delimiter's first byte just before it is escaped so the two do not
// merge into one run.
func (w *writer) delimiter(d string) {
	if d == "" {
		return
	}
	if strings.IndexByte("+=:", d[0]) >= 0 && w.lastByte(0) == d[0] && len(w.out) != w.delimEnd && w.lastByte(1) != '\\' {
		last := w.out[len(w.out)-1]
		w.out = append(w.out[:len(w.out)-1], '\\', last)
	}
	w.text(d, false)
	w.delimEnd = len(w.out)
}

func (w *writer) renderContent(parent *model.Node) {
	var prev *model.Node
	alt := false
	item := parent.Type().Name() == schema.NodeListItem || parent.Type().Name() == schema.NodeTaskItem
	for i, child := range parent.Content().Children() {
		if item && w.inTightList && prev != nil && joinsTight(prev, child) {
			w.flushClose(1)
		}
		if fam := listFamily(child); fam != "" && prev != nil && listFamily(prev) == fam {
			alt = !alt
		} else {
			alt = false
		}
		w.altMarker = alt
		w.renderBlock(child, parent, i)
		prev = child
	}
}

func listFamily(n *model.Node) string {
	switch n.Type().Name() {
	case schema.NodeBulletList, schema.NodeTaskList:
		return "bullet"
	case schema.NodeOrderedList:
		return "ordered"
	}
	return ""
}

// soleBlock reports whether n is the only block of the document.
func soleBlock(n, parent *model.Node) bool {
	return parent.ChildCount() == 1 && parent.Type() == parent.Type().Schema().TopNodeType()
}

// joinsTight reports whether next can follow prev inside a tight list
// item on the next line and still start a block of its own.
func joinsTight(prev, next *model.Node) bool {
	switch prev.Type().Name() {
	case schema.NodeHeading, schema.NodeCodeBlock, schema.NodeMathBlock, schema.NodeHorizontalRule:
		return true
	case schema.NodeParagraph, schema.NodeBlockquote:
		return interruptsParagraph(next)
	}
	return false
}

func interruptsParagraph(n *model.Node) bool {
	switch n.Type().Name() {
	case schema.NodeBulletList, schema.NodeTaskList, schema.NodeBlockquote, schema.NodeCodeBlock,
		schema.NodeMathBlock, schema.NodeHeading, schema.NodeContainer:
		return true
	case schema.NodeOrderedList:
		return n.Attrs().Int("start") == 1
	}
	return false
}

// keepsHTMLBlock reports whether raw reads back as one verbatim HTML
// block when written as is.
func (s *Serializer) keepsHTMLBlock(raw string) bool {
	if raw == "" {
		return false
	}
	if frag, err := s.strict.ParseFragment(raw); err == nil && frag.ChildCount() > 0 {
		return false
	}
	src := []byte(raw)
	root := plainParser.Parse(text.NewReader(src))
	block, ok := root.FirstChild().(*ast.HTMLBlock)
	if !ok || block.NextSibling() != nil {
		return false
	}
	return htmlBlockSource(block, src) == raw
}

func (w *writer) renderBlock(n *model.Node, parent *model.Node, index int) {
	attrs := n.Attrs()
	alt := w.altMarker
	w.altMarker = false
	switch n.Type().Name() {
	case schema.NodeParagraph:
		if n.ChildCount() == 0 && !soleBlock(n, parent) {
			w.write(emptyParagraph)
			w.closeBlock(n)
			return
		}
		w.renderInline(n, true)
		w.closeBlock(n)
	case schema.NodeHeading:
		level := min(max(attrs.Int("level"), 1), 6)
		w.write(strings.Repeat("#", level) + " ")
		w.noBreak = true
		w.renderInline(n, false)
		w.noBreak = false
		w.escapeClosingHashes()
		w.closeBlock(n)
	case schema.NodeBlockquote:
		w.wrapBlock("> ", "> ", n, func() { w.renderContent(n) })
	case schema.NodeCodeBlock:
		content := n.TextContent()
		fence := strings.Repeat("`", max(3, longestRun(content, '`')+1))
		w.write(fence + attrs.String("syntax") + "\n")
		w.text(content, false)
		w.write("\n")
		w.write(fence)
		w.closeBlock(n)
	case schema.NodeMathBlock:
		w.write("$$\n")
		w.text(n.TextContent(), false)
		w.write("\n")
		w.write("$$")
		w.closeBlock(n)
	case schema.NodeHorizontalRule:
		w.write("---")
		w.closeBlock(n)
	case schema.NodeBulletList:
		bullet := w.s.bullet
		if alt {
			bullet = w.s.altBullet()
		}
		w.renderList(n, "  ", func(int) string { return bullet + " " })
	case schema.NodeTaskList:
		bullet := w.s.bullet
		if alt {
			bullet = w.s.altBullet()
		}
		w.renderList(n, "  ", func(i int) string {
			if n.Child(i).Attrs().Bool("checked") {
				return bullet + " [x] "
			}
			return bullet + " [ ] "
		})
	case schema.NodeOrderedList:
		start := attrs.Int("start")
		delim := "."
		if alt {
			delim = ")"
		}
		maxW := len(strconv.Itoa(start + n.ChildCount() - 1))
		space := strings.Repeat(" ", maxW+2)
		w.renderList(n, space, func(i int) string {
			num := strconv.Itoa(start + i)
			return strings.Repeat(" ", maxW-len(num)) + num + delim + " "
		})
	case schema.NodeListItem, schema.NodeTaskItem:
		w.renderContent(n)
	case schema.NodeDefinitionList:
		for i, child := range n.Content().Children() {
			if child.Type().Name() == schema.NodeDefinitionDescription {
				w.flushClose(1)
				w.wrapBlock("  ", ": ", child, func() { w.renderContent(child) })
				continue
			}
			w.renderBlock(child, n, i)
		}
		w.closeBlock(n)
	case schema.NodeDefinitionTerm:
		w.noBreak = true
		w.renderInline(n, true)
		w.noBreak = false
		w.closeBlock(n)
	case schema.NodeContainer:
		fence := strings.Repeat(":", 3+containerHeight(n))
		head := fence
		if kind := attrs.String("kind"); kind != "" {
			head += " " + kind
		}
		w.write(head + "\n")
		w.renderContent(n)
		w.flushClose(1)
		w.write(fence)
		w.closeBlock(n)
	case schema.NodeTable:
		w.table(n)
	case schema.NodeHTMLBlock:
		raw := attrs.String("html")
		if !w.s.keepsHTMLBlock(raw) {
			fence := strings.Repeat("`", max(3, longestRun(raw, '`')+1))
			w.write(fence + rawHTMLInfo + "\n")
			w.text(raw, false)
			w.write("\n")
			w.write(fence)
			w.closeBlock(n)
			return
		}
		w.text(raw, false)
		w.closeBlock(n)
	default:
		w.s.logger.Warn("no markdown form for node", "type", n.Type().Name())
		if n.InlineContent() {
			w.renderInline(n, true)
			w.closeBlock(n)
			return
		}
		w.renderContent(n)
	}
}

var closingHashes = regexp.MustCompile(`(^|[ \t])(#+)$`)

// escapeClosingHashes keeps a trailing run of # in heading text from
// reading as a closing sequence.
func (w *writer) escapeClosingHashes() {
	line := w.out[strings.LastIndexByte(string(w.out), '\n')+1:]
	loc := closingHashes.FindSubmatchIndex(line)
	if loc == nil || loc[4] == 0 {
		return
	}
	start := len(w.out) - len(line) + loc[4]
	if start > 0 && w.out[start-1] == '\\' {
		return
	}
	rest := append([]byte{}, w.out[start:]...)
	w.out = append(append(w.out[:start], '\\'), rest...)
}

func longestRun(s string, c byte) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return longest
}

// containerHeight counts the containers nested inside n.
func containerHeight(n *model.Node) int {
	height := 0
	n.ForEach(func(child *model.Node, _, _ int) {
		h := containerHeight(child)
		if child.Type().Name() == schema.NodeContainer {
			h++
		}
		height = max(height, h)
	})
	return height
}

func (w *writer) renderList(n *model.Node, delim string, firstDelim func(int) string) {
	tight := n.Attrs().Bool("tight")
	if w.s.tightLists != nil {
		tight = *w.s.tightLists
	}
	prev := w.inTightList
	w.inTightList = tight
	for i, child := range n.Content().Children() {
		if i > 0 && tight {
			w.flushClose(1)
		}
		w.wrapBlock(delim, firstDelim(i), n, func() { w.renderBlock(child, n, i) })
	}
	w.inTightList = prev
}

func markName(m *model.Mark) string { return m.Type().Name() }

func expels(m *model.Mark) bool {
	switch markName(m) {
	case schema.MarkLink, schema.MarkCode:
		return false
	}
	return true
}

func mixable(m *model.Mark) bool {
	switch markName(m) {
	case schema.MarkEm, schema.MarkStrong, schema.MarkLink:
		return true
	}
	return false
}

func hasMarkType(parent *model.Node, name string) bool {
	found := false
	parent.ForEach(func(child *model.Node, _, _ int) {
		for _, m := range child.Marks() {
			if markName(m) == name {
				found = true
			}
		}
	})
	return found
}

// reorderMixable moves mixable marks so they line up with the marks
// already open, letting em and strong close in any order.
func reorderMixable(marks, active []*model.Mark) []*model.Mark {
	marks = append([]*model.Mark(nil), marks...)
outer:
	for i := 0; i < len(marks); i++ {
		mark := marks[i]
		if !mixable(mark) {
			break
		}
		for j := 0; j < len(active); j++ {
			other := active[j]
			if !mixable(other) {
				break
			}
			if !mark.Eq(other) {
				continue
			}
			var next []*model.Mark
			switch {
			case i > j:
				next = append(next, marks[:j]...)
				next = append(next, mark)
				next = append(next, marks[j:i]...)
				next = append(next, marks[i+1:]...)
			case j > i:
				end := min(j, len(marks))
				next = append(next, marks[:i]...)
				next = append(next, marks[i+1:end]...)
				next = append(next, mark)
				next = append(next, marks[end:]...)
			default:
				next = marks
			}
			marks = next
			continue outer
		}
	}
	return marks
}

func (w *writer) renderInline(parent *model.Node, fromBlockStart bool) {
	w.atBlockStart = fromBlockStart
	w.afterBreak = false
	w.subHTML = hasMarkType(parent, schema.MarkStrike)
	children := parent.Content().Children()
	var active []*model.Mark
	trailing := ""
	progress := func(node *model.Node, index int) {
		var marks []*model.Mark
		if node != nil {
			marks = node.Marks()
		}
		leading := trailing
		trailing = ""
		if node != nil && node.IsText() && anyMark(marks, func(m *model.Mark) bool {
			return expels(m) && !m.IsInSet(active)
		}) {
			text := node.Text()
			rest := strings.TrimLeftFunc(text, unicode.IsSpace)
			if lead := text[:len(text)-len(rest)]; lead != "" {
				leading += lead
				if rest != "" {
					node = node.WithText(rest)
				} else {
					node = nil
					marks = active
				}
			}
		}
		if node != nil && node.IsText() && anyMark(marks, func(m *model.Mark) bool {
			return expels(m) && (index == len(children)-1 || !m.IsInSet(children[index+1].Marks()))
		}) {
			text := node.Text()
			rest := strings.TrimRightFunc(text, unicode.IsSpace)
			if trail := text[len(rest):]; trail != "" {
				trailing = trail
				if rest != "" {
					node = node.WithText(rest)
				} else {
					node = nil
					marks = active
				}
			}
		}
		var inner *model.Mark
		if len(marks) > 0 {
			inner = marks[len(marks)-1]
		}
		noEsc := inner != nil && markName(inner) == schema.MarkCode
		n := len(marks)
		if noEsc {
			n--
		}
		marks = reorderMixable(marks[:n], active)

		keep := 0
		for keep < min(len(active), n) && marks[keep].Eq(active[keep]) {
			keep++
		}
		for keep < len(active) {
			m := active[len(active)-1]
			active = active[:len(active)-1]
			w.closeMark(m, parent, index)
		}
		if leading != "" {
			w.text(leading, true)
		}
		if node == nil {
			return
		}
		for len(active) < n {
			add := marks[len(active)]
			active = append(active, add)
			w.openMark(add, parent, index)
			w.atBlockStart = false
		}
		if noEsc && node.IsText() {
			w.text(codeSpan(node.Text(), w.inTable), false)
			w.delimEnd = len(w.out)
		} else {
			w.renderInlineNode(node, parent, index)
		}
		w.atBlockStart = false
	}
	start := len(w.out)
	w.runs, w.openRuns = w.runs[:0], w.openRuns[:0]
	for i, child := range children {
		progress(child, i)
	}
	progress(nil, len(children))
	w.atBlockStart = false
	if last := len(w.out) - 1; fromBlockStart && last >= start && (w.out[last] == ' ' || w.out[last] == '\t') {
		w.out = append(w.out[:last], spaceEntity(w.out[last])...)
	}
	w.fixEmphasis()
}

func spaceEntity(c byte) string { return "&#" + strconv.Itoa(int(c)) + ";" }

func (w *writer) openMark(m *model.Mark, parent *model.Node, index int) {
	d := w.markString(m, true, parent, index)
	w.delimiter(d)
	run := -1
	if name := markName(m); d != "" && (name == schema.MarkEm || name == schema.MarkStrong) {
		run = len(w.runs)
		w.runs = append(w.runs, emRun{start: len(w.out) - len(d), end: len(w.out), open: true, pair: -1, tag: htmlTag(name)})
	}
	w.openRuns = append(w.openRuns, run)
}

func (w *writer) closeMark(m *model.Mark, parent *model.Node, index int) {
	d := w.markString(m, false, parent, index)
	w.delimiter(d)
	run := w.openRuns[len(w.openRuns)-1]
	w.openRuns = w.openRuns[:len(w.openRuns)-1]
	if run < 0 {
		return
	}
	w.runs[run].pair = len(w.runs)
	w.runs = append(w.runs, emRun{start: len(w.out) - len(d), end: len(w.out), pair: run, tag: w.runs[run].tag})
}

func htmlTag(mark string) string {
	if mark == schema.MarkStrong {
		return "strong"
	}
	return "em"
}

// fixEmphasis rewrites em and strong spans whose delimiters would not
// open or close where they were written as HTML tags.
func (w *writer) fixEmphasis() {
	for {
		bad := -1
		for i, r := range w.runs {
			if r.open && !r.done && r.pair >= 0 && (!w.canOpen(i) || !w.canClose(r.pair)) {
				bad = i
				break
			}
		}
		if bad < 0 {
			break
		}
		open := &w.runs[bad]
		closing := w.runs[open.pair]
		w.splice(closing.start, closing.end, "</"+open.tag+">")
		w.splice(open.start, open.end, "<"+open.tag+">")
		open.done = true
		w.runs[open.pair].done = true
	}
	w.runs, w.openRuns = w.runs[:0], w.openRuns[:0]
	w.delimEnd = -1
}

func (w *writer) splice(start, end int, s string) {
	rest := append([]byte(s), w.out[end:]...)
	w.out = append(w.out[:start], rest...)
	delta := len(s) - (end - start)
	for i := range w.runs {
		if w.runs[i].start >= end {
			w.runs[i].start += delta
			w.runs[i].end += delta
		}
	}
}

// flanking finds the delimiter run around out[start:end] and reports
// whether it is left- and right-flanking, along with the characters on
// either side.
func (w *writer) flanking(start, end int) (left, right bool, prev, next rune, lo, hi int) {
	c := w.out[start]
	lo, hi = start, end
	for lo > 0 && w.out[lo-1] == c && (lo < 2 || w.out[lo-2] != '\\') {
		lo--
	}
	for hi < len(w.out) && w.out[hi] == c {
		hi++
	}
	prev, next = ' ', ' '
	if lo > 0 {
		prev, _ = utf8.DecodeLastRune(w.out[:lo])
	}
	if hi < len(w.out) {
		next, _ = utf8.DecodeRune(w.out[hi:])
	}
	left = !unicode.IsSpace(next) && (!isPunctRune(next) || unicode.IsSpace(prev) || isPunctRune(prev))
	right = !unicode.IsSpace(prev) && (!isPunctRune(prev) || unicode.IsSpace(next) || isPunctRune(next))
	return left, right, prev, next, lo, hi
}

func isPunctRune(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) }

func (w *writer) canOpen(i int) bool {
	r := w.runs[i]
	left, right, prev, _, lo, hi := w.flanking(r.start, r.end)
	for j, other := range w.runs {
		if j != i && !other.done && !other.open && other.start >= lo && other.end <= hi {
			return false
		}
	}
	if w.out[r.start] == '_' {
		return left && (!right || isPunctRune(prev))
	}
	return left
}

func (w *writer) canClose(i int) bool {
	r := w.runs[i]
	left, right, _, next, _, _ := w.flanking(r.start, r.end)
	if w.out[r.start] == '_' {
		return right && (!left || isPunctRune(next))
	}
	return right
}

func anyMark(marks []*model.Mark, fn func(*model.Mark) bool) bool {
	for _, m := range marks {
		if fn(m) {
			return true
		}
	}
	return false
}

func (w *writer) markString(m *model.Mark, open bool, parent *model.Node, index int) string {
	attrs := m.Attrs()
	pick := func(o, c string) string {
		if open {
			return o
		}
		return c
	}
	switch markName(m) {
	case schema.MarkEm:
		return w.s.emphasis
	case schema.MarkStrong:
		return w.s.strong
	case schema.MarkStrike:
		return "~~"
	case schema.MarkSub:
		if w.subHTML {
			return pick("<sub>", "</sub>")
		}
		return "~"
	case schema.MarkSup:
		return "^"
	case schema.MarkIns:
		return "++"
	case schema.MarkHighlight:
		return "=="
	case schema.MarkSpan:
		if class := attrs.String("class"); class != "" {
			return pick(`<span class="`+html.EscapeString(class)+`">`, "</span>")
		}
		return "::"
	case schema.MarkLink:
		if open {
			w.inAutolink = isPlainURL(m, parent, index)
			if w.inAutolink {
				return "<"
			}
			return "["
		}
		if w.inAutolink {
			w.inAutolink = false
			return ">"
		}
		out := "](" + escapeDestination(attrs.String("href"))
		if title := attrs.String("title"); title != "" {
			out += " " + escapeTitle(title)
		}
		return out + ")"
	}
	w.s.logger.Warn("no markdown form for mark", "mark", markName(m))
	return ""
}

var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]{1,31}:[^\s<>]*$`)

func isPlainURL(link *model.Mark, parent *model.Node, index int) bool {
	href := link.Attrs().String("href")
	if link.Attrs().String("title") != "" || !schemePattern.MatchString(href) {
		return false
	}
	content := parent.Child(index)
	if !content.IsText() || content.Text() != href || len(content.Marks()) != 1 {
		return false
	}
	return index == parent.ChildCount()-1 || !link.IsInSet(parent.Child(index+1).Marks())
}

func (w *writer) renderInlineNode(n *model.Node, parent *model.Node, index int) {
	attrs := n.Attrs()
	switch n.Type().Name() {
	case schema.NodeText:
		w.text(n.Text(), !w.inAutolink)
	case schema.NodeHardBreak:
		if w.htmlBreak(n, parent, index) {
			w.text("<br>", false)
			return
		}
		if w.s.hardBreak == SpaceBreak {
			w.write("  \n")
		} else {
			w.write("\\\n")
		}
		w.afterBreak = true
	case schema.NodeImage:
		out := "![" + escapeText(attrs.String("alt"), false, w.inTable) + "](" + escapeDestination(attrs.String("src"))
		if title := attrs.String("title"); title != "" {
			out += " " + escapeTitle(title)
		}
		w.text(out+")", false)
	case schema.NodeMathInline:
		w.text("$"+attrs.String("tex")+"$", false)
	case schema.NodeHTMLInline:
		w.text(attrs.String("html"), false)
	default:
		w.s.logger.Warn("no markdown form for inline node", "type", n.Type().Name())
		w.text(n.TextContent(), true)
	}
}

// htmlBreak reports whether a hard break must be written as <br>: on
// single-line blocks, at the end of the block, before another break or
// leading whitespace, or when one of its marks ends with it.
func (w *writer) htmlBreak(n *model.Node, parent *model.Node, index int) bool {
	if w.noBreak || w.inTable || index+1 >= parent.ChildCount() {
		return true
	}
	next := parent.Child(index + 1)
	if next.Type() == n.Type() {
		return true
	}
	if next.IsText() && strings.IndexFunc(next.Text(), unicode.IsSpace) == 0 {
		return true
	}
	for _, m := range n.Marks() {
		if !m.IsInSet(next.Marks()) {
			return true
		}
	}
	return false
}
