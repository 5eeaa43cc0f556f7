package schema

import "sync"

// Node type names of the rich-text schema.
const (
	NodeDoc                   = "doc"
	NodeParagraph             = "paragraph"
	NodeHeading               = "heading"
	NodeBlockquote            = "blockquote"
	NodeCodeBlock             = "codeBlock"
	NodeMathBlock             = "mathBlock"
	NodeHorizontalRule        = "horizontalRule"
	NodeBulletList            = "bulletList"
	NodeOrderedList           = "orderedList"
	NodeListItem              = "listItem"
	NodeTaskList              = "taskList"
	NodeTaskItem              = "taskItem"
	NodeDefinitionList        = "definitionList"
	NodeDefinitionTerm        = "definitionTerm"
	NodeDefinitionDescription = "definitionDescription"
	NodeContainer             = "container"
	NodeTable                 = "table"
	NodeTableRow              = "tableRow"
	NodeTableHeader           = "tableHeader"
	NodeTableCell             = "tableCell"
	NodeHTMLBlock             = "htmlBlock"
	NodeText                  = "text"
	NodeHardBreak             = "hardBreak"
	NodeImage                 = "image"
	NodeMathInline            = "mathInline"
	NodeHTMLInline            = "htmlInline"
)

// Mark type names of the rich-text schema.
const (
	MarkLink      = "link"
	MarkEm        = "em"
	MarkStrong    = "strong"
	MarkStrike    = "strike"
	MarkIns       = "ins"
	MarkHighlight = "highlight"
	MarkSub       = "sub"
	MarkSup       = "sup"
	MarkSpan      = "span"
	MarkCode      = "code"
)

var cellAttrs = map[string]AttrSpec{
	"colspan":  {Default: 1},
	"rowspan":  {Default: 1},
	"align":    {Default: ""},
	"colwidth": {Default: nil},
}

// RichTextSpec returns the spec of the default rich-text schema.
func RichTextSpec() Spec {
	return Spec{
		Nodes: []NodeSpec{
			{Name: NodeDoc, Content: "flow+"},
			{Name: NodeParagraph, Content: "phrasing*", Group: "flow"},
			{Name: NodeHeading, Content: "phrasing*", Group: "flow", Defining: true,
				Attrs: map[string]AttrSpec{"level": {Default: 1}}},
			{Name: NodeBlockquote, Content: "flow+", Group: "flow sectioning", Defining: true},
			{Name: NodeCodeBlock, Content: "text*", Group: "flow", Code: true, Defining: true, NoMarks: true,
				Attrs: map[string]AttrSpec{"syntax": {Default: ""}}},
			{Name: NodeMathBlock, Content: "text*", Group: "flow", Code: true, NoMarks: true},
			{Name: NodeHorizontalRule, Group: "flow"},
			{Name: NodeBulletList, Content: "listItem+", Group: "flow list",
				Attrs: map[string]AttrSpec{"tight": {Default: true}}},
			{Name: NodeOrderedList, Content: "listItem+", Group: "flow list",
				Attrs: map[string]AttrSpec{"start": {Default: 1}, "tight": {Default: true}}},
			{Name: NodeListItem, Content: "paragraph flow*", Defining: true},
			{Name: NodeTaskList, Content: "taskItem+", Group: "flow list",
				Attrs: map[string]AttrSpec{"tight": {Default: true}}},
			{Name: NodeTaskItem, Content: "paragraph flow*", Defining: true,
				Attrs: map[string]AttrSpec{"checked": {Default: false}}},
			{Name: NodeDefinitionList, Content: "(definitionTerm definitionDescription+)+", Group: "flow"},
			{Name: NodeDefinitionTerm, Content: "phrasing*", Defining: true},
			{Name: NodeDefinitionDescription, Content: "flow+", Defining: true},
			{Name: NodeContainer, Content: "flow+", Group: "flow sectioning", Defining: true,
				Attrs: map[string]AttrSpec{"kind": {Default: ""}}},
			{Name: NodeTable, Content: "tableRow+", Group: "flow", Isolating: true, TableRole: TableRoleTable},
			{Name: NodeTableRow, Content: "(tableCell | tableHeader)*", TableRole: TableRoleRow},
			{Name: NodeTableHeader, Content: "flow+", Isolating: true, TableRole: TableRoleHeaderCell, Attrs: cellAttrs},
			{Name: NodeTableCell, Content: "flow+", Isolating: true, TableRole: TableRoleCell, Attrs: cellAttrs},
			{Name: NodeHTMLBlock, Group: "flow", Atom: true,
				Attrs: map[string]AttrSpec{"html": {Default: ""}}},
			{Name: NodeText, Group: "phrasing"},
			{Name: NodeHardBreak, Inline: true, Group: "phrasing"},
			{Name: NodeImage, Inline: true, Group: "phrasing",
				Attrs: map[string]AttrSpec{"src": {Required: true}, "alt": {Default: ""}, "title": {Default: ""}}},
			{Name: NodeMathInline, Inline: true, Group: "phrasing", Atom: true,
				Attrs: map[string]AttrSpec{"tex": {Default: ""}}},
			{Name: NodeHTMLInline, Inline: true, Group: "phrasing", Atom: true,
				Attrs: map[string]AttrSpec{"html": {Default: ""}}},
		},
		Marks: []MarkSpec{
			{Name: MarkLink, NotInclusive: true,
				Attrs: map[string]AttrSpec{"href": {Required: true}, "title": {Default: ""}}},
			{Name: MarkEm, Group: "emphasis"},
			{Name: MarkStrong, Group: "emphasis"},
			{Name: MarkStrike},
			{Name: MarkIns},
			{Name: MarkHighlight},
			{Name: MarkSub, Excludes: "sub sup"},
			{Name: MarkSup, Excludes: "sub sup"},
			{Name: MarkSpan, Attrs: map[string]AttrSpec{"class": {Default: ""}}},
			{Name: MarkCode, Excludes: "emphasis strike ins highlight sub sup span code"},
		},
	}
}

var (
	richTextOnce   sync.Once
	richTextSchema *Schema
)

// RichText returns the process-wide rich-text schema.
func RichText() *Schema {
	richTextOnce.Do(func() {
		richTextSchema = MustNew(RichTextSpec())
	})
	return richTextSchema
}
