package schema

// Table roles used by the table extension.
const (
	TableRoleTable      = "table"
	TableRoleRow        = "row"
	TableRoleCell       = "cell"
	TableRoleHeaderCell = "header_cell"
)

// NodeSpec declares a node type.
type NodeSpec struct {
	// Name is the unique type name.
	Name string

	// Content is the content expression. Empty means the node is a leaf.
	Content string

	// Marks lists the allowed mark names or groups, separated by spaces.
	// "_" allows every mark. Empty allows every mark in inline content
	// and none elsewhere.
	Marks string

	// NoMarks forbids all marks in the node's content and overrides Marks.
	NoMarks bool

	// Group lists the groups this type belongs to, separated by spaces.
	Group string

	// Inline marks an inline node. Text is always inline.
	Inline bool

	// Atom marks a node whose content is not directly editable.
	Atom bool

	// Code marks a node holding code; text inside is not escaped or marked.
	Code bool

	// Defining marks a node whose type is preserved when its content is
	// replaced wholesale, such as headings and list items.
	Defining bool

	// Isolating marks a node whose boundaries editing commands do not
	// cross, such as table cells.
	Isolating bool

	// Attrs declares the node's attributes.
	Attrs map[string]AttrSpec

	// TableRole places the node in the table extension's model.
	TableRole string
}

// MarkSpec declares a mark type.
type MarkSpec struct {
	// Name is the unique mark name.
	Name string

	// Attrs declares the mark's attributes.
	Attrs map[string]AttrSpec

	// NotInclusive stops the mark from extending to text typed at its end.
	NotInclusive bool

	// Excludes lists the mark names or groups that cannot coexist with this
	// mark, separated by spaces. "_" excludes all marks. Empty excludes only
	// other instances of the same type.
	Excludes string

	// Group lists the groups this mark belongs to.
	Group string

	// NotSpanning makes serializers open and close the mark around every
	// node instead of letting one mark run across adjacent nodes.
	NotSpanning bool
}

// Spec is an ordered collection of node and mark specs.
type Spec struct {
	Nodes []NodeSpec
	Marks []MarkSpec

	// TopNode names the root node type. Defaults to "doc".
	TopNode string
}
