package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mt "github.com/dshills/inkwell/internal/model/modeltest"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
	"github.com/dshills/inkwell/internal/state/statetest"
)

func nodeType(name string) *schema.NodeType { return mt.Schema.NodeType(name) }
func markType(name string) *schema.MarkType { return mt.Schema.MarkType(name) }

// run applies cmd to st, checking that the dry run agrees and that the
// resulting document is valid.
func run(t *testing.T, st *state.State, cmd Command) (*state.State, bool) {
	t.Helper()
	enabled := Enabled(st, cmd)
	next, ok, err := Run(st, cmd)
	require.NoError(t, err)
	assert.Equal(t, enabled, ok, "dry run disagrees with dispatch")
	require.NoError(t, next.Doc().Check())
	if !ok {
		assert.Same(t, st, next)
	}
	return next, ok
}

func assertDoc(t *testing.T, want *mt.Tagged, got *state.State) {
	t.Helper()
	assert.True(t, want.Node.Eq(got.Doc()), "doc = %s, want %s", got.Doc(), want.Node)
}

func TestCommands(t *testing.T) {
	bullet, item := nodeType(schema.NodeBulletList), nodeType(schema.NodeListItem)
	tests := []struct {
		name string
		doc  *mt.Tagged
		cmd  Command
		want *mt.Tagged // nil when the command does not apply
	}{
		{"bold range", mt.Doc(mt.P("<a>hello<b>")), ToggleMark(markType(schema.MarkStrong), nil), mt.Doc(mt.P(mt.Strong("hello")))},
		{"bold trims whitespace", mt.Doc(mt.P("<a> hello <b>")), ToggleMark(markType(schema.MarkStrong), nil), mt.Doc(mt.P(" ", mt.Strong("hello"), " "))},
		{"unbold", mt.Doc(mt.P(mt.Strong("<a>hello<b>"))), ToggleMark(markType(schema.MarkStrong), nil), mt.Doc(mt.P("hello"))},
		{"no marks in code", mt.Doc(mt.CodeBlock("<a>ab<b>")), ToggleMark(markType(schema.MarkStrong), nil), nil},
		{"delete selection", mt.Doc(mt.P("a<a>bc<b>d")), DeleteSelection(), mt.Doc(mt.P("ad"))},
		{"backspace char", mt.Doc(mt.P("ab<a>c")), DeleteBackward(), mt.Doc(mt.P("ac"))},
		{"backspace combining", mt.Doc(mt.P("xé<a>y")), DeleteBackward(), mt.Doc(mt.P("xy"))},
		{"backspace flag", mt.Doc(mt.P("a🇫🇷<a>")), DeleteBackward(), mt.Doc(mt.P("a"))},
		{"delete forward char", mt.Doc(mt.P("a<a>bc")), DeleteForward(), mt.Doc(mt.P("ac"))},
		{"backspace joins", mt.Doc(mt.P("ab"), mt.P("<a>cd")), DeleteBackward(), mt.Doc(mt.P("abcd"))},
		{"delete forward joins", mt.Doc(mt.P("ab<a>"), mt.P("cd")), DeleteForward(), mt.Doc(mt.P("abcd"))},
		{"backspace lifts out of quote", mt.Doc(mt.Blockquote(mt.P("<a>ab"))), JoinBackward(), mt.Doc(mt.P("ab"))},
		{"backspace into list", mt.Doc(mt.BulletList(mt.ListItem(mt.P("a"))), mt.P("<a>b")), JoinBackward(), mt.Doc(mt.BulletList(mt.ListItem(mt.P("a")), mt.ListItem(mt.P("b"))))},
		{"backspace at doc start", mt.Doc(mt.P("<a>ab")), DeleteBackward(), nil},
		{"delete forward at doc end", mt.Doc(mt.P("ab<a>")), DeleteForward(), nil},
		{"split", mt.Doc(mt.P("ab<a>cd")), SplitBlock(), mt.Doc(mt.P("ab"), mt.P("cd"))},
		{"split range", mt.Doc(mt.P("a<a>bc<b>d")), SplitBlock(), mt.Doc(mt.P("a"), mt.P("d"))},
		{"split heading end", mt.Doc(mt.H(1, "ab<a>")), SplitBlock(), mt.Doc(mt.H(1, "ab"), mt.P())},
		{"split heading start", mt.Doc(mt.H(1, "<a>ab")), SplitBlock(), mt.Doc(mt.P(), mt.H(1, "ab"))},
		{"insert text", mt.Doc(mt.P("a<a>b")), InsertText("xy"), mt.Doc(mt.P("axyb"))},
		{"insert rule", mt.Doc(mt.P("ab<a>")), InsertHorizontalRule(), mt.Doc(mt.P("ab"), mt.HR())},
		{"insert break", mt.Doc(mt.P("a<a>b")), InsertHardBreak(), mt.Doc(mt.P("a", mt.BR(), "b"))},
		{"insert image", mt.Doc(mt.P("a<a>")), InsertImage("x.png", "x", ""), mt.Doc(mt.P("a", mt.Img("x.png", "x")))},
		{"image needs src", mt.Doc(mt.P("a<a>")), InsertImage("", "x", ""), nil},
		{"heading", mt.Doc(mt.P("<a>ab")), ToggleHeading(2), mt.Doc(mt.H(2, "ab"))},
		{"heading off", mt.Doc(mt.H(2, "<a>ab")), ToggleHeading(2), mt.Doc(mt.P("ab"))},
		{"bullet list", mt.Doc(mt.P("<a>ab")), ToggleList(bullet, item), mt.Doc(mt.BulletList(mt.ListItem(mt.P("ab"))))},
		{"exit code", mt.Doc(mt.CodeBlock("a<a>b")), ExitCode(), mt.Doc(mt.CodeBlock("ab"), mt.P())},
		{"exit code outside code", mt.Doc(mt.P("a<a>b")), ExitCode(), nil},
		{"newline in code", mt.Doc(mt.CodeBlock("a<a>b")), NewlineInCode(), mt.Doc(mt.CodeBlock("a\nb"))},
		{"code syntax", mt.Doc(mt.CodeBlock("<a>x")), SetCodeBlockSyntax("go"), mt.Doc(mt.CodeBlockWith("go", "x"))},
		{"code syntax unchanged", mt.Doc(mt.CodeBlockWith("go", "<a>x")), SetCodeBlockSyntax("go"), nil},
		{"code syntax outside code", mt.Doc(mt.P("<a>x")), SetCodeBlockSyntax("go"), nil},
		{"insert code block", mt.Doc(mt.P("<a>x")), InsertCodeBlock("sh"), mt.Doc(mt.CodeBlockWith("sh", "x"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := statetest.New(tt.doc)
			next, ok := run(t, st, tt.cmd)
			if tt.want == nil {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assertDoc(t, tt.want, next)
		})
	}
}

func TestStoredMarkAppliesToTypedText(t *testing.T) {
	strong := markType(schema.MarkStrong)
	st := statetest.New(mt.Doc(mt.P("ab<a>")))

	st, ok := run(t, st, ToggleMark(strong, nil))
	require.True(t, ok)
	assert.True(t, IsMarkActive(st, strong))
	assertDoc(t, mt.Doc(mt.P("ab")), st)

	st, ok = run(t, st, InsertText("x"))
	require.True(t, ok)
	assertDoc(t, mt.Doc(mt.P("ab", mt.Strong("x"))), st)
	assert.True(t, IsMarkActive(st, strong))
}

func TestStoredMarkToggledOff(t *testing.T) {
	strong := markType(schema.MarkStrong)
	st := statetest.New(mt.Doc(mt.P(mt.Strong("ab<a>"))))
	require.True(t, IsMarkActive(st, strong))

	st, ok := run(t, st, ToggleMark(strong, nil))
	require.True(t, ok)
	assert.False(t, IsMarkActive(st, strong))
	assert.NotNil(t, st.StoredMarks())
	assert.Empty(t, st.StoredMarks())

	st, _ = run(t, st, InsertText("c"))
	assertDoc(t, mt.Doc(mt.P(mt.Strong("ab"), "c")), st)
}

func TestChainStopsAtFirst(t *testing.T) {
	var calls []string
	step := func(name string, applies bool) Command {
		return func(*state.State, func(*state.Transaction)) bool {
			calls = append(calls, name)
			return applies
		}
	}
	st := statetest.New(mt.Doc(mt.P("ab")))
	assert.True(t, Chain(step("a", false), step("b", true), step("c", true))(st, nil))
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestSelectAll(t *testing.T) {
	st := statetest.New(mt.Doc(mt.P("ab"), mt.P("cd")))
	next, ok := run(t, st, SelectAll())
	require.True(t, ok)
	sel := next.Selection()
	assert.IsType(t, &state.AllSelection{}, sel)
	assert.Equal(t, 0, sel.From())
	assert.Equal(t, next.Doc().Content().Size(), sel.To())
}

func TestArrowIntoCodeBlock(t *testing.T) {
	tests := []struct {
		name string
		doc  *mt.Tagged
		dir  int
		want int // -1 when the command does not apply
	}{
		{"down", mt.Doc(mt.P("ab<a>"), mt.CodeBlock("xy")), 1, 5},
		{"up", mt.Doc(mt.CodeBlock("xy"), mt.P("<a>ab")), -1, 3},
		{"not at edge", mt.Doc(mt.P("a<a>b"), mt.CodeBlock("xy")), 1, -1},
		{"next is paragraph", mt.Doc(mt.P("ab<a>"), mt.P("xy")), 1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := run(t, statetest.New(tt.doc), ArrowIntoCodeBlock(tt.dir))
			if tt.want < 0 {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, next.Selection().Head())
			assert.True(t, IsInCodeBlock(next))
		})
	}
}

func TestMoveGrapheme(t *testing.T) {
	st := statetest.New(mt.Doc(mt.P("a<a>éb")))
	next, ok := run(t, st, MoveGrapheme(1))
	require.True(t, ok)
	assert.Equal(t, 4, next.Selection().Head())

	next, ok = run(t, next, MoveGrapheme(-1))
	require.True(t, ok)
	assert.Equal(t, 2, next.Selection().Head())
}

func TestIsNodeActive(t *testing.T) {
	heading := nodeType(schema.NodeHeading)
	st := statetest.New(mt.Doc(mt.H(2, "a<a>b")))
	assert.True(t, IsNodeActive(st, heading, schema.Attrs{"level": 2}))
	assert.False(t, IsNodeActive(st, heading, schema.Attrs{"level": 1}))
	assert.False(t, IsNodeActive(st, nodeType(schema.NodeBlockquote), nil))
}

func TestDryRunLeavesStateAlone(t *testing.T) {
	st := statetest.New(mt.Doc(mt.P("ab<a>"), mt.P("cd")))
	before := st.Doc()
	cmds := []Command{DeleteForward(), SplitBlock(), InsertText("x"), ToggleHeading(1), SelectAll()}
	for _, cmd := range cmds {
		require.True(t, Enabled(st, cmd))
	}
	assert.Same(t, before, st.Doc())
	assert.Equal(t, 3, st.Selection().Head())
}

func TestInsertMath(t *testing.T) {
	st := statetest.New(mt.Doc(mt.P("a<a>")))
	next, ok := run(t, st, InsertMath("x^2"))
	require.True(t, ok)
	assertDoc(t, mt.Doc(mt.P("a", mt.MathInline("x^2"))), next)

	// The inline formula deletes as one unit.
	next, ok = run(t, next, DeleteBackward())
	require.True(t, ok)
	assertDoc(t, mt.Doc(mt.P("a")), next)
}
