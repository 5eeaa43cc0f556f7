package transform

import (
	"errors"
	"testing"

	"github.com/dshills/inkwell/internal/model"
	. "github.com/dshills/inkwell/internal/model/modeltest"
	"github.com/dshills/inkwell/internal/schema"
)

func mark(name string) *model.Mark { return model.MustMark(Schema.MarkType(name), nil) }

func nodeType(name string) *schema.NodeType { return Schema.NodeType(name) }

// checkInverse applies the inverted steps of tr to its result and
// compares with the starting document.
func checkInverse(t *testing.T, tr *Transform) {
	t.Helper()
	doc := tr.Doc()
	for i := len(tr.Steps()) - 1; i >= 0; i-- {
		inv := tr.Steps()[i].Invert(tr.Docs()[i])
		next, err := inv.Apply(doc)
		if err != nil {
			t.Fatalf("inverse of step %d failed: %v", i, err)
		}
		doc = next
	}
	if !doc.Eq(tr.Before()) {
		t.Errorf("inverse result = %s, want %s", doc, tr.Before())
	}
}

// checkMapping maps every position of the starting document and requires
// the results to be in range.
func checkMapping(t *testing.T, tr *Transform) {
	t.Helper()
	size := tr.Doc().Content().Size()
	for pos := 0; pos <= tr.Before().Content().Size(); pos++ {
		for _, assoc := range []int{-1, 1} {
			if got := tr.Mapping().Map(pos, assoc); got < 0 || got > size {
				t.Errorf("Map(%d, %d) = %d, outside [0, %d]", pos, assoc, got, size)
			}
		}
	}
}

func TestTransforms(t *testing.T) {
	tests := []struct {
		name string
		doc  *Tagged
		run  func(tr *Transform, d *Tagged) error
		want string
	}{
		{
			name: "insert text",
			doc:  Doc(P("a<a>c")),
			run:  func(tr *Transform, d *Tagged) error { return tr.InsertText(d.Tag("a"), "b", nil) },
			want: `doc(paragraph("abc"))`,
		},
		{
			name: "replace text keeps marks",
			doc:  Doc(P(Strong("a<a>bc<b>d"))),
			run: func(tr *Transform, d *Tagged) error {
				return tr.ReplaceText(d.Tag("a"), d.Tag("b"), "X", nil)
			},
			want: `doc(paragraph(strong("aXd")))`,
		},
		{
			name: "delete joins paragraphs",
			doc:  Doc(P("a<a>b"), P("c<b>d")),
			run:  func(tr *Transform, d *Tagged) error { return tr.Delete(d.Tag("a"), d.Tag("b")) },
			want: `doc(paragraph("ad"))`,
		},
		{
			name: "delete across incompatible blocks",
			doc:  Doc(P("a<a>b"), Blockquote(P("c<b>d"))),
			run:  func(tr *Transform, d *Tagged) error { return tr.Delete(d.Tag("a"), d.Tag("b")) },
			want: `doc(paragraph("a"), blockquote(paragraph("d")))`,
		},
		{
			name: "add mark",
			doc:  Doc(P("<a>hello<b> world")),
			run: func(tr *Transform, d *Tagged) error {
				return tr.AddMark(d.Tag("a"), d.Tag("b"), mark(schema.MarkStrong))
			},
			want: `doc(paragraph(strong("hello"), " world"))`,
		},
		{
			name: "code replaces excluded marks",
			doc:  Doc(P(Strong("<a>hello<b>"), " world")),
			run: func(tr *Transform, d *Tagged) error {
				return tr.AddMark(d.Tag("a"), d.Tag("b"), mark(schema.MarkCode))
			},
			want: `doc(paragraph(code("hello"), " world"))`,
		},
		{
			name: "remove mark",
			doc:  Doc(P(Strong("he<a>llo"), Strong(" wo<b>rld"))),
			run: func(tr *Transform, d *Tagged) error {
				return tr.RemoveMark(d.Tag("a"), d.Tag("b"), mark(schema.MarkStrong))
			},
			want: `doc(paragraph(strong("he"), "llo wo", strong("rld")))`,
		},
		{
			name: "clear marks",
			doc:  Doc(P(Strong(Em("<a>ab")), Code("cd<b>"))),
			run:  func(tr *Transform, d *Tagged) error { return tr.ClearMarks(d.Tag("a"), d.Tag("b")) },
			want: `doc(paragraph("abcd"))`,
		},
		{
			name: "split paragraph",
			doc:  Doc(P("ab<a>cd")),
			run:  func(tr *Transform, d *Tagged) error { return tr.Split(d.Tag("a"), 1, nil) },
			want: `doc(paragraph("ab"), paragraph("cd"))`,
		},
		{
			name: "split list item",
			doc:  Doc(BulletList(ListItem(P("ab<a>cd")))),
			run:  func(tr *Transform, d *Tagged) error { return tr.Split(d.Tag("a"), 2, nil) },
			want: `doc(bulletList(listItem(paragraph("ab")), listItem(paragraph("cd"))))`,
		},
		{
			name: "split into heading and paragraph",
			doc:  Doc(H(1, "ab<a>cd")),
			run: func(tr *Transform, d *Tagged) error {
				return tr.Split(d.Tag("a"), 1, []*Wrapping{{Type: nodeType(schema.NodeParagraph)}})
			},
			want: `doc(heading("ab"), paragraph("cd"))`,
		},
		{
			name: "join paragraphs",
			doc:  Doc(P("ab"), "<a>", P("cd")),
			run:  func(tr *Transform, d *Tagged) error { return tr.Join(d.Tag("a"), 1) },
			want: `doc(paragraph("abcd"))`,
		},
		{
			name: "wrap in blockquote",
			doc:  Doc(P("<a>one"), P("two")),
			run: func(tr *Transform, d *Tagged) error {
				rp := tr.Doc().MustResolve(d.Tag("a"))
				r := rp.BlockRange(nil, nil)
				w := FindWrapping(r, nodeType(schema.NodeBlockquote), nil, nil)
				if w == nil {
					return errors.New("no wrapping")
				}
				return tr.Wrap(r, w)
			},
			want: `doc(blockquote(paragraph("one")), paragraph("two"))`,
		},
		{
			name: "wrap in list",
			doc:  Doc(P("<a>one")),
			run: func(tr *Transform, d *Tagged) error {
				rp := tr.Doc().MustResolve(d.Tag("a"))
				r := rp.BlockRange(nil, nil)
				w := FindWrapping(r, nodeType(schema.NodeBulletList), nil, nil)
				if w == nil {
					return errors.New("no wrapping")
				}
				return tr.Wrap(r, w)
			},
			want: `doc(bulletList(listItem(paragraph("one"))))`,
		},
		{
			name: "lift out of blockquote",
			doc:  Doc(Blockquote(P("<a>one"))),
			run: func(tr *Transform, d *Tagged) error {
				r := tr.Doc().MustResolve(d.Tag("a")).BlockRange(nil, nil)
				target, ok := LiftTarget(r)
				if !ok {
					return errors.New("no lift target")
				}
				return tr.Lift(r, target)
			},
			want: `doc(paragraph("one"))`,
		},
		{
			name: "lift middle paragraph splits blockquote",
			doc:  Doc(Blockquote(P("one"), P("<a>two"), P("three"))),
			run: func(tr *Transform, d *Tagged) error {
				r := tr.Doc().MustResolve(d.Tag("a")).BlockRange(nil, nil)
				target, ok := LiftTarget(r)
				if !ok {
					return errors.New("no lift target")
				}
				return tr.Lift(r, target)
			},
			want: `doc(blockquote(paragraph("one")), paragraph("two"), blockquote(paragraph("three")))`,
		},
		{
			name: "set block type",
			doc:  Doc(P("<a>one"), P("two<b>")),
			run: func(tr *Transform, d *Tagged) error {
				return tr.SetBlockType(d.Tag("a"), d.Tag("b"), nodeType(schema.NodeHeading), schema.Attrs{"level": 2}, nil)
			},
			want: `doc(heading[level=2]("one"), heading[level=2]("two"))`,
		},
		{
			name: "code block drops marks",
			doc:  Doc(P("<a>a", Strong("b"))),
			run: func(tr *Transform, d *Tagged) error {
				return tr.SetBlockType(d.Tag("a"), d.Tag("a"), nodeType(schema.NodeCodeBlock), nil, nil)
			},
			want: `doc(codeBlock("ab"))`,
		},
		{
			name: "set node attribute",
			doc:  Doc("<a>", H(1, "x")),
			run: func(tr *Transform, d *Tagged) error {
				return tr.SetNodeAttribute(d.Tag("a"), "level", 3)
			},
			want: `doc(heading[level=3]("x"))`,
		},
		{
			name: "set node markup",
			doc:  Doc("<a>", P("x")),
			run: func(tr *Transform, d *Tagged) error {
				return tr.SetNodeMarkup(d.Tag("a"), nodeType(schema.NodeHeading), schema.Attrs{"level": 2}, nil)
			},
			want: `doc(heading[level=2]("x"))`,
		},
		{
			name: "replace range with block",
			doc:  Doc(P("ab<a>cd")),
			run: func(tr *Transform, d *Tagged) error {
				return tr.ReplaceRangeWith(d.Tag("a"), d.Tag("a"), HR())
			},
			want: `doc(paragraph("ab"), horizontalRule, paragraph("cd"))`,
		},
		{
			name: "replace empty textblock with block",
			doc:  Doc(P("a"), P("<a>")),
			run: func(tr *Transform, d *Tagged) error {
				return tr.ReplaceRangeWith(d.Tag("a"), d.Tag("a"), HR())
			},
			want: `doc(paragraph("a"), horizontalRule)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(tt.doc.Node)
			if err := tt.run(tr, tt.doc); err != nil {
				t.Fatalf("error = %v", err)
			}
			if got := tr.Doc().String(); got != tt.want {
				t.Errorf("doc = %s, want %s", got, tt.want)
			}
			if err := tr.Doc().Check(); err != nil {
				t.Errorf("result is invalid: %v", err)
			}
			checkInverse(t, tr)
			checkMapping(t, tr)
		})
	}
}

func TestTransformFailureLeavesDocument(t *testing.T) {
	d := Doc(P("ab"))
	tr := New(d.Node)
	err := tr.Step(NewReplaceStep(1, 2, model.NewSlice(model.FragmentFrom(HR()), 0, 0), false))
	if !errors.Is(err, ErrStepFailed) || !errors.Is(err, model.ErrReplacementInvalid) {
		t.Fatalf("Step() error = %v, want step failure", err)
	}
	if tr.DocChanged() || !tr.Doc().Eq(d.Node) {
		t.Error("failed step changed the transform")
	}
	if err := tr.Join(2, 1); err == nil {
		t.Error("Join() inside a text block should fail")
	}
	if CanJoin(d.Node, 2) {
		t.Error("CanJoin() = true inside a text block")
	}
}

func TestCheckpointRollback(t *testing.T) {
	tr := New(Doc(P("abc")).Node)
	if err := tr.InsertText(1, "x", nil); err != nil {
		t.Fatal(err)
	}
	cp := tr.Checkpoint()
	if err := tr.InsertText(1, "y", nil); err != nil {
		t.Fatal(err)
	}
	tr.Rollback(cp)
	if got := tr.Doc().String(); got != `doc(paragraph("xabc"))` {
		t.Errorf("doc = %s", got)
	}
	if len(tr.Steps()) != 1 || tr.Mapping().Len() != 1 {
		t.Errorf("steps = %d, maps = %d, want 1", len(tr.Steps()), tr.Mapping().Len())
	}
	tr.Freeze()
	if err := tr.InsertText(1, "z", nil); !errors.Is(err, ErrFrozen) {
		t.Errorf("InsertText() on frozen transform error = %v", err)
	}
}

func TestChangedRange(t *testing.T) {
	tr := New(Doc(P("abcdef")).Node)
	if _, _, ok := tr.ChangedRange(); ok {
		t.Error("empty transform reported a change")
	}
	if err := tr.InsertText(2, "X", nil); err != nil {
		t.Fatal(err)
	}
	if err := tr.Delete(6, 7); err != nil {
		t.Fatal(err)
	}
	from, to, ok := tr.ChangedRange()
	if !ok || from != 2 || to != 6 {
		t.Errorf("ChangedRange() = %d, %d, %v, want 2, 6, true", from, to, ok)
	}
}

func TestCanSplit(t *testing.T) {
	d := Doc(P("ab<a>cd"), Table(Row(Cell(P("x<b>y")))))
	if !CanSplit(d.Node, d.Tag("a"), 1, nil) {
		t.Error("CanSplit() in paragraph = false")
	}
	if CanSplit(d.Node, d.Tag("a"), 2, nil) {
		t.Error("CanSplit() past the document = true")
	}
	if CanSplit(d.Node, d.Tag("b"), 2, nil) {
		t.Error("CanSplit() through an isolating cell = true")
	}
}

func TestInsertPoint(t *testing.T) {
	d := Doc(P("<a>ab<b>c<c>"))
	hr := nodeType(schema.NodeHorizontalRule)
	tests := []struct {
		name string
		pos  int
		want int
	}{
		{"start of paragraph", d.Tag("a"), 0},
		{"middle", d.Tag("b"), -1},
		{"end of paragraph", d.Tag("c"), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InsertPoint(d.Node, tt.pos, hr); got != tt.want {
				t.Errorf("InsertPoint() = %d, want %d", got, tt.want)
			}
		})
	}
}
