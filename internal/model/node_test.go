package model

import (
	"errors"
	"testing"

	"github.com/dshills/inkwell/internal/schema"
)

func TestFragmentJoinsText(t *testing.T) {
	para := p(txt("a"), txt("b"), txt("c", schema.MarkStrong))
	if para.ChildCount() != 2 {
		t.Fatalf("ChildCount = %d, want 2", para.ChildCount())
	}
	if para.Child(0).Text() != "ab" {
		t.Errorf("first child = %q, want ab", para.Child(0).Text())
	}
	if para.NodeSize() != 5 {
		t.Errorf("NodeSize = %d, want 5", para.NodeSize())
	}
}

func TestNodeSizeCountsRunes(t *testing.T) {
	n := txt("héllo✓")
	if n.NodeSize() != 6 {
		t.Errorf("NodeSize = %d, want 6", n.NodeSize())
	}
	if got := n.Cut(1, 2).Text(); got != "é" {
		t.Errorf("Cut = %q", got)
	}
}

func TestNodeString(t *testing.T) {
	d := doc(h(2, txt("T")), p(txt("a"), txt("b", schema.MarkStrong)), hr())
	want := `doc(heading[level=2]("T"), paragraph("a", strong("b")), horizontalRule)`
	if got := d.String(); got != want {
		t.Errorf("String = %s\nwant %s", got, want)
	}
}

func TestResolve(t *testing.T) {
	d := doc(p(txt("ab")), p(txt("cd")))
	tests := []struct {
		pos          int
		depth        int
		parentOffset int
		parent       string
		index        int
	}{
		{0, 0, 0, schema.NodeDoc, 0},
		{1, 1, 0, schema.NodeParagraph, 0},
		{3, 1, 2, schema.NodeParagraph, 1},
		{4, 0, 4, schema.NodeDoc, 1},
		{5, 1, 0, schema.NodeParagraph, 0},
		{8, 0, 8, schema.NodeDoc, 2},
	}
	for _, tt := range tests {
		rp, err := d.Resolve(tt.pos)
		if err != nil {
			t.Fatalf("Resolve(%d): %v", tt.pos, err)
		}
		if rp.Depth() != tt.depth || rp.ParentOffset() != tt.parentOffset || rp.Parent().Type().Name() != tt.parent {
			t.Errorf("Resolve(%d) = depth %d offset %d parent %s", tt.pos, rp.Depth(), rp.ParentOffset(), rp.Parent().Type().Name())
		}
		if rp.Index(rp.Depth()) != tt.index {
			t.Errorf("Resolve(%d).Index = %d, want %d", tt.pos, rp.Index(rp.Depth()), tt.index)
		}
	}
	rp := d.MustResolve(6)
	if rp.Start(1) != 5 || rp.End(1) != 7 || rp.Before(1) != 4 || rp.After(1) != 8 {
		t.Errorf("bounds = %d %d %d %d", rp.Start(1), rp.End(1), rp.Before(1), rp.After(1))
	}
	if rp.TextOffset() != 1 || rp.NodeBefore().Text() != "c" || rp.NodeAfter().Text() != "d" {
		t.Errorf("text around 6 = %d %v %v", rp.TextOffset(), rp.NodeBefore(), rp.NodeAfter())
	}
	if _, err := d.Resolve(9); !errors.Is(err, ErrPositionOutOfRange) {
		t.Errorf("Resolve(9) err = %v", err)
	}
}

func TestNodeAt(t *testing.T) {
	d := doc(p(txt("ab")), hr())
	if n := d.NodeAt(0); n == nil || n.Type().Name() != schema.NodeParagraph {
		t.Errorf("NodeAt(0) = %v", n)
	}
	if n := d.NodeAt(1); n == nil || n.Text() != "ab" {
		t.Errorf("NodeAt(1) = %v", n)
	}
	if n := d.NodeAt(4); n == nil || n.Type().Name() != schema.NodeHorizontalRule {
		t.Errorf("NodeAt(4) = %v", n)
	}
	if n := d.NodeAt(5); n != nil {
		t.Errorf("NodeAt(5) = %v, want nil", n)
	}
}

func TestSlice(t *testing.T) {
	d := doc(p(txt("ab")), p(txt("cd")))
	s, err := d.Slice(2, 6, false)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if s.OpenStart != 1 || s.OpenEnd != 1 {
		t.Errorf("open = %d,%d", s.OpenStart, s.OpenEnd)
	}
	if got := s.String(); got != `<paragraph("b"), paragraph("c")>(1,1)` {
		t.Errorf("slice = %s", got)
	}
	if s.Size() != 4 {
		t.Errorf("Size = %d, want 4", s.Size())
	}
	frag, err := d.SliceBetween(1, 3)
	if err != nil || frag.String() != `<"ab">` {
		t.Errorf("SliceBetween = %v, %v", frag, err)
	}
}

func TestReplace(t *testing.T) {
	tests := []struct {
		name     string
		doc      *Node
		from, to int
		slice    Slice
		want     *Node
	}{
		{
			name: "insert text",
			doc:  doc(p(txt("ab"))),
			from: 2, to: 2,
			slice: NewSlice(FragmentFrom(txt("X")), 0, 0),
			want:  doc(p(txt("aXb"))),
		},
		{
			name: "delete across paragraphs joins them",
			doc:  doc(p(txt("ab")), p(txt("cd"))),
			from: 2, to: 6,
			slice: EmptySlice,
			want:  doc(p(txt("ad"))),
		},
		{
			name: "split paragraph",
			doc:  doc(p(txt("abcd"))),
			from: 3, to: 3,
			slice: NewSlice(FragmentFrom(p(), p()), 1, 1),
			want:  doc(p(txt("ab")), p(txt("cd"))),
		},
		{
			name: "paste open slice",
			doc:  doc(p(txt("xy"))),
			from: 2, to: 2,
			slice: NewSlice(FragmentFrom(p(txt("b")), p(txt("c"))), 1, 1),
			want:  doc(p(txt("xb")), p(txt("cy"))),
		},
		{
			name: "replace whole block",
			doc:  doc(p(txt("a")), p(txt("b"))),
			from: 0, to: 3,
			slice: NewSlice(FragmentFrom(hr()), 0, 0),
			want:  doc(hr(), p(txt("b"))),
		},
		{
			name: "delete inside blockquote",
			doc:  doc(bq(p(txt("one")), p(txt("two")))),
			from: 4, to: 8,
			slice: EmptySlice,
			want:  doc(bq(p(txt("onwo")))),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.doc.Replace(tt.from, tt.to, tt.slice)
			if err != nil {
				t.Fatalf("Replace: %v", err)
			}
			if !got.Eq(tt.want) {
				t.Errorf("Replace = %s\nwant %s", got, tt.want)
			}
			if err := got.Check(); err != nil {
				t.Errorf("result invalid: %v", err)
			}
		})
	}
}

func TestReplaceInvalid(t *testing.T) {
	tests := []struct {
		name     string
		doc      *Node
		from, to int
		slice    Slice
	}{
		{"empty doc", doc(p(txt("ab"))), 0, 4, EmptySlice},
		{"block inside paragraph", doc(p(txt("ab"))), 2, 2, NewSlice(FragmentFrom(p(txt("x"))), 0, 0)},
		{"slice deeper than position", doc(p(txt("ab"))), 0, 0, NewSlice(FragmentFrom(p(txt("x"))), 1, 1)},
		{"inconsistent depths", doc(p(txt("ab")), p(txt("cd"))), 2, 4, EmptySlice},
		{"list item needs paragraph", doc(ul(li(p(txt("a"))))), 2, 5, EmptySlice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.doc.String()
			_, err := tt.doc.Replace(tt.from, tt.to, tt.slice)
			if !errors.Is(err, ErrReplacementInvalid) {
				t.Fatalf("err = %v, want ErrReplacementInvalid", err)
			}
			if tt.doc.String() != before {
				t.Error("original document changed")
			}
		})
	}
}

func TestTextBetween(t *testing.T) {
	d := doc(p(txt("ab")), p(txt("cd")))
	if got := d.TextBetween(0, d.Content().Size(), "\n", nil); got != "ab\ncd" {
		t.Errorf("TextBetween = %q", got)
	}
	if got := d.TextContent(); got != "abcd" {
		t.Errorf("TextContent = %q", got)
	}
}

func TestFindDiffStart(t *testing.T) {
	a := doc(p(txt("abc")))
	b := doc(p(txt("abd")))
	if got := a.Content().FindDiffStart(b.Content(), 0); got != 3 {
		t.Errorf("FindDiffStart = %d, want 3", got)
	}
	if got := a.Content().FindDiffStart(a.Content(), 0); got != -1 {
		t.Errorf("FindDiffStart(equal) = %d, want -1", got)
	}
}

func TestCreateAndFill(t *testing.T) {
	n, err := CreateAndFill(rt.NodeType(schema.NodeBulletList), nil, EmptyFragment, nil)
	if err != nil {
		t.Fatalf("CreateAndFill: %v", err)
	}
	if got := n.String(); got != "bulletList(listItem(paragraph))" {
		t.Errorf("CreateAndFill = %s", got)
	}
}

func TestCheck(t *testing.T) {
	bad := doc(p(txt("a"))).Copy(EmptyFragment)
	if err := bad.Check(); !errors.Is(err, schema.ErrSchemaViolation) {
		t.Errorf("Check = %v, want schema violation", err)
	}
	_, err := NewNode(rt.NodeType(schema.NodeCodeBlock), nil, FragmentFrom(txt("x", schema.MarkStrong)), nil)
	if !errors.Is(err, schema.ErrMarkNotAllowed) {
		t.Errorf("NewNode code block with mark err = %v", err)
	}
}

func TestCanReplace(t *testing.T) {
	item := li(p(txt("a")))
	if item.CanReplace(0, 1, FragmentFrom(h(1)), 0, 1) {
		t.Error("list item cannot start with a heading")
	}
	if !item.CanReplace(1, 1, FragmentFrom(ul(li(p()))), 0, 1) {
		t.Error("list item should accept a nested list")
	}
	if !item.CanReplaceWith(1, 1, rt.NodeType(schema.NodeBlockquote), nil) {
		t.Error("list item should accept a blockquote after the paragraph")
	}
}
