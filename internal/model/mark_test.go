package model

import (
	"errors"
	"testing"

	"github.com/dshills/inkwell/internal/schema"
)

func mk(name string) *Mark { return MustMark(rt.MarkType(name), nil) }

func link(href string) *Mark {
	return MustMark(rt.MarkType(schema.MarkLink), schema.Attrs{"href": href})
}

func markNames(set []*Mark) []string {
	out := make([]string, len(set))
	for i, m := range set {
		out[i] = m.Type().Name()
	}
	return out
}

func sameNames(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMarkAddToSet(t *testing.T) {
	tests := []struct {
		name string
		set  []*Mark
		add  *Mark
		want []string
	}{
		{"into empty", nil, mk(schema.MarkStrong), []string{schema.MarkStrong}},
		{"rank order", []*Mark{mk(schema.MarkStrong)}, mk(schema.MarkEm), []string{schema.MarkEm, schema.MarkStrong}},
		{"already present", []*Mark{mk(schema.MarkEm)}, mk(schema.MarkEm), []string{schema.MarkEm}},
		{"code removes emphasis", []*Mark{link("x"), mk(schema.MarkEm), mk(schema.MarkStrong)}, mk(schema.MarkCode), []string{schema.MarkLink, schema.MarkCode}},
		{"code blocks strong", []*Mark{mk(schema.MarkCode)}, mk(schema.MarkStrong), []string{schema.MarkCode}},
		{"sup replaces sub", []*Mark{mk(schema.MarkSub)}, mk(schema.MarkSup), []string{schema.MarkSup}},
		{"link replaces link", []*Mark{link("a")}, link("b"), []string{schema.MarkLink}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.add.AddToSet(tt.set)
			if !sameNames(markNames(got), tt.want...) {
				t.Errorf("AddToSet = %v, want %v", markNames(got), tt.want)
			}
		})
	}
	replaced := link("b").AddToSet([]*Mark{link("a")})
	if replaced[0].Attrs().String("href") != "b" {
		t.Errorf("href = %v, want b", replaced[0].Attr("href"))
	}
}

func TestMarkRemoveFromSet(t *testing.T) {
	set := []*Mark{mk(schema.MarkEm), mk(schema.MarkStrong)}
	got := mk(schema.MarkEm).RemoveFromSet(set)
	if !sameNames(markNames(got), schema.MarkStrong) {
		t.Errorf("RemoveFromSet = %v", markNames(got))
	}
	if len(set) != 2 {
		t.Error("original set modified")
	}
	if got := RemoveMarkType(rt.MarkType(schema.MarkStrong), set); !sameNames(markNames(got), schema.MarkEm) {
		t.Errorf("RemoveMarkType = %v", markNames(got))
	}
	if FindMark(rt.MarkType(schema.MarkCode), set) != nil {
		t.Error("FindMark should not find code")
	}
}

func TestResolvedMarks(t *testing.T) {
	strong := mk(schema.MarkStrong)
	d := doc(p(MustText(rt, "ab", strong), txt("cd")))
	if got := markNames(d.MustResolve(3).Marks()); !sameNames(got, schema.MarkStrong) {
		t.Errorf("marks at end of strong = %v", got)
	}
	if got := markNames(d.MustResolve(1).Marks()); !sameNames(got, schema.MarkStrong) {
		t.Errorf("marks at start = %v", got)
	}
	if got := d.MustResolve(4).Marks(); len(got) != 0 {
		t.Errorf("marks inside plain text = %v", markNames(got))
	}

	l := doc(p(MustText(rt, "ab", link("x")), txt("cd")))
	if got := l.MustResolve(3).Marks(); len(got) != 0 {
		t.Errorf("link should not extend past its end, got %v", markNames(got))
	}
	if got := markNames(l.MustResolve(2).Marks()); !sameNames(got, schema.MarkLink) {
		t.Errorf("marks inside link = %v", got)
	}
}

func TestRangeHasMark(t *testing.T) {
	d := doc(p(txt("a"), txt("b", schema.MarkEm), txt("c")))
	em := rt.MarkType(schema.MarkEm)
	if !d.RangeHasMark(1, 4, em) {
		t.Error("range should contain em")
	}
	if d.RangeHasMark(1, 2, em) {
		t.Error("first character has no em")
	}
}

func TestNewMarkValidatesAttrs(t *testing.T) {
	if _, err := NewMark(rt.MarkType(schema.MarkLink), nil); !errors.Is(err, schema.ErrMissingAttr) {
		t.Errorf("NewMark(link) err = %v", err)
	}
}
