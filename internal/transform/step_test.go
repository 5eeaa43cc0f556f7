package transform

import (
	"errors"
	"testing"

	"github.com/dshills/inkwell/internal/model"
	. "github.com/dshills/inkwell/internal/model/modeltest"
	"github.com/dshills/inkwell/internal/schema"
)

func TestStepJSONRoundTrip(t *testing.T) {
	base := Doc(P("hello"), H(1, "world")).Node
	text := model.NewSlice(model.FragmentFrom(model.MustText(Schema, "XY")), 0, 0)
	wrap, _ := model.Create(Schema.NodeType(schema.NodeBlockquote), nil, model.EmptyFragment, nil)
	steps := []Step{
		NewReplaceStep(2, 4, text, false),
		NewReplaceAroundStep(0, 7, 0, 7, model.NewSlice(model.FragmentFrom(wrap), 0, 0), 1, true),
		NewAddMarkStep(1, 3, mark(schema.MarkStrong)),
		NewRemoveMarkStep(1, 3, mark(schema.MarkStrong)),
		NewAttrStep(7, "level", 2),
	}
	for _, step := range steps {
		t.Run(step.StepType(), func(t *testing.T) {
			data, err := MarshalStep(step)
			if err != nil {
				t.Fatalf("MarshalStep() error = %v", err)
			}
			decoded, err := UnmarshalStep(Schema, data)
			if err != nil {
				t.Fatalf("UnmarshalStep(%s) error = %v", data, err)
			}
			want, err := step.Apply(base)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			got, err := decoded.Apply(base)
			if err != nil {
				t.Fatalf("decoded Apply() error = %v", err)
			}
			if !got.Eq(want) {
				t.Errorf("decoded step produced %s, want %s", got, want)
			}
		})
	}

	if _, err := UnmarshalStep(Schema, []byte(`{"stepType":"teleport"}`)); !errors.Is(err, ErrUnknownStep) {
		t.Errorf("unknown step error = %v, want ErrUnknownStep", err)
	}
}

func TestReplaceStepMerge(t *testing.T) {
	a := NewReplaceStep(2, 2, model.NewSlice(model.FragmentFrom(model.MustText(Schema, "a")), 0, 0), false)
	b := NewReplaceStep(3, 3, model.NewSlice(model.FragmentFrom(model.MustText(Schema, "b")), 0, 0), false)
	merged, ok := a.Merge(b)
	if !ok {
		t.Fatal("adjacent insertions should merge")
	}
	doc, err := merged.Apply(Doc(P("xy")).Node)
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.String(); got != `doc(paragraph("xaby"))` {
		t.Errorf("merged result = %s", got)
	}
	far := NewReplaceStep(5, 5, model.EmptySlice, false)
	if _, ok := a.Merge(far); ok {
		t.Error("distant steps should not merge")
	}
	structural := NewReplaceStep(3, 3, model.EmptySlice, true)
	if _, ok := a.Merge(structural); ok {
		t.Error("structure steps should not merge")
	}

	m1 := NewAddMarkStep(1, 3, mark(schema.MarkEm))
	m2 := NewAddMarkStep(3, 5, mark(schema.MarkEm))
	mm, ok := m1.Merge(m2)
	if !ok {
		t.Fatal("adjacent mark steps should merge")
	}
	if s := mm.(*AddMarkStep); s.From != 1 || s.To != 5 {
		t.Errorf("merged mark step = %d-%d, want 1-5", s.From, s.To)
	}
}

func TestStepMapThroughDeletion(t *testing.T) {
	add := NewAddMarkStep(3, 5, mark(schema.MarkStrong))
	del := NewMapping(NewStepMap([]int{2, 4, 0}, false))
	if got := add.Map(del); got != nil {
		t.Errorf("mark step over deleted content mapped to %v, want nil", got)
	}
	ins := NewReplaceStep(4, 4, model.EmptySlice, false)
	shifted := ins.Map(NewMapping(OffsetStepMap(2))).(*ReplaceStep)
	if shifted.From != 6 || shifted.To != 6 {
		t.Errorf("shifted step = %d-%d, want 6-6", shifted.From, shifted.To)
	}
}
