package transform

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
)

func mapFragment(f model.Fragment, fn func(child, parent *model.Node) *model.Node, parent *model.Node) model.Fragment {
	mapped := make([]*model.Node, 0, f.ChildCount())
	for _, child := range f.Children() {
		if child.Content().Size() > 0 {
			child = child.Copy(mapFragment(child.Content(), fn, child))
		}
		if child.IsInline() {
			child = fn(child, parent)
		}
		mapped = append(mapped, child)
	}
	return model.FragmentFrom(mapped...)
}

// AddMarkStep adds a mark to all inline content in [From, To).
type AddMarkStep struct {
	From int
	To   int
	Mark *model.Mark
}

// NewAddMarkStep creates an add-mark step.
func NewAddMarkStep(from, to int, mark *model.Mark) *AddMarkStep {
	return &AddMarkStep{From: from, To: to, Mark: mark}
}

// StepType implements Step.
func (s *AddMarkStep) StepType() string { return "addMark" }

// Apply implements Step.
func (s *AddMarkStep) Apply(doc *model.Node) (*model.Node, error) {
	old, err := doc.Slice(s.From, s.To, false)
	if err != nil {
		return nil, stepFailed(s.StepType(), "slice", err)
	}
	rf := doc.MustResolve(s.From)
	parent := rf.Node(rf.SharedDepth(s.To))
	content := mapFragment(old.Content, func(node, parent *model.Node) *model.Node {
		if !node.IsAtom() || !parent.Type().AllowsMarkType(s.Mark.Type()) {
			return node
		}
		return node.Mark(s.Mark.AddToSet(node.Marks()))
	}, parent)
	return applyReplace(s.StepType(), doc, s.From, s.To, model.NewSlice(content, old.OpenStart, old.OpenEnd))
}

// StepMap implements Step.
func (s *AddMarkStep) StepMap() *StepMap { return EmptyStepMap }

// Invert implements Step.
func (s *AddMarkStep) Invert(*model.Node) Step { return NewRemoveMarkStep(s.From, s.To, s.Mark) }

// Map implements Step.
func (s *AddMarkStep) Map(mapping Mappable) Step {
	from, to := mapping.MapResult(s.From, 1), mapping.MapResult(s.To, -1)
	if (from.Deleted() && to.Deleted()) || from.Pos >= to.Pos {
		return nil
	}
	return NewAddMarkStep(from.Pos, to.Pos, s.Mark)
}

// Merge implements Step.
func (s *AddMarkStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*AddMarkStep)
	if ok && o.Mark.Eq(s.Mark) && s.From <= o.To && s.To >= o.From {
		return NewAddMarkStep(min(s.From, o.From), max(s.To, o.To), s.Mark), true
	}
	return nil, false
}

// String returns a debug representation.
func (s *AddMarkStep) String() string {
	return fmt.Sprintf("addMark(%d, %d, %s)", s.From, s.To, s.Mark)
}

type markStepJSON struct {
	From int             `json:"from"`
	To   int             `json:"to"`
	Mark json.RawMessage `json:"mark"`
}

// MarshalJSON implements json.Marshaler.
func (s *AddMarkStep) MarshalJSON() ([]byte, error) {
	return marshalMarkStep(s.From, s.To, s.Mark)
}

func marshalMarkStep(from, to int, mark *model.Mark) ([]byte, error) {
	m, err := json.Marshal(mark)
	if err != nil {
		return nil, err
	}
	return json.Marshal(markStepJSON{From: from, To: to, Mark: m})
}

func decodeMarkStep(sc *schema.Schema, data json.RawMessage) (int, int, *model.Mark, error) {
	var raw markStepJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, 0, nil, fmt.Errorf("%w: %v", model.ErrInvalidJSON, err)
	}
	mark, err := model.MarkFromJSON(sc, raw.Mark)
	if err != nil {
		return 0, 0, nil, err
	}
	return raw.From, raw.To, mark, nil
}

func decodeAddMarkStep(sc *schema.Schema, data json.RawMessage) (Step, error) {
	from, to, mark, err := decodeMarkStep(sc, data)
	if err != nil {
		return nil, err
	}
	return NewAddMarkStep(from, to, mark), nil
}

// RemoveMarkStep removes a mark from all inline content in [From, To).
type RemoveMarkStep struct {
	From int
	To   int
	Mark *model.Mark
}

// NewRemoveMarkStep creates a remove-mark step.
func NewRemoveMarkStep(from, to int, mark *model.Mark) *RemoveMarkStep {
	return &RemoveMarkStep{From: from, To: to, Mark: mark}
}

// StepType implements Step.
func (s *RemoveMarkStep) StepType() string { return "removeMark" }

// Apply implements Step.
func (s *RemoveMarkStep) Apply(doc *model.Node) (*model.Node, error) {
	old, err := doc.Slice(s.From, s.To, false)
	if err != nil {
		return nil, stepFailed(s.StepType(), "slice", err)
	}
	content := mapFragment(old.Content, func(node, _ *model.Node) *model.Node {
		return node.Mark(s.Mark.RemoveFromSet(node.Marks()))
	}, doc)
	return applyReplace(s.StepType(), doc, s.From, s.To, model.NewSlice(content, old.OpenStart, old.OpenEnd))
}

// StepMap implements Step.
func (s *RemoveMarkStep) StepMap() *StepMap { return EmptyStepMap }

// Invert implements Step.
func (s *RemoveMarkStep) Invert(*model.Node) Step { return NewAddMarkStep(s.From, s.To, s.Mark) }

// Map implements Step.
func (s *RemoveMarkStep) Map(mapping Mappable) Step {
	from, to := mapping.MapResult(s.From, 1), mapping.MapResult(s.To, -1)
	if (from.Deleted() && to.Deleted()) || from.Pos >= to.Pos {
		return nil
	}
	return NewRemoveMarkStep(from.Pos, to.Pos, s.Mark)
}

// Merge implements Step.
func (s *RemoveMarkStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*RemoveMarkStep)
	if ok && o.Mark.Eq(s.Mark) && s.From <= o.To && s.To >= o.From {
		return NewRemoveMarkStep(min(s.From, o.From), max(s.To, o.To), s.Mark), true
	}
	return nil, false
}

// String returns a debug representation.
func (s *RemoveMarkStep) String() string {
	return fmt.Sprintf("removeMark(%d, %d, %s)", s.From, s.To, s.Mark)
}

// MarshalJSON implements json.Marshaler.
func (s *RemoveMarkStep) MarshalJSON() ([]byte, error) {
	return marshalMarkStep(s.From, s.To, s.Mark)
}

func decodeRemoveMarkStep(sc *schema.Schema, data json.RawMessage) (Step, error) {
	from, to, mark, err := decodeMarkStep(sc, data)
	if err != nil {
		return nil, err
	}
	return NewRemoveMarkStep(from, to, mark), nil
}

// AttrStep sets a single attribute on the node at Pos.
type AttrStep struct {
	Pos   int
	Attr  string
	Value any
}

// NewAttrStep creates an attribute step.
func NewAttrStep(pos int, attr string, value any) *AttrStep {
	return &AttrStep{Pos: pos, Attr: attr, Value: value}
}

// StepType implements Step.
func (s *AttrStep) StepType() string { return "attr" }

// Apply implements Step.
func (s *AttrStep) Apply(doc *model.Node) (*model.Node, error) {
	node := doc.NodeAt(s.Pos)
	if node == nil || node.IsText() {
		return nil, stepFailed(s.StepType(), fmt.Sprintf("no node at position %d", s.Pos), nil)
	}
	attrs, err := node.Type().ComputeAttrs(node.Attrs().With(s.Attr, s.Value))
	if err != nil {
		return nil, stepFailed(s.StepType(), "attributes", err)
	}
	updated, err := model.Create(node.Type(), attrs, model.EmptyFragment, node.Marks())
	if err != nil {
		return nil, stepFailed(s.StepType(), "attributes", err)
	}
	open := 1
	if node.IsLeaf() {
		open = 0
	}
	return applyReplace(s.StepType(), doc, s.Pos, s.Pos+1, model.NewSlice(model.FragmentFrom(updated), 0, open))
}

// StepMap implements Step.
func (s *AttrStep) StepMap() *StepMap { return EmptyStepMap }

// Invert implements Step.
func (s *AttrStep) Invert(doc *model.Node) Step {
	var old any
	if node := doc.NodeAt(s.Pos); node != nil {
		old = node.Attr(s.Attr)
	}
	return NewAttrStep(s.Pos, s.Attr, old)
}

// Map implements Step.
func (s *AttrStep) Map(mapping Mappable) Step {
	pos := mapping.MapResult(s.Pos, 1)
	if pos.DeletedAfter() {
		return nil
	}
	return NewAttrStep(pos.Pos, s.Attr, s.Value)
}

// Merge implements Step. Attribute steps never merge.
func (s *AttrStep) Merge(Step) (Step, bool) { return nil, false }

// String returns a debug representation.
func (s *AttrStep) String() string {
	return fmt.Sprintf("attr(%d, %s=%v)", s.Pos, s.Attr, s.Value)
}

type attrStepJSON struct {
	Pos   int    `json:"pos"`
	Attr  string `json:"attr"`
	Value any    `json:"value"`
}

// MarshalJSON implements json.Marshaler.
func (s *AttrStep) MarshalJSON() ([]byte, error) {
	return json.Marshal(attrStepJSON{Pos: s.Pos, Attr: s.Attr, Value: s.Value})
}

func decodeAttrStep(_ *schema.Schema, data json.RawMessage) (Step, error) {
	var raw attrStepJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidJSON, err)
	}
	return NewAttrStep(raw.Pos, raw.Attr, raw.Value), nil
}
