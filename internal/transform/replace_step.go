package transform

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
)

// ReplaceStep replaces [From, To) with Slice. A structure step refuses to
// overwrite content and only moves node boundaries.
type ReplaceStep struct {
	From      int
	To        int
	Slice     model.Slice
	Structure bool
}

// NewReplaceStep creates a replace step.
func NewReplaceStep(from, to int, slice model.Slice, structure bool) *ReplaceStep {
	return &ReplaceStep{From: from, To: to, Slice: slice, Structure: structure}
}

// StepType implements Step.
func (s *ReplaceStep) StepType() string { return "replace" }

// Apply implements Step.
func (s *ReplaceStep) Apply(doc *model.Node) (*model.Node, error) {
	if s.Structure && contentBetween(doc, s.From, s.To) {
		return nil, stepFailed(s.StepType(), "structure replace would overwrite content", nil)
	}
	return applyReplace(s.StepType(), doc, s.From, s.To, s.Slice)
}

// StepMap implements Step.
func (s *ReplaceStep) StepMap() *StepMap {
	return NewStepMap([]int{s.From, s.To - s.From, s.Slice.Size()}, false)
}

// Invert implements Step.
func (s *ReplaceStep) Invert(doc *model.Node) Step {
	old, err := doc.Slice(s.From, s.To, false)
	if err != nil {
		old = model.EmptySlice
	}
	return NewReplaceStep(s.From, s.From+s.Slice.Size(), old, false)
}

// Map implements Step.
func (s *ReplaceStep) Map(mapping Mappable) Step {
	from, to := mapping.MapResult(s.From, 1), mapping.MapResult(s.To, -1)
	if from.DeletedAcross() && to.DeletedAcross() {
		return nil
	}
	return NewReplaceStep(from.Pos, max(from.Pos, to.Pos), s.Slice, s.Structure)
}

// Merge implements Step.
func (s *ReplaceStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*ReplaceStep)
	if !ok || o.Structure || s.Structure {
		return nil, false
	}
	switch {
	case s.From+s.Slice.Size() == o.From && s.Slice.OpenEnd == 0 && o.Slice.OpenStart == 0:
		slice := model.EmptySlice
		if s.Slice.Size()+o.Slice.Size() != 0 {
			slice = model.NewSlice(s.Slice.Content.Append(o.Slice.Content), s.Slice.OpenStart, o.Slice.OpenEnd)
		}
		return NewReplaceStep(s.From, s.To+(o.To-o.From), slice, false), true
	case o.To == s.From && s.Slice.OpenStart == 0 && o.Slice.OpenEnd == 0:
		slice := model.EmptySlice
		if s.Slice.Size()+o.Slice.Size() != 0 {
			slice = model.NewSlice(o.Slice.Content.Append(s.Slice.Content), o.Slice.OpenStart, s.Slice.OpenEnd)
		}
		return NewReplaceStep(o.From, s.To, slice, false), true
	}
	return nil, false
}

// String returns a debug representation.
func (s *ReplaceStep) String() string {
	return fmt.Sprintf("replace(%d, %d, %s)", s.From, s.To, s.Slice)
}

type replaceStepJSON struct {
	From      int             `json:"from"`
	To        int             `json:"to"`
	Slice     json.RawMessage `json:"slice,omitempty"`
	Structure bool            `json:"structure,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s *ReplaceStep) MarshalJSON() ([]byte, error) {
	slice, err := encodeSlice(s.Slice)
	if err != nil {
		return nil, err
	}
	return json.Marshal(replaceStepJSON{From: s.From, To: s.To, Slice: slice, Structure: s.Structure})
}

func decodeReplaceStep(sc *schema.Schema, data json.RawMessage) (Step, error) {
	var raw replaceStepJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidJSON, err)
	}
	slice, err := decodeSlice(sc, raw.Slice)
	if err != nil {
		return nil, err
	}
	return NewReplaceStep(raw.From, raw.To, slice, raw.Structure), nil
}

// ReplaceAroundStep replaces [From, To) with Slice while keeping the
// content of [GapFrom, GapTo), which is inserted into the slice at offset
// Insert. It is used to wrap, unwrap and retype nodes.
type ReplaceAroundStep struct {
	From      int
	To        int
	GapFrom   int
	GapTo     int
	Slice     model.Slice
	Insert    int
	Structure bool
}

// NewReplaceAroundStep creates a replace-around step.
func NewReplaceAroundStep(from, to, gapFrom, gapTo int, slice model.Slice, insert int, structure bool) *ReplaceAroundStep {
	return &ReplaceAroundStep{From: from, To: to, GapFrom: gapFrom, GapTo: gapTo, Slice: slice, Insert: insert, Structure: structure}
}

// StepType implements Step.
func (s *ReplaceAroundStep) StepType() string { return "replaceAround" }

// Apply implements Step.
func (s *ReplaceAroundStep) Apply(doc *model.Node) (*model.Node, error) {
	if s.Structure && (contentBetween(doc, s.From, s.GapFrom) || contentBetween(doc, s.GapTo, s.To)) {
		return nil, stepFailed(s.StepType(), "structure gap-replace would overwrite content", nil)
	}
	gap, err := doc.Slice(s.GapFrom, s.GapTo, false)
	if err != nil {
		return nil, stepFailed(s.StepType(), "gap", err)
	}
	if gap.OpenStart != 0 || gap.OpenEnd != 0 {
		return nil, stepFailed(s.StepType(), "gap is not a flat range", nil)
	}
	inserted, ok := s.Slice.InsertAt(s.Insert, gap.Content)
	if !ok {
		return nil, stepFailed(s.StepType(), "content does not fit in gap", nil)
	}
	return applyReplace(s.StepType(), doc, s.From, s.To, inserted)
}

// StepMap implements Step.
func (s *ReplaceAroundStep) StepMap() *StepMap {
	return NewStepMap([]int{
		s.From, s.GapFrom - s.From, s.Insert,
		s.GapTo, s.To - s.GapTo, s.Slice.Size() - s.Insert,
	}, false)
}

// Invert implements Step.
func (s *ReplaceAroundStep) Invert(doc *model.Node) Step {
	gap := s.GapTo - s.GapFrom
	old, err := doc.Slice(s.From, s.To, false)
	if err == nil {
		old, err = old.RemoveBetween(s.GapFrom-s.From, s.GapTo-s.From)
	}
	if err != nil {
		old = model.EmptySlice
	}
	return NewReplaceAroundStep(s.From, s.From+s.Slice.Size()+gap, s.From+s.Insert, s.From+s.Insert+gap,
		old, s.GapFrom-s.From, s.Structure)
}

// Map implements Step.
func (s *ReplaceAroundStep) Map(mapping Mappable) Step {
	from, to := mapping.MapResult(s.From, 1), mapping.MapResult(s.To, -1)
	gapFrom := mapping.Map(s.GapFrom, -1)
	if s.From == s.GapFrom {
		gapFrom = from.Pos
	}
	gapTo := mapping.Map(s.GapTo, 1)
	if s.To == s.GapTo {
		gapTo = to.Pos
	}
	if (from.DeletedAcross() && to.DeletedAcross()) || gapFrom < from.Pos || gapTo > to.Pos {
		return nil
	}
	return NewReplaceAroundStep(from.Pos, to.Pos, gapFrom, gapTo, s.Slice, s.Insert, s.Structure)
}

// Merge implements Step. Replace-around steps never merge.
func (s *ReplaceAroundStep) Merge(Step) (Step, bool) { return nil, false }

// String returns a debug representation.
func (s *ReplaceAroundStep) String() string {
	return fmt.Sprintf("replaceAround(%d, %d, gap %d-%d, %s@%d)", s.From, s.To, s.GapFrom, s.GapTo, s.Slice, s.Insert)
}

type replaceAroundStepJSON struct {
	From      int             `json:"from"`
	To        int             `json:"to"`
	GapFrom   int             `json:"gapFrom"`
	GapTo     int             `json:"gapTo"`
	Insert    int             `json:"insert"`
	Slice     json.RawMessage `json:"slice,omitempty"`
	Structure bool            `json:"structure,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s *ReplaceAroundStep) MarshalJSON() ([]byte, error) {
	slice, err := encodeSlice(s.Slice)
	if err != nil {
		return nil, err
	}
	return json.Marshal(replaceAroundStepJSON{
		From: s.From, To: s.To, GapFrom: s.GapFrom, GapTo: s.GapTo,
		Insert: s.Insert, Slice: slice, Structure: s.Structure,
	})
}

func decodeReplaceAroundStep(sc *schema.Schema, data json.RawMessage) (Step, error) {
	var raw replaceAroundStepJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidJSON, err)
	}
	slice, err := decodeSlice(sc, raw.Slice)
	if err != nil {
		return nil, err
	}
	return NewReplaceAroundStep(raw.From, raw.To, raw.GapFrom, raw.GapTo, slice, raw.Insert, raw.Structure), nil
}

func encodeSlice(s model.Slice) (json.RawMessage, error) {
	if s.Content.Size() == 0 && s.Content.ChildCount() == 0 {
		return nil, nil
	}
	return json.Marshal(s)
}

func decodeSlice(sc *schema.Schema, data json.RawMessage) (model.Slice, error) {
	if len(data) == 0 {
		return model.EmptySlice, nil
	}
	return model.SliceFromJSON(sc, data)
}

// contentBetween reports whether [from, to) contains anything besides
// node boundaries.
func contentBetween(doc *model.Node, from, to int) bool {
	rf, err := doc.Resolve(from)
	if err != nil {
		return true
	}
	dist, depth := to-from, rf.Depth()
	for dist > 0 && depth > 0 && rf.IndexAfter(depth) == rf.Node(depth).ChildCount() {
		depth--
		dist--
	}
	if dist > 0 {
		next := rf.Node(depth).MaybeChild(rf.IndexAfter(depth))
		for dist > 0 {
			if next == nil || next.IsLeaf() {
				return true
			}
			next = next.FirstChild()
			dist--
		}
	}
	return false
}
