package state

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
)

// Config configures a new State.
type Config struct {
	// Schema is used to create an empty document when Doc is nil.
	Schema *schema.Schema
	// Doc is the initial document.
	Doc *model.Node
	// Selection defaults to the start of the document.
	Selection Selection
	// StoredMarks are queued for the first typed text.
	StoredMarks []*model.Mark
}

// State is an immutable editor state.
type State struct {
	id          string
	schema      *schema.Schema
	doc         *model.Node
	selection   Selection
	storedMarks []*model.Mark
}

// New creates a state from cfg.
func New(cfg Config) (*State, error) {
	doc := cfg.Doc
	sc := cfg.Schema
	switch {
	case doc == nil && sc == nil:
		return nil, fmt.Errorf("state: schema or document required")
	case doc == nil:
		var err error
		doc, err = model.CreateAndFill(sc.TopNodeType(), nil, model.EmptyFragment, nil)
		if err != nil {
			return nil, fmt.Errorf("state: create document: %w", err)
		}
	case sc == nil:
		sc = doc.Type().Schema()
	}
	sel := cfg.Selection
	if sel == nil {
		sel = AtStart(doc)
	}
	return &State{
		id:          uuid.New().String(),
		schema:      sc,
		doc:         doc,
		selection:   sel,
		storedMarks: cfg.StoredMarks,
	}, nil
}

// ID returns the unique identifier of this state version.
func (s *State) ID() string { return s.id }

// Schema returns the document schema.
func (s *State) Schema() *schema.Schema { return s.schema }

// Doc returns the document.
func (s *State) Doc() *model.Node { return s.doc }

// Selection returns the selection.
func (s *State) Selection() Selection { return s.selection }

// StoredMarks returns the marks queued for the next typed text, or nil.
func (s *State) StoredMarks() []*model.Mark { return s.storedMarks }

// Tr starts a transaction on this state.
func (s *State) Tr() *Transaction { return newTransaction(s) }

// Apply applies tr and returns the resulting state. tr is frozen
// afterwards.
func (s *State) Apply(tr *Transaction) (*State, error) {
	if tr.appliedState != nil {
		return nil, ErrAlreadyApplied
	}
	if tr.base != s {
		return nil, fmt.Errorf("%w: created from %s, applied to %s", ErrStaleBaseState, tr.base.id, s.id)
	}
	sel := tr.Selection()
	var marks []*model.Mark
	if ts, ok := sel.(*TextSelection); ok && ts.Empty() {
		marks = tr.StoredMarks()
	}
	next := &State{
		id:          uuid.New().String(),
		schema:      s.schema,
		doc:         tr.Doc(),
		selection:   sel,
		storedMarks: marks,
	}
	tr.Freeze()
	tr.appliedState = next
	return next, nil
}

// Result returns the state produced by applying tr, or nil.
func (tr *Transaction) Result() *State { return tr.appliedState }

type stateJSON struct {
	Doc         json.RawMessage   `json:"doc"`
	Selection   json.RawMessage   `json:"selection"`
	StoredMarks []json.RawMessage `json:"storedMarks,omitempty"`
}

// MarshalJSON encodes the document, selection and stored marks.
func (s *State) MarshalJSON() ([]byte, error) {
	doc, err := json.Marshal(s.doc)
	if err != nil {
		return nil, err
	}
	sel, err := MarshalSelection(s.selection)
	if err != nil {
		return nil, err
	}
	out := stateJSON{Doc: doc, Selection: sel}
	for _, m := range s.storedMarks {
		data, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		out.StoredMarks = append(out.StoredMarks, data)
	}
	return json.Marshal(out)
}

// FromJSON decodes a state encoded with MarshalJSON.
func FromJSON(sc *schema.Schema, data []byte) (*State, error) {
	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("state: decode: %w", err)
	}
	doc, err := model.NodeFromJSON(sc, raw.Doc)
	if err != nil {
		return nil, err
	}
	cfg := Config{Schema: sc, Doc: doc}
	if len(raw.Selection) > 0 {
		sel, err := UnmarshalSelection(doc, raw.Selection)
		if err != nil {
			return nil, err
		}
		cfg.Selection = sel
	}
	for _, m := range raw.StoredMarks {
		mark, err := model.MarkFromJSON(sc, m)
		if err != nil {
			return nil, err
		}
		cfg.StoredMarks = append(cfg.StoredMarks, mark)
	}
	return New(cfg)
}
