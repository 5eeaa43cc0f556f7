package transform

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
)

// Step is an atomic, invertible document change.
type Step interface {
	// Apply applies the step to doc.
	Apply(doc *model.Node) (*model.Node, error)

	// Invert returns the step that undoes this one. doc is the document
	// the step was applied to.
	Invert(doc *model.Node) Step

	// Map returns the step adjusted to a mapping, or nil when the content
	// it applies to was deleted.
	Map(mapping Mappable) Step

	// StepMap describes how the step moves positions.
	StepMap() *StepMap

	// Merge combines two adjacent steps into one when possible.
	Merge(other Step) (Step, bool)

	// StepType returns the registered JSON type name.
	StepType() string
}

// StepDecoder decodes the JSON form of a step.
type StepDecoder func(s *schema.Schema, data json.RawMessage) (Step, error)

var (
	stepMu       sync.RWMutex
	stepDecoders = map[string]StepDecoder{}
)

// RegisterStep registers a decoder for a step type name. It panics on
// duplicate registration.
func RegisterStep(name string, dec StepDecoder) {
	stepMu.Lock()
	defer stepMu.Unlock()
	if _, dup := stepDecoders[name]; dup {
		panic("transform: duplicate step type " + name)
	}
	stepDecoders[name] = dec
}

type stepEnvelope struct {
	StepType string `json:"stepType"`
}

// MarshalStep encodes a step with its type tag.
func MarshalStep(step Step) ([]byte, error) {
	body, err := json.Marshal(step)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, _ := json.Marshal(step.StepType())
	fields["stepType"] = tag
	return json.Marshal(fields)
}

// UnmarshalStep decodes a step produced by MarshalStep.
func UnmarshalStep(s *schema.Schema, data []byte) (Step, error) {
	var env stepEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidJSON, err)
	}
	stepMu.RLock()
	dec, ok := stepDecoders[env.StepType]
	stepMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, env.StepType)
	}
	return dec(s, data)
}

func init() {
	RegisterStep("replace", decodeReplaceStep)
	RegisterStep("replaceAround", decodeReplaceAroundStep)
	RegisterStep("addMark", decodeAddMarkStep)
	RegisterStep("removeMark", decodeRemoveMarkStep)
	RegisterStep("attr", decodeAttrStep)
}

// applyReplace applies a replacement, wrapping failures as step errors.
func applyReplace(name string, doc *model.Node, from, to int, slice model.Slice) (*model.Node, error) {
	out, err := doc.Replace(from, to, slice)
	if err != nil {
		return nil, stepFailed(name, "replace", err)
	}
	return out, nil
}
