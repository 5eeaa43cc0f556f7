package block

import (
	"github.com/dshills/inkwell/internal/commands"
	"github.com/dshills/inkwell/internal/dispatcher/handler"
	"github.com/dshills/inkwell/internal/input"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
)

// Action IDs for block commands.
const (
	ActionSetParagraph      = "SetParagraph"
	ActionSetHeadingLevel   = "SetHeadingLevel"
	ActionToggleHeading     = "ToggleHeading"
	ActionToggleBlockquote  = "ToggleBlockquote"
	ActionToggleContainer   = "ToggleContainer"
	ActionToggleBulletList  = "ToggleBulletList"
	ActionToggleOrderedList = "ToggleOrderedList"
	ActionToggleTaskList    = "ToggleTaskList"
	ActionSinkListItem      = "SinkListItem"
	ActionLiftListItem      = "LiftListItem"
	ActionSplitListItem     = "SplitListItem"
	ActionToggleTaskItem    = "ToggleTaskItem"
)

// MaxHeadingLevel is the deepest heading level.
const MaxHeadingLevel = 6

// Handlers returns the block handlers.
func Handlers() []handler.Handler {
	return []handler.Handler{
		handler.Command(ActionSetParagraph, setParagraph, nodeActive(schema.NodeParagraph)),
		handler.Command(ActionSetHeadingLevel, setHeading, headingActive(0)),
		handler.Command(ActionToggleHeading, toggleHeading, headingActive(1)),
		handler.Command(ActionToggleBlockquote, toggleBlockquote, nodeActive(schema.NodeBlockquote)),
		handler.Command(ActionToggleContainer, toggleContainer, containerActive),
		handler.Command(ActionToggleBulletList, toggleList(schema.NodeBulletList, schema.NodeListItem), nodeActive(schema.NodeBulletList)),
		handler.Command(ActionToggleOrderedList, toggleList(schema.NodeOrderedList, schema.NodeListItem), nodeActive(schema.NodeOrderedList)),
		handler.Command(ActionToggleTaskList, toggleList(schema.NodeTaskList, schema.NodeTaskItem), nodeActive(schema.NodeTaskList)),
		handler.Command(ActionSinkListItem, eachItem(commands.SinkListItem), nil),
		handler.Command(ActionLiftListItem, eachItem(commands.LiftListItem), nil),
		handler.Command(ActionSplitListItem, eachItem(commands.SplitListItem), nil),
		handler.Command(ActionToggleTaskItem, toggleTaskItem, taskChecked),
	}
}

func nodeActive(name string) handler.ActiveFunc {
	return func(_ input.Action, st *state.State) bool {
		t := st.Schema().NodeType(name)
		return t != nil && commands.IsNodeActive(st, t, nil)
	}
}

func setParagraph(input.Action, *schema.Schema) (commands.Command, error) {
	return commands.SetParagraph(), nil
}

// level decodes the heading level at parameter 0. A zero default makes the
// parameter required.
func level(a input.Action, def int) (int, error) {
	n, err := a.Int(0, def)
	if err != nil {
		return 0, err
	}
	if n == 0 && def == 0 {
		return 0, &input.ParamError{Action: a.Name, Index: 0, Want: "heading level", Err: input.ErrMissingParam}
	}
	if n < 1 || n > MaxHeadingLevel {
		return 0, &input.ParamError{Action: a.Name, Index: 0, Want: "heading level 1-6", Got: n, Err: input.ErrInvalidParam}
	}
	return n, nil
}

// setHeading: [level]
func setHeading(a input.Action, _ *schema.Schema) (commands.Command, error) {
	n, err := level(a, 0)
	if err != nil {
		return nil, err
	}
	return commands.SetHeading(n), nil
}

// toggleHeading: [level=1]
func toggleHeading(a input.Action, _ *schema.Schema) (commands.Command, error) {
	n, err := level(a, 1)
	if err != nil {
		return nil, err
	}
	return commands.ToggleHeading(n), nil
}

func headingActive(def int) handler.ActiveFunc {
	return func(a input.Action, st *state.State) bool {
		n, err := level(a, def)
		if err != nil {
			return false
		}
		return commands.IsNodeActive(st, st.Schema().NodeType(schema.NodeHeading), schema.Attrs{"level": n})
	}
}

func toggleBlockquote(_ input.Action, sc *schema.Schema) (commands.Command, error) {
	return commands.ToggleWrap(sc.NodeType(schema.NodeBlockquote), nil), nil
}

func containerAttrs(a input.Action) (schema.Attrs, error) {
	kind, err := a.StringParam(0, "")
	if err != nil || kind == "" {
		return nil, err
	}
	return schema.Attrs{"kind": kind}, nil
}

// toggleContainer: [kind]
func toggleContainer(a input.Action, sc *schema.Schema) (commands.Command, error) {
	attrs, err := containerAttrs(a)
	if err != nil {
		return nil, err
	}
	return commands.ToggleWrap(sc.NodeType(schema.NodeContainer), attrs), nil
}

func containerActive(a input.Action, st *state.State) bool {
	attrs, err := containerAttrs(a)
	if err != nil {
		return false
	}
	return commands.IsNodeActive(st, st.Schema().NodeType(schema.NodeContainer), attrs)
}

func toggleList(list, item string) handler.BuildFunc {
	return func(_ input.Action, sc *schema.Schema) (commands.Command, error) {
		return commands.ToggleList(sc.NodeType(list), sc.NodeType(item)), nil
	}
}

// eachItem chains an item command over plain and task list items.
func eachItem(fn func(*schema.NodeType) commands.Command) handler.BuildFunc {
	return func(_ input.Action, sc *schema.Schema) (commands.Command, error) {
		return commands.Chain(
			fn(sc.NodeType(schema.NodeListItem)),
			fn(sc.NodeType(schema.NodeTaskItem)),
		), nil
	}
}

func toggleTaskItem(input.Action, *schema.Schema) (commands.Command, error) {
	return commands.ToggleTaskItem(), nil
}

func taskChecked(_ input.Action, st *state.State) bool {
	return commands.IsNodeActive(st, st.Schema().NodeType(schema.NodeTaskItem), schema.Attrs{"checked": true})
}
