package mark

import (
	"github.com/dshills/inkwell/internal/commands"
	"github.com/dshills/inkwell/internal/dispatcher/handler"
	"github.com/dshills/inkwell/internal/input"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
)

// Action IDs for inline formatting.
const (
	ActionToggleBold          = "ToggleBold"
	ActionToggleItalic        = "ToggleItalic"
	ActionToggleCode          = "ToggleCode"
	ActionToggleStrikethrough = "ToggleStrikethrough"
	ActionToggleSubscript     = "ToggleSubscript"
	ActionToggleSuperscript   = "ToggleSuperscript"
	ActionToggleInserted      = "ToggleInserted"
	ActionToggleHighlight     = "ToggleHighlight"
	ActionToggleSpan          = "ToggleSpan"
	ActionSetLink             = "SetLink"
	ActionUnlink              = "Unlink"
	ActionClearFormatting     = "ClearFormatting"
)

// toggles maps each plain toggle action to its mark.
var toggles = []struct {
	id   string
	mark string
}{
	{ActionToggleBold, schema.MarkStrong},
	{ActionToggleItalic, schema.MarkEm},
	{ActionToggleCode, schema.MarkCode},
	{ActionToggleStrikethrough, schema.MarkStrike},
	{ActionToggleSubscript, schema.MarkSub},
	{ActionToggleSuperscript, schema.MarkSup},
	{ActionToggleInserted, schema.MarkIns},
	{ActionToggleHighlight, schema.MarkHighlight},
}

// Handlers returns the mark handlers.
func Handlers() []handler.Handler {
	hs := make([]handler.Handler, 0, len(toggles)+4)
	for _, tg := range toggles {
		hs = append(hs, handler.Command(tg.id, toggle(tg.mark), active(tg.mark)))
	}
	return append(hs,
		handler.Command(ActionToggleSpan, toggleSpan, active(schema.MarkSpan)),
		handler.Command(ActionSetLink, setLink, active(schema.MarkLink)),
		handler.Command(ActionUnlink, unlink, active(schema.MarkLink)),
		handler.Command(ActionClearFormatting, clearFormatting, nil),
	)
}

func toggle(name string) handler.BuildFunc {
	return func(_ input.Action, sc *schema.Schema) (commands.Command, error) {
		return commands.ToggleMark(sc.MarkType(name), nil), nil
	}
}

func active(name string) handler.ActiveFunc {
	return func(_ input.Action, st *state.State) bool {
		t := st.Schema().MarkType(name)
		return t != nil && commands.IsMarkActive(st, t)
	}
}

// toggleSpan: [class]
func toggleSpan(a input.Action, sc *schema.Schema) (commands.Command, error) {
	class, err := a.StringParam(0, "")
	if err != nil {
		return nil, err
	}
	var attrs schema.Attrs
	if class != "" {
		attrs = schema.Attrs{"class": class}
	}
	return commands.ToggleMark(sc.MarkType(schema.MarkSpan), attrs), nil
}

// setLink: [href, title]
func setLink(a input.Action, _ *schema.Schema) (commands.Command, error) {
	href, err := a.RequireString(0)
	if err != nil {
		return nil, err
	}
	title, err := a.StringParam(1, "")
	if err != nil {
		return nil, err
	}
	return commands.SetLink(href, title), nil
}

func unlink(input.Action, *schema.Schema) (commands.Command, error) {
	return commands.Unlink(), nil
}

func clearFormatting(input.Action, *schema.Schema) (commands.Command, error) {
	return commands.ClearFormatting(), nil
}
