package insert

import (
	"github.com/dshills/inkwell/internal/commands"
	"github.com/dshills/inkwell/internal/dispatcher/handler"
	"github.com/dshills/inkwell/internal/input"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
)

// Action IDs for insertion.
const (
	ActionInsertText           = "InsertText"
	ActionInsertHorizontalRule = "InsertHorizontalRule"
	ActionInsertHardBreak      = "InsertHardBreak"
	ActionInsertImage          = "InsertImage"
	ActionInsertMath           = "InsertMath"
	ActionInsertCodeBlock      = "InsertCodeBlock"
	ActionSetCodeBlockSyntax   = "SetCodeBlockSyntax"
	ActionNewlineInCode        = "NewlineInCode"
	ActionExitCode             = "ExitCode"
	ActionArrowIntoCodeBlock   = "ArrowIntoCodeBlock"
)

// Handlers returns the insert handlers.
func Handlers() []handler.Handler {
	return []handler.Handler{
		handler.Command(ActionInsertText, insertText, nil),
		handler.Command(ActionInsertHorizontalRule, fixed(commands.InsertHorizontalRule()), nil),
		handler.Command(ActionInsertHardBreak, fixed(commands.InsertHardBreak()), nil),
		handler.Command(ActionInsertImage, insertImage, nil),
		handler.Command(ActionInsertMath, insertMath, nil),
		handler.Command(ActionInsertCodeBlock, insertCodeBlock, inCode),
		handler.Command(ActionSetCodeBlockSyntax, setSyntax, syntaxActive),
		handler.Command(ActionNewlineInCode, fixed(commands.NewlineInCode()), inCode),
		handler.Command(ActionExitCode, fixed(commands.ExitCode()), inCode),
		handler.Command(ActionArrowIntoCodeBlock, arrowIntoCode, nil),
	}
}

func fixed(cmd commands.Command) handler.BuildFunc {
	return func(input.Action, *schema.Schema) (commands.Command, error) {
		return cmd, nil
	}
}

func inCode(_ input.Action, st *state.State) bool {
	return commands.IsInCodeBlock(st)
}

// insertText: [text]
func insertText(a input.Action, _ *schema.Schema) (commands.Command, error) {
	text, err := a.RequireString(0)
	if err != nil {
		return nil, err
	}
	return commands.InsertText(text), nil
}

// insertImage: [src, alt, title]
func insertImage(a input.Action, _ *schema.Schema) (commands.Command, error) {
	src, err := a.RequireString(0)
	if err != nil {
		return nil, err
	}
	alt, err := a.StringParam(1, "")
	if err != nil {
		return nil, err
	}
	title, err := a.StringParam(2, "")
	if err != nil {
		return nil, err
	}
	return commands.InsertImage(src, alt, title), nil
}

// insertMath: [tex]
func insertMath(a input.Action, _ *schema.Schema) (commands.Command, error) {
	tex, err := a.StringParam(0, "")
	if err != nil {
		return nil, err
	}
	return commands.InsertMath(tex), nil
}

// insertCodeBlock: [syntax]
func insertCodeBlock(a input.Action, _ *schema.Schema) (commands.Command, error) {
	syntax, err := a.StringParam(0, "")
	if err != nil {
		return nil, err
	}
	return commands.InsertCodeBlock(syntax), nil
}

// setSyntax: [syntax]
func setSyntax(a input.Action, _ *schema.Schema) (commands.Command, error) {
	syntax, err := a.StringParam(0, "")
	if err != nil {
		return nil, err
	}
	return commands.SetCodeBlockSyntax(syntax), nil
}

func syntaxActive(a input.Action, st *state.State) bool {
	syntax, err := a.StringParam(0, "")
	if err != nil {
		return false
	}
	return commands.IsNodeActive(st, st.Schema().NodeType(schema.NodeCodeBlock), schema.Attrs{"syntax": syntax})
}

// arrowIntoCode: [dir=1]
func arrowIntoCode(a input.Action, _ *schema.Schema) (commands.Command, error) {
	dir, err := a.Int(0, 1)
	if err != nil {
		return nil, err
	}
	if dir == 0 {
		return nil, &input.ParamError{Action: a.Name, Index: 0, Want: "direction -1 or 1", Got: dir, Err: input.ErrInvalidParam}
	}
	return commands.ArrowIntoCodeBlock(dir), nil
}
