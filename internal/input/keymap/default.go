package keymap

// LoadDefaults loads all default keymaps into the registry.
func LoadDefaults(r *Registry) error {
	keymaps := []*Keymap{
		DefaultEditingKeymap(),
		DefaultFormattingKeymap(),
	}

	for _, km := range keymaps {
		if err := r.Register(km); err != nil {
			return err
		}
	}

	return nil
}

// DefaultEditingKeymap returns the bindings for structural editing keys.
// Keys bound more than once list the more specific command first.
func DefaultEditingKeymap() *Keymap {
	return &Keymap{
		Name:     "default-editing",
		Source:   "default",
		Priority: 10,
		Bindings: []Binding{
			// Enter
			{Keys: "Enter", Action: "NewlineInCode", Description: "New line in code block", Priority: 30},
			{Keys: "Enter", Action: "SplitListItem", Description: "Continue list item", Priority: 20},
			{Keys: "Enter", Action: "SplitBlock", Description: "Split block", Priority: 10},
			{Keys: "Mod-Enter", Action: "ToggleTaskItem", Description: "Toggle task", Priority: 20},
			{Keys: "Mod-Enter", Action: "ExitCode", Description: "Leave code block", Priority: 10},
			{Keys: "Mod-Enter", Action: "InsertHardBreak", Description: "Line break"},
			{Keys: "Shift-Enter", Action: "ExitCode", Description: "Leave code block", Priority: 10},
			{Keys: "Shift-Enter", Action: "InsertHardBreak", Description: "Line break"},

			// Deletion
			{Keys: "Backspace", Action: "DeleteBackward", Description: "Delete backward"},
			{Keys: "Mod-Backspace", Action: "DeleteBackward", Description: "Delete backward"},
			{Keys: "Delete", Action: "DeleteForward", Description: "Delete forward"},
			{Keys: "Mod-Delete", Action: "DeleteForward", Description: "Delete forward"},

			// Tab
			{Keys: "Tab", Action: "GoToNextCell", Description: "Next table cell", Priority: 20},
			{Keys: "Tab", Action: "SinkListItem", Description: "Indent list item", Priority: 10},
			{Keys: "Shift-Tab", Action: "GoToPreviousCell", Description: "Previous table cell", Priority: 20},
			{Keys: "Shift-Tab", Action: "LiftListItem", Description: "Outdent list item", Priority: 10},

			// Code block boundaries
			{Keys: "ArrowUp", Action: "ArrowIntoCodeBlock", Params: []any{-1}, Description: "Enter code block above"},
			{Keys: "ArrowLeft", Action: "ArrowIntoCodeBlock", Params: []any{-1}, Description: "Enter code block before"},
			{Keys: "ArrowDown", Action: "ArrowIntoCodeBlock", Params: []any{1}, Description: "Enter code block below"},
			{Keys: "ArrowRight", Action: "ArrowIntoCodeBlock", Params: []any{1}, Description: "Enter code block after"},

			// History
			{Keys: "Mod-z", Action: "Undo", Description: "Undo"},
			{Keys: "Shift-Mod-z", Action: "Redo", Description: "Redo"},
			{Keys: "Mod-y", Action: "Redo", Description: "Redo"},

			// Selection
			{Keys: "Mod-a", Action: "SelectAll", Description: "Select all"},
		},
	}
}

// DefaultFormattingKeymap returns the bindings for marks and block types.
func DefaultFormattingKeymap() *Keymap {
	return &Keymap{
		Name:   "default-formatting",
		Source: "default",
		Bindings: []Binding{
			// Marks
			{Keys: "Mod-b", Action: "ToggleBold", Description: "Bold"},
			{Keys: "Mod-i", Action: "ToggleItalic", Description: "Italic"},
			{Keys: "Mod-e", Action: "ToggleCode", Description: "Inline code"},
			{Keys: "Mod-Shift-s", Action: "ToggleStrikethrough", Description: "Strikethrough"},
			{Keys: "Mod-u", Action: "ToggleInserted", Description: "Inserted text"},
			{Keys: "Mod-Shift-h", Action: "ToggleHighlight", Description: "Highlight"},
			{Keys: "Mod-,", Action: "ToggleSubscript", Description: "Subscript"},
			{Keys: "Mod-.", Action: "ToggleSuperscript", Description: "Superscript"},
			{Keys: "Mod-\\", Action: "ClearFormatting", Description: "Clear formatting"},

			// Blocks
			{Keys: "Mod-Alt-0", Action: "SetParagraph", Description: "Paragraph"},
			{Keys: "Mod-Alt-1", Action: "ToggleHeading", Params: []any{1}, Description: "Heading 1"},
			{Keys: "Mod-Alt-2", Action: "ToggleHeading", Params: []any{2}, Description: "Heading 2"},
			{Keys: "Mod-Alt-3", Action: "ToggleHeading", Params: []any{3}, Description: "Heading 3"},
			{Keys: "Mod-Alt-4", Action: "ToggleHeading", Params: []any{4}, Description: "Heading 4"},
			{Keys: "Mod-Alt-5", Action: "ToggleHeading", Params: []any{5}, Description: "Heading 5"},
			{Keys: "Mod-Alt-6", Action: "ToggleHeading", Params: []any{6}, Description: "Heading 6"},
			{Keys: "Mod-Alt-c", Action: "InsertCodeBlock", Description: "Code block"},
			{Keys: "Mod-Shift-b", Action: "ToggleBlockquote", Description: "Blockquote"},
			{Keys: "Mod-Shift-7", Action: "ToggleOrderedList", Description: "Ordered list"},
			{Keys: "Mod-Shift-8", Action: "ToggleBulletList", Description: "Bullet list"},
			{Keys: "Mod-Shift-9", Action: "ToggleTaskList", Description: "Task list"},
		},
	}
}
