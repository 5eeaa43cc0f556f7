// Package commands provides the editing commands of the engine.
//
// A Command inspects a state and either reports whether it applies or
// builds a transaction and hands it to dispatch:
//
//	if commands.ToggleMark(strong, nil)(st, nil) {
//	    // enabled in the toolbar
//	}
//	next, ok, err := commands.Run(st, commands.ToggleMark(strong, nil))
//
// Every command builds its whole transaction before answering, so a dry
// run returns true exactly when dispatching would succeed. Commands never
// return errors; an inapplicable command returns false and leaves the
// state untouched.
//
// # Families
//
//   - Marks: ToggleMark, SetMark, UnsetMark, ExtendMarkRange, SetLink,
//     Unlink, ClearFormatting
//   - Blocks: SetBlockType, SetHeading, ToggleHeading, SetParagraph, Wrap,
//     ToggleWrap, Lift
//   - Lists: ToggleList, WrapInList, SinkListItem, LiftListItem,
//     SplitListItem, ToggleTaskItem
//   - Text: InsertText, InsertNode, DeleteSelection, DeleteBackward,
//     DeleteForward, JoinBackward, JoinForward, SplitBlock, SelectAll
//   - Code blocks: ExitCode, NewlineInCode, SetCodeBlockSyntax,
//     ArrowIntoCodeBlock
//
// Chain combines commands; the first one that applies wins.
package commands
