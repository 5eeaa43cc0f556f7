// Package block provides handlers for block types, wrappers and lists.
//
// Action IDs:
//   - SetParagraph, SetHeadingLevel [level], ToggleHeading [level=1]
//   - ToggleBlockquote, ToggleContainer [kind]
//   - ToggleBulletList, ToggleOrderedList, ToggleTaskList
//   - SinkListItem, LiftListItem, SplitListItem, ToggleTaskItem
//
// List item actions work on both plain and task lists.
package block
