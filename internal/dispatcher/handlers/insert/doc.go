// Package insert provides handlers that insert content or edit code blocks.
//
// Action IDs:
//   - InsertText [text]
//   - InsertHorizontalRule, InsertHardBreak
//   - InsertImage [src, alt, title]
//   - InsertMath [tex]
//   - InsertCodeBlock [syntax], SetCodeBlockSyntax [syntax]
//   - NewlineInCode, ExitCode, ArrowIntoCodeBlock [dir]
package insert
