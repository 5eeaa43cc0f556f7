// Package model implements the immutable document tree.
//
// A document is a tree of *Node values. Nodes never change after creation;
// edits build new nodes that share unchanged subtrees with the previous
// version. Non-text nodes hold a Fragment of children, text nodes hold a
// string and a sorted set of marks.
//
// # Positions
//
// Positions are integer offsets into the flattened document. Entering or
// leaving a non-text node counts as one token, every Unicode code point of
// text counts as one token. The content of the root node runs from 0 to
// doc.Content().Size().
//
//	<doc><p>Hi</p><p>!</p></doc>
//	     0 1  3  4 5 6  7
//
// Resolve turns a position into a *ResolvedPos, which records the chain of
// ancestors from the root, the index into each ancestor, and the offset
// inside a text node. Resolved positions are cached per document.
//
// # Replacing
//
// Node.Replace substitutes a Slice for a range. The slice may be open on
// either side, meaning its boundary nodes continue the nodes around the
// range. Joining is only allowed when the node types have compatible
// content; everything else fails with ErrReplacementInvalid so no
// malformed tree is ever produced.
package model
