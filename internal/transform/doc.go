// Package transform implements document steps, position mapping, and the
// Transform builder that accumulates steps into a change.
//
// A Step is an atomic, invertible change to a document. Every step yields a
// StepMap describing how positions move; a Mapping chains the maps of
// several steps so that positions recorded before a change can be carried
// into the document after it.
//
//	tr := transform.New(doc)
//	if err := tr.AddMark(1, 6, strong); err != nil {
//		return err
//	}
//	newDoc := tr.Doc()
//
// Positions that fall inside deleted content map to the nearest surviving
// position and are reported as deleted by MapResult.
package transform
