// Package state holds the editor state: a document, a selection and the
// marks queued for the next typed text.
//
// A State is immutable. Edits are built on a Transaction created with
// State.Tr and become a new State through State.Apply:
//
//	tr := st.Tr()
//	if err := tr.InsertText("hello"); err != nil {
//		return err
//	}
//	next, err := st.Apply(tr)
//
// A transaction moves through three phases. It is Created empty, becomes
// Stepped once a step is added, and is frozen once Applied. Applying a
// transaction to a State other than the one it was created from fails
// with ErrStaleBaseState.
package state
