package history

// GroupScope closes an undo group opened by History.GroupScope.
//
//	g := h.GroupScope("Complex Edit")
//	defer g.End()
type GroupScope struct {
	history *History
	active  bool
}

// GroupScope starts a new group scope.
func (h *History) GroupScope(name string) *GroupScope {
	h.BeginGroup(name)
	return &GroupScope{history: h, active: true}
}

// End ends the group scope. Only the first call to End or Cancel has an
// effect.
func (g *GroupScope) End() {
	if g.active {
		g.history.EndGroup()
		g.active = false
	}
}

// Cancel closes the scope without creating an entry. Transactions already
// applied still affect the document.
func (g *GroupScope) Cancel() {
	if g.active {
		g.history.CancelGroup()
		g.active = false
	}
}

// Transaction runs fn inside a group scope. The group is cancelled when fn
// returns an error.
func (h *History) Transaction(name string, fn func() error) error {
	g := h.GroupScope(name)
	defer g.End()
	if err := fn(); err != nil {
		g.Cancel()
		return err
	}
	return nil
}

// Checkpoint marks a position in the undo stack.
type Checkpoint struct {
	undoDepth int
}

// CreateCheckpoint seals the newest entry so later typing cannot merge
// into it, and returns the current undo depth.
func (h *History) CreateCheckpoint() Checkpoint {
	h.Seal()
	return Checkpoint{undoDepth: h.UndoCount()}
}

// Since returns how many undo entries were recorded after cp. Entries
// undone past cp, or trimmed by the size limit, count as zero.
func (h *History) Since(cp Checkpoint) int {
	return max(h.UndoCount()-cp.undoDepth, 0)
}
