package transform

import "testing"

func TestStepMapDelete(t *testing.T) {
	m := NewStepMap([]int{2, 4, 0}, false)
	tests := []struct {
		name                           string
		pos, assoc, want               int
		deleted, before, after, across bool
	}{
		{"before range", 1, 1, 1, false, false, false, false},
		{"after range", 8, 1, 4, false, false, false, false},
		{"inside", 4, 1, 2, true, true, true, true},
		{"start left", 2, -1, 2, false, false, true, false},
		{"start right", 2, 1, 2, true, false, true, false},
		{"end right", 6, 1, 2, false, true, false, false},
		{"end left", 6, -1, 2, true, true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := m.MapResult(tt.pos, tt.assoc)
			if r.Pos != tt.want {
				t.Errorf("Pos = %d, want %d", r.Pos, tt.want)
			}
			if r.Deleted() != tt.deleted || r.DeletedBefore() != tt.before ||
				r.DeletedAfter() != tt.after || r.DeletedAcross() != tt.across {
				t.Errorf("flags = %v %v %v %v, want %v %v %v %v",
					r.Deleted(), r.DeletedBefore(), r.DeletedAfter(), r.DeletedAcross(),
					tt.deleted, tt.before, tt.after, tt.across)
			}
		})
	}
}

func TestStepMapInsert(t *testing.T) {
	m := NewStepMap([]int{2, 0, 3}, false)
	if got := m.Map(2, -1); got != 2 {
		t.Errorf("Map(2, -1) = %d, want 2", got)
	}
	if got := m.Map(2, 1); got != 5 {
		t.Errorf("Map(2, 1) = %d, want 5", got)
	}
	if got := m.Map(4, 1); got != 7 {
		t.Errorf("Map(4, 1) = %d, want 7", got)
	}
	inv := m.Invert()
	if got := inv.Map(5, 1); got != 2 {
		t.Errorf("inverted Map(5) = %d, want 2", got)
	}
	if got := inv.Map(7, 1); got != 4 {
		t.Errorf("inverted Map(7) = %d, want 4", got)
	}
	var spans [][4]int
	m.ForEach(func(oldStart, oldEnd, newStart, newEnd int) {
		spans = append(spans, [4]int{oldStart, oldEnd, newStart, newEnd})
	})
	if len(spans) != 1 || spans[0] != [4]int{2, 2, 2, 5} {
		t.Errorf("ForEach = %v", spans)
	}
}

func TestOffsetStepMap(t *testing.T) {
	if OffsetStepMap(0) != EmptyStepMap {
		t.Error("zero offset should be the empty map")
	}
	if got := OffsetStepMap(3).Map(4, 1); got != 7 {
		t.Errorf("Map = %d, want 7", got)
	}
	if got := OffsetStepMap(-2).Map(4, 1); got != 2 {
		t.Errorf("Map = %d, want 2", got)
	}
}

func TestMapping(t *testing.T) {
	m := NewMapping(NewStepMap([]int{0, 0, 2}, false), NewStepMap([]int{4, 2, 0}, false))
	if m.Len() != 2 {
		t.Fatalf("Len() = %d", m.Len())
	}
	if got := m.Map(8, 1); got != 8 {
		t.Errorf("Map(8) = %d, want 8", got)
	}
	r := m.MapResult(3, 1)
	if r.Pos != 4 || !r.Deleted() {
		t.Errorf("MapResult(3) = %d deleted=%v, want 4 deleted", r.Pos, r.Deleted())
	}
	if got := m.Slice(1, -1).Map(5, 1); got != 4 {
		t.Errorf("Slice(1).Map(5) = %d, want 4", got)
	}
	if got := m.Slice(0, 1).Map(5, 1); got != 7 {
		t.Errorf("Slice(0, 1).Map(5) = %d, want 7", got)
	}
	if got := m.Invert().Map(8, 1); got != 8 {
		t.Errorf("Invert().Map(8) = %d, want 8", got)
	}

	other := NewMapping()
	other.AppendMapping(m)
	other.AppendMap(OffsetStepMap(1))
	if got := other.Map(8, 1); got != 9 {
		t.Errorf("appended Map(8) = %d, want 9", got)
	}
}
