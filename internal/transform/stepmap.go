package transform

const (
	delBefore = 1 << iota
	delAfter
	delAcross
	delSide
)

// MapResult is the outcome of mapping a position.
type MapResult struct {
	// Pos is the mapped position.
	Pos int

	delInfo int
}

// Deleted reports whether the content on the side the position was
// associated with was deleted.
func (r MapResult) Deleted() bool { return r.delInfo&delSide > 0 }

// DeletedBefore reports whether the token before the position was deleted.
func (r MapResult) DeletedBefore() bool { return r.delInfo&(delBefore|delAcross) > 0 }

// DeletedAfter reports whether the token after the position was deleted.
func (r MapResult) DeletedAfter() bool { return r.delInfo&(delAfter|delAcross) > 0 }

// DeletedAcross reports whether the position lay inside a deleted range.
func (r MapResult) DeletedAcross() bool { return r.delInfo&delAcross > 0 }

// Mappable is anything that maps positions.
type Mappable interface {
	Map(pos, assoc int) int
	MapResult(pos, assoc int) MapResult
}

// StepMap describes the ranges a single step replaced. Ranges is a flat
// list of (start, oldSize, newSize) triples in document order.
type StepMap struct {
	ranges   []int
	inverted bool
}

// EmptyStepMap maps every position to itself.
var EmptyStepMap = &StepMap{}

// NewStepMap creates a map from (start, oldSize, newSize) triples.
func NewStepMap(ranges []int, inverted bool) *StepMap {
	if len(ranges) == 0 {
		return EmptyStepMap
	}
	return &StepMap{ranges: ranges, inverted: inverted}
}

// OffsetStepMap returns a map that shifts every position by n.
func OffsetStepMap(n int) *StepMap {
	switch {
	case n == 0:
		return EmptyStepMap
	case n < 0:
		return NewStepMap([]int{0, -n, 0}, false)
	default:
		return NewStepMap([]int{0, 0, n}, false)
	}
}

// Map maps pos. assoc selects the side a position at the edge of an
// insertion sticks to: negative keeps it before, positive moves it after.
func (m *StepMap) Map(pos, assoc int) int {
	return m.mapPos(pos, assoc).Pos
}

// MapResult maps pos and reports deletion information.
func (m *StepMap) MapResult(pos, assoc int) MapResult {
	return m.mapPos(pos, assoc)
}

func (m *StepMap) mapPos(pos, assoc int) MapResult {
	diff := 0
	oldIndex, newIndex := 1, 2
	if m.inverted {
		oldIndex, newIndex = 2, 1
	}
	for i := 0; i < len(m.ranges); i += 3 {
		start := m.ranges[i]
		if m.inverted {
			start -= diff
		}
		if start > pos {
			break
		}
		oldSize, newSize := m.ranges[i+oldIndex], m.ranges[i+newIndex]
		end := start + oldSize
		if pos <= end {
			side := assoc
			if oldSize != 0 {
				switch pos {
				case start:
					side = -1
				case end:
					side = 1
				}
			}
			result := start + diff
			if side >= 0 {
				result += newSize
			}
			var del int
			switch pos {
			case start:
				del = delAfter
			case end:
				del = delBefore
			default:
				del = delAcross
			}
			if (assoc < 0 && pos != start) || (assoc >= 0 && pos != end) {
				del |= delSide
			}
			return MapResult{Pos: result, delInfo: del}
		}
		diff += newSize - oldSize
	}
	return MapResult{Pos: pos + diff}
}

// ForEach calls fn for every changed range with its old and new extent.
func (m *StepMap) ForEach(fn func(oldStart, oldEnd, newStart, newEnd int)) {
	oldIndex, newIndex := 1, 2
	if m.inverted {
		oldIndex, newIndex = 2, 1
	}
	diff := 0
	for i := 0; i < len(m.ranges); i += 3 {
		start := m.ranges[i]
		oldStart := start
		if m.inverted {
			oldStart = start - diff
		}
		newStart := start
		if !m.inverted {
			newStart = start + diff
		}
		oldSize, newSize := m.ranges[i+oldIndex], m.ranges[i+newIndex]
		fn(oldStart, oldStart+oldSize, newStart, newStart+newSize)
		diff += newSize - oldSize
	}
}

// Invert returns the map that undoes this one.
func (m *StepMap) Invert() *StepMap {
	if len(m.ranges) == 0 {
		return m
	}
	return &StepMap{ranges: m.ranges, inverted: !m.inverted}
}

// Mapping chains step maps.
type Mapping struct {
	maps []*StepMap
}

// NewMapping creates a mapping over maps.
func NewMapping(maps ...*StepMap) *Mapping {
	return &Mapping{maps: append([]*StepMap(nil), maps...)}
}

// Maps returns the step maps in order.
func (m *Mapping) Maps() []*StepMap { return m.maps }

// Len returns the number of maps.
func (m *Mapping) Len() int { return len(m.maps) }

// AppendMap adds a step map to the end of the mapping.
func (m *Mapping) AppendMap(sm *StepMap) {
	m.maps = append(m.maps, sm)
}

// AppendMapping adds all maps of other.
func (m *Mapping) AppendMapping(other *Mapping) {
	m.maps = append(m.maps, other.maps...)
}

// Slice returns a mapping over maps [from, to). A negative to means the end.
func (m *Mapping) Slice(from, to int) *Mapping {
	if to < 0 || to > len(m.maps) {
		to = len(m.maps)
	}
	return &Mapping{maps: append([]*StepMap(nil), m.maps[from:to]...)}
}

// Invert returns a mapping that maps positions of the result back.
func (m *Mapping) Invert() *Mapping {
	inv := &Mapping{maps: make([]*StepMap, len(m.maps))}
	for i, sm := range m.maps {
		inv.maps[len(m.maps)-1-i] = sm.Invert()
	}
	return inv
}

// Map maps pos through every map in order.
func (m *Mapping) Map(pos, assoc int) int {
	for _, sm := range m.maps {
		pos = sm.Map(pos, assoc)
	}
	return pos
}

// MapResult maps pos and accumulates deletion information.
func (m *Mapping) MapResult(pos, assoc int) MapResult {
	del := 0
	for _, sm := range m.maps {
		r := sm.MapResult(pos, assoc)
		del |= r.delInfo
		pos = r.Pos
	}
	return MapResult{Pos: pos, delInfo: del}
}
