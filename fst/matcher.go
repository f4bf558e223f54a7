package fst

import "sort"

// Side selects which label of an arc a Matcher looks at.
type Side int

const (
	MatchInput Side = iota
	MatchOutput
)

// Matcher finds the arcs of a state carrying a given label. The index
// of a state is built the first time it is queried, so a Matcher over a
// large automaton can be kept around and reused across many
// compositions as long as the automaton is not modified.
type Matcher struct {
	f     *Vector
	side  Side
	index map[StateId][]int32 // nil slice: arcs already sorted
}

func NewMatcher(f *Vector, side Side) *Matcher {
	return &Matcher{f, side, map[StateId][]int32{}}
}

func (m *Matcher) label(a *Arc) Label {
	if m.side == MatchInput {
		return a.ILabel
	}
	return a.OLabel
}

func (m *Matcher) stateIndex(s StateId) ([]int32, bool) {
	if idx, ok := m.index[s]; ok {
		return idx, idx != nil
	}
	arcs := m.f.Arcs(s)
	sorted := true
	for i := 1; i < len(arcs); i++ {
		if m.label(&arcs[i-1]) > m.label(&arcs[i]) {
			sorted = false
			break
		}
	}
	if sorted {
		m.index[s] = nil
		return nil, false
	}
	idx := make([]int32, len(arcs))
	for i := range idx {
		idx[i] = int32(i)
	}
	sort.SliceStable(idx, func(x, y int) bool { return m.label(&arcs[idx[x]]) < m.label(&arcs[idx[y]]) })
	m.index[s] = idx
	return idx, true
}

// Find calls fn on every arc of s whose matched label is x, in arc
// order.
func (m *Matcher) Find(s StateId, x Label, fn func(a *Arc)) {
	arcs := m.f.Arcs(s)
	idx, indexed := m.stateIndex(s)
	at := func(i int) *Arc {
		if indexed {
			return &arcs[idx[i]]
		}
		return &arcs[i]
	}
	i := sort.Search(len(arcs), func(i int) bool { return m.label(at(i)) >= x })
	for ; i < len(arcs) && m.label(at(i)) == x; i++ {
		fn(at(i))
	}
}
