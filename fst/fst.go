// Package fst is a small weighted finite-state automaton library over
// the tropical semiring. It covers what n-gram language model tooling
// needs: building automata, composing them, extracting the best path,
// sorting arcs and reading or writing them in OpenFst compatible binary
// form or AT&T text form.
package fst

// Arc is a transition. The field layout matches the on-disk layout of
// OpenFst's standard arc so slices of Arc can be read and written in
// bulk.
type Arc struct {
	ILabel    Label
	OLabel    Label
	Weight    Weight
	NextState StateId
}

type vectorState struct {
	final Weight
	arcs  []Arc
}

// Vector is a mutable automaton storing states and arcs in slices. Must
// be constructed using NewVector().
type Vector struct {
	start  StateId
	states []vectorState
}

func NewVector() *Vector {
	return &Vector{start: NoStateId}
}

// AddState adds a non-final state with no arcs and returns its id.
func (f *Vector) AddState() StateId {
	s := StateId(len(f.states))
	f.states = append(f.states, vectorState{final: WeightZero})
	return s
}

// AddStates makes sure f has at least n states.
func (f *Vector) AddStates(n int) {
	for len(f.states) < n {
		f.AddState()
	}
}

func (f *Vector) SetStart(s StateId) { f.start = s }

// Start returns the start state or NoStateId when f is empty.
func (f *Vector) Start() StateId { return f.start }

func (f *Vector) SetFinal(s StateId, w Weight) { f.states[s].final = w }

// Final returns the final weight of s; WeightZero for non-final states.
func (f *Vector) Final(s StateId) Weight { return f.states[s].final }

func (f *Vector) IsFinal(s StateId) bool { return !f.states[s].final.IsZero() }

func (f *Vector) AddArc(s StateId, a Arc) {
	f.states[s].arcs = append(f.states[s].arcs, a)
}

func (f *Vector) NumStates() int { return len(f.states) }

func (f *Vector) NumArcs(s StateId) int { return len(f.states[s].arcs) }

// Arcs returns the arcs leaving s. The slice is owned by f and must not
// be modified.
func (f *Vector) Arcs(s StateId) []Arc { return f.states[s].arcs }

// TotalArcs returns the number of arcs in f.
func (f *Vector) TotalArcs() int {
	n := 0
	for _, s := range f.states {
		n += len(s.arcs)
	}
	return n
}

// Copy returns a deep copy of f.
func (f *Vector) Copy() *Vector {
	c := &Vector{start: f.start, states: make([]vectorState, len(f.states))}
	for i, s := range f.states {
		c.states[i].final = s.final
		c.states[i].arcs = append([]Arc(nil), s.arcs...)
	}
	return c
}

// DeleteStates removes every state and the start state.
func (f *Vector) DeleteStates() {
	f.states = nil
	f.start = NoStateId
}
