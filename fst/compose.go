package fst

type composeOptions struct {
	left, right *Matcher
	connect     bool
}

// ComposeOption configures Compose.
type ComposeOption func(*composeOptions)

// WithLeftMatcher reuses m (which must match output labels of the left
// automaton) instead of building a fresh one.
func WithLeftMatcher(m *Matcher) ComposeOption {
	return func(o *composeOptions) { o.left = m }
}

// WithRightMatcher reuses m (which must match input labels of the right
// automaton) instead of building a fresh one.
func WithRightMatcher(m *Matcher) ComposeOption {
	return func(o *composeOptions) { o.right = m }
}

// WithoutConnect keeps states that cannot reach a final state.
func WithoutConnect() ComposeOption {
	return func(o *composeOptions) { o.connect = false }
}

type statePair struct {
	a, b StateId
}

// Compose returns the composition of a and b: the output labels of a are
// matched against the input labels of b. An epsilon output on a or an
// epsilon input on b moves that side alone. No epsilon filter is
// applied, so paths through epsilons may be duplicated; this never
// changes the best path. The result is trimmed unless WithoutConnect is
// given, so a composition without any successful path has no start
// state.
func Compose(a, b *Vector, opts ...ComposeOption) *Vector {
	o := composeOptions{connect: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.left == nil {
		o.left = NewMatcher(a, MatchOutput)
	}
	if o.right == nil {
		o.right = NewMatcher(b, MatchInput)
	}

	c := NewVector()
	if a.Start() == NoStateId || b.Start() == NoStateId {
		return c
	}

	ids := map[statePair]StateId{}
	var queue []statePair
	find := func(p statePair) StateId {
		if s, ok := ids[p]; ok {
			return s
		}
		s := c.AddState()
		ids[p] = s
		queue = append(queue, p)
		return s
	}
	c.SetStart(find(statePair{a.Start(), b.Start()}))

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		s := ids[p]
		c.SetFinal(s, Times(a.Final(p.a), b.Final(p.b)))

		aArcs, bArcs := a.Arcs(p.a), b.Arcs(p.b)
		for i := range aArcs {
			if x := &aArcs[i]; x.OLabel == Epsilon {
				c.AddArc(s, Arc{x.ILabel, Epsilon, x.Weight, find(statePair{x.NextState, p.b})})
			}
		}
		for i := range bArcs {
			if y := &bArcs[i]; y.ILabel == Epsilon {
				c.AddArc(s, Arc{Epsilon, y.OLabel, y.Weight, find(statePair{p.a, y.NextState})})
			}
		}
		// Walk the side with fewer arcs and look up the other one.
		if len(bArcs) <= len(aArcs) {
			for i := range bArcs {
				y := &bArcs[i]
				if y.ILabel == Epsilon {
					continue
				}
				o.left.Find(p.a, y.ILabel, func(x *Arc) {
					c.AddArc(s, Arc{x.ILabel, y.OLabel, Times(x.Weight, y.Weight), find(statePair{x.NextState, y.NextState})})
				})
			}
		} else {
			for i := range aArcs {
				x := &aArcs[i]
				if x.OLabel == Epsilon {
					continue
				}
				o.right.Find(p.b, x.OLabel, func(y *Arc) {
					c.AddArc(s, Arc{x.ILabel, y.OLabel, Times(x.Weight, y.Weight), find(statePair{x.NextState, y.NextState})})
				})
			}
		}
	}

	if o.connect {
		Connect(c)
	}
	return c
}

// Connect removes every state that is not both reachable from the start
// state and able to reach a final state. State order is preserved.
func Connect(f *Vector) {
	n := f.NumStates()
	if f.Start() == NoStateId {
		f.DeleteStates()
		return
	}
	access := make([]bool, n)
	stack := []StateId{f.Start()}
	access[f.Start()] = true
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, a := range f.Arcs(s) {
			if !access[a.NextState] {
				access[a.NextState] = true
				stack = append(stack, a.NextState)
			}
		}
	}

	reverse := make([][]StateId, n)
	coaccess := make([]bool, n)
	for s := 0; s < n; s++ {
		for _, a := range f.Arcs(StateId(s)) {
			reverse[a.NextState] = append(reverse[a.NextState], StateId(s))
		}
		if f.IsFinal(StateId(s)) {
			coaccess[s] = true
			stack = append(stack, StateId(s))
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range reverse[s] {
			if !coaccess[p] {
				coaccess[p] = true
				stack = append(stack, p)
			}
		}
	}

	if !coaccess[f.Start()] {
		f.DeleteStates()
		return
	}
	oldToNew := make([]StateId, n)
	var states []vectorState
	for s := 0; s < n; s++ {
		if access[s] && coaccess[s] {
			oldToNew[s] = StateId(len(states))
			states = append(states, f.states[s])
		} else {
			oldToNew[s] = NoStateId
		}
	}
	for i := range states {
		kept := states[i].arcs[:0]
		for _, a := range states[i].arcs {
			if q := oldToNew[a.NextState]; q != NoStateId {
				a.NextState = q
				kept = append(kept, a)
			}
		}
		states[i].arcs = kept
	}
	f.start = oldToNew[f.start]
	f.states = states
}
