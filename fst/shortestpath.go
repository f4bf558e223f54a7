package fst

import "github.com/pkg/errors"

var ErrNegativeCycle = errors.New("fst: negative weight cycle")

type backPointer struct {
	state StateId
	arc   int
}

// shortestDistance returns the tropical distance from the start state
// to every state together with the arc used to reach it. Weights may be
// negative; distances are computed with a FIFO label-correcting queue
// and a state relaxed more than NumStates() times means a negative
// cycle. Ties keep the first path found, which makes the result
// deterministic.
func shortestDistance(f *Vector) ([]Weight, []backPointer, error) {
	n := f.NumStates()
	dist := make([]Weight, n)
	back := make([]backPointer, n)
	for i := range dist {
		dist[i] = WeightZero
		back[i] = backPointer{NoStateId, -1}
	}
	if f.Start() == NoStateId {
		return dist, back, nil
	}
	dist[f.Start()] = WeightOne
	queued := make([]bool, n)
	relaxed := make([]int, n)
	queue := []StateId{f.Start()}
	queued[f.Start()] = true
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		queued[s] = false
		for i, a := range f.Arcs(s) {
			d := Times(dist[s], a.Weight)
			q := a.NextState
			if d.IsZero() || d >= dist[q] {
				continue
			}
			dist[q] = d
			back[q] = backPointer{s, i}
			if relaxed[q]++; relaxed[q] > n {
				return nil, nil, errors.Wrapf(ErrNegativeCycle, "state %d", q)
			}
			if !queued[q] {
				queued[q] = true
				queue = append(queue, q)
			}
		}
	}
	return dist, back, nil
}

// ShortestPath returns the single best successful path of f as a linear
// automaton: state i has exactly one arc to state i+1 and only the last
// state is final. When f has no successful path the result is empty
// (its start state is NoStateId).
func ShortestPath(f *Vector) (*Vector, error) {
	dist, back, err := shortestDistance(f)
	if err != nil {
		return nil, err
	}
	best, bestWeight := NoStateId, WeightZero
	for s := range dist {
		w := Times(dist[s], f.Final(StateId(s)))
		if !w.IsZero() && (best == NoStateId || w < bestWeight) {
			best, bestWeight = StateId(s), w
		}
	}
	path := NewVector()
	if best == NoStateId {
		return path, nil
	}

	var arcs []Arc
	for s := best; s != f.Start(); {
		b := back[s]
		arcs = append(arcs, f.Arcs(b.state)[b.arc])
		s = b.state
		if len(arcs) > f.NumStates() {
			return nil, errors.Wrap(ErrNegativeCycle, "back pointers loop")
		}
	}
	path.SetStart(path.AddState())
	for i := len(arcs) - 1; i >= 0; i-- {
		a := arcs[i]
		p := StateId(path.NumStates() - 1)
		a.NextState = path.AddState()
		path.AddArc(p, a)
	}
	path.SetFinal(StateId(path.NumStates()-1), f.Final(best))
	return path, nil
}
