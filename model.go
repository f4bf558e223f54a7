package fstlm

import (
	"sort"

	"github.com/alongwithyou/fstLM/fst"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Model is an exact back-off view of a back-off automaton: a lookup
// that fails at a state follows its back-off arc and tries again,
// instead of letting a shortest path choose among all back-off routes.
type Model struct {
	lm   *fst.Vector
	syms *fst.SymbolTable
	cfg  Config
	// Sentence boundary and back-off labels.
	bos, eos, phi fst.Label
}

// NewModel wraps lm. Arcs of lm are sorted in place by input label with
// the back-off arc last.
func NewModel(lm *fst.Vector, syms *fst.SymbolTable, cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Model{lm: lm, syms: syms, cfg: cfg}
	for _, i := range []struct {
		sym string
		x   *fst.Label
	}{{cfg.BOS, &m.bos}, {cfg.EOS, &m.eos}, {cfg.Backoff, &m.phi}} {
		if *i.x = syms.IdOf(i.sym); *i.x == fst.NoLabel {
			return nil, errors.Wrapf(ErrMissingSymbol, "%q", i.sym)
		}
	}
	for _, s := range []int{cfg.BOSState, cfg.RootState} {
		if s >= lm.NumStates() {
			return nil, errors.Errorf("state %d out of range: automaton has %d states", s, lm.NumStates())
		}
	}
	fst.ArcSortFunc(lm, backoffLast(m.phi))
	return m, nil
}

// Start returns the state with context <s>.
func (m *Model) Start() fst.StateId {
	return fst.StateId(m.cfg.BOSState)
}

// NextI finds out the next state to go from p consuming x, backing off
// as needed. When x cannot be found even at the root, the root state
// and fst.WeightZero are returned.
func (m *Model) NextI(p fst.StateId, x fst.Label) (q fst.StateId, w fst.Weight) {
	w = fst.WeightOne
	for steps := 0; ; steps++ {
		if a := m.findNext(p, x); a != nil {
			return a.NextState, fst.Times(w, a.Weight)
		}
		b := m.backoffArc(p)
		// A back-off chain longer than the number of states is a loop.
		if b == nil || steps > m.lm.NumStates() {
			return fst.StateId(m.cfg.RootState), fst.WeightZero
		}
		w = fst.Times(w, b.Weight)
		p = b.NextState
	}
}

// findNext searches the word arcs of p for x using binary search.
func (m *Model) findNext(p fst.StateId, x fst.Label) *fst.Arc {
	if x == m.phi {
		return nil
	}
	arcs := m.lm.Arcs(p)
	if n := len(arcs); n > 0 && arcs[n-1].ILabel == m.phi {
		arcs = arcs[:n-1]
	}
	i := sort.Search(len(arcs), func(i int) bool { return arcs[i].ILabel >= x })
	if i < len(arcs) && arcs[i].ILabel == x {
		return &arcs[i]
	}
	return nil
}

func (m *Model) backoffArc(p fst.StateId) *fst.Arc {
	arcs := m.lm.Arcs(p)
	if n := len(arcs); n > 0 && arcs[n-1].ILabel == m.phi {
		return &arcs[n-1]
	}
	return nil
}

func (m *Model) NextS(p fst.StateId, s string) (q fst.StateId, w fst.Weight) {
	return m.NextI(p, m.syms.IdOf(s))
}

// Final returns the cost of ending the sentence at p.
func (m *Model) Final(p fst.StateId) fst.Weight {
	q, w := m.NextI(p, m.eos)
	if w.IsZero() {
		return w
	}
	return fst.Times(w, m.lm.Final(q))
}

// BackOff returns the back-off state and weight of p, or
// fst.NoStateId for a state without a back-off arc.
func (m *Model) BackOff(p fst.StateId) (fst.StateId, fst.Weight) {
	if b := m.backoffArc(p); b != nil {
		return b.NextState, b.Weight
	}
	return fst.NoStateId, fst.WeightOne
}

// ScoreWords scores one plain-text sentence without boundary symbols.
func (m *Model) ScoreWords(words []string) SentenceScore {
	total := fst.WeightOne
	p := m.Start()
	for _, x := range words {
		var w fst.Weight
		p, w = m.NextS(p, x)
		total = fst.Times(total, w)
		if m.cfg.Debug > 1 {
			glog.Infof("%q\t%g\t%g", x, LogProb(w), LogProb(total))
		}
	}
	w := m.Final(p)
	total = fst.Times(total, w)
	if m.cfg.Debug > 1 {
		glog.Infof("%s\t%g\t%g", m.cfg.EOS, LogProb(w), LogProb(total))
	}
	if total.IsZero() {
		return SentenceScore{Words: len(words) + 1}
	}
	return SentenceScore{LogProb: LogProb(total), Words: len(words) + 1, Valid: true}
}
