package fstlm

import (
	"sort"
	"strconv"
	"strings"

	"github.com/alongwithyou/fstLM/fst"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Reserved states of a built automaton besides the configured <s> and
// root states.
const (
	startState fst.StateId = 0
	finalState fst.StateId = 1
)

// ngramEntry is one n-gram as labels with its costs.
type ngramEntry struct {
	labels    []fst.Label
	cost, bow fst.Weight
}

// Builder builds a back-off automaton from n-grams (e.g. estimated by
// SRILM). Must be constructed using NewBuilder().
//
// The automaton has a start state with a single <s> arc to the <s>
// context, a final state reached by every </s> arc and one state per
// context. Context states are numbered per order: general contexts of
// length 1, then <s> contexts of length 2, general contexts of length 2,
// and so on, each range sorted by parent state and label.
type Builder struct {
	cfg      Config
	syms     *fst.SymbolTable
	bos, eos fst.Label
	bosBow   fst.Weight
	entries  map[string]*ngramEntry
	order    int
}

// NewBuilder constructs a new Builder. The symbol table of the result
// starts with <eps>, <s> and </s>.
func NewBuilder(cfg Config) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BOSState <= int(finalState) || cfg.RootState <= int(finalState) {
		return nil, errors.Wrapf(ErrBadConfig, "states %d and %d are reserved", startState, finalState)
	}
	syms := fst.NewSymbolTable("words")
	syms.IdOrAdd("<eps>")
	b := &Builder{
		cfg:     cfg,
		syms:    syms,
		bos:     syms.IdOrAdd(cfg.BOS),
		eos:     syms.IdOrAdd(cfg.EOS),
		bosBow:  fst.WeightOne,
		entries: map[string]*ngramEntry{},
	}
	return b, nil
}

func labelsKey(labels []fst.Label) string {
	var sb strings.Builder
	for i, x := range labels {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(int(x)))
	}
	return sb.String()
}

// AddNgram adds an n-gram entry with its ARPA log-probability and
// back-off weight. The order of adding n-gram entries does not matter.
// For certain problematic input, warnings will be logged. Values no
// greater than Config.Log0 are taken as log(0).
func (b *Builder) AddNgram(context []string, word string, prob, bow float64) error {
	for i, x := range context {
		switch {
		case x == b.cfg.EOS:
			return errors.Errorf("end-of-sentence in context %q", context)
		case x == b.cfg.BOS && i > 0:
			return errors.Errorf("begin-of-sentence not in the beginning of context %q", context)
		case x == b.cfg.Backoff:
			return errors.Errorf("back-off symbol in context %q", context)
		}
	}
	if word == b.cfg.Backoff {
		return errors.Errorf("n-gram ending in the back-off symbol %q", word)
	}
	if word == b.cfg.BOS {
		if len(context) > 0 {
			if prob > -10 {
				glog.Warningf("there is a non-unigram ending in %q with weight %g (such n-gram should have -inf weight or not occur in the LM)", word, prob)
			}
			return nil
		}
		b.bosBow = CostOfLog10(bow, b.cfg.Log0)
		return nil
	}
	if word == b.cfg.EOS && bow != 0 {
		glog.Warningf("non-zero back-off %g for a n-gram ending in %q", bow, word)
		bow = 0
	}

	labels := make([]fst.Label, 0, len(context)+1)
	for _, x := range context {
		labels = append(labels, b.syms.IdOrAdd(x))
	}
	labels = append(labels, b.syms.IdOrAdd(word))
	key := labelsKey(labels)
	if _, ok := b.entries[key]; ok {
		glog.Warningf("duplicate n-gram %q %q", context, word)
	}
	b.entries[key] = &ngramEntry{labels, CostOfLog10(prob, b.cfg.Log0), CostOfLog10(bow, b.cfg.Log0)}
	if len(labels) > b.order {
		b.order = len(labels)
	}
	return nil
}

// Order returns the highest order added so far.
func (b *Builder) Order() int { return b.order }

func (b *Builder) isBOS(labels []fst.Label) bool {
	return len(labels) == 1 && labels[0] == b.bos
}

// sortedEntries returns the entries ordered by length and labels.
func (b *Builder) sortedEntries() []*ngramEntry {
	es := make([]*ngramEntry, 0, len(b.entries))
	for _, e := range b.entries {
		es = append(es, e)
	}
	sort.Slice(es, func(i, j int) bool {
		x, y := es[i].labels, es[j].labels
		if len(x) != len(y) {
			return len(x) < len(y)
		}
		for k := range x {
			if x[k] != y[k] {
				return x[k] < y[k]
			}
		}
		return false
	})
	return es
}

// addMissingPrefixes adds every missing prefix of every n-gram with
// weight 0 and no back-off, so each history is itself an n-gram.
func (b *Builder) addMissingPrefixes() {
	es := b.sortedEntries()
	for i := len(es) - 1; i >= 0; i-- {
		e := es[i]
		for n := len(e.labels) - 1; n > 0; n-- {
			prefix := e.labels[:n]
			if b.isBOS(prefix) {
				break
			}
			key := labelsKey(prefix)
			if _, ok := b.entries[key]; ok {
				break
			}
			glog.Warningf("adding missing prefix %q", b.words(prefix))
			b.entries[key] = &ngramEntry{prefix, fst.WeightOne, fst.WeightOne}
		}
	}
}

func (b *Builder) words(labels []fst.Label) string {
	ws := make([]string, len(labels))
	for i, x := range labels {
		ws[i] = b.syms.StringOf(x)
	}
	return strings.Join(ws, " ")
}

// contexts decides which n-grams get a state: every history and every
// n-gram below the highest order with a non-trivial back-off weight.
func (b *Builder) contexts() map[string]*ngramEntry {
	ctx := map[string]*ngramEntry{}
	for _, e := range b.entries {
		n := len(e.labels)
		if n > 1 {
			if h := e.labels[:n-1]; !b.isBOS(h) {
				key := labelsKey(h)
				ctx[key] = b.entries[key]
			}
		}
		if e.bow != fst.WeightOne && e.labels[n-1] != b.eos {
			if n < b.order {
				ctx[labelsKey(e.labels)] = e
			} else {
				glog.Warningf("ignoring back-off weight of highest-order n-gram %q", b.words(e.labels))
			}
		}
	}
	return ctx
}

// Dump creates the back-off automaton and its symbol table. The back-off
// symbol gets the largest label. b must not be used afterwards.
func (b *Builder) Dump() (*fst.Vector, *fst.SymbolTable, error) {
	if len(b.entries) == 0 {
		return nil, nil, errors.New("no n-grams")
	}
	phi := b.syms.IdOrAdd(b.cfg.Backoff)
	b.addMissingPrefixes()
	ctx := b.contexts()

	// Lay out context states.
	bosState, rootState := fst.StateId(b.cfg.BOSState), fst.StateId(b.cfg.RootState)
	ids := map[string]fst.StateId{}
	parent := func(labels []fst.Label) fst.StateId {
		switch h := labels[:len(labels)-1]; {
		case len(h) == 0:
			return rootState
		case b.isBOS(h):
			return bosState
		default:
			return ids[labelsKey(h)]
		}
	}
	next := bosState
	if rootState > next {
		next = rootState
	}
	next++
	numFixed := next
	var rng []*ngramEntry
	layout := func(anchored bool, n int) {
		rng = rng[:0]
		for _, e := range ctx {
			if len(e.labels) == n && (e.labels[0] == b.bos) == anchored {
				rng = append(rng, e)
			}
		}
		sort.Slice(rng, func(i, j int) bool {
			pi, pj := parent(rng[i].labels), parent(rng[j].labels)
			if pi != pj {
				return pi < pj
			}
			return rng[i].labels[n-1] < rng[j].labels[n-1]
		})
		for _, e := range rng {
			ids[labelsKey(e.labels)] = next
			next++
		}
	}
	for n := 1; n < b.order; n++ {
		if n > 1 {
			layout(true, n)
		}
		layout(false, n)
	}
	if len(ids) != len(ctx) {
		return nil, nil, errors.Errorf("laid out %d of %d contexts", len(ids), len(ctx))
	}

	// backoffState is the state of the longest proper suffix of labels
	// with a state.
	backoffState := func(labels []fst.Label) fst.StateId {
		for i := 1; i < len(labels); i++ {
			if q, ok := ids[labelsKey(labels[i:])]; ok {
				return q
			}
		}
		return rootState
	}

	lm := fst.NewVector()
	lm.AddStates(int(next))
	lm.SetStart(startState)
	lm.SetFinal(finalState, fst.WeightOne)
	lm.AddArc(startState, fst.Arc{ILabel: b.bos, OLabel: b.bos, Weight: fst.WeightOne, NextState: bosState})
	for _, e := range b.sortedEntries() {
		x := e.labels[len(e.labels)-1]
		var q fst.StateId
		if x == b.eos {
			q = finalState
		} else if id, ok := ids[labelsKey(e.labels)]; ok {
			q = id
		} else {
			q = backoffState(e.labels)
		}
		lm.AddArc(parent(e.labels), fst.Arc{ILabel: x, OLabel: x, Weight: e.cost, NextState: q})
	}
	lm.AddArc(bosState, fst.Arc{ILabel: phi, OLabel: phi, Weight: b.bosBow, NextState: rootState})
	for key, q := range ids {
		e := ctx[key]
		lm.AddArc(q, fst.Arc{ILabel: phi, OLabel: phi, Weight: e.bow, NextState: backoffState(e.labels)})
	}
	fst.ArcSortFunc(lm, backoffLast(phi))

	if b.cfg.Debug > 0 {
		glog.Infof("built %d-gram automaton: %d n-grams, %d contexts after state %d, %d arcs",
			b.order, len(b.entries), len(ids), numFixed-1, lm.TotalArcs())
	}
	syms := b.syms
	b.entries, b.syms = nil, nil
	return lm, syms, nil
}
