package fstlm

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/alongwithyou/fstLM/fst"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// SentenceScore is the outcome of scoring one sentence.
type SentenceScore struct {
	// LogProb is the natural-log probability of the best path. It is 0
	// for an invalid sentence.
	LogProb float64
	// Words is the declared word count, end of sentence included.
	Words int
	// Valid is false when the language model cannot generate the
	// sentence.
	Valid bool
}

// Stats accumulates sentence scores over a corpus. The zero value is
// ready to use.
type Stats struct {
	Sentences        int
	Words            int
	InvalidSentences int
	InvalidWords     int
	// LogProb is the total natural-log probability of valid sentences.
	LogProb float64

	perWord []float64
}

// Add accumulates s. Invalid sentences only count towards the invalid
// totals.
func (st *Stats) Add(s SentenceScore) {
	st.Sentences++
	if !s.Valid {
		st.InvalidSentences++
		st.InvalidWords += s.Words
		return
	}
	st.Words += s.Words
	st.LogProb += s.LogProb
	if s.Words > 0 {
		st.perWord = append(st.perWord, s.LogProb/float64(s.Words))
	}
}

// AvgLogProb is the average natural-log probability per valid word.
func (st *Stats) AvgLogProb() (float64, error) {
	if st.Words == 0 {
		return 0, ErrNoWords
	}
	return st.LogProb / float64(st.Words), nil
}

// Perplexity is exp(-AvgLogProb).
func (st *Stats) Perplexity() (float64, error) {
	avg, err := st.AvgLogProb()
	if err != nil {
		return 0, err
	}
	return math.Exp(-avg), nil
}

// Spread returns the mean and standard deviation of the per-word
// log-probability of each valid sentence.
func (st *Stats) Spread() (mean, std float64) {
	switch len(st.perWord) {
	case 0:
		return 0, 0
	case 1:
		return st.perWord[0], 0
	}
	return stat.MeanStdDev(st.perWord, nil)
}

// Summary is the one-line report printed by compute-ppl.
func (st *Stats) Summary() string {
	avg, _ := st.AvgLogProb()
	ppl, _ := st.Perplexity()
	return fmt.Sprintf("average log-prob per word was %g (perplexity = %g) over %d words; %d invalid sentences with %d words skipped",
		avg, ppl, st.Words, st.InvalidSentences, st.InvalidWords)
}

// Scorer intersects sentence automata with a language model automaton.
// The language model is never modified.
type Scorer struct {
	lm      *fst.Vector
	cfg     Config
	matcher *fst.Matcher
	// Symbols, when set, names labels in debug traces and dumps.
	Symbols *fst.SymbolTable
	next    int
}

// NewScorer constructs a Scorer over lm, which must not change afterwards.
func NewScorer(lm *fst.Vector, cfg Config) *Scorer {
	return &Scorer{lm: lm, cfg: cfg, matcher: fst.NewMatcher(lm, fst.MatchOutput)}
}

// BOS returns the begin-of-sentence label of the language model: the
// symbol of Config.BOS when Symbols is set, otherwise the label of the
// single arc leaving the start state. It is fst.NoLabel when neither is
// known.
func (sc *Scorer) BOS() fst.Label {
	if sc.Symbols != nil {
		return sc.Symbols.IdOf(sc.cfg.BOS)
	}
	if s := sc.lm.Start(); s != fst.NoStateId && sc.lm.NumArcs(s) == 1 {
		return sc.lm.Arcs(s)[0].ILabel
	}
	return fst.NoLabel
}

// Score scores one sentence automaton declared to hold words words.
func (sc *Scorer) Score(sent *fst.Vector, words int) (SentenceScore, error) {
	id := sc.next
	sc.next++

	comp := fst.Compose(sc.lm, sent, fst.WithLeftMatcher(sc.matcher))
	path, err := fst.ShortestPath(comp)
	if err != nil {
		return SentenceScore{}, errors.Wrapf(err, "sentence %d", id)
	}
	if sc.cfg.DumpDir != "" {
		if err := sc.dump(id, comp, path); err != nil {
			return SentenceScore{}, err
		}
	}
	if path.Start() == fst.NoStateId {
		if sc.cfg.Debug > 0 {
			glog.Warningf("sentence %d: empty automaton after composition", id)
		}
		return SentenceScore{Words: words}, nil
	}
	w, err := sc.pathWeight(id, path)
	if err != nil {
		return SentenceScore{}, errors.Wrapf(err, "sentence %d", id)
	}
	if w.IsZero() {
		if sc.cfg.Debug > 0 {
			glog.Warningf("sentence %d: zero probability", id)
		}
		return SentenceScore{Words: words}, nil
	}
	s := SentenceScore{LogProb: LogProb(w), Words: words, Valid: true}
	if sc.cfg.Debug > 0 {
		glog.Infof("sentence %d: %d words, log-prob %g", id, words, s.LogProb)
	}
	return s, nil
}

// Run scores every sentence of r.
func (sc *Scorer) Run(r *SentenceReader) (Stats, error) {
	var st Stats
	for {
		sent, words, err := r.Next()
		if err == io.EOF {
			return st, nil
		}
		if err != nil {
			return st, err
		}
		s, err := sc.Score(sent, words)
		if err != nil {
			return st, err
		}
		st.Add(s)
	}
}

func (sc *Scorer) pathWeight(id int, path *fst.Vector) (fst.Weight, error) {
	if sc.cfg.Debug < 2 {
		return PathWeight(path)
	}
	return walkPath(path, func(a *fst.Arc, total fst.Weight) {
		glog.Infof("sentence %d: %s\t%g\t%g", id, sc.labelName(a.OLabel), a.Weight, total)
	})
}

func (sc *Scorer) labelName(x fst.Label) string {
	if sc.Symbols != nil {
		if s := sc.Symbols.StringOf(x); s != "" {
			return s
		}
	}
	return fmt.Sprint(x)
}

// PathWeight sums the weights along a linear automaton, including the
// final weight of its last state.
func PathWeight(path *fst.Vector) (fst.Weight, error) {
	return walkPath(path, nil)
}

func walkPath(path *fst.Vector, trace func(a *fst.Arc, total fst.Weight)) (fst.Weight, error) {
	w := fst.WeightOne
	s := path.Start()
	for steps := 0; ; steps++ {
		if path.IsFinal(s) {
			return fst.Times(w, path.Final(s)), nil
		}
		if path.NumArcs(s) != 1 || steps >= path.NumStates() {
			return fst.WeightZero, errors.Wrapf(ErrNonLinearPath, "state %d has %d arcs", s, path.NumArcs(s))
		}
		a := &path.Arcs(s)[0]
		w = fst.Times(w, a.Weight)
		if trace != nil {
			trace(a, w)
		}
		s = a.NextState
	}
}

func (sc *Scorer) dump(id int, comp, path *fst.Vector) error {
	opts := fst.TextOptions{ISymbols: sc.Symbols, OSymbols: sc.Symbols}
	for _, i := range []struct {
		name string
		f    *fst.Vector
	}{{"comp", comp}, {"final", path}} {
		base := filepath.Join(sc.cfg.DumpDir, fmt.Sprintf("%d.%s", id, i.name))
		if err := i.f.WriteFile(base + ".fst"); err != nil {
			return err
		}
		dot, err := fst.Draw(i.f, opts)
		if err != nil {
			return errors.Wrapf(err, "drawing %s", base)
		}
		if err := os.WriteFile(base+".dot", []byte(dot), 0644); err != nil {
			return err
		}
	}
	return nil
}
