package fstlm

// Conversion of a back-off automaton to the ARPA format.
//
// Context states are visited order by order through two frontiers: one
// for histories starting with the begin of sentence and one for all
// other histories. Each frontier is a contiguous range of state ids; an
// arc leading past the end of the range to a state not seen yet opens a
// context of the next order, every other arc ends a highest-order
// n-gram or an n-gram whose context is shared with a shorter one.

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/alongwithyou/fstLM/fst"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Exporter prints a back-off automaton as ARPA text.
type Exporter struct {
	lm     *fst.Vector
	syms   *fst.SymbolTable
	cfg    Config
	bos    fst.Label
	phi    fst.Label
	counts []int
}

// NewExporter prepares lm for export. Arcs of lm are sorted in place by
// input label with the back-off arc last.
func NewExporter(lm *fst.Vector, syms *fst.SymbolTable, cfg Config) (*Exporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Exporter{lm: lm, syms: syms, cfg: cfg}
	if e.bos = syms.IdOf(cfg.BOS); e.bos == fst.NoLabel {
		return nil, errors.Wrapf(ErrMissingSymbol, "%q", cfg.BOS)
	}
	if e.phi = syms.IdOf(cfg.Backoff); e.phi == fst.NoLabel {
		return nil, errors.Wrapf(ErrMissingSymbol, "%q", cfg.Backoff)
	}
	for _, s := range []int{cfg.BOSState, cfg.RootState} {
		if s >= lm.NumStates() {
			return nil, errors.Errorf("state %d out of range: automaton has %d states", s, lm.NumStates())
		}
	}
	fst.ArcSortFunc(lm, backoffLast(e.phi))
	return e, nil
}

// backoffLast orders arcs by input label with phi arcs last.
func backoffLast(phi fst.Label) func(a, b *fst.Arc) bool {
	return func(a, b *fst.Arc) bool {
		if a.ILabel == phi || b.ILabel == phi {
			return a.ILabel != phi && b.ILabel == phi
		}
		return a.ILabel < b.ILabel
	}
}

// Counts returns the number of n-grams printed per order by the last
// call to Export.
func (e *Exporter) Counts() []int { return e.counts }

// WriteHeader writes the \data\ section for the counts of the last
// Export.
func (e *Exporter) WriteHeader(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, `\data\`)
	for i, c := range e.counts {
		fmt.Fprintf(bw, "ngram %d=%d\n", i+1, c)
	}
	return bw.Flush()
}

// frontier is a half-open range of state ids.
type frontier struct {
	lo, hi fst.StateId
}

func (r frontier) empty() bool { return r.lo >= r.hi }

// Export writes the n-gram sections of the model followed by \end\.
func (e *Exporter) Export(w io.Writer) error {
	bw := bufio.NewWriter(w)
	n := e.lm.NumStates()
	visited := make([]bool, n)
	hist := make([][]fst.Label, n)
	bosState, rootState := fst.StateId(e.cfg.BOSState), fst.StateId(e.cfg.RootState)
	visited[bosState], visited[rootState] = true, true
	hist[bosState] = []fst.Label{e.bos}

	e.counts = nil
	var anchored frontier
	general := frontier{rootState, rootState + 1}
	for order := 1; !anchored.empty() || !general.empty(); order++ {
		if e.cfg.Debug > 0 {
			glog.Infof("printing %d-grams", order)
		}
		fmt.Fprintf(bw, "\n\\%d-grams:\n", order)
		count := 0
		if order == 1 {
			bow, err := e.backoffWeight(bosState)
			if err != nil {
				return err
			}
			fmt.Fprintf(bw, "%s\t%s\t%s\n", FormatARPA(fst.WeightZero), e.cfg.BOS, bow)
			count++
		}
		var (
			c   int
			err error
		)
		if anchored, c, err = e.expand(bw, anchored, visited, hist); err != nil {
			return err
		}
		count += c
		if general, c, err = e.expand(bw, general, visited, hist); err != nil {
			return err
		}
		count += c
		e.counts = append(e.counts, count)
		if e.cfg.Debug > 0 {
			glog.Infof("%d %d-grams done", count, order)
		}
		if order == 1 && e.hasWords(bosState) {
			anchored = frontier{bosState, bosState + 1}
		}
	}
	fmt.Fprint(bw, "\n\\end\\\n")
	return bw.Flush()
}

// expand prints every n-gram leaving the states of r and returns the
// frontier of the next order.
func (e *Exporter) expand(w io.Writer, r frontier, visited []bool, hist [][]fst.Label) (frontier, int, error) {
	end := r.hi - 1
	next := frontier{math.MaxInt32, -1}
	count, opened := 0, 0
	for s := r.lo; s < r.hi; s++ {
		for _, a := range e.lm.Arcs(s) {
			if a.ILabel == e.phi {
				continue
			}
			ngram := make([]fst.Label, len(hist[s])+1)
			copy(ngram, hist[s])
			ngram[len(ngram)-1] = a.ILabel
			text, err := e.ngramText(ngram)
			if err != nil {
				return next, 0, err
			}
			q := a.NextState
			if q > end && !visited[q] {
				bow, err := e.backoffWeight(q)
				if err != nil {
					return next, 0, err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", FormatARPA(a.Weight), text, bow)
				visited[q] = true
				hist[q] = ngram
				if q < next.lo {
					next.lo = q
				}
				if q+1 > next.hi {
					next.hi = q + 1
				}
				opened++
			} else {
				fmt.Fprintf(w, "%s\t%s\n", FormatARPA(a.Weight), text)
			}
			if e.cfg.Debug > 1 {
				glog.Infof("%d -> %d: %s", s, q, text)
			}
			count++
		}
		// Histories of a finished frontier are never read again.
		hist[s] = nil
	}
	if opened == 0 {
		return frontier{}, count, nil
	}
	if int(next.hi-next.lo) != opened {
		return next, count, errors.Wrapf(ErrContiguity, "%d new contexts spread over states [%d, %d)", opened, next.lo, next.hi)
	}
	return next, count, nil
}

// hasWords reports whether s has an arc other than its back-off arc.
func (e *Exporter) hasWords(s fst.StateId) bool {
	for _, a := range e.lm.Arcs(s) {
		if a.ILabel != e.phi {
			return true
		}
	}
	return false
}

func (e *Exporter) backoffWeight(s fst.StateId) (string, error) {
	arcs := e.lm.Arcs(s)
	if len(arcs) == 0 || arcs[len(arcs)-1].ILabel != e.phi {
		return "", errors.Wrapf(ErrNoBackoffArc, "state %d", s)
	}
	return FormatARPA(arcs[len(arcs)-1].Weight), nil
}

func (e *Exporter) ngramText(ngram []fst.Label) (string, error) {
	words := make([]string, len(ngram))
	for i, x := range ngram {
		if words[i] = e.syms.StringOf(x); words[i] == "" {
			return "", errors.Wrapf(ErrMissingSymbol, "label %d", x)
		}
	}
	return strings.Join(words, " "), nil
}
