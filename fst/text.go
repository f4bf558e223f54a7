package fst

// AT&T text format, one arc or final state per line:
//
//	src dst ilabel olabel [weight]
//	state [weight]
//
// The source state of the first line is the start state. Acceptors drop
// the olabel column.

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// TextOptions controls how labels are read and printed. Nil symbol
// tables mean labels are integers.
type TextOptions struct {
	ISymbols, OSymbols *SymbolTable
	Acceptor           bool
}

func parseLabel(s string, syms *SymbolTable) (Label, error) {
	if syms != nil {
		if i := syms.IdOf(s); i != NoLabel {
			return i, nil
		}
		return NoLabel, errors.Errorf("symbol %q not in table %q", s, syms.Name)
	}
	i, err := strconv.ParseInt(s, 10, 32)
	if err != nil || i < 0 {
		return NoLabel, errors.Errorf("bad label %q", s)
	}
	return Label(i), nil
}

func parseState(s string) (StateId, error) {
	i, err := strconv.ParseInt(s, 10, 32)
	if err != nil || i < 0 {
		return NoStateId, errors.Errorf("bad state %q", s)
	}
	return StateId(i), nil
}

// CompileText builds an automaton from its text description. Blank
// lines are skipped. An input without any line gives an empty
// automaton.
func CompileText(in io.Reader, opts TextOptions) (*Vector, error) {
	f := NewVector()
	scanner := bufio.NewScanner(in)
	for n := 1; scanner.Scan(); n++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if err := compileLine(f, fields, opts); err != nil {
			return nil, errors.Wrapf(err, "line %d", n)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

func compileLine(f *Vector, fields []string, opts TextOptions) error {
	src, err := parseState(fields[0])
	if err != nil {
		return err
	}
	f.AddStates(int(src) + 1)
	if f.Start() == NoStateId {
		f.SetStart(src)
	}

	arcFields := 4
	if opts.Acceptor {
		arcFields = 3
	}
	switch {
	case len(fields) <= 2:
		w := WeightOne
		if len(fields) == 2 {
			if w, err = ParseWeight(fields[1]); err != nil {
				return err
			}
		}
		f.SetFinal(src, w)
		return nil
	case len(fields) == arcFields || len(fields) == arcFields+1:
	default:
		return errors.Errorf("unexpected number of fields %d", len(fields))
	}

	dst, err := parseState(fields[1])
	if err != nil {
		return err
	}
	f.AddStates(int(dst) + 1)
	ilabel, err := parseLabel(fields[2], opts.ISymbols)
	if err != nil {
		return err
	}
	olabel := ilabel
	if !opts.Acceptor {
		osyms := opts.OSymbols
		if osyms == nil {
			osyms = opts.ISymbols
		}
		if olabel, err = parseLabel(fields[3], osyms); err != nil {
			return err
		}
	}
	w := WeightOne
	if len(fields) == arcFields+1 {
		if w, err = ParseWeight(fields[arcFields]); err != nil {
			return err
		}
	}
	f.AddArc(src, Arc{ilabel, olabel, w, dst})
	return nil
}

func printLabel(i Label, syms *SymbolTable) string {
	if syms != nil {
		if s := syms.StringOf(i); s != "" {
			return s
		}
	}
	return strconv.Itoa(int(i))
}

// PrintText writes f in text form starting from the start state, so
// that CompileText gives back an equivalent automaton.
func PrintText(w io.Writer, f *Vector, opts TextOptions) error {
	if f.Start() == NoStateId {
		return nil
	}
	osyms := opts.OSymbols
	if osyms == nil {
		osyms = opts.ISymbols
	}
	bw := bufio.NewWriter(w)
	printState := func(s StateId) {
		for _, a := range f.Arcs(s) {
			fmt.Fprintf(bw, "%d\t%d\t%s", s, a.NextState, printLabel(a.ILabel, opts.ISymbols))
			if !opts.Acceptor {
				fmt.Fprintf(bw, "\t%s", printLabel(a.OLabel, osyms))
			}
			if a.Weight != WeightOne {
				fmt.Fprintf(bw, "\t%s", a.Weight)
			}
			fmt.Fprintln(bw)
		}
		if w := f.Final(s); !w.IsZero() {
			if w == WeightOne {
				fmt.Fprintf(bw, "%d\n", s)
			} else {
				fmt.Fprintf(bw, "%d\t%s\n", s, w)
			}
		}
	}
	printState(f.Start())
	for s := 0; s < f.NumStates(); s++ {
		if StateId(s) != f.Start() {
			printState(StateId(s))
		}
	}
	return bw.Flush()
}
