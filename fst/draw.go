package fst

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

// Draw renders f in the DOT language. Mostly for debugging; large
// automata give unreadable pictures.
func Draw(f *Vector, opts TextOptions) (string, error) {
	const name = "FST"
	g := gographviz.NewEscape()
	if err := g.SetName(name); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}
	if err := g.AddAttr(name, "rankdir", "LR"); err != nil {
		return "", err
	}
	osyms := opts.OSymbols
	if osyms == nil {
		osyms = opts.ISymbols
	}
	for i := 0; i < f.NumStates(); i++ {
		s := StateId(i)
		attrs := map[string]string{"shape": "circle", "label": strconv.Itoa(i)}
		if f.IsFinal(s) {
			attrs["shape"] = "doublecircle"
			if w := f.Final(s); w != WeightOne {
				attrs["label"] = fmt.Sprintf("%d/%s", i, w)
			}
		}
		if s == f.Start() {
			attrs["style"] = "bold"
		}
		if err := g.AddNode(name, strconv.Itoa(i), attrs); err != nil {
			return "", err
		}
	}
	for i := 0; i < f.NumStates(); i++ {
		for _, a := range f.Arcs(StateId(i)) {
			label := printLabel(a.ILabel, opts.ISymbols)
			if !opts.Acceptor {
				label += ":" + printLabel(a.OLabel, osyms)
			}
			if a.Weight != WeightOne {
				label += "/" + a.Weight.String()
			}
			attrs := map[string]string{"label": label}
			if err := g.AddEdge(strconv.Itoa(i), strconv.Itoa(int(a.NextState)), true, attrs); err != nil {
				return "", err
			}
		}
	}
	return g.String(), nil
}
