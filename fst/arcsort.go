package fst

import "sort"

// ArcSortFunc stably sorts the arcs of every state with less.
func ArcSortFunc(f *Vector, less func(a, b *Arc) bool) {
	for i := range f.states {
		arcs := f.states[i].arcs
		sort.SliceStable(arcs, func(x, y int) bool { return less(&arcs[x], &arcs[y]) })
	}
}

// ArcSortInput sorts arcs by input label.
func ArcSortInput(f *Vector) {
	ArcSortFunc(f, func(a, b *Arc) bool { return a.ILabel < b.ILabel })
}

// ArcSortOutput sorts arcs by output label.
func ArcSortOutput(f *Vector) {
	ArcSortFunc(f, func(a, b *Arc) bool { return a.OLabel < b.OLabel })
}
