package fst

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linear builds an acceptor 0 -x1-> 1 -x2-> ... n with unit weights
// and a final last state.
func linear(labels ...Label) *Vector {
	f := NewVector()
	f.SetStart(f.AddState())
	for _, x := range labels {
		p := StateId(f.NumStates() - 1)
		f.AddArc(p, Arc{x, x, WeightOne, f.AddState()})
	}
	f.SetFinal(StateId(f.NumStates()-1), WeightOne)
	return f
}

func TestWeight(t *testing.T) {
	assert.True(t, WeightZero.IsZero())
	assert.False(t, WeightOne.IsZero())
	assert.Equal(t, Weight(3), Times(1, 2))
	assert.True(t, Times(1, WeightZero).IsZero())
	assert.Equal(t, Weight(-1), Plus(2, -1))
	assert.Equal(t, "Infinity", WeightZero.String())
	assert.Equal(t, "0.5", Weight(0.5).String())

	var w Weight
	require.NoError(t, w.Set("Infinity"))
	assert.True(t, w.IsZero())
	require.NoError(t, w.Set("-2.5"))
	assert.Equal(t, Weight(-2.5), w)
	assert.Error(t, w.Set("x"))
}

func TestArcSort(t *testing.T) {
	f := NewVector()
	s := f.AddState()
	f.AddArc(s, Arc{3, 1, 0, s})
	f.AddArc(s, Arc{1, 3, 1, s})
	f.AddArc(s, Arc{3, 2, 2, s})
	f.AddArc(s, Arc{2, 2, 3, s})

	ArcSortInput(f)
	var got []Weight
	for _, a := range f.Arcs(s) {
		got = append(got, a.Weight)
	}
	// Stable: the two arcs labeled 3 keep their relative order.
	assert.Equal(t, []Weight{1, 3, 0, 2}, got)

	ArcSortOutput(f)
	assert.Equal(t, Label(1), f.Arcs(s)[0].OLabel)
	assert.Equal(t, Label(3), f.Arcs(s)[3].OLabel)
}

func TestMatcher(t *testing.T) {
	f := NewVector()
	s := f.AddState()
	for i, x := range []Label{5, 2, 5, 1} {
		f.AddArc(s, Arc{x, x, Weight(i), s})
	}
	m := NewMatcher(f, MatchInput)
	var got []Weight
	m.Find(s, 5, func(a *Arc) { got = append(got, a.Weight) })
	assert.Equal(t, []Weight{0, 2}, got)
	got = nil
	m.Find(s, 3, func(a *Arc) { got = append(got, a.Weight) })
	assert.Empty(t, got)
}

func TestCompose(t *testing.T) {
	// a: 0 -1:1/1-> 1 -2:2/2-> 2, with an extra epsilon-output arc.
	a := NewVector()
	a.AddStates(3)
	a.SetStart(0)
	a.AddArc(0, Arc{1, 1, 1, 1})
	a.AddArc(1, Arc{2, 2, 2, 2})
	a.AddArc(1, Arc{9, Epsilon, 5, 1})
	a.SetFinal(2, 0.5)

	b := linear(1, 2)
	c := Compose(a, b)
	require.NotEqual(t, NoStateId, c.Start())

	p, err := ShortestPath(c)
	require.NoError(t, err)
	assert.Equal(t, 3, p.NumStates())
	w := WeightOne
	for s := p.Start(); ; {
		if p.IsFinal(s) {
			w = Times(w, p.Final(s))
			break
		}
		require.Equal(t, 1, p.NumArcs(s))
		w = Times(w, p.Arcs(s)[0].Weight)
		s = p.Arcs(s)[0].NextState
	}
	assert.Equal(t, Weight(3.5), w)

	// Nothing in common: the composition is empty.
	empty := Compose(a, linear(2))
	assert.Equal(t, NoStateId, empty.Start())
	assert.Equal(t, 0, empty.NumStates())
}

func TestShortestPathNegative(t *testing.T) {
	f := NewVector()
	f.AddStates(4)
	f.SetStart(0)
	f.AddArc(0, Arc{1, 1, 1, 1})
	f.AddArc(0, Arc{2, 2, 3, 2})
	f.AddArc(2, Arc{3, 3, -4, 1})
	f.AddArc(1, Arc{4, 4, 0, 3})
	f.SetFinal(3, 1)

	p, err := ShortestPath(f)
	require.NoError(t, err)
	var labels []Label
	for s := p.Start(); p.NumArcs(s) == 1; s = p.Arcs(s)[0].NextState {
		labels = append(labels, p.Arcs(s)[0].ILabel)
	}
	assert.Equal(t, []Label{2, 3, 4}, labels)

	f.AddArc(1, Arc{5, 5, -10, 0})
	_, err = ShortestPath(f)
	assert.ErrorIs(t, err, ErrNegativeCycle)
}

func TestShortestPathEmpty(t *testing.T) {
	p, err := ShortestPath(NewVector())
	require.NoError(t, err)
	assert.Equal(t, NoStateId, p.Start())

	f := linear(1, 2)
	f.SetFinal(2, WeightZero)
	p, err = ShortestPath(f)
	require.NoError(t, err)
	assert.Equal(t, NoStateId, p.Start())
}

func TestConnect(t *testing.T) {
	f := linear(1, 2)
	dead := f.AddState()
	f.AddArc(0, Arc{7, 7, 0, dead})
	unreachable := f.AddState()
	f.AddArc(unreachable, Arc{8, 8, 0, 2})
	Connect(f)
	assert.Equal(t, 3, f.NumStates())
	assert.Equal(t, 2, f.TotalArcs())
}

func TestBinaryRoundTrip(t *testing.T) {
	f := linear(3, 4, 5)
	f.AddArc(1, Arc{6, 7, 0.25, 0})
	f.SetFinal(3, 1.5)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, linear(9).Write(&buf))

	g, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, f, g)
	h, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, linear(9), h)
	_, err = Read(&buf)
	assert.Equal(t, io.EOF, err)

	_, err = Read(strings.NewReader("garbage!"))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestReadCorrupt(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, linear(3).Write(&buf))
	good := buf.Bytes()
	// Offsets of the state count in the header and of the arc count of
	// state 0.
	const numStatesAt, numArcs0At = 50, 70
	require.Equal(t, uint64(2), binary.LittleEndian.Uint64(good[numStatesAt:]))
	require.Equal(t, uint64(1), binary.LittleEndian.Uint64(good[numArcs0At:]))

	for _, i := range []struct {
		Name  string
		At    int
		Value uint64
	}{
		{"huge state count", numStatesAt, 1 << 50},
		{"negative state count", numStatesAt, 1 << 63},
		{"truncated states", numStatesAt, 1 << 30},
		{"huge arc count", numArcs0At, 1 << 62},
		{"truncated arcs", numArcs0At, 1 << 20},
	} {
		t.Run(i.Name, func(t *testing.T) {
			bad := append([]byte(nil), good...)
			binary.LittleEndian.PutUint64(bad[i.At:], i.Value)
			var (
				f   *Vector
				err error
			)
			require.NotPanics(t, func() { f, err = Read(bytes.NewReader(bad)) })
			assert.Error(t, err)
			assert.Nil(t, f)
		})
	}
}

func TestText(t *testing.T) {
	syms := NewSymbolTable("words")
	for _, s := range []string{"<eps>", "a", "b"} {
		syms.IdOrAdd(s)
	}
	const text = "0\t1\ta\ta\n1\t2\tb\ta\t0.5\n1\t1\ta\tb\n2\t1.25\n"
	opts := TextOptions{ISymbols: syms}
	f, err := CompileText(strings.NewReader(text), opts)
	require.NoError(t, err)
	assert.Equal(t, 3, f.NumStates())
	assert.Equal(t, Weight(1.25), f.Final(2))
	assert.Equal(t, Arc{2, 1, 0.5, 2}, f.Arcs(1)[0])

	var buf bytes.Buffer
	require.NoError(t, PrintText(&buf, f, opts))
	assert.Equal(t, text, buf.String())

	acceptor, err := CompileText(strings.NewReader("0 1 7 2\n1\n"), TextOptions{Acceptor: true})
	require.NoError(t, err)
	assert.Equal(t, Arc{7, 7, 2, 1}, acceptor.Arcs(0)[0])

	for _, bad := range []string{"0 1 a\n", "0 1 a c\n", "x 1 a a\n", "0 1 a a w\n"} {
		_, err := CompileText(strings.NewReader(bad), opts)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestSymbolTable(t *testing.T) {
	syms, err := ReadSymbolTableText(strings.NewReader("<eps> 0\na 1\n\nb 5\n"), "test")
	require.NoError(t, err)
	assert.Equal(t, 3, syms.Len())
	assert.Equal(t, Label(6), syms.Bound())
	assert.Equal(t, Label(5), syms.IdOf("b"))
	assert.Equal(t, NoLabel, syms.IdOf("c"))
	assert.Equal(t, "a", syms.StringOf(1))

	c := syms.Copy()
	assert.Equal(t, Label(6), c.IdOrAdd("c"))
	assert.Equal(t, NoLabel, syms.IdOf("c"))

	var buf bytes.Buffer
	require.NoError(t, syms.WriteText(&buf))
	assert.Equal(t, "<eps>\t0\na\t1\nb\t5\n", buf.String())

	for _, bad := range []string{"a 1 2\n", "a x\n", "a 1\nb 1\n", "a 1\na 2\n"} {
		_, err := ReadSymbolTableText(strings.NewReader(bad), "bad")
		assert.Error(t, err, "input %q", bad)
	}
}

func TestDraw(t *testing.T) {
	f := NewVector()
	f.AddStates(3)
	f.SetStart(0)
	f.AddArc(0, Arc{1, 1, 0.5, 1})
	f.AddArc(1, Arc{2, 2, WeightOne, 2})
	f.SetFinal(2, WeightOne)
	dot, err := Draw(f, TextOptions{Acceptor: true})
	require.NoError(t, err)
	assert.Contains(t, dot, "digraph FST")
	assert.Contains(t, dot, "doublecircle")
	assert.Contains(t, dot, "1/0.5")
}
