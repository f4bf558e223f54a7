package fst

// Binary I/O in the layout OpenFst uses for VectorFst<StdArc>: a header
// followed by, for every state, its final weight, its number of arcs
// and the arcs themselves. Everything is little-endian.

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

const (
	fstMagic     int32 = 2125659606
	symbolsMagic int32 = 2125658996
	fstVersion   int32 = 2

	flagHasISymbols int32 = 0x1
	flagHasOSymbols int32 = 0x2
	flagIsAligned   int32 = 0x4

	propExpanded uint64 = 0x1
	propMutable  uint64 = 0x2

	maxStringLen = 1 << 20

	// maxCount bounds state and arc counts since ids are int32.
	maxCount  = math.MaxInt32
	readChunk = 1 << 12
)

var (
	ErrBadMagic       = errors.New("fst: bad magic number")
	ErrUnsupportedFst = errors.New("fst: unsupported fst or arc type")
)

var byteOrder = binary.LittleEndian

type header struct {
	fstType    string
	arcType    string
	version    int32
	flags      int32
	properties uint64
	start      int64
	numStates  int64
	numArcs    int64
}

func readString(r io.Reader) (string, error) {
	var n int32
	if err := binary.Read(r, byteOrder, &n); err != nil {
		return "", err
	}
	if n < 0 || n > maxStringLen {
		return "", errors.Errorf("fst: bad string length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, byteOrder, int32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readHeader(r io.Reader) (h header, err error) {
	var magic int32
	if err = binary.Read(r, byteOrder, &magic); err != nil {
		return
	}
	if magic != fstMagic {
		err = errors.Wrapf(ErrBadMagic, "got %d", magic)
		return
	}
	if h.fstType, err = readString(r); err != nil {
		return
	}
	if h.arcType, err = readString(r); err != nil {
		return
	}
	for _, v := range []interface{}{&h.version, &h.flags, &h.properties, &h.start, &h.numStates, &h.numArcs} {
		if err = binary.Read(r, byteOrder, v); err != nil {
			return
		}
	}
	return
}

// skipSymbolTable reads past a symbol table embedded after the header.
func skipSymbolTable(r io.Reader) error {
	var magic int32
	if err := binary.Read(r, byteOrder, &magic); err != nil {
		return err
	}
	if magic != symbolsMagic {
		return errors.Wrapf(ErrBadMagic, "symbol table: got %d", magic)
	}
	if _, err := readString(r); err != nil {
		return err
	}
	var available, size int64
	if err := binary.Read(r, byteOrder, &available); err != nil {
		return err
	}
	if err := binary.Read(r, byteOrder, &size); err != nil {
		return err
	}
	for i := int64(0); i < size; i++ {
		if _, err := readString(r); err != nil {
			return err
		}
		var key int64
		if err := binary.Read(r, byteOrder, &key); err != nil {
			return err
		}
	}
	return nil
}

// Read reads one automaton from r and leaves r right after it, so a
// stream holding several automata can be read by calling Read
// repeatedly. io.EOF is returned untouched when r is exhausted before
// the first byte.
func Read(r io.Reader) (*Vector, error) {
	h, err := readHeader(r)
	if err == io.EOF {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading fst header")
	}
	if h.fstType != "vector" || h.arcType != "standard" {
		return nil, errors.Wrapf(ErrUnsupportedFst, "%q/%q", h.fstType, h.arcType)
	}
	if h.flags&flagIsAligned != 0 {
		return nil, errors.Wrap(ErrUnsupportedFst, "aligned files")
	}
	if h.flags&flagHasISymbols != 0 {
		if err := skipSymbolTable(r); err != nil {
			return nil, errors.Wrap(err, "reading input symbols")
		}
	}
	if h.flags&flagHasOSymbols != 0 {
		if err := skipSymbolTable(r); err != nil {
			return nil, errors.Wrap(err, "reading output symbols")
		}
	}
	if h.numStates < 0 || h.numStates > maxCount {
		return nil, errors.Errorf("fst: bad number of states %d", h.numStates)
	}
	if h.start < -1 || h.start >= h.numStates {
		return nil, errors.Errorf("fst: start state %d out of range [0, %d)", h.start, h.numStates)
	}

	// Header counts are untrusted: slices grow as data is read.
	f := NewVector()
	f.states = make([]vectorState, 0, min(h.numStates, readChunk))
	f.start = StateId(h.start)
	for s := int64(0); s < h.numStates; s++ {
		var final float32
		if err := binary.Read(r, byteOrder, &final); err != nil {
			return nil, errors.Wrapf(err, "reading final weight of state %d", s)
		}
		var narcs int64
		if err := binary.Read(r, byteOrder, &narcs); err != nil {
			return nil, errors.Wrapf(err, "reading arc count of state %d", s)
		}
		if narcs < 0 || narcs > maxCount {
			return nil, errors.Errorf("fst: state %d has %d arcs", s, narcs)
		}
		var arcs []Arc
		for left := narcs; left > 0; {
			chunk := make([]Arc, min(left, readChunk))
			if err := binary.Read(r, byteOrder, chunk); err != nil {
				return nil, errors.Wrapf(err, "reading arcs of state %d", s)
			}
			arcs = append(arcs, chunk...)
			left -= int64(len(chunk))
		}
		for _, a := range arcs {
			if a.NextState < 0 || int64(a.NextState) >= h.numStates {
				return nil, errors.Errorf("fst: arc from state %d to %d out of range", s, a.NextState)
			}
		}
		f.states = append(f.states, vectorState{Weight(final), arcs})
	}
	return f, nil
}

// ReadFile reads an automaton from the named file.
func ReadFile(path string) (*Vector, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	f, err := Read(bufio.NewReader(in))
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return f, errors.Wrap(err, path)
}

// Write writes f in binary form.
func (f *Vector) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, byteOrder, fstMagic); err != nil {
		return err
	}
	if err := writeString(bw, "vector"); err != nil {
		return err
	}
	if err := writeString(bw, "standard"); err != nil {
		return err
	}
	for _, v := range []interface{}{
		fstVersion, int32(0), propExpanded | propMutable,
		int64(f.start), int64(len(f.states)), int64(f.TotalArcs()),
	} {
		if err := binary.Write(bw, byteOrder, v); err != nil {
			return err
		}
	}
	for _, s := range f.states {
		if err := binary.Write(bw, byteOrder, float32(s.final)); err != nil {
			return err
		}
		if err := binary.Write(bw, byteOrder, int64(len(s.arcs))); err != nil {
			return err
		}
		if err := binary.Write(bw, byteOrder, s.arcs); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes f in binary form to the named file.
func (f *Vector) WriteFile(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.Write(out); err != nil {
		out.Close()
		return errors.Wrap(err, path)
	}
	return out.Close()
}
