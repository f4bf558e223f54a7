package fstlm

// Per-sentence automata and the stream format that carries them.
//
// A stream is a sequence of records. A tagged record is either
//
//	t<count>\n<AT&T text automaton></FST>\n
//
// or
//
//	b<count>\n<binary automaton>
//
// A legacy record is a decimal word count followed by a binary
// automaton; the count may also be absent altogether.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/alongwithyou/fstLM/fst"
	"github.com/pkg/errors"
)

// SentenceFormat selects how a SentenceReader recognizes records.
type SentenceFormat int

const (
	// FormatAuto inspects the first byte of every record.
	FormatAuto SentenceFormat = iota
	// FormatTagged accepts only "t" and "b" records.
	FormatTagged
	// FormatLegacy accepts only count-prefixed or bare binary records.
	FormatLegacy
)

var formatNames = []string{"auto", "tagged", "legacy"}

func (f SentenceFormat) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("SentenceFormat(%d)", int(f))
}

// Set implements flag.Value.
func (f *SentenceFormat) Set(s string) error {
	for i, n := range formatNames {
		if n == s {
			*f = SentenceFormat(i)
			return nil
		}
	}
	return errors.Errorf("unknown sentence format %q", s)
}

const textEnd = "</FST>"

// binaryLead is the first byte of a little-endian binary automaton.
const binaryLead = 0xd6

// SentenceReader reads sentence records one at a time.
type SentenceReader struct {
	in     *bufio.Reader
	format SentenceFormat
	n      int
	// BOS is the begin-of-sentence label. A leading BOS arc is not
	// counted as a word of a record without a count.
	BOS fst.Label
}

// NewSentenceReader constructs a reader with no BOS label.
func NewSentenceReader(in io.Reader, format SentenceFormat) *SentenceReader {
	return &SentenceReader{bufio.NewReader(in), format, 0, fst.NoLabel}
}

// Next returns the next sentence automaton with its declared word
// count. It returns io.EOF when the stream ends cleanly between
// records.
func (r *SentenceReader) Next() (*fst.Vector, int, error) {
	if err := r.skipSpace(); err != nil {
		return nil, 0, err
	}
	b, err := r.in.Peek(1)
	if err != nil {
		return nil, 0, err
	}
	id := r.n
	r.n++
	var (
		f     *fst.Vector
		count int
	)
	switch c := b[0]; {
	case (c == 't' || c == 'b') && r.format != FormatLegacy:
		f, count, err = r.readTagged()
	case c >= '0' && c <= '9' && r.format != FormatTagged:
		if count, err = r.readCount(); err == nil {
			f, err = r.readBinary()
		}
	case c == binaryLead && r.format != FormatTagged:
		if f, err = r.readBinary(); err == nil {
			count = chainWords(f, r.BOS)
		}
	default:
		err = errors.Wrapf(ErrUnknownFormat, "leading byte %q", c)
	}
	if err != nil {
		return nil, 0, errors.Wrapf(err, "sentence %d", id)
	}
	return f, count, nil
}

func (r *SentenceReader) skipSpace() error {
	for {
		c, err := r.in.ReadByte()
		if err != nil {
			return err
		}
		switch c {
		case ' ', '\t', '\n', '\r', '\v', '\f':
		default:
			return r.in.UnreadByte()
		}
	}
}

// readLine reads one line without its terminating newline.
func (r *SentenceReader) readLine() ([]byte, error) {
	line, err := r.in.ReadBytes('\n')
	if err == io.EOF && len(line) > 0 {
		err = nil
	}
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return bytes.TrimRight(line, " \t\r\n"), nil
}

func (r *SentenceReader) readTagged() (*fst.Vector, int, error) {
	line, err := r.readLine()
	if err != nil {
		return nil, 0, err
	}
	count, err := strconv.Atoi(string(line[1:]))
	if err != nil || count < 0 {
		return nil, 0, errors.Wrapf(ErrUnknownFormat, "bad record tag %q", line)
	}
	if line[0] == 'b' {
		f, err := r.readBinary()
		return f, count, err
	}
	var text bytes.Buffer
	for {
		l, err := r.readLine()
		if err == io.ErrUnexpectedEOF {
			return nil, 0, errors.Errorf("text automaton not terminated by %s", textEnd)
		}
		if err != nil {
			return nil, 0, err
		}
		if string(bytes.TrimSpace(l)) == textEnd {
			break
		}
		text.Write(l)
		text.WriteByte('\n')
	}
	f, err := fst.CompileText(&text, fst.TextOptions{})
	return f, count, err
}

func (r *SentenceReader) readCount() (int, error) {
	var digits []byte
	for {
		c, err := r.in.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if c < '0' || c > '9' {
			if err := r.in.UnreadByte(); err != nil {
				return 0, err
			}
			break
		}
		digits = append(digits, c)
	}
	count, err := strconv.Atoi(string(digits))
	if err != nil {
		return 0, err
	}
	return count, r.skipSpace()
}

func (r *SentenceReader) readBinary() (*fst.Vector, error) {
	f, err := fst.Read(r.in)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return f, err
}

// chainWords counts the word arcs along the chain of a sentence
// automaton, ignoring self-loops and a leading bos arc.
func chainWords(f *fst.Vector, bos fst.Label) int {
	n := 0
	first := true
	seen := make([]bool, f.NumStates())
	for s := f.Start(); s != fst.NoStateId && !seen[s]; {
		seen[s] = true
		next := fst.NoStateId
		for _, a := range f.Arcs(s) {
			if a.NextState != s {
				next = a.NextState
				if !first || bos == fst.NoLabel || a.ILabel != bos {
					n++
				}
				first = false
				break
			}
		}
		s = next
	}
	return n
}

// SentenceOptions controls SentenceFst. A label of fst.NoLabel turns the
// corresponding feature off.
type SentenceOptions struct {
	// Disambig labels a self-loop on every state so the sentence can
	// follow back-off arcs of a language model.
	Disambig fst.Label
	BOS      fst.Label
	EOS      fst.Label
}

// DefaultSentenceOptions turns every feature off.
func DefaultSentenceOptions() SentenceOptions {
	return SentenceOptions{fst.NoLabel, fst.NoLabel, fst.NoLabel}
}

// SentenceFst builds the linear acceptor of words and returns it with
// its word count, which includes the end of sentence.
func SentenceFst(words []fst.Label, opts SentenceOptions) (*fst.Vector, int, error) {
	labels := make([]fst.Label, 0, len(words)+2)
	if opts.BOS != fst.NoLabel {
		labels = append(labels, opts.BOS)
	}
	for _, x := range words {
		if opts.Disambig != fst.NoLabel && x == opts.Disambig {
			return nil, 0, errors.Errorf("sentence contains the disambiguation label %d", x)
		}
		labels = append(labels, x)
	}
	if opts.EOS != fst.NoLabel {
		labels = append(labels, opts.EOS)
	}

	f := fst.NewVector()
	p := f.AddState()
	f.SetStart(p)
	for _, x := range labels {
		q := f.AddState()
		f.AddArc(p, fst.Arc{ILabel: x, OLabel: x, Weight: fst.WeightOne, NextState: q})
		if opts.Disambig != fst.NoLabel {
			f.AddArc(p, fst.Arc{ILabel: opts.Disambig, OLabel: opts.Disambig, Weight: fst.WeightOne, NextState: p})
		}
		p = q
	}
	if opts.Disambig != fst.NoLabel {
		f.AddArc(p, fst.Arc{ILabel: opts.Disambig, OLabel: opts.Disambig, Weight: fst.WeightOne, NextState: p})
	}
	f.SetFinal(p, fst.WeightOne)
	return f, len(words) + 1, nil
}

// WriteSentence writes f as one tagged record, binary or text.
func WriteSentence(w io.Writer, f *fst.Vector, count int, binary bool) error {
	if binary {
		if _, err := fmt.Fprintf(w, "b%d\n", count); err != nil {
			return err
		}
		return f.Write(w)
	}
	if _, err := fmt.Fprintf(w, "t%d\n", count); err != nil {
		return err
	}
	if err := fst.PrintText(w, f, fst.TextOptions{}); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, textEnd)
	return err
}
