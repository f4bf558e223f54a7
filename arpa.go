package fstlm

// ARPA file parsing routine.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// arpaReader walks the lines of an ARPA file and adds every n-gram
// entry to the builder.
type arpaReader struct {
	in      *bufio.Scanner
	builder *Builder
	line    []byte
	lineNum int
	// declared counts from the \data\ section, by order.
	counts map[int]int
}

// ReadARPA parses a complete ARPA file from in into b.
func ReadARPA(in io.Reader, b *Builder) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<24)
	scanner.Split(lineSplit)
	r := &arpaReader{in: scanner, builder: b, counts: map[int]int{}}
	if err := r.top(); err != nil {
		return errors.Wrapf(err, "line %d", r.lineNum)
	}
	return nil
}

func errExpect(what string) error {
	return errors.Errorf("expect %s", what)
}

// next advances to the next non-empty line. It returns false at the end
// of input.
func (r *arpaReader) next() (bool, error) {
	if !r.in.Scan() {
		return false, r.in.Err()
	}
	r.line = r.in.Bytes()
	r.lineNum++
	return true, nil
}

func (r *arpaReader) top() error {
	ok, err := r.next()
	if err != nil {
		return err
	}
	if !ok || string(r.line) != `\data\` {
		return errExpect(`\data\`)
	}
	if err := r.ngramCounts(); err != nil {
		return err
	}
	for string(r.line) != `\end\` {
		if err := r.ngramSection(); err != nil {
			return err
		}
	}
	if ok, err := r.next(); err != nil {
		return err
	} else if ok {
		return errExpect("EOF")
	}
	return nil
}

// ngramCounts reads the n-gram-count section, leaving r at the first
// line starting with a backslash.
func (r *arpaReader) ngramCounts() error {
	for {
		ok, err := r.next()
		if err != nil {
			return err
		}
		if !ok {
			return errExpect(`\N-grams: ...`)
		}
		if r.line[0] == '\\' {
			return nil
		}
		var n, c int
		if _, err := fmt.Sscanf(string(r.line), "ngram %d=%d", &n, &c); err == nil {
			r.counts[n] = c
		}
	}
}

// ngramSection goes through one n-gram section and adds all the n-gram
// entries to the builder, leaving r at the line after the section.
func (r *arpaReader) ngramSection() error {
	line := r.line
	if line[0] != '\\' || !bytes.HasSuffix(line, []byte("-grams:")) {
		return errExpect(`section header "\N-grams:"`)
	}
	n, err := strconv.Atoi(string(line[1 : len(line)-len("-grams:")]))
	if err != nil || n <= 0 {
		return errExpect(`positive integer in section header "\N-grams:"`)
	}
	entries := newNgramEntries(n)
	count := 0
	for {
		ok, err := r.next()
		if err != nil {
			return err
		}
		if !ok {
			return errExpect(`\end\`)
		}
		if r.line[0] == '\\' {
			break
		}
		if err := entries.setParts(r.line); err != nil {
			return err
		}
		if err := r.builder.AddNgram(entries.context, entries.word, entries.p, entries.bow); err != nil {
			return err
		}
		count++
	}
	if c, ok := r.counts[n]; ok && c != count {
		glog.Warningf("%d-gram section has %d entries; header says %d", n, count, c)
	}
	if r.builder.cfg.Debug > 0 {
		glog.Infof("%d-gram done", n)
	}
	return nil
}

// ngramEntries parses n-gram entries of the given order.
type ngramEntries struct {
	n int
	// These are for avoiding repeated space allocation.
	p, bow  float64
	context []string
	word    string
}

// newNgramEntries constructs a new ngramEntries with properly
// initialized stub data.
func newNgramEntries(n int) *ngramEntries {
	return &ngramEntries{n, 0, 0, make([]string, n-1), ""}
}

func (it *ngramEntries) setParts(line []byte) error {
	// p
	x, xs := tokenSplit(line)
	if x == "" {
		return errExpect("log-probability")
	}
	if f, err := strconv.ParseFloat(x, 64); err != nil {
		return err
	} else {
		it.p = f
	}
	// context
	for i := 1; i < it.n; i++ {
		x, xs = tokenSplit(xs)
		if x == "" {
			return errExpect(fmt.Sprintf("%d context word(s)", it.n))
		}
		it.context[i-1] = x
	}
	// word
	x, xs = tokenSplit(xs)
	if x == "" {
		return errExpect("word")
	}
	it.word = x
	// bow
	x, xs = tokenSplit(xs)
	if x == "" {
		it.bow = 0
	} else if f, err := strconv.ParseFloat(x, 64); err == nil {
		it.bow = f
	} else {
		return err
	}
	// no extra stuff
	if len(xs) != 0 {
		return errExpect("end of line")
	}
	return nil
}

// Low-level lexer code.

func isSpace(b byte) bool {
	switch b {
	case '\t', '\v', '\f', '\r', ' ':
		return true
	default:
		return false
	}
}

func lineSplit(data []byte, atEOF bool) (int, []byte, error) {
	l, r, n := -1, -1, 0
	// Skip leading spaces or newlines.
	for i, b := range data {
		if !isSpace(b) && b != '\n' {
			l = i
			break
		}
	}
	if l < 0 {
		return len(data), nil, nil
	}
	// Find newline.
	for i, b := range data[l+1:] {
		if b == '\n' {
			r, n = l+i, l+i+2
			break
		}
	}
	if r < 0 {
		if !atEOF {
			return l, nil, nil
		}
		r, n = len(data)-1, len(data)
	}
	// Trim trailing spaces.
	for isSpace(data[r]) {
		// At most we shall stop at l.
		r--
	}
	return n, data[l : r+1], nil
}

func tokenSplit(line []byte) (string, []byte) {
	// Assuming line has no leading space.
	r := -1
	for i, b := range line {
		if isSpace(b) {
			r = i
			break
		}
	}
	if r < 0 {
		r = len(line)
	}
	token := string(line[:r])
	// Skip trailing spaces.
	for i, b := range line[r:] {
		if !isSpace(b) {
			return token, line[r+i:]
		}
	}
	return token, nil
}
