package fst

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SymbolTable is the mapping between strings and Labels. Keys need not
// be dense.
type SymbolTable struct {
	Name   string
	str2id map[string]Label
	id2str map[Label]string
	bound  Label
}

func NewSymbolTable(name string) *SymbolTable {
	return &SymbolTable{name, map[string]Label{}, map[Label]string{}, 0}
}

// Copy returns a new SymbolTable that can be modified without changing
// t.
func (t *SymbolTable) Copy() *SymbolTable {
	c := NewSymbolTable(t.Name)
	for k, v := range t.str2id {
		c.str2id[k] = v
		c.id2str[v] = k
	}
	c.bound = t.bound
	return c
}

// Bound returns the largest Label + 1.
func (t *SymbolTable) Bound() Label { return t.bound }

// Len returns the number of symbols.
func (t *SymbolTable) Len() int { return len(t.str2id) }

// IdOf looks up the Label of s. If s is not present, NoLabel is
// returned.
func (t *SymbolTable) IdOf(s string) Label {
	if i, ok := t.str2id[s]; ok {
		return i
	}
	return NoLabel
}

// StringOf looks up the string of i. If i is not present, the empty
// string is returned.
func (t *SymbolTable) StringOf(i Label) string { return t.id2str[i] }

// IdOrAdd looks up s and adds it with the next free Label when it is
// not present. This is not thread-safe.
func (t *SymbolTable) IdOrAdd(s string) Label {
	i, ok := t.str2id[s]
	if !ok {
		i = t.bound
		t.str2id[s] = i
		t.id2str[i] = s
		t.bound++
	}
	return i
}

// Add adds s with the given Label. Re-adding an identical pair is a
// no-op; a conflicting pair is an error.
func (t *SymbolTable) Add(s string, i Label) error {
	if i < 0 {
		return errors.Errorf("negative key %d for symbol %q", i, s)
	}
	if j, ok := t.str2id[s]; ok {
		if j == i {
			return nil
		}
		return errors.Errorf("symbol %q has keys %d and %d", s, j, i)
	}
	if r, ok := t.id2str[i]; ok {
		return errors.Errorf("key %d has symbols %q and %q", i, r, s)
	}
	t.str2id[s] = i
	t.id2str[i] = s
	if i >= t.bound {
		t.bound = i + 1
	}
	return nil
}

// Labels returns all keys in increasing order.
func (t *SymbolTable) Labels() []Label {
	ls := make([]Label, 0, len(t.id2str))
	for i := range t.id2str {
		ls = append(ls, i)
	}
	sort.Slice(ls, func(a, b int) bool { return ls[a] < ls[b] })
	return ls
}

// ReadSymbolTableText reads "symbol key" lines. Blank lines are
// skipped.
func ReadSymbolTableText(in io.Reader, name string) (*SymbolTable, error) {
	t := NewSymbolTable(name)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for n := 1; scanner.Scan(); n++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, errors.Errorf("%s:%d: expect 2 fields; got %d", name, n, len(fields))
		}
		i, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", name, n)
		}
		if err := t.Add(fields[0], Label(i)); err != nil {
			return nil, errors.Wrapf(err, "%s:%d", name, n)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, name)
	}
	return t, nil
}

// WriteText writes t as "symbol<TAB>key" lines in key order.
func (t *SymbolTable) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, i := range t.Labels() {
		if _, err := fmt.Fprintf(bw, "%s\t%d\n", t.id2str[i], i); err != nil {
			return err
		}
	}
	return bw.Flush()
}
