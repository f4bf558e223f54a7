package fstlm

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/alongwithyou/fstLM/fst"
	"github.com/pkg/errors"
)

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r readCloser) Close() error {
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if e := r.closers[i].Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// Open opens path for reading. "-" is standard input and files ending
// in ".gz" are decompressed on the fly.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	z, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, path)
	}
	return readCloser{z, []io.Closer{f, z}}, nil
}

// ReadFstFile reads a binary automaton through Open.
func ReadFstFile(path string) (*fst.Vector, error) {
	in, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	f, err := fst.Read(bufio.NewReader(in))
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return f, nil
}

// ReadSymbolsFile reads a text symbol table through Open.
func ReadSymbolsFile(path string) (*fst.SymbolTable, error) {
	in, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return fst.ReadSymbolTableText(in, path)
}

// ReadARPAFile builds the back-off automaton of the ARPA file at path.
func ReadARPAFile(path string, cfg Config) (*fst.Vector, *fst.SymbolTable, error) {
	in, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer in.Close()
	b, err := NewBuilder(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := ReadARPA(in, b); err != nil {
		return nil, nil, errors.Wrap(err, path)
	}
	return b.Dump()
}
