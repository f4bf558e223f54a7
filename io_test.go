package fstlm

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alongwithyou/fstLM/fst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGzip(t *testing.T, name string, data []byte) string {
	p := filepath.Join(t.TempDir(), name)
	f, err := os.Create(p)
	require.NoError(t, err)
	z := gzip.NewWriter(f)
	_, err = z.Write(data)
	require.NoError(t, err)
	require.NoError(t, z.Close())
	require.NoError(t, f.Close())
	return p
}

func TestOpen(t *testing.T) {
	p := writeGzip(t, "x.txt.gz", []byte("hello\n"))
	in, err := Open(p)
	require.NoError(t, err)
	data, err := io.ReadAll(in)
	require.NoError(t, err)
	require.NoError(t, in.Close())
	assert.Equal(t, "hello\n", string(data))

	// Not actually compressed.
	plain := filepath.Join(t.TempDir(), "y.gz")
	require.NoError(t, os.WriteFile(plain, []byte("hello\n"), 0644))
	_, err = Open(plain)
	assert.Error(t, err)

	_, err = Open(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestReadFstFile(t *testing.T) {
	f, syms := readyModel(t, simpleTrigramLM)
	var buf strings.Builder
	require.NoError(t, f.Write(&buf))
	p := writeGzip(t, "lm.fst.gz", []byte(buf.String()))
	g, err := ReadFstFile(p)
	require.NoError(t, err)
	var again strings.Builder
	require.NoError(t, g.Write(&again))
	assert.Equal(t, buf.String(), again.String())

	empty := filepath.Join(t.TempDir(), "empty.fst")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = ReadFstFile(empty)
	assert.Error(t, err)

	var text strings.Builder
	require.NoError(t, syms.WriteText(&text))
	sp := writeGzip(t, "words.syms.gz", []byte(text.String()))
	s, err := ReadSymbolsFile(sp)
	require.NoError(t, err)
	for _, l := range syms.Labels() {
		assert.Equal(t, l, s.IdOf(syms.StringOf(l)))
	}
	assert.Equal(t, fst.Label(0), s.IdOf("<eps>"))
}
