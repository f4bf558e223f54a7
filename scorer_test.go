package fstlm

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/alongwithyou/fstLM/fst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleScorer(t *testing.T, cfg Config) (*Scorer, *fst.SymbolTable) {
	f, syms := readyModel(t, simpleTrigramLM)
	sc := NewScorer(f, cfg)
	sc.Symbols = syms
	return sc, syms
}

func sentence(t *testing.T, syms *fst.SymbolTable, words ...string) (*fst.Vector, int) {
	labels := make([]fst.Label, len(words))
	for i, w := range words {
		if labels[i] = syms.IdOf(w); labels[i] == fst.NoLabel {
			labels[i] = syms.Bound() + 10
		}
	}
	opts := SentenceOptions{Disambig: syms.IdOf("#phi"), BOS: syms.IdOf("<s>"), EOS: syms.IdOf("</s>")}
	f, n, err := SentenceFst(labels, opts)
	require.NoError(t, err)
	return f, n
}

func TestScore(t *testing.T) {
	sc, syms := simpleScorer(t, DefaultConfig())

	s, err := sc.Score(sentence(t, syms, "a", "b"))
	require.NoError(t, err)
	assert.True(t, s.Valid)
	assert.Equal(t, 3, s.Words)
	assert.InDelta(t, -2.501*math.Ln10, s.LogProb, 1e-4)

	s, err = sc.Score(sentence(t, syms, "a"))
	require.NoError(t, err)
	assert.InDelta(t, -(1+0.5+1+0.01)*math.Ln10, s.LogProb, 1e-4)

	// c is not in the model.
	s, err = sc.Score(sentence(t, syms, "a", "c"))
	require.NoError(t, err)
	assert.Equal(t, SentenceScore{Words: 3}, s)
}

func TestScorerBOS(t *testing.T) {
	sc, syms := simpleScorer(t, DefaultConfig())
	assert.Equal(t, syms.IdOf("<s>"), sc.BOS())
	f, _ := readyModel(t, simpleTrigramLM)
	assert.Equal(t, syms.IdOf("<s>"), NewScorer(f, DefaultConfig()).BOS())
	assert.Equal(t, fst.NoLabel, NewScorer(fst.NewVector(), DefaultConfig()).BOS())
}

func TestScoreDebug(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Debug = 2
	cfg.DumpDir = t.TempDir()
	sc, syms := simpleScorer(t, cfg)
	s, err := sc.Score(sentence(t, syms, "a", "b"))
	require.NoError(t, err)
	assert.InDelta(t, -2.501*math.Ln10, s.LogProb, 1e-4)
	for _, name := range []string{"0.comp.fst", "0.comp.dot", "0.final.fst", "0.final.dot"} {
		_, err := os.Stat(filepath.Join(cfg.DumpDir, name))
		assert.NoError(t, err, name)
	}
	path, err := fst.ReadFile(filepath.Join(cfg.DumpDir, "0.final.fst"))
	require.NoError(t, err)
	assert.Equal(t, 5, path.NumStates())
}

func TestPathWeight(t *testing.T) {
	f := fst.NewVector()
	f.AddStates(3)
	f.SetStart(0)
	f.AddArc(0, fst.Arc{ILabel: 1, OLabel: 1, Weight: 1, NextState: 1})
	f.AddArc(1, fst.Arc{ILabel: 2, OLabel: 2, Weight: 2, NextState: 2})
	f.SetFinal(2, 0.5)
	w, err := PathWeight(f)
	require.NoError(t, err)
	assert.Equal(t, fst.Weight(3.5), w)

	f.AddArc(1, fst.Arc{ILabel: 3, OLabel: 3, Weight: 2, NextState: 2})
	_, err = PathWeight(f)
	assert.ErrorIs(t, err, ErrNonLinearPath)
}

func TestStats(t *testing.T) {
	var st Stats
	_, err := st.Perplexity()
	assert.ErrorIs(t, err, ErrNoWords)

	st.Add(SentenceScore{LogProb: -3, Words: 2, Valid: true})
	st.Add(SentenceScore{Words: 5})
	st.Add(SentenceScore{LogProb: -9, Words: 4, Valid: true})
	assert.Equal(t, 3, st.Sentences)
	assert.Equal(t, 6, st.Words)
	assert.Equal(t, 1, st.InvalidSentences)
	assert.Equal(t, 5, st.InvalidWords)
	assert.Equal(t, -12.0, st.LogProb)

	avg, err := st.AvgLogProb()
	require.NoError(t, err)
	assert.Equal(t, -2.0, avg)
	ppl, err := st.Perplexity()
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(2), ppl, 1e-12)

	mean, std := st.Spread()
	assert.InDelta(t, -1.875, mean, 1e-12)
	assert.InDelta(t, math.Sqrt(2*0.375*0.375), std, 1e-12)
	assert.Contains(t, st.Summary(), "over 6 words")
}

func TestRun(t *testing.T) {
	sc, syms := simpleScorer(t, DefaultConfig())
	var buf bytes.Buffer
	for i, words := range [][]string{{"a", "b"}, {"a", "c"}, {"a"}} {
		f, n := sentence(t, syms, words...)
		require.NoError(t, WriteSentence(&buf, f, n, i%2 == 0))
	}
	st, err := sc.Run(NewSentenceReader(&buf, FormatAuto))
	require.NoError(t, err)
	assert.Equal(t, 3, st.Sentences)
	assert.Equal(t, 5, st.Words)
	assert.Equal(t, 1, st.InvalidSentences)
	assert.Equal(t, 3, st.InvalidWords)
	assert.InDelta(t, -(2.501+2.51)*math.Ln10, st.LogProb, 1e-4)

	// Scoring is deterministic.
	sc2, _ := simpleScorer(t, DefaultConfig())
	for _, words := range [][]string{{"a", "b"}, {"a"}} {
		s1, err := sc.Score(sentence(t, syms, words...))
		require.NoError(t, err)
		s2, err := sc2.Score(sentence(t, syms, words...))
		require.NoError(t, err)
		assert.Equal(t, s1, s2)
	}

	_, err = sc.Run(NewSentenceReader(bytes.NewBufferString("?"), FormatAuto))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
