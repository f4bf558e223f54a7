package main

import (
	"os"
	"path/filepath"
	"testing"

	fstlm "github.com/alongwithyou/fstLM"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiledStopsOnError(t *testing.T) {
	failed := errors.New("scoring failed")
	path := filepath.Join(t.TempDir(), "cpu.prof")
	err := profiled(path, func() error { return failed })
	assert.Equal(t, failed, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	// The profiler was stopped, so it can be started again.
	again := filepath.Join(t.TempDir(), "again.prof")
	require.NoError(t, profiled(again, func() error { return nil }))

	called := false
	require.NoError(t, profiled("", func() error { called = true; return nil }))
	assert.True(t, called)
}

func TestRunMissingLM(t *testing.T) {
	err := run(fstlm.DefaultConfig(), filepath.Join(t.TempDir(), "none.fst"), "", false, fstlm.FormatAuto)
	assert.Error(t, err)
}
