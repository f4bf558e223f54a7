package fstlm

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())

	for _, i := range []struct {
		Name string
		Mod  func(*Config)
	}{
		{"debug", func(c *Config) { c.Debug = -1 }},
		{"empty bos", func(c *Config) { c.BOS = "" }},
		{"same symbols", func(c *Config) { c.EOS = c.Backoff }},
		{"negative state", func(c *Config) { c.RootState = -3 }},
		{"same states", func(c *Config) { c.BOSState = c.RootState }},
	} {
		t.Run(i.Name, func(t *testing.T) {
			c := DefaultConfig()
			i.Mod(&c)
			assert.ErrorIs(t, c.Validate(), ErrBadConfig)
		})
	}
}

func writeYAML(t *testing.T, data string) string {
	p := filepath.Join(t.TempDir(), "fstlm.yaml")
	require.NoError(t, os.WriteFile(p, []byte(data), 0644))
	return p
}

func TestLoadConfig(t *testing.T) {
	c, err := LoadConfig(writeYAML(t, "debug: 1\nphi: \"#0\"\nwildcard_id: 7\n"))
	require.NoError(t, err)
	want := DefaultConfig()
	want.Debug = 1
	want.Backoff = "#0"
	want.RootState = 7
	assert.Equal(t, want, c)

	_, err = LoadConfig(writeYAML(t, "debug: [1\n"))
	assert.Error(t, err)
	_, err = LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestConfigMergeFile(t *testing.T) {
	c := DefaultConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-debug=2", "-eos", "</S>"}))

	p := writeYAML(t, "debug: 1\neos: \"<end>\"\nbos: \"<start>\"\nlog0: -50\n")
	require.NoError(t, c.MergeFile(p, fs))
	assert.Equal(t, 2, c.Debug)
	assert.Equal(t, "</S>", c.EOS)
	assert.Equal(t, "<start>", c.BOS)
	assert.Equal(t, -50.0, c.Log0)
	assert.Equal(t, "#phi", c.Backoff)
}
