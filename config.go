package fstlm

import (
	"flag"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the scorer and the exporter. The state
// ids must match whatever built the automaton.
type Config struct {
	// Debug is the debug level: 0 is silent, 1 logs per sentence or per
	// order progress, 2 also traces every arc.
	Debug int `yaml:"debug"`
	// BOS and EOS are the sentence boundary symbols.
	BOS string `yaml:"bos"`
	EOS string `yaml:"eos"`
	// Backoff is the symbol labeling back-off arcs.
	Backoff string `yaml:"phi"`
	// BOSState is the state for the context "<s>".
	BOSState int `yaml:"bos_id"`
	// RootState is the state for the empty context.
	RootState int `yaml:"wildcard_id"`
	// Log0 is the ARPA value at or below which a probability is zero.
	Log0 float64 `yaml:"log0"`
	// DumpDir, when not empty, receives the composed and best-path
	// automata of every scored sentence.
	DumpDir string `yaml:"dump_dir"`
}

func DefaultConfig() Config {
	return Config{
		BOS:       "<s>",
		EOS:       "</s>",
		Backoff:   "#phi",
		BOSState:  2,
		RootState: 3,
		Log0:      ARPALog0,
	}
}

// RegisterFlags binds the fields of c to flags of fs using c's current
// values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Debug, "debug", c.Debug, "debug level")
	fs.StringVar(&c.BOS, "bos", c.BOS, "BOS symbol")
	fs.StringVar(&c.EOS, "eos", c.EOS, "EOS symbol")
	fs.StringVar(&c.Backoff, "phi", c.Backoff, "back-off symbol")
	fs.IntVar(&c.BOSState, "bos_id", c.BOSState, "BOS state id")
	fs.IntVar(&c.RootState, "wildcard_id", c.RootState, "wildcard (empty context) state id")
	fs.Float64Var(&c.Log0, "log0", c.Log0, "treat ARPA values <= this as log(0)")
	fs.StringVar(&c.DumpDir, "dump_dir", c.DumpDir, "directory for per-sentence automata dumps")
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrap(err, path)
	}
	return c, nil
}

// MergeFile replaces c with the contents of the YAML file at path while
// keeping every flag that was explicitly set on fs, so command-line
// flags win over the file.
func (c *Config) MergeFile(path string, fs *flag.FlagSet) error {
	loaded, err := LoadConfig(path)
	if err != nil {
		return err
	}
	over := flag.NewFlagSet(path, flag.ContinueOnError)
	loaded.RegisterFlags(over)
	var setErr error
	fs.Visit(func(f *flag.Flag) {
		if over.Lookup(f.Name) == nil || setErr != nil {
			return
		}
		setErr = over.Set(f.Name, f.Value.String())
	})
	if setErr != nil {
		return setErr
	}
	*c = loaded
	return nil
}

// Resolve merges the YAML file at path into c when path is not empty
// and validates the result.
func (c *Config) Resolve(path string, fs *flag.FlagSet) error {
	if path != "" {
		if err := c.MergeFile(path, fs); err != nil {
			return err
		}
	}
	return c.Validate()
}

// Validate checks c for values that can never work.
func (c *Config) Validate() error {
	switch {
	case c.Debug < 0:
		return errors.Wrapf(ErrBadConfig, "negative debug level %d", c.Debug)
	case c.BOS == "" || c.EOS == "" || c.Backoff == "":
		return errors.Wrap(ErrBadConfig, "empty reserved symbol")
	case c.BOS == c.EOS || c.BOS == c.Backoff || c.EOS == c.Backoff:
		return errors.Wrapf(ErrBadConfig, "reserved symbols %q, %q and %q must differ", c.BOS, c.EOS, c.Backoff)
	case c.BOSState < 0 || c.RootState < 0:
		return errors.Wrapf(ErrBadConfig, "negative state id %d or %d", c.BOSState, c.RootState)
	case c.BOSState == c.RootState:
		return errors.Wrapf(ErrBadConfig, "BOS and wildcard states are both %d", c.BOSState)
	}
	return nil
}
