// compute-ppl computes the perplexity of sentence automata read from
// standard input against a language model automaton.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"

	fstlm "github.com/alongwithyou/fstLM"
	"github.com/alongwithyou/fstLM/fst"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

func main() {
	cfg := fstlm.DefaultConfig()
	cfg.RegisterFlags(flag.CommandLine)
	configFile := flag.String("config", "", "YAML config file; explicit flags win")
	format := fstlm.FormatAuto
	flag.Var(&format, "format", "sentence record format: auto, tagged or legacy")
	symbolsFile := flag.String("symbols", "", "word symbol table of the LM")
	words := flag.Bool("words", false, "read plain-text sentences and score them with back-off lookups (needs -symbols)")
	cpuprofile := flag.String("cpuprofile", "", "path to write CPU profile")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <lm.fst> < sentences\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Set("logtostderr", "true")
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	if err := cfg.Resolve(*configFile, flag.CommandLine); err != nil {
		glog.Exit(err)
	}

	err := profiled(*cpuprofile, func() error {
		return run(cfg, flag.Arg(0), *symbolsFile, *words, format)
	})
	if err != nil {
		glog.Exit(err)
	}
}

// profiled runs f under the CPU profiler writing to path, or plainly
// when path is empty. The profile is complete even when f fails.
func profiled(path string, f func() error) error {
	if path == "" {
		return f()
	}
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(w); err != nil {
		w.Close()
		return err
	}
	err = f()
	pprof.StopCPUProfile()
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}

func run(cfg fstlm.Config, lmFile, symbolsFile string, words bool, format fstlm.SentenceFormat) error {
	lm, err := fstlm.ReadFstFile(lmFile)
	if err != nil {
		return err
	}
	glog.Infof("loaded LM with %d states and %d arcs", lm.NumStates(), lm.TotalArcs())
	var syms *fst.SymbolTable
	if symbolsFile != "" {
		if syms, err = fstlm.ReadSymbolsFile(symbolsFile); err != nil {
			return err
		}
	}

	var st fstlm.Stats
	if words {
		if syms == nil {
			return errors.New("-words needs -symbols")
		}
		st, err = scoreWords(lm, syms, cfg)
	} else {
		sc := fstlm.NewScorer(lm, cfg)
		sc.Symbols = syms
		r := fstlm.NewSentenceReader(bufio.NewReader(os.Stdin), format)
		r.BOS = sc.BOS()
		st, err = sc.Run(r)
	}
	if err != nil {
		return err
	}

	ppl, err := st.Perplexity()
	if err != nil {
		return errors.Wrapf(err, "%d sentences read, %d invalid", st.Sentences, st.InvalidSentences)
	}
	if cfg.Debug > 0 {
		mean, std := st.Spread()
		glog.Infof("per-sentence log-prob per word: mean %g, std %g", mean, std)
	}
	fmt.Fprintln(os.Stderr, st.Summary())
	fmt.Println(strconv.FormatFloat(ppl, 'g', 10, 64))
	return nil
}

func scoreWords(lm *fst.Vector, syms *fst.SymbolTable, cfg fstlm.Config) (fstlm.Stats, error) {
	var st fstlm.Stats
	model, err := fstlm.NewModel(lm, syms, cfg)
	if err != nil {
		return st, err
	}
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 1<<24)
	for in.Scan() {
		sent := strings.Fields(in.Text())
		if len(sent) == 0 {
			continue
		}
		st.Add(model.ScoreWords(sent))
	}
	return st, in.Err()
}
