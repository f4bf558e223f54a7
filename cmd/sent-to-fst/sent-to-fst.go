// sent-to-fst converts sentences, one per line of standard input, into
// a stream of tagged sentence records for compute-ppl. Words are integer
// labels unless -symbols is given.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
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
	disambig := flag.Int("disambig-symbol-id", 0, "if positive, add self-loops with this label on every state")
	bos := flag.Int("bos-symbol-id", 0, "if positive, start every sentence with this label")
	eos := flag.Int("eos-symbol-id", 0, "if positive, end every sentence with this label")
	compile := flag.Bool("compile-fst", false, "write binary records instead of text")
	symbolsFile := flag.String("symbols", "", "map words to labels with this symbol table")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] < sentences > fsts\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Set("logtostderr", "true")
	flag.Parse()
	if flag.NArg() != 0 {
		flag.Usage()
		os.Exit(1)
	}
	if err := cfg.Resolve(*configFile, flag.CommandLine); err != nil {
		glog.Exit(err)
	}
	glog.Info(strings.Join(os.Args, " "))

	opts := fstlm.DefaultSentenceOptions()
	for _, i := range []struct {
		Name  string
		Value int
		Label *fst.Label
	}{
		{"disambig-symbol-id", *disambig, &opts.Disambig},
		{"bos-symbol-id", *bos, &opts.BOS},
		{"eos-symbol-id", *eos, &opts.EOS},
	} {
		if i.Value < 0 {
			glog.Exitf("-%s must be a positive integer", i.Name)
		}
		if i.Value > 0 {
			*i.Label = fst.Label(i.Value)
		}
	}
	var syms *fst.SymbolTable
	if *symbolsFile != "" {
		var err error
		if syms, err = fstlm.ReadSymbolsFile(*symbolsFile); err != nil {
			glog.Exit(err)
		}
	}

	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 1<<24)
	out := bufio.NewWriter(os.Stdout)
	numFsts := 0
	for lineNum := 1; in.Scan(); lineNum++ {
		fields := strings.Fields(in.Text())
		if len(fields) == 0 {
			continue
		}
		words, err := labels(fields, syms)
		if err != nil {
			glog.Exitf("line %d: %v", lineNum, err)
		}
		f, count, err := fstlm.SentenceFst(words, opts)
		if err != nil {
			glog.Exitf("line %d: %v", lineNum, err)
		}
		if err := fstlm.WriteSentence(out, f, count, *compile); err != nil {
			glog.Exit(err)
		}
		numFsts++
		if cfg.Debug > 0 {
			glog.Infof("line %d: %d words", lineNum, count)
		}
	}
	if err := in.Err(); err != nil {
		glog.Exit(err)
	}
	if err := out.Flush(); err != nil {
		glog.Exit(err)
	}
	glog.Infof("converted %d sentences", numFsts)
}

func labels(fields []string, syms *fst.SymbolTable) ([]fst.Label, error) {
	words := make([]fst.Label, len(fields))
	for i, x := range fields {
		if syms != nil {
			if words[i] = syms.IdOf(x); words[i] == fst.NoLabel {
				return nil, errors.Errorf("word %q not in symbol table", x)
			}
			continue
		}
		n, err := strconv.ParseInt(x, 10, 32)
		if err != nil {
			return nil, err
		}
		words[i] = fst.Label(n)
	}
	return words, nil
}
