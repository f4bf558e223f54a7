// arpa-to-fst compiles an ARPA language model into a back-off automaton
// in binary form on standard output and writes its word symbol table.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	fstlm "github.com/alongwithyou/fstLM"
	"github.com/golang/glog"
)

func main() {
	cfg := fstlm.DefaultConfig()
	cfg.RegisterFlags(flag.CommandLine)
	configFile := flag.String("config", "", "YAML config file; explicit flags win")
	arpa := flag.String("arpa", "-", "ARPA file (.gz is decompressed); - is stdin")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <words.syms> > lm.fst\n", os.Args[0])
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

	lm, syms, err := fstlm.ReadARPAFile(*arpa, cfg)
	if err != nil {
		glog.Exit(err)
	}
	glog.Infof("built LM with %d states and %d arcs over %d symbols", lm.NumStates(), lm.TotalArcs(), syms.Len())

	out := bufio.NewWriter(os.Stdout)
	if err := lm.Write(out); err != nil {
		glog.Exit(err)
	}
	if err := out.Flush(); err != nil {
		glog.Exit(err)
	}

	w, err := os.Create(flag.Arg(0))
	if err != nil {
		glog.Exit(err)
	}
	if err := syms.WriteText(w); err != nil {
		glog.Exit(err)
	}
	if err := w.Close(); err != nil {
		glog.Exit(err)
	}
}
