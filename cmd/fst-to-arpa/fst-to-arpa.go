// fst-to-arpa converts a back-off language model automaton read from
// standard input to ARPA text. The body goes to standard output and the
// \data\ header to a separate file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	fstlm "github.com/alongwithyou/fstLM"
	"github.com/alongwithyou/fstLM/fst"
	"github.com/golang/glog"
)

func main() {
	cfg := fstlm.DefaultConfig()
	cfg.RegisterFlags(flag.CommandLine)
	configFile := flag.String("config", "", "YAML config file; explicit flags win")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <words.syms> <header> < lm.fst > body.arpa\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Set("logtostderr", "true")
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}
	if err := cfg.Resolve(*configFile, flag.CommandLine); err != nil {
		glog.Exit(err)
	}

	syms, err := fstlm.ReadSymbolsFile(flag.Arg(0))
	if err != nil {
		glog.Exit(err)
	}
	lm, err := fst.Read(bufio.NewReader(os.Stdin))
	if err != nil {
		glog.Exitf("reading LM from stdin: %v", err)
	}
	e, err := fstlm.NewExporter(lm, syms, cfg)
	if err != nil {
		glog.Exit(err)
	}

	out := bufio.NewWriter(os.Stdout)
	if err := e.Export(out); err != nil {
		glog.Exit(err)
	}
	if err := out.Flush(); err != nil {
		glog.Exit(err)
	}

	header, err := os.Create(flag.Arg(1))
	if err != nil {
		glog.Exit(err)
	}
	if err := e.WriteHeader(header); err != nil {
		glog.Exit(err)
	}
	if err := header.Close(); err != nil {
		glog.Exit(err)
	}
}
