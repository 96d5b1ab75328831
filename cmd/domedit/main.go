// Command domedit loads an HTML document and serves it for editing as a
// 9P file tree posted in the current name space.
//
// Usage:
//
//	domedit [flags] file.html
//
// A client then drives the editor through the service's files, for
// example with 9p(1):
//
//	echo 0 5 | 9p write domedit/addr
//	echo bold | 9p write domedit/ctl
//	9p read domedit/text
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rjkroege/domedit/config"
	"github.com/rjkroege/domedit/docfs"
	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/editing"
	"github.com/rjkroege/domedit/textcheck"
	"github.com/rjkroege/domedit/textiter"
)

var (
	configflag      = flag.String("c", "", "YAML configuration file")
	serviceflag     = flag.String("s", "", "service name (overrides the configuration)")
	undolimitflag   = flag.Int("u", 0, "undo limit (overrides the configuration)")
	wordlistflag    = flag.String("w", "", "word list file (overrides the configuration)")
	grammarflag     = flag.Bool("g", false, "check grammar")
	autocorrectflag = flag.Bool("a", false, "correct misspellings as they are typed")
	designmodeflag  = flag.Bool("d", false, "make the whole document editable")
	debugflag       = flag.Bool("D", false, "log protocol and checker messages")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: domedit [flags] file.html\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
	}

	cfg, err := config.Load(*configflag)
	if err != nil {
		log.Fatalf("domedit: %v", err)
	}
	overrideConfig(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("domedit: %v", err)
	}

	logger := log.New(os.Stderr, "domedit: ", log.LstdFlags)
	if !*debugflag {
		logger.SetOutput(io.Discard)
	}

	doc, err := loadDocument(flag.Arg(0))
	if err != nil {
		log.Fatalf("domedit: %v", err)
	}
	doc.SetDesignMode(*designmodeflag)

	opts := []editing.Option{
		editing.WithLogger(logger),
		editing.WithUndoManager(editing.NewUndoStack(cfg.UndoLimit)),
		editing.WithBehavior(textiter.Behavior{Placeholder: cfg.PlaceholderRune()}),
		editing.WithCheckKinds(cfg.Kinds()),
		editing.WithAutoCorrect(cfg.AutoCorrect),
	}
	checker, stop, err := newChecker(cfg)
	if err != nil {
		log.Fatalf("domedit: %v", err)
	}
	defer stop()
	if checker != nil {
		opts = append(opts, editing.WithChecker(checker, textcheck.WithDelay(cfg.CheckDelay)))
	}
	ed := editing.New(doc, opts...)
	defer ed.Close()

	c0, c1 := net.Pipe()
	if err := docfs.Post(c0, cfg.Service); err != nil {
		log.Fatalf("domedit: can't post service %q: %v", cfg.Service, err)
	}
	srv := docfs.New(ed, c1, docfs.WithLogger(logger))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		srv.Close()
	}()

	if err := srv.Serve(); err != nil {
		log.Printf("domedit: %v", err)
	}
}

// overrideConfig applies the flags given on the command line.
func overrideConfig(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "s":
			cfg.Service = *serviceflag
		case "u":
			cfg.UndoLimit = *undolimitflag
		case "w":
			cfg.WordList = *wordlistflag
			cfg.Checker = nil
		case "g":
			cfg.Grammar = *grammarflag
		case "a":
			cfg.AutoCorrect = *autocorrectflag
		}
	})
}

func loadDocument(path string) (*dom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dom.ParseHTML(f)
}

// newChecker returns the checker the configuration asks for, if any, and
// a function that stops it.
func newChecker(cfg *config.Config) (textcheck.Checker, func(), error) {
	switch {
	case len(cfg.Checker) > 0:
		pc := &textcheck.ProcessChecker{Command: cfg.Checker[0], Args: cfg.Checker[1:]}
		if err := pc.Start(); err != nil {
			return nil, nil, fmt.Errorf("starting checker %q: %v", cfg.Checker[0], err)
		}
		return pc, pc.Stop, nil
	case cfg.WordList != "":
		f, err := os.Open(cfg.WordList)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		wl, err := textcheck.ReadWordList(f)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %v", cfg.WordList, err)
		}
		return wl, func() {}, nil
	}
	return nil, func() {}, nil
}
