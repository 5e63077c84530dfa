package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/heathj/treebuilder/parser"
	"github.com/heathj/treebuilder/parser/lex"
	"github.com/heathj/treebuilder/parser/spec"
)

func main() {
	debug := flag.Bool("debug", false, "log insertion mode transitions and parse errors")
	flag.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	var in io.Reader = os.Stdin
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			logrus.WithError(err).Fatal("open input")
		}
		defer f.Close()
		in = f
	}

	src := lex.New(in)
	tb, err := parser.NewTreeBuilder(src)
	if err != nil {
		logrus.WithError(err).Fatal("create treebuilder")
	}

	tree := spec.NewTree()
	tb.SetTreeHandler(tree)
	tb.SetDocumentNode(tree.CreateDocument())
	tb.SetErrorHandler(func(err error) {
		logrus.WithError(err).Debug("parse error")
	})

	if err := src.Run(tb); err != nil {
		logrus.WithError(err).Fatal("parse input")
	}

	fmt.Println(tree.String())
	tb.Destroy()
}
