// Copyright 2023 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Mdhtml converts Markdown to HTML.
//
// Usage:
//
//	mdhtml [-html5] [-o file] [-max-nesting n] [-max-size n] [-v] [file ...]
//
// Mdhtml reads the named files, or else standard input, as Markdown documents
// and then writes the corresponding HTML fragments in order
// to standard output or the file named by -o.
// A document that exceeds a limit is still converted
// and a warning is printed to standard error.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/renameio"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"zombiezen.com/go/markdown"
)

// tracer traces with key 'mdhtml'.
func tracer() tracing.Trace {
	return tracing.Select("mdhtml")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("mdhtml", flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.Usage = func() {
		fmt.Fprintln(stderr, "usage: mdhtml [options] [file ...]")
		fset.PrintDefaults()
	}
	html5 := fset.Bool("html5", false, "write void elements as <br> instead of <br />")
	output := fset.String("o", "", "write HTML to `file` instead of standard output")
	maxNesting := fset.Int("max-nesting", markdown.DefaultMaxNesting, "maximum nesting `depth` of blocks and spans")
	maxSize := fset.Int("max-size", 0, "maximum `bytes` read from each document (0 for no limit)")
	verbose := fset.Bool("v", false, "trace parsing to standard error")
	if err := fset.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	initTracing(stderr, *verbose)

	opts := &markdown.Options{
		HTML5:        *html5,
		MaxNesting:   *maxNesting,
		MaxInputSize: *maxSize,
	}
	inputs := fset.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	out := new(bytes.Buffer)
	for _, name := range inputs {
		if err := convert(out, name, stdin, opts); err != nil {
			tracer().Errorf("mdhtml: %v", err)
			return 1
		}
	}

	if *output == "" {
		if _, err := stdout.Write(out.Bytes()); err != nil {
			tracer().Errorf("mdhtml: %v", err)
			return 1
		}
		return 0
	}
	if err := renameio.WriteFile(*output, out.Bytes(), 0o666); err != nil {
		tracer().Errorf("mdhtml: %v", err)
		return 1
	}
	return 0
}

// convert appends the HTML for the named document to out.
// The name "-" reads from stdin.
func convert(out *bytes.Buffer, name string, stdin io.Reader, opts *markdown.Options) error {
	var text []byte
	var err error
	if name == "-" {
		text, err = io.ReadAll(stdin)
		name = "<stdin>"
	} else {
		text, err = os.ReadFile(name)
	}
	if err != nil {
		return err
	}
	tracer().Debugf("mdhtml: converting %s (%d bytes)", name, len(text))
	html, err := markdown.Convert(string(text), opts)
	if errors.Is(err, markdown.ErrLimitExceeded) {
		tracer().Errorf("mdhtml: warning: %s: %v", name, err)
	} else if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	out.WriteString(html)
	return nil
}

// initTracing sends all traces to w through a single Go logger.
// Debug output is only enabled when verbose is set.
func initTracing(w io.Writer, verbose bool) {
	tracing.SetTraceSelector(tracing.SelectorForAdapter(gologadapter.GetAdapter()))
	tracer().SetOutput(w)
	if verbose {
		tracer().SetTraceLevel(tracing.LevelDebug)
	} else {
		tracer().SetTraceLevel(tracing.LevelError)
	}
}
