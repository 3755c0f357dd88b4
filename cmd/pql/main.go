// Copyright 2024 The Portal PQL Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/icgc-dcc/portal-pql"
	"github.com/icgc-dcc/portal-pql/parser"
	"github.com/spf13/cobra"
	"github.com/tailscale/hujson"
	"golang.org/x/term"
	"zombiezen.com/go/bass/sigterm"
)

type runOptions struct {
	// json emits each query's clause list as JSON instead of canonical PQL.
	json bool
	// fromJSON treats the whole input as a single JSON clause list.
	fromJSON bool
}

func main() {
	rootCommand := &cobra.Command{
		Use:   "pql [options] [FILE [...]]",
		Short: "Translate Portal Query Language into its canonical form",

		DisableFlagsInUseLine: true,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	outputPath := rootCommand.Flags().StringP("output", "o", "", "file to write results to (defaults to stdout)")
	opts := new(runOptions)
	rootCommand.Flags().BoolVar(&opts.json, "json", false, "write each query as a JSON clause list")
	rootCommand.Flags().BoolVar(&opts.fromJSON, "from-json", false, "read a JSON clause list and write its PQL form")
	rootCommand.MarkFlagsMutuallyExclusive("json", "from-json")
	rootCommand.RunE = func(cmd *cobra.Command, args []string) (err error) {
		input, err := makeInput(args)
		if err != nil {
			return err
		}
		output, err := makeOutput(*outputPath)
		if err != nil {
			input.Close()
			return err
		}

		err = run(cmd.Context(), output, input, opts, func(err error) {
			fmt.Fprintf(os.Stderr, "pql: %v\n", err)
		})
		if err2 := output.Close(); err == nil {
			err = err2
		}
		input.Close()
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), sigterm.Signals()...)
	err := rootCommand.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pql: %v\n", err)
		os.Exit(1)
	}
}

// errTranslate is returned by run after one or more input queries
// failed and were reported with logError.
var errTranslate = errors.New("one or more queries could not be translated")

func run(ctx context.Context, output io.Writer, input io.Reader, opts *runOptions, logError func(error)) error {
	if opts == nil {
		opts = new(runOptions)
	}
	if opts.fromJSON {
		return runFromJSON(output, input)
	}

	if isTerminal(input) {
		// Nudge for usage if running interactively.
		fmt.Fprintln(os.Stderr, "Reading from terminal (one query per line)...")
	}

	scanner := bufio.NewScanner(input)
	scanner.Buffer(nil, 1<<20)
	var finalError error
	for lineno := 1; scanner.Scan(); lineno++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		out, err := translate(line, opts)
		if err != nil {
			logError(fmt.Errorf("line %d: %w", lineno, err))
			finalError = errTranslate
			continue
		}
		if _, err := fmt.Fprintf(output, "%s\n", out); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return finalError
}

func translate(line string, opts *runOptions) (string, error) {
	if !opts.json {
		return pql.Canonicalize(line)
	}
	list, err := parser.Parse(line)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// runFromJSON reads a JSON clause list (comments and trailing commas allowed)
// and writes its canonical PQL form.
func runFromJSON(output io.Writer, input io.Reader) error {
	data, err := io.ReadAll(input)
	if err != nil {
		return err
	}
	data, err = hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("read clauses: %v", err)
	}
	var list parser.ClauseList
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("read clauses: %v", err)
	}
	text, err := pql.Format(list)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(output, "%s\n", text)
	return err
}

func makeInput(args []string) (io.ReadCloser, error) {
	if len(args) == 0 || len(args) == 1 && args[0] == "-" {
		return nopReadCloser{os.Stdin}, nil
	}
	if len(args) == 1 {
		return os.Open(args[0])
	}

	readers := make([]io.ReadCloser, 0, len(args))
	for _, path := range args {
		if path == "-" {
			readers = append(readers, nopReadCloser{os.Stdin})
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			for _, c := range readers {
				c.Close()
			}
			return nil, err
		}
		readers = append(readers, f)
	}
	return &multiReadCloser{readers: readers}, nil
}

func makeOutput(arg string) (io.WriteCloser, error) {
	if arg == "" || arg == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(arg)
}

func isTerminal(r io.Reader) bool {
	for {
		switch rt := r.(type) {
		case *os.File:
			return term.IsTerminal(int(rt.Fd()))
		case nopReadCloser:
			r = rt.Reader
		default:
			return false
		}
	}
}

// A multiReadCloser is a logical concatenation of its input readers,
// much like [io.MultiReader].
// However, it also implements [io.Closer]
// and closes its inputs as they are finished reading.
// A file that does not end in a newline is followed by one
// so that its last query is not joined to the next file's first query.
type multiReadCloser struct {
	readers []io.ReadCloser

	// last is the final byte read so far, or zero if nothing has been read.
	last byte
	// newline is set when a reader ended without a trailing newline.
	newline bool
}

func (mrc *multiReadCloser) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(mrc.readers) > 0 {
		if mrc.newline {
			mrc.newline = false
			mrc.last = '\n'
			p[0] = '\n'
			return 1, nil
		}
		n, err = mrc.readers[0].Read(p)
		if n > 0 {
			mrc.last = p[n-1]
		}
		if err != io.EOF {
			return n, err
		}
		mrc.readers[0].Close()
		mrc.readers[0] = nil
		mrc.readers = mrc.readers[1:]
		mrc.newline = len(mrc.readers) > 0 && mrc.last != 0 && mrc.last != '\n'
		if n > 0 {
			if len(mrc.readers) > 0 {
				err = nil
			}
			return n, err
		}
	}
	return 0, io.EOF
}

func (mrc *multiReadCloser) Close() error {
	var firstError error
	for _, rc := range mrc.readers {
		if err := rc.Close(); firstError == nil {
			firstError = err
		}
	}
	mrc.readers = nil
	return firstError
}

type nopReadCloser struct {
	io.Reader
}

func (nopReadCloser) Close() error { return nil }

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
