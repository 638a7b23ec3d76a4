package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/peterh/liner"
	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/infix"
	"github.com/zephyrtronium/infix/internal/bigeval"
)

const historyFile = ".infix_history"

func main() {
	log.SetFlags(0)
	var (
		inname, varsname, verb string
		with                   [][2]string
		interactive            bool
		prec                   uint
		c                      printer
	)
	addwith := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		with = append(with, [2]string{strings.TrimSpace(d[0]), strings.TrimSpace(d[1])})
		return nil
	}
	flag.StringVar(&inname, "in", "", "input file, one expression per line (default stdin if no args given)")
	flag.StringVar(&varsname, "vars", "", "YAML file of variable values and factor levels")
	flag.StringVar(&verb, "fmt", "%g", "result formatting string for -eval")
	flag.Func("given", "name=value variable definition (any number of times)", addwith)
	flag.UintVar(&prec, "p", 64, "precision of calculations in bits")
	flag.BoolVar(&c.params, "params", false, "print numbers as parameters followed by a table of their values")
	flag.BoolVar(&c.raw, "raw", false, "print the parse tree without canonicalizing")
	flag.BoolVar(&c.dump, "dump", false, "print a structural dump of each tree")
	flag.BoolVar(&c.eval, "eval", false, "evaluate each expression")
	flag.BoolVar(&interactive, "i", false, "read expressions interactively")
	flag.Parse()
	if prec == 0 {
		log.Fatal("precision must be positive")
	}
	c.verb = verb + "\n"

	ctx, err := newContext(prec, varsname, with)
	if err != nil {
		log.Fatal(err)
	}
	c.ctx = ctx

	if interactive {
		repl(&c)
		return
	}
	for _, arg := range flag.Args() {
		if err := c.expr(os.Stdout, arg); err != nil {
			log.Fatal(err)
		}
	}
	f, err := infile(inname, flag.NArg() == 0)
	if err != nil {
		log.Fatal(err)
	}
	if f != nil {
		defer f.Close()
		if err := c.lines(os.Stdout, f); err != nil {
			log.Fatal(err)
		}
	}
}

// printer holds the output settings for expressions.
type printer struct {
	params, raw, dump, eval bool
	verb                    string
	ctx                     *bigeval.Context
}

// expr parses, canonicalizes, and prints a single expression.
func (c *printer) expr(w io.Writer, src string) error {
	t, err := infix.ParseString(src)
	if err != nil {
		return err
	}
	if c.raw {
		fmt.Fprintln(w, t.Expr())
	} else {
		infix.Canonicalize(t)
		if err := c.format(w, t); err != nil {
			return err
		}
	}
	if c.dump {
		repr.New(w, repr.Indent("  "), repr.OmitEmpty(true)).Println(t.Expr())
	}
	if c.eval {
		r, err := c.ctx.EvalTree(t)
		if err != nil {
			fmt.Fprintln(w, err)
			return nil
		}
		fmt.Fprintf(w, c.verb, r)
	}
	return nil
}

func (c *printer) format(w io.Writer, t *infix.Tree) error {
	if !c.params {
		s, err := infix.Format(t)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, s)
		return err
	}
	s, params, err := infix.FormatParams(t)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, s); err != nil {
		return err
	}
	return infix.WriteParams(w, params)
}

// lines prints each non-blank line of r as an expression. Errors report the
// line number.
func (c *printer) lines(w io.Writer, r io.Reader) error {
	s := bufio.NewScanner(r)
	for k := 1; s.Scan(); k++ {
		line := s.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := c.expr(w, line); err != nil {
			return fmt.Errorf("line %d: %w", k, err)
		}
	}
	return s.Err()
}

func repl(c *printer) {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		line, err := ln.Prompt("infix> ")
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
				log.Print(err)
			}
			fmt.Println()
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if err := c.expr(os.Stdout, line); err != nil {
			var ie infix.InputError
			if errors.As(err, &ie) {
				fmt.Fprintf(os.Stderr, "%*s^\n", len("infix> ")+ie.Pos()-1, "")
			}
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// varsFile is the layout of a -vars file.
type varsFile struct {
	// Vars maps variable names to values.
	Vars map[string]float64 `yaml:"vars"`
	// Lagged maps variable names to their values at each lag.
	Lagged map[string]map[int]float64 `yaml:"lagged"`
	// Levels lists the levels of each categorical variable in order.
	Levels map[string][]string `yaml:"levels"`
	// Level gives the current level of each categorical variable.
	Level map[string]string `yaml:"level"`
}

func (v *varsFile) options() []bigeval.ContextOption {
	var opts []bigeval.ContextOption
	for name, x := range v.Vars {
		opts = append(opts, bigeval.SetVar(name, big.NewFloat(x)))
	}
	for name, lags := range v.Lagged {
		for lag, x := range lags {
			opts = append(opts, bigeval.SetLagged(name, lag, big.NewFloat(x)))
		}
	}
	for name, levels := range v.Levels {
		opts = append(opts, bigeval.SetLevels(name, levels...))
	}
	for name, level := range v.Level {
		opts = append(opts, bigeval.SetLevel(name, level))
	}
	return opts
}

func readVars(r io.Reader) (*varsFile, error) {
	var v varsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&v); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &v, nil
}

// newContext creates the evaluation context from the -vars file, then the
// -given definitions in order.
func newContext(prec uint, varsname string, with [][2]string) (*bigeval.Context, error) {
	opts := []bigeval.ContextOption{bigeval.Prec(prec)}
	if varsname != "" {
		f, err := os.Open(varsname)
		if err != nil {
			return nil, err
		}
		v, err := readVars(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", varsname, err)
		}
		opts = append(opts, v.options()...)
	}
	ctx := bigeval.NewContext(opts...)
	for _, d := range with {
		r, err := bigeval.EvalString(d[1], bigeval.Prec(prec))
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", d[0], err)
		}
		ctx.Set(d[0], r)
	}
	return ctx, nil
}

func infile(inname string, std bool) (io.ReadCloser, error) {
	switch {
	case inname != "" && inname != "-":
		return os.Open(inname)
	case inname == "-", std:
		return io.NopCloser(os.Stdin), nil
	}
	return nil, nil
}
