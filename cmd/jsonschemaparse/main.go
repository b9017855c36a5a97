// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

// Program jsonschemaparse validates JSON documents against a JSON Schema,
// streaming each document through the incremental parser.
//
// Usage:
//
//	jsonschemaparse -schema schema.json [-ref other.yaml ...] [file ...]
//
// With no files, the document is read from stdin. The schema and any -ref
// documents may be written in JSON, JWCC (.jwcc, .hujson), or YAML (.yaml,
// .yml). The exit status is 1 if any document is malformed or invalid.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/awwright/jsonschemaparse-sub000"
	json "github.com/goccy/go-json"
)

var (
	schemaPath  = flag.String("schema", "", "Path of the schema document")
	charset     = flag.String("charset", "utf-8", `Input encoding ("utf-8" or "ascii")`)
	bigNumber   = flag.String("big-number", "default", `Treatment of inexact numbers ("default", "json", "error")`)
	maxKey      = flag.Int("max-key-length", 0, "Maximum key length (0 is unbounded)")
	maxString   = flag.Int("max-string-length", 0, "Maximum string length (0 is unbounded)")
	maxNumber   = flag.Int("max-number-length", 0, "Maximum number length (0 is unbounded)")
	maxItems    = flag.Int("max-items", 0, "Maximum array items (0 is unbounded)")
	maxProps    = flag.Int("max-properties", 0, "Maximum object members (0 is unbounded)")
	annotations = flag.Bool("annotations", false, "Print annotations of valid values")
	printValue  = flag.Bool("value", false, "Print each document as compact JSON")
	failFast    = flag.Bool("fail-fast", false, "Stop each document at its first validation error")
	verbose     = flag.Bool("v", false, "Enable verbose (debug) logging")

	refPaths []string
)

func init() {
	flag.Func("ref", "Path of an additional schema document (repeatable)", func(s string) error {
		refPaths = append(refPaths, s)
		return nil
	})
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `Usage: %[1]s [options] [file ...]

Parse each JSON file (or stdin) and validate it against a schema.

Options:
`, filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts, err := makeOptions(log)
	if err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(2)
	}

	inputs := flag.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	failed := 0
	for _, path := range inputs {
		ok, err := checkFile(out, path, opts)
		if err != nil {
			log.Error("read failed", "file", path, "err", err)
			failed++
		} else if !ok {
			failed++
		}
	}
	log.Debug("done", "files", len(inputs), "failed", failed)
	if failed != 0 {
		out.Flush()
		os.Exit(1)
	}
}

// makeOptions builds parser options from the command-line flags, loading and
// compiling the schema documents they name.
func makeOptions(log *slog.Logger) (*jsonschemaparse.Options, error) {
	opts := &jsonschemaparse.Options{
		ParseValue:       *printValue,
		ParseAnnotations: *annotations,
		MaxKeyLength:     *maxKey,
		MaxStringLength:  *maxString,
		MaxNumberLength:  *maxNumber,
		MaxItems:         *maxItems,
		MaxProperties:    *maxProps,
		FailFast:         *failFast,
	}
	switch strings.ToLower(*charset) {
	case "utf-8", "utf8":
		opts.Charset = jsonschemaparse.UTF8
	case "ascii", "us-ascii":
		opts.Charset = jsonschemaparse.ASCII
	default:
		return nil, fmt.Errorf("unknown charset %q", *charset)
	}
	policy, err := jsonschemaparse.ParseBigNumberPolicy(*bigNumber)
	if err != nil {
		return nil, err
	}
	opts.BigNumber = policy

	if *schemaPath == "" {
		if len(refPaths) != 0 {
			return nil, errors.New("-ref requires -schema")
		}
		return opts, nil
	}

	reg := jsonschemaparse.NewRegistry()
	reg.SetLogger(log)
	for _, path := range refPaths {
		uri, raw, err := loadSchema(path)
		if err != nil {
			return nil, err
		}
		if err := reg.Scan(raw, uri); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		log.Debug("loaded schema reference", "file", path, "uri", uri)
	}
	uri, raw, err := loadSchema(*schemaPath)
	if err != nil {
		return nil, err
	}
	s, err := reg.Import(uri, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", *schemaPath, err)
	}
	if u := s.AllUnknown(); len(u) != 0 {
		log.Warn("schema uses unsupported keywords", "keywords", u)
	}
	opts.Schema = s
	opts.Registry = reg
	return opts, nil
}

// loadSchema reads the schema document at path and reports the URI it
// should be registered under: its declared $id if any, else its file URL.
func loadSchema(path string) (string, any, error) {
	raw, err := jsonschemaparse.LoadSchemaFile(path)
	if err != nil {
		return "", nil, err
	}
	if obj, ok := raw.(map[string]any); ok {
		if id, ok := obj["$id"].(string); ok && isAbsolute(id) {
			return id, raw, nil
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", nil, err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), raw, nil
}

func isAbsolute(id string) bool {
	u, err := url.Parse(id)
	return err == nil && u.IsAbs()
}

// checkFile parses and validates the document at path ("-" for stdin),
// writing its diagnostics to w. It reports whether the document is valid.
func checkFile(w io.Writer, path string, opts *jsonschemaparse.Options) (bool, error) {
	var r io.Reader = os.Stdin
	name := "<stdin>"
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return false, err
		}
		defer f.Close()
		r, name = f, path
	}

	res, err := jsonschemaparse.ParseReader(bufio.NewReader(r), opts)
	var serr *jsonschemaparse.SyntaxError
	var verr *jsonschemaparse.ValidationError
	switch {
	case errors.As(err, &serr):
		fmt.Fprintf(w, "%s:%d:%d: syntax error: %s\n", name, serr.Pos.Line+1, serr.Pos.Column+1, syntaxMessage(serr))
		return false, nil
	case errors.As(err, &verr):
		printError(w, name, verr)
		return false, nil
	case err != nil:
		return false, err
	}

	for _, e := range res.Errors {
		printError(w, name, e)
	}
	for _, a := range res.Annotations {
		fmt.Fprintf(w, "%s:%d:%d: %s %s: %v\n", name, a.Span.Begin.Line+1, a.Span.Begin.Column+1,
			pathOrRoot(a.Path), a.Keyword, jsonschemaparse.Quote(fmt.Sprint(a.Value)))
	}
	if *printValue && res.Valid() {
		data, err := json.Marshal(res.Value)
		if err != nil {
			return false, fmt.Errorf("encode value: %w", err)
		}
		fmt.Fprintf(w, "%s\n", data)
	}
	return res.Valid(), nil
}

func printError(w io.Writer, name string, e *jsonschemaparse.ValidationError) {
	fmt.Fprintf(w, "%s:%d:%d: %s: %s (%s)\n", name, e.Span.Begin.Line+1, e.Span.Begin.Column+1,
		pathOrRoot(e.Path), e.Message, e.Keyword)
}

// syntaxMessage renders the message of a syntax error without its position,
// which the caller reports in file:line:column form.
func syntaxMessage(e *jsonschemaparse.SyntaxError) string {
	msg := e.Message
	if len(e.Expected) != 0 {
		msg += ", expected one of " + strings.Join(e.Expected, " ")
	}
	return msg
}

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
