// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

package jsonschemaparse

import (
	"io"
)

// Result is the complete outcome of parsing and validating one document.
type Result struct {
	Value       any                // the parsed value, if requested
	Errors      []*ValidationError // validation errors, in the order found
	Annotations []*Annotation      // annotations, if requested
}

// Valid reports whether r has no validation errors.
func (r *Result) Valid() bool { return len(r.Errors) == 0 }

// Err returns r.Errors as an error, or nil if there are none.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return ValidationErrors(r.Errors)
}

// Parse parses text as a single JSON document and returns its value. If a
// schema is given in opts, the first validation error is returned as an
// error of concrete type *ValidationError; syntax errors are reported with
// concrete type *SyntaxError.
func Parse(text string, opts *Options) (any, error) {
	o := opts.clone()
	o.ParseValue = true
	o.FailFast = true
	res, err := ParseInfo(text, &o)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// ParseBytes is as Parse, but reads its input from a byte slice.
func ParseBytes(data []byte, opts *Options) (any, error) {
	o := opts.clone()
	o.ParseValue = true
	o.FailFast = true
	res, err := parseWith(&o, func(p *Parser) error {
		_, err := p.Write(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// ParseInfo parses text as a single JSON document and reports the result.
// Validation errors are reported in the result; the error is non-nil only if
// the document is not well-formed, the schema could not be compiled, or
// FailFast stopped the parse.
func ParseInfo(text string, opts *Options) (*Result, error) {
	return parseWith(opts, func(p *Parser) error {
		_, err := p.WriteString(text)
		return err
	})
}

// ParseReader is as ParseInfo, but consumes its input from r.
func ParseReader(r io.Reader, opts *Options) (*Result, error) {
	return parseWith(opts, func(p *Parser) error {
		_, err := p.ReadFrom(r)
		return err
	})
}

func parseWith(opts *Options, feed func(*Parser) error) (*Result, error) {
	p, err := NewParser(opts)
	if err != nil {
		return nil, err
	}
	if err := feed(p); err != nil {
		return nil, err
	}
	if err := p.Close(); err != nil {
		return nil, err
	}
	return &Result{
		Value:       p.Value(),
		Errors:      p.Errors(),
		Annotations: p.Annotations(),
	}, nil
}
