// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

package jsonschemaparse

import (
	"fmt"
	"strings"
)

// SyntaxError is the concrete type of errors reported when the input is not
// well-formed JSON. A syntax error is fatal: once reported, the parser
// rejects all further input.
type SyntaxError struct {
	Pos      Position // the location of the offending character
	Path     string   // JSON Pointer to the innermost open value
	State    string   // the tokenizer state at the time of the error
	Message  string
	Expected []string // characters that would have been accepted, if known
	Actual   string   // the offending character, quoted; empty at end of input

	err error
}

// Error satisfies the error interface.
func (s *SyntaxError) Error() string {
	msg := fmt.Sprintf("at %s: %s", s.Pos, s.Message)
	if len(s.Expected) != 0 {
		msg += ", expected one of " + strings.Join(s.Expected, " ")
	}
	return msg
}

// Unwrap supports error wrapping.
func (s *SyntaxError) Unwrap() error { return s.err }

// ValidationError records a single schema constraint violated by a
// well-formed input value.
type ValidationError struct {
	Message  string
	Path     string // JSON Pointer to the offending value
	Span     Span   // source range of the offending value, as far as known
	SchemaID string // identity of the schema declaring the keyword
	Keyword  string // the violated keyword
	Expected any    // the constraint value, if meaningful
	Actual   any    // the offending value or measurement, if meaningful
}

// Error satisfies the error interface.
func (v *ValidationError) Error() string {
	path := v.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s at %s (%s): %s", v.Keyword, path, v.Span.Begin, v.Message)
}

// ValidationErrors is an error that wraps one or more validation errors.
type ValidationErrors []*ValidationError

// Error summarizes the first few errors.
func (vs ValidationErrors) Error() string {
	const maxShown = 3
	if len(vs) == 0 {
		return "no validation errors"
	}
	var buf strings.Builder
	for i, v := range vs {
		if i == maxShown {
			fmt.Fprintf(&buf, "; ... (total %d)", len(vs))
			break
		} else if i > 0 {
			buf.WriteString("; ")
		}
		buf.WriteString(v.Error())
	}
	return buf.String()
}

// SchemaError reports that a schema document is unusable: a keyword has the
// wrong shape, an identifier is malformed, or a registry definition
// conflicts with an earlier one.
type SchemaError struct {
	ID      string // the identity of the offending (sub-)schema
	Keyword string // the offending keyword, if any
	Message string

	err error
}

// Error satisfies the error interface.
func (s *SchemaError) Error() string {
	var buf strings.Builder
	buf.WriteString("schema")
	if s.ID != "" {
		fmt.Fprintf(&buf, " %s", s.ID)
	}
	if s.Keyword != "" {
		fmt.Fprintf(&buf, " keyword %q", s.Keyword)
	}
	buf.WriteString(": ")
	buf.WriteString(s.Message)
	if s.err != nil {
		fmt.Fprintf(&buf, ": %v", s.err)
	}
	return buf.String()
}

// Unwrap supports error wrapping.
func (s *SchemaError) Unwrap() error { return s.err }

// An Annotation is an informational value (such as a title or description)
// collected from a schema that an input value satisfied.
type Annotation struct {
	Path     string // JSON Pointer to the annotated value
	Span     Span
	SchemaID string
	Keyword  string
	Value    any
}
