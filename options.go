// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

package jsonschemaparse

import "fmt"

// BigNumberPolicy selects what the parser does with a number whose literal
// cannot be represented exactly as a float64.
type BigNumberPolicy byte

const (
	// BigNumberDefault converts the literal to the nearest float64.
	BigNumberDefault BigNumberPolicy = iota

	// BigNumberJSON materializes the literal as a json.Number holding the
	// text exactly as written.
	BigNumberJSON

	// BigNumberError rejects the input with a syntax error.
	BigNumberError
)

func (b BigNumberPolicy) String() string {
	switch b {
	case BigNumberDefault:
		return "default"
	case BigNumberJSON:
		return "json"
	case BigNumberError:
		return "error"
	}
	return fmt.Sprintf("BigNumberPolicy(%d)", b)
}

// ParseBigNumberPolicy parses the name of a policy as reported by its String
// method.
func ParseBigNumberPolicy(s string) (BigNumberPolicy, error) {
	switch s {
	case "default", "":
		return BigNumberDefault, nil
	case "json":
		return BigNumberJSON, nil
	case "error":
		return BigNumberError, nil
	}
	return 0, fmt.Errorf("unknown big number policy %q", s)
}

// Options control the behavior of a Parser. A nil *Options is ready for use
// and provides defaults as described.
type Options struct {
	// If true, build a value from the input. Parse always does so.
	ParseValue bool

	// If true, collect annotations from the schemas that the input satisfies.
	ParseAnnotations bool

	// If non-nil, validate the input against this compiled schema.
	Schema *Schema

	// If Schema is nil and RawSchema is not, compile RawSchema (a decoded JSON
	// schema document) with an anonymous identity and use it.
	RawSchema any

	// The registry used to compile RawSchema. If nil, a new empty registry
	// is used.
	Registry *Registry

	// Charset selects how bytes given to Write are decoded (default UTF8).
	Charset Charset

	// Length limits, counted in Unicode scalar values for keys and strings,
	// characters for numbers, and members or items for containers. Each
	// limit is enforced as soon as it is crossed. Zero means unbounded.
	MaxKeyLength    int
	MaxStringLength int
	MaxNumberLength int
	MaxItems        int
	MaxProperties   int

	// BigNumber selects the treatment of numbers that do not fit exactly in
	// a float64 (default BigNumberDefault).
	BigNumber BigNumberPolicy

	// If true, stop at the first validation error and report it as a fatal
	// error from the write that produced it.
	FailFast bool

	// If non-nil, receive structural events as the input is consumed.
	Handler Handler
}

func (o *Options) clone() Options {
	if o == nil {
		return Options{}
	}
	return *o
}
