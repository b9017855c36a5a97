// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

// Package jsonschemaparse implements a streaming JSON parser that validates
// its input against a JSON Schema as the input arrives.
//
// # Parsing
//
// The Parser type consumes JSON text incrementally. Construct a parser with
// NewParser and feed it chunks of input of any size with Write (or
// WriteString, or WriteUTF16 for pre-decoded text), then call Close:
//
//	p, err := jsonschemaparse.NewParser(&jsonschemaparse.Options{
//	   ParseValue: true,
//	   Schema:     schema,
//	})
//	...
//	if _, err := p.Write(chunk); err != nil {
//	   log.Fatalf("Parse failed: %v", err)
//	}
//	...
//	if err := p.Close(); err != nil {
//	   log.Fatalf("Parse failed: %v", err)
//	}
//	log.Printf("Value: %v, errors: %v", p.Value(), p.Errors())
//
// A syntax error is reported, with concrete type *SyntaxError, by the call
// that consumes the offending character, and stops the parser. Validation
// errors do not stop the parser unless Options.FailFast is set; they are
// collected as each value completes and reported by the Errors method.
//
// For whole documents the Parse, ParseBytes, ParseInfo, and ParseReader
// functions wrap a Parser.
//
// # Values
//
// When Options.ParseValue is set the parser builds a value of the same shape
// that encoding/json produces when decoding into an empty interface: objects
// are map[string]any, arrays are []any, and numbers are float64. A number
// that a float64 cannot represent exactly is handled according to
// Options.BigNumber, and may be kept as a json.Number.
//
// # Schemas
//
// A Schema is compiled from a decoded schema document by Compile, or by a
// Registry that holds documents by URI. References ($ref) are resolved
// through the registry when the input first reaches them, so a registry may
// hold documents that refer to each other in any order. Use DecodeSchema,
// DecodeSchemaJWCC, DecodeSchemaYAML, or LoadSchemaFile to decode schema
// documents.
//
// # Handlers
//
// The Handler interface accepts structural events from a Parser, for callers
// that process the input as it streams rather than materializing it:
//
//	JSON type  | Methods                   | Description
//	---------- | ------------------------- | ---------------------------------
//	object     | BeginObject, EndObject    | { ... }
//	array      | BeginArray, EndArray      | [ ... ]
//	member     | Key                       | "key":
//	value      | Value                     | true, false, null, number, string
//
// Each method is passed an Anchor value that reports the location, path, and
// text of the value. The Anchor passed to a handler method is only valid for
// the duration of that method call.
package jsonschemaparse
