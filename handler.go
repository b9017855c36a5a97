// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

package jsonschemaparse

// Token is the type of a JSON value reported to a Handler.
type Token byte

// Constants defining the valid Token values.
const (
	Invalid Token = iota // invalid token
	LBrace               // object, reported at its open brace "{"
	RBrace               // object, reported at its close brace "}"
	LSquare              // array, reported at its open bracket "["
	RSquare              // array, reported at its close bracket "]"
	Integer              // number: integer with no fraction or exponent
	Number               // number with fraction and/or exponent
	String               // quoted string
	True                 // constant: true
	False                // constant: false
	Null                 // constant: null
)

var tokenStr = [...]string{
	Invalid: "invalid token",
	LBrace:  `"{"`,
	RBrace:  `"}"`,
	LSquare: `"["`,
	RSquare: `"]"`,
	Integer: "integer",
	Number:  "number",
	String:  "string",
	True:    "true",
	False:   "false",
	Null:    "null",
}

func (t Token) String() string {
	v := int(t)
	if v >= len(tokenStr) {
		return tokenStr[Invalid]
	}
	return tokenStr[v]
}

// An Anchor represents a value in the source text. The methods of an Anchor
// report the location, token type, and contents of the value.
type Anchor interface {
	Token() Token // Returns the token type of the anchor
	Text() []byte // Returns a view of the decoded text of a string, key, or number
	Copy() []byte // Returns a copy of the decoded text
	Path() string // Returns the JSON Pointer of the value
	Span() Span   // Returns the source range of the value seen so far
}

// A Handler receives structural events from a Parser as the input is
// consumed, for callers that do not want a materialized value. If a method
// reports an error, parsing stops and that error is returned by the write
// that triggered it.
//
// The Anchor argument to a Handler method is only valid for the duration of
// that method call. If the method needs to retain information about the
// value after it returns, it must copy the relevant data.
type Handler interface {
	// Begin a new object, whose open brace is at loc.
	BeginObject(loc Anchor) error

	// End the most-recently-opened object, whose close brace ends loc.
	EndObject(loc Anchor) error

	// Begin a new array, whose open bracket is at loc.
	BeginArray(loc Anchor) error

	// End the most-recently-opened array, whose close bracket ends loc.
	EndArray(loc Anchor) error

	// Report an object key. The text of the key is fully decoded.
	Key(loc Anchor) error

	// Report a complete string, number, or constant value. String text is
	// decoded; number text is the literal as written.
	Value(loc Anchor) error
}
