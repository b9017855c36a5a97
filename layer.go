// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

package jsonschemaparse

import (
	"math/big"
	"slices"
)

// state is the tokenizer state of a layer.
type state byte

const (
	stateVoid          state = iota // outside any value
	stateValue                      // before a value: whitespace or a value start
	stateObjectOpen                 // after "{": a key or "}"
	stateObjectKey                  // after a key: ":"
	stateObjectValue                // after a member: "," or "}"
	stateObjectNext                 // after ",": a key
	stateArrayOpen                  // after "[": an item or "]"
	stateArrayValue                 // after an item: "," or "]"
	stateArrayNext                  // after ",": an item
	stateLiteral                    // inside true, false, or null
	stateNumberSign                 // after a leading "-"
	stateNumberZero                 // after a leading "0"
	stateNumberInt                  // in integer digits
	stateNumberDot                  // after "."
	stateNumberFrac                 // in fraction digits
	stateNumberExp                  // after "e" or "E"
	stateNumberExpSign              // after an exponent sign
	stateNumberExpInt               // in exponent digits
	stateString                     // in string contents
	stateStringEscape               // after "\"
	stateStringHex                  // in the digits of a \u escape
)

var stateStr = [...]string{
	stateVoid:          "Void",
	stateValue:         "Value",
	stateObjectOpen:    "ObjectOpen",
	stateObjectKey:     "ObjectKey",
	stateObjectValue:   "ObjectValue",
	stateObjectNext:    "ObjectNext",
	stateArrayOpen:     "ArrayOpen",
	stateArrayValue:    "ArrayValue",
	stateArrayNext:     "ArrayNext",
	stateLiteral:       "Literal",
	stateNumberSign:    "NumberSign",
	stateNumberZero:    "NumberZero",
	stateNumberInt:     "NumberInt",
	stateNumberDot:     "NumberDot",
	stateNumberFrac:    "NumberFrac",
	stateNumberExp:     "NumberExp",
	stateNumberExpSign: "NumberExpSign",
	stateNumberExpInt:  "NumberExpInt",
	stateString:        "String",
	stateStringEscape:  "StringEscape",
	stateStringHex:     "StringHex",
}

func (s state) String() string { return stateStr[s] }

var valueStart = []string{"{", "[", `"`, "-", "0-9", "t", "f", "n"}

// expected reports the characters acceptable in state s, for diagnostics.
func (s state) expected() []string {
	switch s {
	case stateValue, stateArrayOpen, stateArrayNext:
		return valueStart
	case stateObjectOpen:
		return []string{`"`, "}"}
	case stateObjectKey:
		return []string{":"}
	case stateObjectValue:
		return []string{",", "}"}
	case stateObjectNext:
		return []string{`"`}
	case stateArrayValue:
		return []string{",", "]"}
	case stateNumberSign, stateNumberDot, stateNumberExpSign:
		return []string{"0-9"}
	case stateNumberExp:
		return []string{"+", "-", "0-9"}
	case stateStringEscape:
		return []string{`"`, `\`, "/", "b", "f", "n", "r", "t", "u"}
	case stateStringHex:
		return []string{"0-9", "a-f", "A-F"}
	}
	return nil
}

// isNumber reports whether s is one of the number states.
func (s state) isNumber() bool { return s >= stateNumberSign && s <= stateNumberExpInt }

// isTerminal reports whether a number may end in state s.
func (s state) isTerminal() bool {
	switch s {
	case stateNumberZero, stateNumberInt, stateNumberFrac, stateNumberExpInt:
		return true
	}
	return false
}

// A layer is the parse state of one value under construction. The bottom of
// the stack is a sentinel layer in stateVoid that receives the document value.
type layer struct {
	state state
	kind  Token
	isKey bool // this layer is an object key
	ended bool // the value is complete

	count int    // literal: offset of the next character; \u escape: digits remaining
	hex   rune   // \u escape accumulator
	high  rune   // pending high surrogate from a \u escape, or 0
	lit   string // the literal being matched

	path   string // JSON Pointer of this value
	key    string // object: the most recent member key
	begin  Position
	end    Position
	length int // scalar values, characters, members, or items seen so far
	limit  int // maximum length, or 0 if unbounded

	text  []byte // decoded string contents or number literal
	value any    // the materialized container, if values are being built

	validators []*validator

	rat     *big.Rat // exact value of a number, once computed
	ratDone bool
}

// Token implements part of the Anchor interface.
func (l *layer) Token() Token {
	if l.ended {
		switch l.kind {
		case LBrace:
			return RBrace
		case LSquare:
			return RSquare
		}
	}
	return l.kind
}

// Text implements part of the Anchor interface.
func (l *layer) Text() []byte {
	switch l.kind {
	case String, Integer, Number:
		return l.text
	case True, False, Null:
		return []byte(l.lit)
	}
	return nil
}

// Copy implements part of the Anchor interface.
func (l *layer) Copy() []byte { return slices.Clone(l.Text()) }

// Path implements part of the Anchor interface.
func (l *layer) Path() string { return l.path }

// Span implements part of the Anchor interface.
func (l *layer) Span() Span { return Span{Begin: l.begin, End: l.end} }

// number returns the exact value of a complete number layer. It reports
// false if the value is too large to expand.
func (l *layer) number() (*big.Rat, bool) {
	if !l.ratDone {
		l.rat, _ = parseRat(string(l.text))
		l.ratDone = true
	}
	return l.rat, l.rat != nil
}

// literalKey returns the canonical comparison key of a complete primitive
// layer, as used for const and enum.
func (l *layer) literalKey() string {
	switch l.kind {
	case String:
		return "s:" + string(l.text)
	case Integer, Number:
		if r, ok := l.number(); ok {
			return "n:" + r.RatString()
		}
		return "n:" + string(l.text)
	case True:
		return "true"
	case False:
		return "false"
	case Null:
		return "null"
	}
	return ""
}

// limitName reports the option that bounds the length of l.
func (l *layer) limitName() string {
	switch {
	case l.isKey:
		return "MaxKeyLength"
	case l.kind == String:
		return "MaxStringLength"
	case l.kind == LBrace:
		return "MaxProperties"
	case l.kind == LSquare:
		return "MaxItems"
	}
	return "MaxNumberLength"
}
