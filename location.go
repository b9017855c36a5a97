// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

package jsonschemaparse

import "fmt"

// A Position describes a location in source text. All fields are 0-based and
// measured in Unicode scalar values, not bytes or UTF-16 code units.
type Position struct {
	Offset int // scalar values from the start of the input
	Line   int // line number
	Column int // scalar values from the start of the line
}

func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// next returns the position following p after consuming ch.
func (p Position) next(ch rune) Position {
	p.Offset++
	if ch == '\n' {
		p.Line++
		p.Column = 0
	} else {
		p.Column++
	}
	return p
}

// A Span describes a contiguous range of source text.
type Span struct {
	Begin Position // the first scalar value of the range
	End   Position // the position after the last scalar value (noninclusive)
}

func (s Span) String() string {
	if s.Begin.Line == s.End.Line {
		return fmt.Sprintf("%d:%d-%d", s.Begin.Line, s.Begin.Column, s.End.Column)
	}
	return fmt.Sprintf("%s-%s", s.Begin, s.End)
}
