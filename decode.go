// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

package jsonschemaparse

import (
	"fmt"
	"unicode"
	"unicode/utf16"
)

// Charset selects how the bytes given to Parser.Write are decoded.
type Charset byte

const (
	UTF8  Charset = iota // UTF-8, rejecting malformed and overlong sequences
	ASCII                // 7-bit ASCII, rejecting any byte >= 0x80
)

func (c Charset) String() string {
	switch c {
	case UTF8:
		return "UTF-8"
	case ASCII:
		return "ASCII"
	}
	return fmt.Sprintf("Charset(%d)", c)
}

// A utf8Decoder assembles scalar values from UTF-8 bytes one byte at a time,
// so that a multi-byte sequence may be split across writes.
type utf8Decoder struct {
	need int  // continuation bytes still expected
	size int  // total length of the current sequence
	cp   rune // value accumulated so far
	min  rune // smallest value that requires size bytes
}

// feed adds b to the decoder. It reports a complete scalar value and true,
// or false if b was consumed as part of an incomplete sequence.
func (d *utf8Decoder) feed(b byte) (rune, bool, error) {
	if d.need == 0 {
		switch {
		case b < 0x80:
			return rune(b), true, nil
		case b&0xe0 == 0xc0:
			d.start(2, rune(b&0x1f), 0x80)
		case b&0xf0 == 0xe0:
			d.start(3, rune(b&0x0f), 0x800)
		case b&0xf8 == 0xf0:
			d.start(4, rune(b&0x07), 0x10000)
		default:
			return 0, false, fmt.Errorf("invalid UTF-8 leading byte %#02x", b)
		}
		return 0, false, nil
	}
	if b&0xc0 != 0x80 {
		size := d.size
		d.need = 0
		return 0, false, fmt.Errorf("truncated %d-byte UTF-8 sequence before byte %#02x", size, b)
	}
	d.cp = d.cp<<6 | rune(b&0x3f)
	if d.need--; d.need > 0 {
		return 0, false, nil
	}
	switch cp := d.cp; {
	case cp < d.min:
		return 0, false, fmt.Errorf("overlong %d-byte UTF-8 encoding of U+%04X", d.size, cp)
	case cp > unicode.MaxRune:
		return 0, false, fmt.Errorf("UTF-8 value %#x out of range", cp)
	case utf16.IsSurrogate(cp):
		return 0, false, fmt.Errorf("UTF-8 encoding of surrogate U+%04X", cp)
	default:
		return cp, true, nil
	}
}

func (d *utf8Decoder) start(size int, cp, min rune) {
	d.need, d.size, d.cp, d.min = size-1, size, cp, min
}

// state reports the name of the decoder state for diagnostics.
func (d *utf8Decoder) state() string { return fmt.Sprintf("UTF8_%d", d.need+1) }

// A utf16Decoder pairs surrogates from pre-decoded 16-bit text.
type utf16Decoder struct {
	high rune // pending high surrogate, or 0
}

func isHighSurrogate(r rune) bool { return r >= 0xd800 && r < 0xdc00 }
func isLowSurrogate(r rune) bool  { return r >= 0xdc00 && r < 0xe000 }

// feed adds u to the decoder. It reports a complete scalar value and true, or
// false if u is a high surrogate awaiting its pair.
func (d *utf16Decoder) feed(u uint16) (rune, bool, error) {
	r := rune(u)
	if d.high != 0 {
		high := d.high
		d.high = 0
		if !isLowSurrogate(r) {
			return 0, false, fmt.Errorf("unpaired high surrogate U+%04X", high)
		}
		return utf16.DecodeRune(high, r), true, nil
	}
	switch {
	case isHighSurrogate(r):
		d.high = r
		return 0, false, nil
	case isLowSurrogate(r):
		return 0, false, fmt.Errorf("unpaired low surrogate U+%04X", r)
	}
	return r, true, nil
}
