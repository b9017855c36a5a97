// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

// Package escape renders strings as JSON string literals for diagnostics.
package escape

import (
	"unicode/utf8"

	"go4.org/mem"
)

var controlEsc = [...]byte{
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
	' ':  ' ', // sentinel
}

var hexDigit = []byte("0123456789abcdef")

// Quote encodes src as a quoted JSON string. If limit > 0 and src has more
// than limit scalar values, the remainder is elided and replaced by "...".
func Quote(src mem.RO, limit int) string {
	buf := make([]byte, 0, src.Len()+2)
	buf = append(buf, '"')
	for n := 0; src.Len() != 0; n++ {
		if limit > 0 && n == limit {
			buf = append(buf, "..."...)
			break
		}
		r, size := mem.DecodeRune(src)
		src = src.SliceFrom(size)
		switch {
		case r == '\\' || r == '"':
			buf = append(buf, '\\', byte(r))
		case r < ' ':
			if b := controlEsc[r]; b != 0 && b != ' ' {
				buf = append(buf, '\\', b)
			} else {
				buf = append(buf, '\\', 'u', '0', '0', hexDigit[r>>4], hexDigit[r&15])
			}
		case r == utf8.RuneError && size == 1:
			buf = append(buf, `\ufffd`...)
		case r == '\u2028' || r == '\u2029':
			buf = append(buf, '\\', 'u', '2', '0', '2', hexDigit[r&15])
		default:
			buf = utf8.AppendRune(buf, r)
		}
	}
	buf = append(buf, '"')
	return string(buf)
}
