// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

package jsonschemaparse

import (
	"strconv"
	"strings"

	"github.com/awwright/jsonschemaparse-sub000/internal/escape"
	json "github.com/goccy/go-json"
	"go4.org/mem"
)

// maxQuoted bounds the number of characters of a string value rendered into
// a diagnostic message.
const maxQuoted = 64

// Quote encodes src as a JSON string value.
func Quote(src string) string { return escape.Quote(mem.S(src), 0) }

// formatValue renders a JSON value for inclusion in a diagnostic message.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return escape.Quote(mem.S(t), maxQuoted)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	bits, err := json.Marshal(v)
	if err != nil {
		return "<invalid>"
	} else if len(bits) > 2*maxQuoted {
		return strings.ToValidUTF8(string(bits[:2*maxQuoted]), "") + "..."
	}
	return string(bits)
}
