// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

// Package jsonpointer implements RFC 6901 JSON Pointers.
//
// A pointer is a sequence of reference tokens, each naming an object key or
// an array index. In text form the tokens are separated by "/", and the
// characters "~" and "/" inside a token are escaped as "~0" and "~1":
//
//	/definitions/a~1b/0
//
// When a pointer appears as a URI fragment it is additionally percent-encoded;
// use FromFragment to decode it.
package jsonpointer

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// A Pointer is a parsed JSON Pointer. The empty Pointer refers to the whole
// document.
type Pointer []string

// Parse parses s as a JSON Pointer. The empty string denotes the whole
// document; any other pointer must begin with "/".
func Parse(s string) (Pointer, error) {
	if s == "" {
		return Pointer{}, nil
	}
	rest, ok := strings.CutPrefix(s, "/")
	if !ok {
		return nil, fmt.Errorf("pointer %q does not begin with %q", s, "/")
	}
	parts := strings.Split(rest, "/")
	for i, p := range parts {
		tok, err := Unescape(p)
		if err != nil {
			return nil, fmt.Errorf("pointer %q: %w", s, err)
		}
		parts[i] = tok
	}
	return Pointer(parts), nil
}

// FromFragment parses a URI fragment (without the leading "#") as a JSON
// Pointer, undoing percent-encoding before the pointer escapes.
func FromFragment(frag string) (Pointer, error) {
	dec, err := url.PathUnescape(frag)
	if err != nil {
		return nil, fmt.Errorf("invalid fragment %q: %w", frag, err)
	}
	return Parse(dec)
}

// String renders p in its JSON Pointer text form.
func (p Pointer) String() string {
	var buf strings.Builder
	for _, tok := range p {
		buf.WriteByte('/')
		buf.WriteString(Escape(tok))
	}
	return buf.String()
}

// Fragment renders p as a percent-encoded URI fragment, without the "#".
func (p Pointer) Fragment() string {
	var buf strings.Builder
	for _, tok := range p {
		buf.WriteByte('/')
		buf.WriteString(url.PathEscape(Escape(tok)))
	}
	return buf.String()
}

// Append returns the text of the pointer base extended by a single token.
// The base must already be in pointer text form.
func Append(base, token string) string { return base + "/" + Escape(token) }

// AppendIndex returns the text of the pointer base extended by an array index.
func AppendIndex(base string, index int) string { return base + "/" + strconv.Itoa(index) }

// Escape escapes a single reference token.
func Escape(token string) string {
	if !strings.ContainsAny(token, "~/") {
		return token
	}
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(token)
}

// Unescape undoes the escaping of a single reference token.
func Unescape(token string) (string, error) {
	i := strings.IndexByte(token, '~')
	if i < 0 {
		return token, nil
	}
	var buf strings.Builder
	for i >= 0 {
		buf.WriteString(token[:i])
		if i+1 >= len(token) {
			return "", errors.New("incomplete escape")
		}
		switch token[i+1] {
		case '0':
			buf.WriteByte('~')
		case '1':
			buf.WriteByte('/')
		default:
			return "", fmt.Errorf("invalid escape %q", token[i:i+2])
		}
		token = token[i+2:]
		i = strings.IndexByte(token, '~')
	}
	buf.WriteString(token)
	return buf.String(), nil
}

// Resolve descends doc along p and returns the value found there. The
// document must be composed of the values produced by decoding JSON into an
// empty interface: map[string]any for objects and []any for arrays.
func (p Pointer) Resolve(doc any) (any, error) {
	cur := doc
	for i, tok := range p {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[tok]
			if !ok {
				return nil, fmt.Errorf("key %q not found at %s", tok, p[:i])
			}
			cur = next
		case []any:
			n, err := parseIndex(tok)
			if err != nil {
				return nil, fmt.Errorf("at %s: %w", p[:i], err)
			} else if n >= len(v) {
				return nil, fmt.Errorf("index %d out of range at %s", n, p[:i])
			}
			cur = v[n]
		default:
			return nil, fmt.Errorf("cannot descend into %T at %s", cur, p[:i])
		}
	}
	return cur, nil
}

// parseIndex parses an array index token. Leading zeroes are not permitted.
func parseIndex(tok string) (int, error) {
	if tok == "" || (len(tok) > 1 && tok[0] == '0') {
		return 0, fmt.Errorf("invalid array index %q", tok)
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid array index %q", tok)
	}
	return n, nil
}
