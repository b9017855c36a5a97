// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

package jsonschemaparse

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/awwright/jsonschemaparse-sub000/jsonpointer"
)

// A Parser consumes JSON text incrementally, in chunks of any size, and
// validates it against an optional schema as it goes. Syntax errors are
// reported as soon as the offending character is seen; validation errors are
// collected as each value completes.
//
// A Parser implements io.Writer and io.StringWriter. A Parser is not safe for
// concurrent use by multiple goroutines.
type Parser struct {
	opts  Options
	stack []layer
	pos   Position
	u8    utf8Decoder
	u16   utf16Decoder
	out   sink
	value any

	err    error // sticky fatal error
	closed bool
}

// NewParser constructs a Parser with the given options. A nil opts is valid
// and provides defaults. It reports an error if opts.RawSchema cannot be
// compiled.
func NewParser(opts *Options) (*Parser, error) {
	p := &Parser{opts: opts.clone()}
	s := p.opts.Schema
	if s == nil && p.opts.RawSchema != nil {
		reg := p.opts.Registry
		if reg == nil {
			reg = NewRegistry()
		}
		var err error
		s, err = reg.CompileValue(p.opts.RawSchema)
		if err != nil {
			return nil, err
		}
		p.opts.Schema = s
	}
	root := layer{state: stateValue}
	if s != nil {
		ctx := &vcontext{annotations: p.opts.ParseAnnotations}
		root.validators = []*validator{newValidator(ctx, s, &p.out, nil, "", nil)}
	}
	p.stack = append(p.stack, layer{state: stateVoid}, root)
	return p, nil
}

// Write consumes the next chunk of input. It reports an error if the input is
// not well-formed, if FailFast is set and a validation error occurs, or if a
// Handler method fails. Once Write reports an error, all further calls
// report the same error.
func (p *Parser) Write(data []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	} else if p.closed {
		return 0, errors.New("write after close")
	}
	for i := 0; i < len(data); {
		if n := p.scanPlain(data[i:]); n > 0 {
			i += n
			continue
		}
		b := data[i]
		i++
		ch := rune(b)
		if b >= utf8.RuneSelf || p.u8.need != 0 {
			if p.opts.Charset == ASCII {
				return i - 1, p.decodeError(fmt.Errorf("non-ASCII byte %#02x", b), "ASCII")
			}
			st := p.u8.state()
			r, ok, err := p.u8.feed(b)
			if err != nil {
				return i - 1, p.decodeError(err, st)
			} else if !ok {
				continue
			}
			ch = r
		}
		if err := p.consume(ch); err != nil {
			return i - 1, err
		}
	}
	return len(data), nil
}

// WriteString consumes the next chunk of input from a string.
func (p *Parser) WriteString(s string) (int, error) { return p.Write([]byte(s)) }

// WriteUTF16 consumes the next chunk of input from pre-decoded text given as
// UTF-16 code units. Surrogates must be correctly paired, but a pair may be
// split across calls. The Charset option does not apply.
func (p *Parser) WriteUTF16(units []uint16) error {
	if p.err != nil {
		return p.err
	} else if p.closed {
		return errors.New("write after close")
	}
	for _, u := range units {
		r, ok, err := p.u16.feed(u)
		if err != nil {
			return p.decodeError(err, "UTF16")
		} else if !ok {
			continue
		}
		if err := p.consume(r); err != nil {
			return err
		}
	}
	return nil
}

// Close signals the end of input. It reports an error if the input ended
// inside a value or an encoded character. After Close, the value, errors, and
// annotations are complete.
func (p *Parser) Close() error {
	if p.err != nil || p.closed {
		return p.err
	}
	p.closed = true
	if p.u8.need != 0 {
		return p.decodeError(errors.New("truncated UTF-8 sequence at end of input"), p.u8.state())
	} else if p.u16.high != 0 {
		return p.decodeError(fmt.Errorf("unpaired high surrogate U+%04X at end of input", p.u16.high), "UTF16")
	}
	if top := p.top(); top.state.isNumber() && top.state.isTerminal() {
		if err := p.endValue(p.pos); err != nil {
			return p.fail(err)
		}
	}
	if len(p.stack) != 1 {
		top := p.top()
		return p.fail(&SyntaxError{
			Pos:      p.pos,
			Path:     top.path,
			State:    top.state.String(),
			Message:  "unexpected end of document",
			Expected: top.state.expected(),
		})
	}
	return p.checkFailFast()
}

// Value returns the value built from the input, or nil if ParseValue was not
// set. It is complete only after a successful Close.
func (p *Parser) Value() any { return p.value }

// Errors returns the validation errors reported so far.
func (p *Parser) Errors() []*ValidationError { return p.out.errors }

// Annotations returns the annotations collected so far, if ParseAnnotations
// was set.
func (p *Parser) Annotations() []*Annotation { return p.out.notes }

// Err returns the fatal error that stopped the parser, or nil.
func (p *Parser) Err() error { return p.err }

// Position reports the location of the next character to be consumed.
func (p *Parser) Position() Position { return p.pos }

// ReadFrom consumes all of r, then closes p. It implements io.ReaderFrom.
func (p *Parser) ReadFrom(r io.Reader) (int64, error) {
	n, err := io.Copy(struct{ io.Writer }{p}, r)
	if err != nil {
		return n, err
	}
	return n, p.Close()
}

func (p *Parser) top() *layer { return &p.stack[len(p.stack)-1] }

func (p *Parser) fail(err error) error {
	if p.err == nil {
		p.err = err
	}
	return p.err
}

func (p *Parser) checkFailFast() error {
	if p.opts.FailFast && len(p.out.errors) != 0 {
		return p.fail(p.out.errors[0])
	}
	return nil
}

func (p *Parser) decodeError(err error, state string) error {
	return p.fail(&SyntaxError{
		Pos:     p.pos,
		Path:    p.top().path,
		State:   state,
		Message: err.Error(),
		err:     err,
	})
}

// unexpected reports a syntax error for ch in the current state.
func (p *Parser) unexpected(ch rune) error {
	top := p.top()
	msg := "unexpected " + Quote(string(ch))
	if top.state == stateVoid {
		msg += " after end of document"
	}
	return &SyntaxError{
		Pos:      p.pos,
		Path:     top.path,
		State:    top.state.String(),
		Message:  msg,
		Expected: top.state.expected(),
		Actual:   Quote(string(ch)),
	}
}

// overLimit reports a syntax error for a layer that has exceeded its limit.
func (p *Parser) overLimit(l *layer) error {
	return &SyntaxError{
		Pos:     p.pos,
		Path:    l.path,
		State:   l.state.String(),
		Message: fmt.Sprintf("length exceeds %s (%d)", l.limitName(), l.limit),
	}
}

// scanPlain consumes a run of ordinary ASCII string characters from the
// front of data, and reports the number of bytes consumed.
func (p *Parser) scanPlain(data []byte) int {
	top := p.top()
	if top.state != stateString || top.high != 0 || p.u8.need != 0 {
		return 0
	}
	n := 0
	for n < len(data) && isPlain(data[n]) {
		n++
	}
	if top.limit > 0 {
		n = min(n, top.limit-top.length)
	}
	if n <= 0 {
		return 0
	}
	top.text = append(top.text, data[:n]...)
	top.length += n
	p.pos.Offset += n
	p.pos.Column += n
	return n
}

func isPlain(b byte) bool { return b >= ' ' && b < utf8.RuneSelf && b != '"' && b != '\\' }

func isSpace(ch rune) bool { return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' }

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }

// consume advances the parser by one scalar value.
func (p *Parser) consume(ch rune) error {
	for {
		again, err := p.step(ch)
		if err != nil {
			return p.fail(err)
		} else if !again {
			break
		}
	}
	p.pos = p.pos.next(ch)
	return p.checkFailFast()
}

// step applies ch to the top layer. It reports true if ch must be consumed
// again by the new top layer.
func (p *Parser) step(ch rune) (bool, error) {
	top := p.top()
	if top.state.isNumber() {
		return p.stepNumber(top, ch)
	}
	switch top.state {
	case stateString, stateStringEscape, stateStringHex:
		return false, p.stepString(top, ch)
	case stateLiteral:
		if ch != rune(top.lit[top.count]) {
			return false, p.unexpected(ch)
		}
		top.count++
		if top.count == len(top.lit) {
			return false, p.endValue(p.pos.next(ch))
		}
		return false, nil
	}

	if isSpace(ch) {
		return false, nil
	}
	switch top.state {
	case stateVoid:
		return false, p.unexpected(ch)
	case stateValue:
		return false, p.beginValue(top, ch)
	case stateObjectOpen, stateObjectNext:
		if ch == '"' {
			return false, p.beginKey(top)
		} else if ch == '}' && top.state == stateObjectOpen {
			return false, p.endValue(p.pos.next(ch))
		}
	case stateObjectKey:
		if ch == ':' {
			top.state = stateObjectValue
			return false, p.beginMember(top)
		}
	case stateObjectValue:
		if ch == ',' {
			top.state = stateObjectNext
			return false, nil
		} else if ch == '}' {
			return false, p.endValue(p.pos.next(ch))
		}
	case stateArrayOpen, stateArrayNext:
		if ch == ']' {
			if top.state == stateArrayNext {
				return false, p.unexpected(ch)
			}
			return false, p.endValue(p.pos.next(ch))
		}
		top.state = stateArrayValue
		return true, p.beginItem(top)
	case stateArrayValue:
		if ch == ',' {
			top.state = stateArrayNext
			return false, nil
		} else if ch == ']' {
			return false, p.endValue(p.pos.next(ch))
		}
	}
	return false, p.unexpected(ch)
}

// beginValue starts the value in layer l whose first character is ch.
func (p *Parser) beginValue(l *layer, ch rune) error {
	l.begin = p.pos
	l.end = p.pos.next(ch)
	switch {
	case ch == '{':
		l.state, l.kind, l.limit = stateObjectOpen, LBrace, p.opts.MaxProperties
		if p.opts.ParseValue {
			l.value = make(map[string]any)
		}
	case ch == '[':
		l.state, l.kind, l.limit = stateArrayOpen, LSquare, p.opts.MaxItems
		if p.opts.ParseValue {
			l.value = make([]any, 0)
		}
	case ch == '"':
		l.state, l.kind, l.limit = stateString, String, p.opts.MaxStringLength
	case ch == '-':
		l.state, l.kind, l.limit = stateNumberSign, Integer, p.opts.MaxNumberLength
	case ch == '0':
		l.state, l.kind, l.limit = stateNumberZero, Integer, p.opts.MaxNumberLength
	case isDigit(ch):
		l.state, l.kind, l.limit = stateNumberInt, Integer, p.opts.MaxNumberLength
	case ch == 't':
		l.state, l.kind, l.lit, l.count = stateLiteral, True, "true", 1
	case ch == 'f':
		l.state, l.kind, l.lit, l.count = stateLiteral, False, "false", 1
	case ch == 'n':
		l.state, l.kind, l.lit, l.count = stateLiteral, Null, "null", 1
	default:
		return p.unexpected(ch)
	}
	if l.kind == Integer {
		if err := p.appendNumber(l, ch); err != nil {
			return err
		}
	}
	for _, v := range l.validators {
		v.begin(l)
	}
	if h := p.opts.Handler; h != nil {
		switch l.kind {
		case LBrace:
			return h.BeginObject(l)
		case LSquare:
			return h.BeginArray(l)
		}
	}
	return nil
}

// beginKey pushes a layer for an object key, whose opening quote is the
// current character.
func (p *Parser) beginKey(obj *layer) error {
	p.stack = append(p.stack, layer{
		state: stateString,
		kind:  String,
		isKey: true,
		path:  obj.path,
		begin: p.pos,
		end:   p.pos,
		limit: p.opts.MaxKeyLength,
	})
	return nil
}

// beginMember pushes a layer for the value of the most recent key of obj.
func (p *Parser) beginMember(obj *layer) error {
	var vs []*validator
	for _, v := range obj.validators {
		vs = v.property(obj.key, vs)
	}
	p.stack = append(p.stack, layer{
		state:      stateValue,
		path:       jsonpointer.Append(obj.path, obj.key),
		validators: vs,
	})
	return nil
}

// beginItem pushes a layer for the next item of arr.
func (p *Parser) beginItem(arr *layer) error {
	index := arr.length
	arr.length++
	if arr.limit > 0 && arr.length > arr.limit {
		return p.overLimit(arr)
	}
	var vs []*validator
	for _, v := range arr.validators {
		vs = v.item(index, vs)
	}
	p.stack = append(p.stack, layer{
		state:      stateValue,
		path:       jsonpointer.AppendIndex(arr.path, index),
		validators: vs,
	})
	return nil
}

// endValue completes the top layer, whose value ends before end, and merges
// its value into its parent.
func (p *Parser) endValue(end Position) error {
	n := len(p.stack)
	l, parent := &p.stack[n-1], &p.stack[n-2]
	l.end = end
	l.ended = true
	if l.isKey {
		return p.endKey(l, parent)
	}

	var val any
	switch l.kind {
	case Integer, Number:
		v, err := numberValue(l.text, p.opts.BigNumber)
		if err != nil {
			return &SyntaxError{
				Pos:     l.begin,
				Path:    l.path,
				State:   l.state.String(),
				Message: fmt.Sprintf("number %s: %v", l.text, err),
				err:     err,
			}
		}
		val = v
	case String:
		if err := p.flushHigh(l); err != nil {
			return err
		}
		if p.opts.ParseValue {
			val = string(l.text)
		}
	case True:
		val = true
	case False:
		val = false
	case LBrace, LSquare:
		val = l.value
	}

	for _, v := range l.validators {
		v.end(l)
	}
	if h := p.opts.Handler; h != nil {
		var err error
		switch l.kind {
		case LBrace:
			err = h.EndObject(l)
		case LSquare:
			err = h.EndArray(l)
		default:
			err = h.Value(l)
		}
		if err != nil {
			return err
		}
	}

	p.stack = p.stack[:n-1]
	if !p.opts.ParseValue {
		return nil
	}
	switch parent.kind {
	case LBrace:
		parent.value.(map[string]any)[parent.key] = val
	case LSquare:
		parent.value = append(parent.value.([]any), val)
	default:
		p.value = val
	}
	return nil
}

// endKey completes the key layer l and records it in the object parent.
func (p *Parser) endKey(l, parent *layer) error {
	if err := p.flushHigh(l); err != nil {
		return err
	}
	key := string(l.text)
	parent.key = key
	parent.state = stateObjectKey
	parent.length++
	if parent.limit > 0 && parent.length > parent.limit {
		return p.overLimit(parent)
	}
	for _, v := range parent.validators {
		v.endKey(parent, key)
	}
	if h := p.opts.Handler; h != nil {
		if err := h.Key(l); err != nil {
			return err
		}
	}
	p.stack = p.stack[:len(p.stack)-1]
	return nil
}

// stepNumber applies ch to the number in l. It reports true if ch ends the
// number and must be consumed again by the parent.
func (p *Parser) stepNumber(l *layer, ch rune) (bool, error) {
	next := l.state
	switch l.state {
	case stateNumberSign:
		if ch == '0' {
			next = stateNumberZero
		} else if isDigit(ch) {
			next = stateNumberInt
		} else {
			return false, p.unexpected(ch)
		}
	case stateNumberZero, stateNumberInt:
		switch {
		case isDigit(ch) && l.state == stateNumberInt:
		case ch == '.':
			next = stateNumberDot
		case ch == 'e' || ch == 'E':
			next = stateNumberExp
		default:
			return true, p.endValue(p.pos)
		}
	case stateNumberDot:
		if !isDigit(ch) {
			return false, p.unexpected(ch)
		}
		next = stateNumberFrac
	case stateNumberFrac:
		if ch == 'e' || ch == 'E' {
			next = stateNumberExp
		} else if !isDigit(ch) {
			return true, p.endValue(p.pos)
		}
	case stateNumberExp:
		if ch == '+' || ch == '-' {
			next = stateNumberExpSign
		} else if isDigit(ch) {
			next = stateNumberExpInt
		} else {
			return false, p.unexpected(ch)
		}
	case stateNumberExpSign:
		if !isDigit(ch) {
			return false, p.unexpected(ch)
		}
		next = stateNumberExpInt
	case stateNumberExpInt:
		if !isDigit(ch) {
			return true, p.endValue(p.pos)
		}
	}
	if next == stateNumberDot || next == stateNumberExp {
		l.kind = Number
	}
	l.state = next
	return false, p.appendNumber(l, ch)
}

func (p *Parser) appendNumber(l *layer, ch rune) error {
	l.text = append(l.text, byte(ch))
	l.length++
	l.end = p.pos.next(ch)
	if l.limit > 0 && l.length > l.limit {
		return p.overLimit(l)
	}
	return nil
}

// stepString applies ch to the string or key in l.
func (p *Parser) stepString(l *layer, ch rune) error {
	switch l.state {
	case stateString:
		switch {
		case ch == '"':
			return p.endValue(p.pos.next(ch))
		case ch == '\\':
			l.state = stateStringEscape
			return nil
		case ch < ' ':
			err := p.unexpected(ch).(*SyntaxError)
			err.Message = "unescaped control character " + err.Actual + " in string"
			return err
		}
		return p.appendRune(l, ch)

	case stateStringEscape:
		var r rune
		switch ch {
		case '"', '\\', '/':
			r = ch
		case 'b':
			r = '\b'
		case 'f':
			r = '\f'
		case 'n':
			r = '\n'
		case 'r':
			r = '\r'
		case 't':
			r = '\t'
		case 'u':
			l.state, l.count, l.hex = stateStringHex, 4, 0
			return nil
		default:
			return p.unexpected(ch)
		}
		l.state = stateString
		return p.appendRune(l, r)

	case stateStringHex:
		var d rune
		switch {
		case isDigit(ch):
			d = ch - '0'
		case ch >= 'a' && ch <= 'f':
			d = ch - 'a' + 10
		case ch >= 'A' && ch <= 'F':
			d = ch - 'A' + 10
		default:
			return p.unexpected(ch)
		}
		l.hex = l.hex<<4 | d
		if l.count--; l.count > 0 {
			return nil
		}
		l.state = stateString
		return p.appendUnit(l, l.hex)
	}
	panic("unreachable")
}

// appendUnit adds a UTF-16 code unit from a \u escape to l, pairing
// surrogates. An unpaired surrogate decodes as U+FFFD.
func (p *Parser) appendUnit(l *layer, u rune) error {
	switch {
	case isHighSurrogate(u):
		if err := p.flushHigh(l); err != nil {
			return err
		}
		l.high = u
		return nil
	case isLowSurrogate(u):
		if l.high == 0 {
			return p.appendRune(l, utf8.RuneError)
		}
		r := rune(0x10000 + (l.high-0xd800)<<10 + (u - 0xdc00))
		l.high = 0
		return p.appendRune(l, r)
	}
	return p.appendRune(l, u)
}

// appendRune adds a decoded scalar value to the string in l.
func (p *Parser) appendRune(l *layer, r rune) error {
	if err := p.flushHigh(l); err != nil {
		return err
	}
	return p.appendScalar(l, r)
}

// flushHigh replaces a high surrogate pending in l, which no low surrogate
// followed, with a single U+FFFD.
func (p *Parser) flushHigh(l *layer) error {
	if l.high == 0 {
		return nil
	}
	l.high = 0
	return p.appendScalar(l, utf8.RuneError)
}

func (p *Parser) appendScalar(l *layer, r rune) error {
	l.text = utf8.AppendRune(l.text, r)
	l.length++
	if l.limit > 0 && l.length > l.limit {
		return p.overLimit(l)
	}
	return nil
}
