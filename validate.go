// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

package jsonschemaparse

import (
	"fmt"
	"maps"
	"math/big"
	"slices"
	"strings"

	"github.com/creachadair/mds/mapset"
)

// A sink collects the errors and annotations reported by a tree of
// validators. Applicators that must judge a subschema in isolation (such as
// anyOf or not) give it a sink of its own.
type sink struct {
	errors []*ValidationError
	notes  []*Annotation
}

func (s *sink) ok() bool { return len(s.errors) == 0 }

// vcontext carries settings shared by all the validators of one parse.
type vcontext struct {
	annotations bool
}

// A fault is an error detected while constructing a validator, reported when
// the instance begins.
type fault struct {
	keyword, message string
}

// A validator checks one instance value against one schema, consuming the
// events of the parse as they occur. Subschemas that apply to the same value
// are child validators; subschemas for members and items are created by
// property and item as the parse reaches them.
type validator struct {
	ctx    *vcontext
	s      *Schema
	out    *sink
	up     *validator // the validator whose result includes this one, if it shares out
	rbase  string     // base URI of the outermost $recursiveAnchor in scope
	failed bool
	faults []fault

	allOf  []*validator
	refs   []*validator // $ref and $recursiveRef targets
	anyOf  [][]*validator
	oneOf  [][]*validator
	not    []*validator
	ifV    *validator
	thenV  *validator
	elseV  *validator
	constV *validator
	enumV  []*validator
	deps   map[string]*validator

	seen      mapset.Set[string] // keys of the object
	evaluated mapset.Set[string] // keys evaluated by a successful subschema
	deferred  []deferred
	contains  []*sink
	matched   bool // a primitive value matched an enum member
}

// deferred is the isolated result of applying unevaluatedProperties to a
// member, pending the end of the object.
type deferred struct {
	key string
	out *sink
}

// newValidator constructs a validator for s reporting to out. The chain is
// the list of schemas already applied to the same value by enclosing
// validators, for detecting reference cycles.
func newValidator(ctx *vcontext, s *Schema, out *sink, up *validator, rbase string, chain []*Schema) *validator {
	v := &validator{ctx: ctx, s: s, out: out, up: up, rbase: rbase}
	if slices.Contains(chain, s) {
		v.faults = append(v.faults, fault{"$ref", "infinite recursion applying schema " + s.id})
		return v
	}
	chain = append(slices.Clip(chain), s)
	if s.recursiveAnc && v.rbase == "" {
		v.rbase = s.base
	}
	shared := func(sub *Schema) *validator {
		return newValidator(ctx, sub, out, v, v.rbase, chain)
	}
	isolated := func(sub *Schema) *validator {
		return newValidator(ctx, sub, new(sink), nil, v.rbase, chain)
	}
	group := func(ss []*Schema) []*validator {
		out := make([]*validator, len(ss))
		for i, sub := range ss {
			out[i] = isolated(sub)
		}
		return out
	}

	for _, sub := range s.allOf {
		v.allOf = append(v.allOf, shared(sub))
	}
	if s.ref != "" {
		v.addRef("$ref", s.ref, chain)
	}
	if s.recursiveRef != "" {
		uri, _ := resolveURI(s.base, s.recursiveRef)
		if t, err := s.registry.Lookup(uri); err == nil && t.recursiveAnc && v.rbase != "" {
			uri, _ = resolveURI(v.rbase, s.recursiveRef)
		}
		v.addRef("$recursiveRef", uri, chain)
	}
	for _, g := range s.anyOf {
		v.anyOf = append(v.anyOf, group(g))
	}
	for _, g := range s.oneOf {
		v.oneOf = append(v.oneOf, group(g))
	}
	v.not = group(s.not)
	if s.ifSchema != nil {
		v.ifV = isolated(s.ifSchema)
		if s.thenSchema != nil {
			v.thenV = isolated(s.thenSchema)
		}
		if s.elseSchema != nil {
			v.elseV = isolated(s.elseSchema)
		}
	}
	if s.constSchema != nil {
		v.constV = isolated(s.constSchema)
	}
	v.enumV = group(s.enumSchemas)
	if len(s.dependentSchemas) != 0 {
		v.deps = make(map[string]*validator, len(s.dependentSchemas))
		for key, sub := range s.dependentSchemas {
			v.deps[key] = isolated(sub)
		}
	}
	return v
}

// addRef adds a validator for the schema at uri, or records a fault if it
// cannot be found.
func (v *validator) addRef(kw, uri string, chain []*Schema) {
	target, err := v.s.registry.Lookup(uri)
	if err != nil {
		v.faults = append(v.faults, fault{kw, err.Error()})
		return
	}
	v.refs = append(v.refs, newValidator(v.ctx, target, v.out, v, v.rbase, chain))
}

// each calls f for every child validator of v.
func (v *validator) each(f func(*validator)) {
	for _, c := range v.allOf {
		f(c)
	}
	for _, c := range v.refs {
		f(c)
	}
	for _, g := range v.anyOf {
		for _, c := range g {
			f(c)
		}
	}
	for _, g := range v.oneOf {
		for _, c := range g {
			f(c)
		}
	}
	for _, c := range v.not {
		f(c)
	}
	for _, c := range []*validator{v.ifV, v.thenV, v.elseV, v.constV} {
		if c != nil {
			f(c)
		}
	}
	for _, c := range v.enumV {
		f(c)
	}
	for _, key := range slices.Sorted(maps.Keys(v.deps)) {
		f(v.deps[key])
	}
}

// fail records errs as failures of v and of every validator whose result
// includes v.
func (v *validator) fail(errs ...*ValidationError) {
	if len(errs) == 0 {
		return
	}
	v.out.errors = append(v.out.errors, errs...)
	for p := v; p != nil && !p.failed; p = p.up {
		p.failed = true
	}
}

func (v *validator) report(l *layer, kw, msg string, expected, actual any) {
	v.fail(&ValidationError{
		Message:  msg,
		Path:     l.path,
		Span:     l.Span(),
		SchemaID: v.s.id,
		Keyword:  kw,
		Expected: expected,
		Actual:   actual,
	})
}

func (v *validator) markEvaluated(keys ...string) {
	if v.evaluated == nil {
		v.evaluated = mapset.New[string]()
	}
	v.evaluated.Add(keys...)
}

// begin handles the start of the instance value in l.
func (v *validator) begin(l *layer) {
	for _, f := range v.faults {
		v.report(l, f.keyword, f.message, nil, nil)
	}
	v.run(startEvent(l.kind), l)
	if l.kind == LBrace && (len(v.s.required) != 0 || len(v.s.dependentRequired) != 0 || len(v.s.dependentSchemas) != 0) {
		v.seen = mapset.New[string]()
	}
	v.each(func(c *validator) { c.begin(l) })
}

// endKey handles the completion of a member key of the object in l.
func (v *validator) endKey(l *layer, key string) {
	if v.seen != nil {
		v.seen.Add(key)
	}
	v.run(evEndKey, l)
	v.each(func(c *validator) { c.endKey(l, key) })
}

// property appends to dst the validators for the value of member key.
func (v *validator) property(key string, dst []*validator) []*validator {
	s := v.s
	matched := false
	if sub, ok := s.properties[key]; ok {
		dst = append(dst, newValidator(v.ctx, sub, v.out, v, v.rbase, nil))
		matched = true
	}
	for _, ps := range s.patternProperties {
		if ps.re.MatchString(key) {
			dst = append(dst, newValidator(v.ctx, ps.schema, v.out, v, v.rbase, nil))
			matched = true
		}
	}
	if !matched && s.additionalProperties != nil {
		dst = append(dst, newValidator(v.ctx, s.additionalProperties, v.out, v, v.rbase, nil))
		matched = true
	}
	if matched {
		v.markEvaluated(key)
	} else if s.unevaluatedProperties != nil {
		out := new(sink)
		dst = append(dst, newValidator(v.ctx, s.unevaluatedProperties, out, nil, v.rbase, nil))
		v.deferred = append(v.deferred, deferred{key: key, out: out})
	}
	v.each(func(c *validator) { dst = c.property(key, dst) })
	return dst
}

// item appends to dst the validators for the array item at index.
func (v *validator) item(index int, dst []*validator) []*validator {
	s := v.s
	var sub *Schema
	if s.itemList != nil {
		if index < len(s.itemList) {
			sub = s.itemList[index]
		} else {
			sub = s.additionalItems
		}
	} else {
		sub = s.items
	}
	if sub != nil {
		dst = append(dst, newValidator(v.ctx, sub, v.out, v, v.rbase, nil))
	}
	if s.contains != nil {
		out := new(sink)
		dst = append(dst, newValidator(v.ctx, s.contains, out, nil, v.rbase, nil))
		v.contains = append(v.contains, out)
	}
	v.each(func(c *validator) { dst = c.item(index, dst) })
	return dst
}

// end handles the completion of the instance value in l.
func (v *validator) end(l *layer) {
	v.run(endEvent(l.kind), l)
	v.each(func(c *validator) { c.end(l) })
	v.finish(l)
}

// adopt merges the annotations and evaluated keys of a successful child.
func (v *validator) adopt(c *validator) {
	if c.out != v.out {
		v.out.notes = append(v.out.notes, c.out.notes...)
	}
	for key := range c.evaluated {
		v.markEvaluated(key)
	}
}

// adoptAll merges the whole result of an isolated child, errors included.
func (v *validator) adoptAll(c *validator) {
	v.fail(c.out.errors...)
	if c.out.ok() {
		v.adopt(c)
	}
}

// finish applies the applicators of v once its value and all its children
// are complete.
func (v *validator) finish(l *layer) {
	s := v.s
	for _, c := range v.allOf {
		v.adopt(c)
	}
	for _, c := range v.refs {
		v.adopt(c)
	}
	if v.ifV != nil {
		if v.ifV.out.ok() {
			v.adopt(v.ifV)
			if v.thenV != nil {
				v.adoptAll(v.thenV)
			}
		} else if v.elseV != nil {
			v.adoptAll(v.elseV)
		}
	}
	for _, c := range v.not {
		if c.out.ok() {
			v.report(l, "not", "value must not match the schema", nil, nil)
		}
	}
	for _, g := range v.anyOf {
		passed := false
		for _, c := range g {
			if c.out.ok() {
				passed = true
				v.adopt(c)
			}
		}
		if !passed {
			v.report(l, "anyOf", "value does not match any of the schemas", nil, nil)
		}
	}
	for _, g := range v.oneOf {
		var pass []*validator
		for _, c := range g {
			if c.out.ok() {
				pass = append(pass, c)
			}
		}
		if len(pass) == 1 {
			v.adopt(pass[0])
		} else {
			v.report(l, "oneOf", fmt.Sprintf("value matches %d of the schemas, expected exactly one", len(pass)), 1, len(pass))
		}
	}
	if s.hasEnum {
		ok := v.matched
		for _, c := range v.enumV {
			ok = ok || c.out.ok()
		}
		if !ok {
			v.report(l, "enum", "value is not one of the enumerated values", nil, nil)
		}
	}
	if v.constV != nil && !v.constV.out.ok() {
		v.report(l, "const", "value does not equal the constant", nil, nil)
	}
	for _, key := range slices.Sorted(maps.Keys(v.deps)) {
		if v.seen.Has(key) {
			v.adoptAll(v.deps[key])
		}
	}
	for _, d := range v.deferred {
		if v.evaluated.Has(d.key) {
			continue
		}
		v.fail(d.out.errors...)
		v.out.notes = append(v.out.notes, d.out.notes...)
	}
	for _, d := range v.deferred {
		v.markEvaluated(d.key)
	}

	if v.ctx.annotations && !v.failed {
		if s.hasTitle {
			v.annotate(l, "title", s.title)
		}
		if s.hasDesc {
			v.annotate(l, "description", s.description)
		}
	}
}

func (v *validator) annotate(l *layer, kw string, value any) {
	v.out.notes = append(v.out.notes, &Annotation{
		Path:     l.path,
		Span:     l.Span(),
		SchemaID: v.s.id,
		Keyword:  kw,
		Value:    value,
	})
}

// run checks the keywords of v scheduled for ev.
func (v *validator) run(ev event, l *layer) {
	for _, kw := range v.s.program[ev] {
		v.check(kw, l)
	}
}

func (v *validator) check(kw keyword, l *layer) {
	s := v.s
	switch kw {
	case kwType:
		t := instanceType(l.kind)
		if s.types == 0 {
			v.report(l, "false", "no value is allowed here", nil, t.String())
		} else if s.types&t == 0 && !(t == TypeNumber && s.types.Has(TypeInteger)) {
			v.report(l, "type", fmt.Sprintf("%s is not allowed, expected %s", t, s.types), s.types.String(), t.String())
		}

	case kwInteger:
		if r, ok := l.number(); ok && !r.IsInt() {
			v.report(l, "type", "number is not an integer", TypeInteger.String(), TypeNumber.String())
		}

	case kwMinimum, kwMaximum, kwExclusiveMinimum, kwExclusiveMaximum:
		r, ok := l.number()
		if !ok {
			return
		}
		var bound *big.Rat
		var bad bool
		var name, rel string
		switch kw {
		case kwMinimum:
			bound, name, rel = s.minimum, "minimum", ">="
			bad = r.Cmp(bound) < 0
		case kwMaximum:
			bound, name, rel = s.maximum, "maximum", "<="
			bad = r.Cmp(bound) > 0
		case kwExclusiveMinimum:
			bound, name, rel = s.exclusiveMinimum, "exclusiveMinimum", ">"
			bad = r.Cmp(bound) <= 0
		case kwExclusiveMaximum:
			bound, name, rel = s.exclusiveMaximum, "exclusiveMaximum", "<"
			bad = r.Cmp(bound) >= 0
		}
		if bad {
			v.report(l, name, fmt.Sprintf("number must be %s %s", rel, bound.RatString()), bound.RatString(), string(l.text))
		}

	case kwMultipleOf:
		r, ok := l.number()
		if ok && !new(big.Rat).Quo(r, s.multipleOf).IsInt() {
			m := s.multipleOf.RatString()
			v.report(l, "multipleOf", "number must be a multiple of "+m, m, string(l.text))
		}

	case kwMinLength:
		if l.length < s.minLength {
			v.report(l, "minLength", fmt.Sprintf("string length %d is less than %d", l.length, s.minLength), s.minLength, l.length)
		}
	case kwMaxLength:
		if l.length > s.maxLength {
			v.report(l, "maxLength", fmt.Sprintf("string length %d is greater than %d", l.length, s.maxLength), s.maxLength, l.length)
		}
	case kwPattern:
		if !s.pattern.Match(l.text) {
			v.report(l, "pattern", fmt.Sprintf("string does not match pattern %q", s.pattern), s.pattern.String(), string(l.text))
		}

	case kwMinItems:
		if l.length < s.minItems {
			v.report(l, "minItems", fmt.Sprintf("array has %d items, fewer than %d", l.length, s.minItems), s.minItems, l.length)
		}
	case kwMaxItems:
		if l.length > s.maxItems {
			v.report(l, "maxItems", fmt.Sprintf("array has %d items, more than %d", l.length, s.maxItems), s.maxItems, l.length)
		}
	case kwContains:
		n := 0
		for _, c := range v.contains {
			if c.ok() {
				n++
			}
		}
		if n < s.minContains {
			name := "minContains"
			if s.minContains == 1 {
				name = "contains"
			}
			v.report(l, name, fmt.Sprintf("array has %d matching items, fewer than %d", n, s.minContains), s.minContains, n)
		}
		if s.maxContains >= 0 && n > s.maxContains {
			v.report(l, "maxContains", fmt.Sprintf("array has %d matching items, more than %d", n, s.maxContains), s.maxContains, n)
		}

	case kwMinProperties:
		if l.length < s.minProperties {
			v.report(l, "minProperties", fmt.Sprintf("object has %d properties, fewer than %d", l.length, s.minProperties), s.minProperties, l.length)
		}
	case kwMaxProperties:
		if l.length > s.maxProperties {
			v.report(l, "maxProperties", fmt.Sprintf("object has %d properties, more than %d", l.length, s.maxProperties), s.maxProperties, l.length)
		}
	case kwRequired:
		var missing []string
		for _, name := range s.required {
			if !v.seen.Has(name) {
				missing = append(missing, name)
			}
		}
		if len(missing) != 0 {
			quoted := make([]string, len(missing))
			for i, name := range missing {
				quoted[i] = Quote(name)
			}
			v.report(l, "required", "missing required properties "+strings.Join(quoted, ", "), s.required, missing)
		}
	case kwDependentRequired:
		for _, key := range slices.Sorted(maps.Keys(s.dependentRequired)) {
			if !v.seen.Has(key) {
				continue
			}
			for _, name := range s.dependentRequired[key] {
				if !v.seen.Has(name) {
					v.report(l, "dependentRequired",
						fmt.Sprintf("property %s requires property %s", Quote(key), Quote(name)), name, nil)
				}
			}
		}

	case kwConst:
		if l.literalKey() != s.constKey {
			v.report(l, "const", "value does not equal the constant", nil, formatLayer(l))
		}
	case kwEnum:
		v.matched = s.enumKeys.Has(l.literalKey())
	}
}

// formatLayer renders the value of a complete primitive layer for a
// diagnostic.
func formatLayer(l *layer) any {
	switch l.kind {
	case String:
		return string(l.text)
	case Integer, Number:
		return string(l.text)
	case True:
		return true
	case False:
		return false
	}
	return nil
}
