// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

package jsonschemaparse

import (
	"fmt"
	"maps"
	"math"
	"math/big"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/awwright/jsonschemaparse-sub000/jsonpointer"
	"github.com/creachadair/mds/mapset"
	json "github.com/goccy/go-json"
)

// A compiler builds Schema values from decoded schema documents. The
// registry lock must be held while a compiler is in use. Schemas are added to
// the registry only when commit is called, so a failed compilation leaves
// the registry unchanged.
type compiler struct {
	reg   *Registry
	fresh map[string]*Schema
}

func newCompiler(reg *Registry) *compiler {
	return &compiler{reg: reg, fresh: make(map[string]*Schema)}
}

func (c *compiler) cached(id string) (*Schema, bool) {
	if s, ok := c.reg.compiled[id]; ok {
		return s, true
	}
	s, ok := c.fresh[id]
	return s, ok
}

func (c *compiler) remember(id string, s *Schema) {
	if _, ok := c.cached(id); !ok {
		c.fresh[id] = s
	}
}

// commit adds the schemas compiled so far to the registry.
func (c *compiler) commit() {
	maps.Copy(c.reg.compiled, c.fresh)
	clear(c.fresh)
}

// joinID returns the identity of the subschema at ptr within the resource
// identified by base.
func joinID(base string, ptr jsonpointer.Pointer) string {
	if len(ptr) == 0 {
		return base
	}
	return base + "#" + ptr.Fragment()
}

// at returns a new pointer extending ptr by toks.
func at(ptr jsonpointer.Pointer, toks ...string) jsonpointer.Pointer {
	return append(slices.Clip(ptr), toks...)
}

// checkID reports an error if id is not usable as a schema identity.
func checkID(id string) error {
	if strings.ContainsAny(id, " >") {
		return &SchemaError{ID: id, Message: "invalid schema identifier"}
	} else if _, err := url.Parse(id); err != nil {
		return &SchemaError{ID: id, Message: "invalid schema identifier", err: err}
	}
	return nil
}

// resolveURI resolves ref relative to base.
func resolveURI(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	} else if base == "" {
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

// compile compiles raw as the subschema at ptr within the resource base.
func (c *compiler) compile(raw any, base string, ptr jsonpointer.Pointer) (*Schema, error) {
	id := joinID(base, ptr)
	if s, ok := c.cached(id); ok {
		return s, nil
	}
	s := newSchema(c.reg, id, base)
	switch v := raw.(type) {
	case bool:
		if !v {
			s.types = 0
		}
	case map[string]any:
		if err := c.object(s, v, ptr); err != nil {
			return nil, err
		}
	default:
		return nil, &SchemaError{ID: id, Message: "schema must be an object or boolean, not " + jsonType(raw)}
	}
	s.buildProgram()
	c.remember(id, s)
	c.remember(s.id, s)
	return s, nil
}

func keywordError(s *Schema, kw, format string, args ...any) error {
	return &SchemaError{ID: s.id, Keyword: kw, Message: fmt.Sprintf(format, args...)}
}

// object populates s from the keywords of obj.
func (c *compiler) object(s *Schema, obj map[string]any, ptr jsonpointer.Pointer) error {
	if err := c.identify(s, obj, &ptr); err != nil {
		return err
	}

	// Draft 4 spells exclusive bounds as booleans modifying minimum and maximum.
	var exclMin, exclMax bool
	unknown := mapset.New[string]()

	for _, kw := range slices.Sorted(maps.Keys(obj)) {
		val := obj[kw]
		var err error
		switch kw {
		case "$id", "id", "$anchor":
			// handled by identify
		case "$schema", "$comment", "$vocabulary", "default", "examples", "format",
			"contentEncoding", "contentMediaType", "contentSchema", "readOnly", "writeOnly",
			"deprecated", "propertyNames", "uniqueItems":
			// recognized, not enforced

		case "type":
			s.types, err = c.typeSet(s, val)

		case "minimum", "maximum", "multipleOf":
			r, ok := ratValue(val)
			if !ok {
				return keywordError(s, kw, "must be a number, not %s", jsonType(val))
			}
			switch kw {
			case "minimum":
				s.minimum = r
			case "maximum":
				s.maximum = r
			case "multipleOf":
				if r.Sign() <= 0 {
					return keywordError(s, kw, "must be greater than zero")
				}
				s.multipleOf = r
			}
		case "exclusiveMinimum", "exclusiveMaximum":
			if b, ok := val.(bool); ok {
				if kw == "exclusiveMinimum" {
					exclMin = b
				} else {
					exclMax = b
				}
				break
			}
			r, ok := ratValue(val)
			if !ok {
				return keywordError(s, kw, "must be a number or boolean, not %s", jsonType(val))
			}
			if kw == "exclusiveMinimum" {
				s.exclusiveMinimum = r
			} else {
				s.exclusiveMaximum = r
			}

		case "minLength":
			s.minLength, err = countValue(s, kw, val)
		case "maxLength":
			s.maxLength, err = countValue(s, kw, val)
		case "pattern":
			str, ok := val.(string)
			if !ok {
				return keywordError(s, kw, "must be a string, not %s", jsonType(val))
			}
			s.pattern, err = compilePattern(s, kw, str)

		case "items":
			if list, ok := val.([]any); ok {
				s.itemList, err = c.list(s, list, at(ptr, kw))
				if s.itemList == nil && err == nil {
					s.itemList = []*Schema{}
				}
			} else {
				s.items, err = c.compile(val, s.base, at(ptr, kw))
			}
		case "additionalItems":
			s.additionalItems, err = c.compile(val, s.base, at(ptr, kw))
		case "contains":
			s.contains, err = c.compile(val, s.base, at(ptr, kw))
		case "minContains":
			s.minContains, err = countValue(s, kw, val)
		case "maxContains":
			s.maxContains, err = countValue(s, kw, val)
		case "minItems":
			s.minItems, err = countValue(s, kw, val)
		case "maxItems":
			s.maxItems, err = countValue(s, kw, val)

		case "properties":
			s.properties, err = c.schemaMap(s, kw, val, ptr)
		case "patternProperties":
			err = c.patternProperties(s, val, ptr)
		case "additionalProperties":
			s.additionalProperties, err = c.compile(val, s.base, at(ptr, kw))
		case "unevaluatedProperties":
			s.unevaluatedProperties, err = c.compile(val, s.base, at(ptr, kw))
		case "required":
			s.required, err = stringList(s, kw, val)
		case "dependentRequired", "dependentSchemas", "dependencies":
			err = c.dependencies(s, kw, val, ptr)
		case "minProperties":
			s.minProperties, err = countValue(s, kw, val)
		case "maxProperties":
			s.maxProperties, err = countValue(s, kw, val)

		case "allOf", "anyOf", "oneOf":
			list, ok := val.([]any)
			if !ok || len(list) == 0 {
				return keywordError(s, kw, "must be a non-empty array of schemas")
			}
			var group []*Schema
			group, err = c.list(s, list, at(ptr, kw))
			switch kw {
			case "allOf":
				s.allOf = append(s.allOf, group...)
			case "anyOf":
				s.anyOf = append(s.anyOf, group)
			case "oneOf":
				s.oneOf = append(s.oneOf, group)
			}
		case "not":
			var sub *Schema
			sub, err = c.compile(val, s.base, at(ptr, kw))
			s.not = append(s.not, sub)
		case "if":
			s.ifSchema, err = c.compile(val, s.base, at(ptr, kw))
		case "then":
			s.thenSchema, err = c.compile(val, s.base, at(ptr, kw))
		case "else":
			s.elseSchema, err = c.compile(val, s.base, at(ptr, kw))

		case "$ref":
			str, ok := val.(string)
			if !ok {
				return keywordError(s, kw, "must be a string, not %s", jsonType(val))
			}
			if s.ref, err = resolveURI(s.base, str); err != nil {
				return keywordError(s, kw, "invalid reference %q: %v", str, err)
			}
		case "$recursiveRef":
			str, ok := val.(string)
			if !ok {
				return keywordError(s, kw, "must be a string, not %s", jsonType(val))
			} else if _, err := url.Parse(str); err != nil {
				return keywordError(s, kw, "invalid reference %q: %v", str, err)
			}
			s.recursiveRef = str
		case "$recursiveAnchor":
			b, ok := val.(bool)
			if !ok {
				return keywordError(s, kw, "must be a boolean, not %s", jsonType(val))
			}
			s.recursiveAnc = b
		case "$defs", "definitions":
			// Compiled so that they are registered under their pointers.
			_, err = c.schemaMap(s, kw, val, ptr)

		case "const":
			s.hasConst = true
			if key, ok := literalKeyOf(val); ok {
				s.constKey = key
			} else {
				s.constSchema = c.literalSchema(val, s.base, at(ptr, kw))
			}
		case "enum":
			err = c.enum(s, val, ptr)

		case "title":
			s.title, s.hasTitle = val.(string)
			if !s.hasTitle {
				return keywordError(s, kw, "must be a string, not %s", jsonType(val))
			}
		case "description":
			s.description, s.hasDesc = val.(string)
			if !s.hasDesc {
				return keywordError(s, kw, "must be a string, not %s", jsonType(val))
			}

		default:
			unknown.Add(kw)
		}
		if err != nil {
			return err
		}
	}

	if exclMin {
		if s.minimum == nil {
			return keywordError(s, "exclusiveMinimum", "requires minimum")
		}
		s.exclusiveMinimum, s.minimum = s.minimum, nil
	}
	if exclMax {
		if s.maximum == nil {
			return keywordError(s, "exclusiveMaximum", "requires maximum")
		}
		s.exclusiveMaximum, s.maximum = s.maximum, nil
	}
	if s.contains != nil {
		if _, ok := obj["minContains"]; !ok {
			s.minContains = 1
		}
	}

	s.unknown = slices.Sorted(maps.Keys(unknown))
	all := mapset.New(s.unknown...)
	s.subschemas(func(sub *Schema) { all.Add(sub.allUnknown...) })
	s.allUnknown = slices.Sorted(maps.Keys(all))
	return nil
}

// identify assigns the identity of s from its $id, id, or $anchor keywords.
// A new resource resets *ptr to the root.
func (c *compiler) identify(s *Schema, obj map[string]any, ptr *jsonpointer.Pointer) error {
	alias := s.id
	idText, ok := obj["$id"].(string)
	if !ok {
		idText, ok = obj["id"].(string)
	}
	if ok {
		u, err := resolveURI(s.base, idText)
		if err != nil {
			return &SchemaError{ID: s.id, Keyword: "$id", Message: "invalid identifier", err: err}
		} else if err := checkID(u); err != nil {
			return err
		}
		base, frag, _ := strings.Cut(u, "#")
		if frag == "" || strings.HasPrefix(frag, "/") {
			s.base, s.id, *ptr = base, base, jsonpointer.Pointer{}
		} else {
			// A plain-name fragment is an anchor within the current resource.
			s.id = u
		}
	}
	if anchor, ok := obj["$anchor"].(string); ok {
		s.id = s.base + "#" + anchor
		if err := checkID(s.id); err != nil {
			return err
		}
	}
	if s.id != alias {
		c.remember(alias, s)
	}
	return nil
}

func (c *compiler) typeSet(s *Schema, val any) (TypeSet, error) {
	var names []any
	switch t := val.(type) {
	case string:
		names = []any{t}
	case []any:
		names = t
	default:
		return 0, keywordError(s, "type", "must be a string or array, not %s", jsonType(val))
	}
	var out TypeSet
	for _, name := range names {
		str, ok := name.(string)
		if !ok {
			return 0, keywordError(s, "type", "type name must be a string, not %s", jsonType(name))
		}
		t, ok := parseTypeName(str)
		if !ok {
			return 0, keywordError(s, "type", "unknown type %q", str)
		}
		out |= t
	}
	if out.Has(TypeNumber) {
		out |= TypeInteger
	}
	return out, nil
}

func (c *compiler) list(s *Schema, list []any, ptr jsonpointer.Pointer) ([]*Schema, error) {
	var out []*Schema
	for i, elt := range list {
		sub, err := c.compile(elt, s.base, at(ptr, fmt.Sprint(i)))
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func (c *compiler) schemaMap(s *Schema, kw string, val any, ptr jsonpointer.Pointer) (map[string]*Schema, error) {
	obj, ok := val.(map[string]any)
	if !ok {
		return nil, keywordError(s, kw, "must be an object, not %s", jsonType(val))
	}
	out := make(map[string]*Schema, len(obj))
	for _, key := range slices.Sorted(maps.Keys(obj)) {
		sub, err := c.compile(obj[key], s.base, at(ptr, kw, key))
		if err != nil {
			return nil, err
		}
		out[key] = sub
	}
	return out, nil
}

func (c *compiler) patternProperties(s *Schema, val any, ptr jsonpointer.Pointer) error {
	const kw = "patternProperties"
	obj, ok := val.(map[string]any)
	if !ok {
		return keywordError(s, kw, "must be an object, not %s", jsonType(val))
	}
	for _, pat := range slices.Sorted(maps.Keys(obj)) {
		re, err := compilePattern(s, kw, pat)
		if err != nil {
			return err
		}
		sub, err := c.compile(obj[pat], s.base, at(ptr, kw, pat))
		if err != nil {
			return err
		}
		s.patternProperties = append(s.patternProperties, patternSchema{re: re, schema: sub})
	}
	return nil
}

// dependencies handles dependentRequired, dependentSchemas, and the older
// dependencies keyword, whose members may take either form.
func (c *compiler) dependencies(s *Schema, kw string, val any, ptr jsonpointer.Pointer) error {
	obj, ok := val.(map[string]any)
	if !ok {
		return keywordError(s, kw, "must be an object, not %s", jsonType(val))
	}
	for _, key := range slices.Sorted(maps.Keys(obj)) {
		dep := obj[key]
		if list, ok := dep.([]any); ok && kw != "dependentSchemas" {
			names, err := stringList(s, kw, list)
			if err != nil {
				return err
			}
			if s.dependentRequired == nil {
				s.dependentRequired = make(map[string][]string)
			}
			s.dependentRequired[key] = names
			continue
		} else if kw == "dependentRequired" {
			return keywordError(s, kw, "member %q must be an array, not %s", key, jsonType(dep))
		}
		sub, err := c.compile(dep, s.base, at(ptr, kw, key))
		if err != nil {
			return err
		}
		if s.dependentSchemas == nil {
			s.dependentSchemas = make(map[string]*Schema)
		}
		s.dependentSchemas[key] = sub
	}
	return nil
}

func (c *compiler) enum(s *Schema, val any, ptr jsonpointer.Pointer) error {
	list, ok := val.([]any)
	if !ok {
		return keywordError(s, "enum", "must be an array, not %s", jsonType(val))
	}
	s.hasEnum = true
	s.enumKeys = mapset.New[string]()
	for i, elt := range list {
		if key, ok := literalKeyOf(elt); ok {
			s.enumKeys.Add(key)
		} else {
			s.enumSchemas = append(s.enumSchemas, c.literalSchema(elt, s.base, at(ptr, "enum", fmt.Sprint(i))))
		}
	}
	return nil
}

// literalSchema builds a schema that accepts exactly the JSON value v. The
// result is not registered, since ptr addresses a value and not a schema.
func (c *compiler) literalSchema(v any, base string, ptr jsonpointer.Pointer) *Schema {
	s := newSchema(c.reg, joinID(base, ptr), base)
	switch t := v.(type) {
	case map[string]any:
		s.types = TypeObject
		s.properties = make(map[string]*Schema, len(t))
		for key, elt := range t {
			s.properties[key] = c.literalSchema(elt, base, at(ptr, key))
		}
		s.required = slices.Sorted(maps.Keys(t))
		s.additionalProperties = newSchema(c.reg, s.id, base)
		s.additionalProperties.types = 0
		s.additionalProperties.buildProgram()
	case []any:
		s.types = TypeArray
		for i, elt := range t {
			s.itemList = append(s.itemList, c.literalSchema(elt, base, at(ptr, fmt.Sprint(i))))
		}
		s.minItems = len(t)
		s.maxItems = len(t)
	default:
		key, _ := literalKeyOf(v)
		s.hasConst, s.constKey = true, key
	}
	s.buildProgram()
	return s
}

func countValue(s *Schema, kw string, val any) (int, error) {
	r, ok := ratValue(val)
	if !ok || !r.IsInt() || r.Sign() < 0 || !r.Num().IsInt64() || r.Num().Int64() > math.MaxInt32 {
		return 0, keywordError(s, kw, "must be a non-negative integer, not %s", formatValue(val))
	}
	return int(r.Num().Int64()), nil
}

func stringList(s *Schema, kw string, val any) ([]string, error) {
	list, ok := val.([]any)
	if !ok {
		return nil, keywordError(s, kw, "must be an array of strings, not %s", jsonType(val))
	}
	out := make([]string, len(list))
	for i, elt := range list {
		str, ok := elt.(string)
		if !ok {
			return nil, keywordError(s, kw, "must be an array of strings, found %s", jsonType(elt))
		}
		out[i] = str
	}
	return out, nil
}

func compilePattern(s *Schema, kw, pat string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, &SchemaError{ID: s.id, Keyword: kw, Message: fmt.Sprintf("invalid pattern %q", pat), err: err}
	}
	return re, nil
}

// ratValue converts a decoded JSON number to an exact rational. Floats take
// the value of their shortest round-trip decimal form.
func ratValue(v any) (*big.Rat, bool) {
	switch t := v.(type) {
	case json.Number:
		return parseRat(string(t))
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) {
			return nil, false
		}
		return parseRat(strconv.FormatFloat(t, 'g', -1, 64))
	case float32:
		if math.IsInf(float64(t), 0) || math.IsNaN(float64(t)) {
			return nil, false
		}
		return parseRat(strconv.FormatFloat(float64(t), 'g', -1, 32))
	case int:
		return new(big.Rat).SetInt64(int64(t)), true
	case int64:
		return new(big.Rat).SetInt64(t), true
	case uint64:
		return new(big.Rat).SetInt(new(big.Int).SetUint64(t)), true
	}
	return nil, false
}

// literalKeyOf returns the canonical comparison key of a primitive JSON
// value. It reports false for objects and arrays.
func literalKeyOf(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "null", true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	case string:
		return "s:" + t, true
	case json.Number:
		if r, ok := parseRat(string(t)); ok {
			return "n:" + r.RatString(), true
		}
		return "n:" + string(t), true
	case map[string]any, []any:
		return "", false
	}
	if r, ok := ratValue(v); ok {
		return "n:" + r.RatString(), true
	}
	return fmt.Sprintf("?:%v", v), true
}

// jsonType names the JSON type of a decoded value.
func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if _, ok := ratValue(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
