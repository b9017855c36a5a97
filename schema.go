// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

package jsonschemaparse

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/creachadair/mds/mapset"
)

// TypeSet is a set of JSON Schema primitive type names.
type TypeSet uint8

const (
	TypeNull TypeSet = 1 << iota
	TypeBoolean
	TypeObject
	TypeArray
	TypeNumber
	TypeString
	TypeInteger

	AllTypes = TypeNull | TypeBoolean | TypeObject | TypeArray | TypeNumber | TypeString | TypeInteger
)

var typeNames = []struct {
	name string
	t    TypeSet
}{
	{"null", TypeNull},
	{"boolean", TypeBoolean},
	{"object", TypeObject},
	{"array", TypeArray},
	{"number", TypeNumber},
	{"string", TypeString},
	{"integer", TypeInteger},
}

func parseTypeName(s string) (TypeSet, bool) {
	for _, tn := range typeNames {
		if tn.name == s {
			return tn.t, true
		}
	}
	return 0, false
}

// Has reports whether t includes all of u.
func (t TypeSet) Has(u TypeSet) bool { return t&u == u }

// String renders t as a list of type names separated by "|".
func (t TypeSet) String() string {
	var names []string
	for _, tn := range typeNames {
		if t.Has(tn.t) {
			names = append(names, tn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// A Schema is a compiled JSON Schema. A Schema is immutable once compiled and
// may be shared by any number of concurrent parsers.
type Schema struct {
	id       string // absolute identity
	base     string // resource URI against which references resolve
	registry *Registry

	types TypeSet

	minimum, maximum                   *big.Rat
	exclusiveMinimum, exclusiveMaximum *big.Rat
	multipleOf                         *big.Rat

	minLength, maxLength int // -1 if absent
	pattern              *regexp.Regexp

	items           *Schema   // applies to every item, unless itemList is set
	itemList        []*Schema // positional item schemas
	additionalItems *Schema   // items beyond itemList
	contains        *Schema
	minContains     int // defaults to 1 when contains is set
	maxContains     int // -1 if absent
	minItems        int
	maxItems        int

	properties            map[string]*Schema
	patternProperties     []patternSchema
	additionalProperties  *Schema
	unevaluatedProperties *Schema
	required              []string
	dependentRequired     map[string][]string
	dependentSchemas      map[string]*Schema
	minProperties         int
	maxProperties         int

	allOf        []*Schema
	anyOf        [][]*Schema // one group per keyword occurrence
	oneOf        [][]*Schema
	not          []*Schema
	ifSchema     *Schema
	thenSchema   *Schema
	elseSchema   *Schema
	ref          string // absolute URI of $ref
	recursiveRef string // $recursiveRef as written
	recursiveAnc bool   // $recursiveAnchor

	hasConst    bool
	constKey    string  // literal key of a primitive const
	constSchema *Schema // structure of an object or array const
	hasEnum     bool
	enumKeys    mapset.Set[string] // literal keys of primitive members
	enumSchemas []*Schema          // structures of object and array members

	title       string
	description string
	hasTitle    bool
	hasDesc     bool

	unknown    []string // unrecognized keywords of this schema
	allUnknown []string // unrecognized keywords of this schema and its subschemas

	program [numEvents][]keyword
}

type patternSchema struct {
	re     *regexp.Regexp
	schema *Schema
}

func newSchema(reg *Registry, id, base string) *Schema {
	return &Schema{
		id:            id,
		base:          base,
		registry:      reg,
		types:         AllTypes,
		minLength:     -1,
		maxLength:     -1,
		maxContains:   -1,
		minItems:      -1,
		maxItems:      -1,
		minProperties: -1,
		maxProperties: -1,
	}
}

// ID returns the absolute identity of s.
func (s *Schema) ID() string { return s.id }

// Types returns the set of instance types permitted by s.
func (s *Schema) Types() TypeSet { return s.types }

// Title returns the title of s, if it has one.
func (s *Schema) Title() (string, bool) { return s.title, s.hasTitle }

// Description returns the description of s, if it has one.
func (s *Schema) Description() (string, bool) { return s.description, s.hasDesc }

// Unknown returns the keywords of s that were not recognized, in order.
func (s *Schema) Unknown() []string { return s.unknown }

// AllUnknown returns the keywords not recognized anywhere in s or its
// subschemas, in order.
func (s *Schema) AllUnknown() []string { return s.allUnknown }

// Registry returns the registry that s was compiled in.
func (s *Schema) Registry() *Registry { return s.registry }

// subschemas calls f for each immediate subschema of s.
func (s *Schema) subschemas(f func(*Schema)) {
	each := func(ss ...*Schema) {
		for _, sub := range ss {
			if sub != nil {
				f(sub)
			}
		}
	}
	each(s.items, s.additionalItems, s.contains)
	each(s.itemList...)
	for _, sub := range s.properties {
		f(sub)
	}
	for _, ps := range s.patternProperties {
		f(ps.schema)
	}
	each(s.additionalProperties, s.unevaluatedProperties)
	for _, sub := range s.dependentSchemas {
		f(sub)
	}
	each(s.allOf...)
	for _, g := range s.anyOf {
		each(g...)
	}
	for _, g := range s.oneOf {
		each(g...)
	}
	each(s.not...)
	each(s.ifSchema, s.thenSchema, s.elseSchema)
}

// An event is a point in the parse of an instance at which a schema may
// check a constraint.
type event byte

const (
	evStartObject event = iota
	evStartArray
	evStartString
	evStartNumber
	evStartBoolean
	evStartNull
	evEndKey
	evEndObject
	evEndArray
	evEndString
	evEndNumber
	evEndBoolean
	evEndNull

	numEvents
)

func startEvent(t Token) event {
	switch t {
	case LBrace:
		return evStartObject
	case LSquare:
		return evStartArray
	case String:
		return evStartString
	case Integer, Number:
		return evStartNumber
	case True, False:
		return evStartBoolean
	}
	return evStartNull
}

func endEvent(t Token) event { return startEvent(t) + evEndObject - evStartObject }

// instanceType reports the schema type of a value with token t. A number is
// reported as TypeNumber; integer-ness is checked separately when it ends.
func instanceType(t Token) TypeSet {
	switch t {
	case LBrace:
		return TypeObject
	case LSquare:
		return TypeArray
	case String:
		return TypeString
	case Integer, Number:
		return TypeNumber
	case True, False:
		return TypeBoolean
	}
	return TypeNull
}

// A keyword is a single constraint check in a schema's program.
type keyword byte

const (
	kwType keyword = iota
	kwInteger
	kwMinimum
	kwMaximum
	kwExclusiveMinimum
	kwExclusiveMaximum
	kwMultipleOf
	kwMinLength
	kwMaxLength
	kwPattern
	kwMinItems
	kwMaxItems
	kwContains
	kwMinProperties
	kwMaxProperties
	kwRequired
	kwDependentRequired
	kwConst
	kwEnum
)

var endPrimitives = []event{evEndString, evEndNumber, evEndBoolean, evEndNull}

// buildProgram records which keywords of s are checked at each event.
func (s *Schema) buildProgram() {
	add := func(kw keyword, evs ...event) {
		for _, ev := range evs {
			s.program[ev] = append(s.program[ev], kw)
		}
	}
	if s.types != AllTypes {
		add(kwType, evStartObject, evStartArray, evStartString, evStartNumber, evStartBoolean, evStartNull)
		if s.types.Has(TypeInteger) && !s.types.Has(TypeNumber) {
			add(kwInteger, evEndNumber)
		}
	}
	if s.minimum != nil {
		add(kwMinimum, evEndNumber)
	}
	if s.maximum != nil {
		add(kwMaximum, evEndNumber)
	}
	if s.exclusiveMinimum != nil {
		add(kwExclusiveMinimum, evEndNumber)
	}
	if s.exclusiveMaximum != nil {
		add(kwExclusiveMaximum, evEndNumber)
	}
	if s.multipleOf != nil {
		add(kwMultipleOf, evEndNumber)
	}
	if s.minLength >= 0 {
		add(kwMinLength, evEndString)
	}
	if s.maxLength >= 0 {
		add(kwMaxLength, evEndString)
	}
	if s.pattern != nil {
		add(kwPattern, evEndString)
	}
	if s.minItems >= 0 {
		add(kwMinItems, evEndArray)
	}
	if s.maxItems >= 0 {
		add(kwMaxItems, evEndArray)
	}
	if s.contains != nil {
		add(kwContains, evEndArray)
	}
	if s.minProperties >= 0 {
		add(kwMinProperties, evEndObject)
	}
	if s.maxProperties >= 0 {
		add(kwMaxProperties, evEndObject)
	}
	if len(s.required) != 0 {
		add(kwRequired, evEndObject)
	}
	if len(s.dependentRequired) != 0 {
		add(kwDependentRequired, evEndObject)
	}
	if s.hasConst && s.constSchema == nil {
		add(kwConst, evEndObject, evEndArray)
		add(kwConst, endPrimitives...)
	}
	if s.hasEnum {
		add(kwEnum, endPrimitives...)
	}
}
