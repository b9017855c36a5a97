// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

package jsonschemaparse

import (
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/awwright/jsonschemaparse-sub000/jsonpointer"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// A Registry holds schema documents by URI, and the schemas compiled from
// them. References between schemas are resolved through a registry when an
// instance reaches them, so documents may be added in any order.
//
// A Registry is safe for concurrent use by multiple goroutines.
type Registry struct {
	mu       sync.Mutex
	sources  map[string]any       // raw documents by absolute URI
	anchors  map[string]anchorRef // anchored subdocuments by URI
	compiled map[string]*Schema   // compiled schemas by identity
	log      *slog.Logger
}

// anchorRef locates a subdocument named by $anchor or a fragment $id.
type anchorRef struct {
	base string
	ptr  jsonpointer.Pointer
}

// NewRegistry constructs a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources:  make(map[string]any),
		anchors:  make(map[string]anchorRef),
		compiled: make(map[string]*Schema),
		log:      slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger used to report registry activity at debug level.
// A nil logger discards the logs.
func (r *Registry) SetLogger(log *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	r.log = log
}

// normalize canonicalizes uri as a registry key: an empty fragment is
// removed, and a JSON Pointer fragment is re-encoded.
func normalize(uri string) string {
	base, frag, ok := strings.Cut(uri, "#")
	if !ok {
		return uri
	} else if frag == "" {
		return base
	}
	if ptr, err := jsonpointer.FromFragment(frag); err == nil {
		return joinID(base, ptr)
	}
	return uri
}

// Import adds the schema document raw under uri, together with any
// subschemas it identifies, and returns the compiled schema. Importing the
// same content under the same URI again is harmless and returns the same
// schema; importing different content is an error.
func (r *Registry) Import(uri string, raw any) (*Schema, error) {
	if err := checkID(uri); err != nil {
		return nil, err
	}
	uri = normalize(uri)

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sources[uri]; ok {
		if !jsonEqual(old, raw) {
			return nil, &SchemaError{ID: uri, Message: "conflicting definition of schema"}
		}
		if s, ok := r.compiled[uri]; ok {
			return s, nil
		}
	}
	sources, anchors := r.sources, r.anchors
	if err := r.scanLocked(raw, uri); err != nil {
		return nil, err
	}
	s, err := r.compileLocked(uri, raw)
	if err != nil {
		r.sources, r.anchors = sources, anchors
		return nil, err
	}
	r.log.Debug("imported schema", "uri", uri)
	return s, nil
}

// Scan records every subdocument of raw that declares an identifier ($id,
// id, or $anchor), and records raw itself under base, so that they can be
// found by Lookup. It does not compile anything.
func (r *Registry) Scan(raw any, base string) error {
	if err := checkID(base); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scanLocked(raw, normalize(base))
}

func (r *Registry) scanLocked(raw any, base string) error {
	// Record into a scratch copy so that a conflict leaves r unchanged.
	sources := maps.Clone(r.sources)
	anchors := maps.Clone(r.anchors)
	record := func(uri string, doc any) error {
		if old, ok := sources[uri]; ok && !jsonEqual(old, doc) {
			return &SchemaError{ID: uri, Message: "conflicting definition of schema"}
		}
		sources[uri] = doc
		return nil
	}

	var walk func(v any, base string, ptr jsonpointer.Pointer) error
	walk = func(v any, base string, ptr jsonpointer.Pointer) error {
		switch t := v.(type) {
		case []any:
			for i, elt := range t {
				if err := walk(elt, base, at(ptr, strconv.Itoa(i))); err != nil {
					return err
				}
			}
			return nil
		case map[string]any:
			// handled below
		default:
			return nil
		}
		obj := v.(map[string]any)
		id, ok := obj["$id"].(string)
		if !ok {
			id, ok = obj["id"].(string)
		}
		if ok {
			u, err := resolveURI(base, id)
			if err != nil {
				return &SchemaError{ID: base, Keyword: "$id", Message: "invalid identifier", err: err}
			}
			ubase, frag, _ := strings.Cut(u, "#")
			if frag == "" || strings.HasPrefix(frag, "/") {
				if err := record(ubase, obj); err != nil {
					return err
				}
				base, ptr = ubase, jsonpointer.Pointer{}
			} else {
				if err := record(u, obj); err != nil {
					return err
				}
				anchors[u] = anchorRef{base: base, ptr: ptr}
			}
		}
		if anchor, ok := obj["$anchor"].(string); ok {
			u := base + "#" + anchor
			if err := record(u, obj); err != nil {
				return err
			}
			anchors[u] = anchorRef{base: base, ptr: ptr}
		}
		for _, key := range slices.Sorted(maps.Keys(obj)) {
			switch key {
			case "const", "enum", "default", "examples":
				continue // literal values, not schemas
			}
			if err := walk(obj[key], base, at(ptr, key)); err != nil {
				return err
			}
		}
		return nil
	}

	if err := record(base, raw); err != nil {
		return err
	}
	if err := walk(raw, base, jsonpointer.Pointer{}); err != nil {
		return err
	}
	r.sources, r.anchors = sources, anchors
	return nil
}

// Lookup returns the compiled schema identified by uri, compiling it from a
// registered document if necessary. A URI whose fragment is a JSON Pointer is
// resolved by descending into the registered document for the rest of the
// URI.
func (r *Registry) Lookup(uri string) (*Schema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(normalize(uri))
}

func (r *Registry) lookupLocked(uri string) (*Schema, error) {
	if s, ok := r.compiled[uri]; ok {
		return s, nil
	}
	if raw, ok := r.sources[uri]; ok {
		return r.compileLocked(uri, raw)
	}
	base, frag, ok := strings.Cut(uri, "#")
	if ok && strings.HasPrefix(frag, "/") {
		if doc, ok := r.sources[base]; ok {
			ptr, err := jsonpointer.FromFragment(frag)
			if err != nil {
				return nil, &SchemaError{ID: uri, Message: "invalid fragment", err: err}
			}
			sub, err := ptr.Resolve(doc)
			if err != nil {
				return nil, &SchemaError{ID: uri, Message: "could not resolve schema", err: err}
			}
			r.log.Debug("resolved schema pointer", "uri", uri)
			c := newCompiler(r)
			s, err := c.compile(sub, base, ptr)
			if err != nil {
				return nil, err
			}
			c.commit()
			return s, nil
		}
	}
	return nil, &SchemaError{ID: uri, Message: "could not resolve schema"}
}

// compileLocked compiles the registered document raw identified by uri.
func (r *Registry) compileLocked(uri string, raw any) (*Schema, error) {
	c := newCompiler(r)
	var s *Schema
	var err error
	if a, ok := r.anchors[uri]; ok {
		s, err = c.compile(raw, a.base, a.ptr)
	} else {
		s, err = c.compile(raw, uri, jsonpointer.Pointer{})
	}
	if err != nil {
		return nil, err
	}
	c.remember(uri, s)
	c.commit()
	r.log.Debug("compiled schema", "uri", uri, "id", s.id, "unknown", s.allUnknown)
	return s, nil
}

// Resolve compiles raw, an inline schema whose references resolve relative
// to base. Neither raw nor its subschemas are added to the registry.
func (r *Registry) Resolve(base string, raw any) (*Schema, error) {
	if err := checkID(base); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return newCompiler(r).compile(raw, normalize(base), jsonpointer.Pointer{})
}

// CompileValue compiles raw under a fresh anonymous identity in r.
func (r *Registry) CompileValue(raw any) (*Schema, error) {
	return r.Import("urn:uuid:"+uuid.NewString(), raw)
}

// Compile compiles the schema document raw under the identity id, importing
// it into reg. If reg is nil, a new registry is used.
func Compile(id string, raw any, reg *Registry) (*Schema, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	return reg.Import(id, raw)
}

// MustCompile is as Compile, but panics if compilation fails.
func MustCompile(id string, raw any, reg *Registry) *Schema {
	s, err := Compile(id, raw, reg)
	if err != nil {
		panic(err)
	}
	return s
}

// jsonEqual reports whether a and b are equal JSON values. Numbers compare
// by value regardless of their Go representation.
func jsonEqual(a, b any) bool {
	switch x := a.(type) {
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !jsonEqual(xv, yv) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		return ok && slices.EqualFunc(x, y, jsonEqual)
	case nil, bool, string:
		return a == b
	case json.Number:
		if y, ok := b.(json.Number); ok && x == y {
			return true
		}
	}
	xr, ok1 := ratValue(a)
	yr, ok2 := ratValue(b)
	if ok1 && ok2 {
		return xr.Cmp(yr) == 0
	}
	return false
}
