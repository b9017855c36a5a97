package jsonschemaparse_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/awwright/jsonschemaparse-sub000"
	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

func mustDecode(t *testing.T, src string) any {
	t.Helper()
	v, err := jsonschemaparse.DecodeSchema([]byte(src))
	if err != nil {
		t.Fatalf("DecodeSchema %#q: %v", src, err)
	}
	return v
}

func TestImport(t *testing.T) {
	const uri = "http://example.com/a.json"
	reg := jsonschemaparse.NewRegistry()

	s1, err := reg.Import(uri, mustDecode(t, `{"minimum": 1, "type": "integer"}`))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got := s1.ID(); got != uri {
		t.Errorf("ID: got %q, want %q", got, uri)
	}

	// The same content again, with numbers represented differently.
	s2, err := reg.Import(uri+"#", map[string]any{"type": "integer", "minimum": 1.0})
	if err != nil {
		t.Fatalf("Import again: %v", err)
	}
	if s1 != s2 {
		t.Error("Import of identical content returned a different schema")
	}

	// Different content under the same URI.
	_, err = reg.Import(uri, mustDecode(t, `{"type": "string"}`))
	var serr *jsonschemaparse.SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("Import conflict: got %v, want *SchemaError", err)
	} else if serr.ID != uri {
		t.Errorf("Conflict ID: got %q, want %q", serr.ID, uri)
	}

	if _, err := reg.Import("http://example.com/a b.json", true); !errors.As(err, &serr) {
		t.Errorf("Import bad ID: got %v, want *SchemaError", err)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		schema  string
		keyword string
	}{
		{`5`, ""},
		{`"string"`, ""},
		{`{"type": "foo"}`, "type"},
		{`{"type": [1]}`, "type"},
		{`{"multipleOf": 0}`, "multipleOf"},
		{`{"minimum": "1"}`, "minimum"},
		{`{"minLength": -1}`, "minLength"},
		{`{"maxItems": 1.5}`, "maxItems"},
		{`{"pattern": "("}`, "pattern"},
		{`{"patternProperties": {"[": true}}`, "patternProperties"},
		{`{"allOf": {}}`, "allOf"},
		{`{"anyOf": []}`, "anyOf"},
		{`{"required": "a"}`, "required"},
		{`{"required": [1]}`, "required"},
		{`{"dependentRequired": {"a": {}}}`, "dependentRequired"},
		{`{"enum": 1}`, "enum"},
		{`{"title": 1}`, "title"},
		{`{"$ref": 1}`, "$ref"},
		{`{"$recursiveAnchor": "yes"}`, "$recursiveAnchor"},
		{`{"exclusiveMinimum": true}`, "exclusiveMinimum"},
		{`{"properties": {"a": 3}}`, ""},
	}
	for _, test := range tests {
		reg := jsonschemaparse.NewRegistry()
		_, err := jsonschemaparse.Compile("http://example.com/bad.json", mustDecode(t, test.schema), reg)
		var serr *jsonschemaparse.SchemaError
		if !errors.As(err, &serr) {
			t.Errorf("Compile %#q: got %v, want *SchemaError", test.schema, err)
			continue
		}
		if serr.Keyword != test.keyword {
			t.Errorf("Compile %#q: keyword %q, want %q", test.schema, serr.Keyword, test.keyword)
		}

		// A failed compilation leaves nothing behind.
		if _, err := reg.Import("http://example.com/bad.json", true); err != nil {
			t.Errorf("Import after failed compile: %v", err)
		}
	}
}

func TestUnknownKeywords(t *testing.T) {
	s := mustSchema(t, `{
  "foo": 1,
  "format": "date",
  "properties": {"a": {"bar": true, "zot": {}}},
  "items": {"foo": 2}
}`)
	if diff := cmp.Diff([]string{"foo"}, s.Unknown()); diff != "" {
		t.Errorf("Unknown (-want, +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"bar", "foo", "zot"}, s.AllUnknown()); diff != "" {
		t.Errorf("AllUnknown (-want, +got):\n%s", diff)
	}
}

func TestLookup(t *testing.T) {
	reg := jsonschemaparse.NewRegistry()
	if _, err := reg.Lookup("http://example.com/nonesuch.json"); err == nil {
		t.Error("Lookup of unknown URI: got nil error")
	}

	raw := mustDecode(t, `{
  "$defs": {
    "x": {"$id": "http://example.com/other.json", "type": "string"},
    "y": {"$anchor": "why", "type": "boolean"},
    "z": {"$id": "#zed", "type": "null"}
  }
}`)
	if err := reg.Scan(raw, "http://example.com/main.json"); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	tests := []struct {
		uri   string
		id    string
		types jsonschemaparse.TypeSet
	}{
		{"http://example.com/other.json", "http://example.com/other.json", jsonschemaparse.TypeString},
		{"http://example.com/main.json#/$defs/x", "http://example.com/other.json", jsonschemaparse.TypeString},
		{"http://example.com/main.json#why", "http://example.com/main.json#why", jsonschemaparse.TypeBoolean},
		{"http://example.com/main.json#zed", "http://example.com/main.json#zed", jsonschemaparse.TypeNull},
		{"http://example.com/main.json", "http://example.com/main.json", jsonschemaparse.AllTypes},
	}
	for _, test := range tests {
		s, err := reg.Lookup(test.uri)
		if err != nil {
			t.Errorf("Lookup %q: %v", test.uri, err)
			continue
		}
		if s.ID() != test.id || s.Types() != test.types {
			t.Errorf("Lookup %q: got %q (%v), want %q (%v)", test.uri, s.ID(), s.Types(), test.id, test.types)
		}
	}

	if _, err := reg.Lookup("http://example.com/main.json#/$defs/nonesuch"); err == nil {
		t.Error("Lookup of missing pointer: got nil error")
	}
}

func TestCrossReferences(t *testing.T) {
	// Documents may refer to each other before they are registered.
	reg := jsonschemaparse.NewRegistry()
	a, err := reg.Import("http://example.com/a.json", mustDecode(t, `{
  "properties": {"b": {"$ref": "b.json#/$defs/name"}}
}`))
	if err != nil {
		t.Fatalf("Import a: %v", err)
	}
	if got := keywords(t, a, `{"b": 1}`); len(got) != 1 || got[0] != "$ref" {
		t.Errorf("Before b is added: got %q, want [$ref]", got)
	}

	if _, err := reg.Import("http://example.com/b.json", mustDecode(t, `{
  "$defs": {"name": {"type": "string", "minLength": 1}}
}`)); err != nil {
		t.Fatalf("Import b: %v", err)
	}
	if got := keywords(t, a, `{"b": "ok"}`); got != nil {
		t.Errorf("Valid input: got errors %q", got)
	}
	if diff := cmp.Diff([]string{"minLength"}, keywords(t, a, `{"b": ""}`)); diff != "" {
		t.Errorf("Invalid input (-want, +got):\n%s", diff)
	}
}

func TestResolve(t *testing.T) {
	reg := jsonschemaparse.NewRegistry()
	if _, err := reg.Import("http://example.com/defs.json", mustDecode(t, `{
  "$defs": {"n": {"type": "integer"}}
}`)); err != nil {
		t.Fatalf("Import: %v", err)
	}

	const base = "http://example.com/inline.json"
	s, err := reg.Resolve(base, mustDecode(t, `{"items": {"$ref": "defs.json#/$defs/n"}}`))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if diff := cmp.Diff([]string{"type"}, keywords(t, s, `[1, 2.5]`)); diff != "" {
		t.Errorf("Keywords (-want, +got):\n%s", diff)
	}
	if _, err := reg.Lookup(base); err == nil {
		t.Errorf("Lookup %q: resolved schema was registered", base)
	}
}

func TestCompileValue(t *testing.T) {
	reg := jsonschemaparse.NewRegistry()
	s1, err := reg.CompileValue(map[string]any{"type": "string"})
	if err != nil {
		t.Fatalf("CompileValue: %v", err)
	}
	s2, err := reg.CompileValue(map[string]any{"type": "string"})
	if err != nil {
		t.Fatalf("CompileValue: %v", err)
	}
	if !strings.HasPrefix(s1.ID(), "urn:uuid:") {
		t.Errorf("ID: got %q, want urn:uuid: prefix", s1.ID())
	}
	if s1.ID() == s2.ID() {
		t.Errorf("Anonymous schemas share ID %q", s1.ID())
	}
	if s, err := reg.Lookup(s1.ID()); err != nil || s != s1 {
		t.Errorf("Lookup %q: got (%p, %v), want (%p, nil)", s1.ID(), s, err, s1)
	}
}

func TestRegistryLogger(t *testing.T) {
	var buf bytes.Buffer
	reg := jsonschemaparse.NewRegistry()
	reg.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	if _, err := reg.Import("http://example.com/logged.json", map[string]any{"bogus": true}); err != nil {
		t.Fatalf("Import: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"compiled schema", "imported schema", "unknown=[bogus]"} {
		if !strings.Contains(out, want) {
			t.Errorf("Log output missing %q:\n%s", want, out)
		}
	}

	reg.SetLogger(nil)
	buf.Reset()
	if _, err := reg.Import("http://example.com/quiet.json", true); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Unexpected log output after SetLogger(nil):\n%s", buf.String())
	}
}

func TestRegistryConcurrent(t *testing.T) {
	reg := jsonschemaparse.NewRegistry()
	if err := reg.Scan(mustDecode(t, `{
  "$defs": {"a": {"type": "array", "items": {"$ref": "#/$defs/b"}}, "b": {"type": "integer"}}
}`), "http://example.com/c.json"); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := reg.Lookup("http://example.com/c.json#/$defs/a")
			if err != nil {
				errs[i] = err
				return
			}
			res, err := jsonschemaparse.ParseInfo(`[1, 2, "three"]`, &jsonschemaparse.Options{Schema: s})
			if err != nil {
				errs[i] = err
			} else if len(res.Errors) != 1 {
				errs[i] = res.Err()
				if errs[i] == nil {
					errs[i] = errors.New("no validation errors")
				}
			}
		}()
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Errorf("Goroutine %d: %v", i, err)
		}
	}
}

func TestDecodeNumbers(t *testing.T) {
	v := mustDecode(t, `{"const": 12345678901234567890.5}`)
	want := map[string]any{"const": json.Number("12345678901234567890.5")}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("DecodeSchema (-want, +got):\n%s", diff)
	}

	s := mustSchema(t, `{"const": 12345678901234567890.5}`)
	if got := keywords(t, s, `12345678901234567890.50`); got != nil {
		t.Errorf("Exact const: got errors %q", got)
	}
	if diff := cmp.Diff([]string{"const"}, keywords(t, s, `12345678901234567890.6`)); diff != "" {
		t.Errorf("Inexact const (-want, +got):\n%s", diff)
	}
}
