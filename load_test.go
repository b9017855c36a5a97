package jsonschemaparse_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/awwright/jsonschemaparse-sub000"
	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

func TestDecodeSchemaFormats(t *testing.T) {
	want := map[string]any{
		"type":     "object",
		"required": []any{"name"},
		"properties": map[string]any{
			"name": map[string]any{"type": "string", "maxLength": json.Number("10")},
			"size": map[string]any{"minimum": json.Number("0.5"), "enum": []any{nil, true}},
		},
	}

	const jwcc = `{
  // A commented schema.
  "type": "object",
  "required": ["name",],
  "properties": {
    "name": {"type": "string", "maxLength": 10},
    /* trailing commas are fine */
    "size": {"minimum": 0.5, "enum": [null, true,],},
  },
}`
	const yaml = `
type: object
required: [name]
properties:
  name:
    type: string
    maxLength: 10
  size:
    minimum: 0.5
    enum: [null, true]
`
	const plain = `{"type":"object","required":["name"],"properties":{
  "name":{"type":"string","maxLength":10},
  "size":{"minimum":0.5,"enum":[null,true]}}}`

	tests := []struct {
		name   string
		decode func([]byte) (any, error)
		input  string
	}{
		{"JSON", jsonschemaparse.DecodeSchema, plain},
		{"JWCC", jsonschemaparse.DecodeSchemaJWCC, jwcc},
		{"YAML", jsonschemaparse.DecodeSchemaYAML, yaml},
	}
	for _, test := range tests {
		got, err := test.decode([]byte(test.input))
		if err != nil {
			t.Errorf("%s: decode failed: %v", test.name, err)
			continue
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s: (-want, +got):\n%s", test.name, diff)
		}
	}
}

func TestDecodeSchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		decode func([]byte) (any, error)
		input  string
	}{
		{"JSON", jsonschemaparse.DecodeSchema, `{"type":`},
		{"JSONExtra", jsonschemaparse.DecodeSchema, `{} {}`},
		{"JSONComment", jsonschemaparse.DecodeSchema, `{/* no */}`},
		{"JWCC", jsonschemaparse.DecodeSchemaJWCC, `{"a" 1}`},
		{"YAML", jsonschemaparse.DecodeSchemaYAML, "a: [b"},
		{"YAMLKey", jsonschemaparse.DecodeSchemaYAML, "? [a, b]\n: c\n"},
	}
	for _, test := range tests {
		if v, err := test.decode([]byte(test.input)); err == nil {
			t.Errorf("%s: got %v, want error", test.name, v)
		}
	}
}

func TestLoadSchemaFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.json":   `{"type": "string"}`,
		"b.yaml":   "type: string\n",
		"c.hujson": `{"type": "string", /* ok */}`,
		"d.jwcc":   `{"type": "string",}`,
	}
	for name, text := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(text), 0600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		v, err := jsonschemaparse.LoadSchemaFile(path)
		if err != nil {
			t.Errorf("LoadSchemaFile %q: %v", name, err)
			continue
		}
		if diff := cmp.Diff(map[string]any{"type": "string"}, v); diff != "" {
			t.Errorf("LoadSchemaFile %q: (-want, +got):\n%s", name, diff)
		}
	}

	if _, err := jsonschemaparse.LoadSchemaFile(filepath.Join(dir, "nonesuch.json")); err == nil {
		t.Error("LoadSchemaFile of missing file: got nil error")
	}
}
