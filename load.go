// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

package jsonschemaparse

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// DecodeSchema decodes a JSON schema document. Numbers are decoded as
// json.Number so that schema constants keep their exact values.
func DecodeSchema(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if dec.More() {
		return nil, errors.New("decode schema: extra data after document")
	}
	return v, nil
}

// DecodeSchemaJWCC decodes a schema document written in JSON With Commas and
// Comments, as accepted by hujson.
func DecodeSchemaJWCC(data []byte) (any, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return DecodeSchema(std)
}

// DecodeSchemaYAML decodes a schema document written in YAML. The result has
// the same shape as DecodeSchema would produce for the equivalent JSON.
func DecodeSchemaYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return fromYAML(v)
}

func fromYAML(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for key, elt := range t {
			w, err := fromYAML(elt)
			if err != nil {
				return nil, err
			}
			t[key] = w
		}
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for key, elt := range t {
			str, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("decode schema: non-string key %v", key)
			}
			w, err := fromYAML(elt)
			if err != nil {
				return nil, err
			}
			out[str] = w
		}
		return out, nil
	case []any:
		for i, elt := range t {
			w, err := fromYAML(elt)
			if err != nil {
				return nil, err
			}
			t[i] = w
		}
		return t, nil
	case int:
		return json.Number(strconv.Itoa(t)), nil
	case int64:
		return json.Number(strconv.FormatInt(t, 10)), nil
	case uint64:
		return json.Number(strconv.FormatUint(t, 10)), nil
	case float64:
		return json.Number(strconv.FormatFloat(t, 'g', -1, 64)), nil
	case nil, bool, string:
		return t, nil
	}
	return nil, fmt.Errorf("decode schema: unsupported YAML value of type %T", v)
}

// LoadSchemaFile reads and decodes the schema document in the named file. The
// format is chosen by the file extension: ".yaml" and ".yml" are YAML,
// ".jwcc" and ".hujson" are JWCC, and anything else is JSON.
func LoadSchemaFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		v, err = DecodeSchemaYAML(data)
	case ".jwcc", ".hujson":
		v, err = DecodeSchemaJWCC(data)
	default:
		v, err = DecodeSchema(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
