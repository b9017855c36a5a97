package jsonpointer_test

import (
	"testing"

	"github.com/awwright/jsonschemaparse-sub000/jsonpointer"
	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  jsonpointer.Pointer
		fail  bool
	}{
		{"", jsonpointer.Pointer{}, false},
		{"/", jsonpointer.Pointer{""}, false},
		{"/foo", jsonpointer.Pointer{"foo"}, false},
		{"/foo/0", jsonpointer.Pointer{"foo", "0"}, false},
		{"/a~1b", jsonpointer.Pointer{"a/b"}, false},
		{"/m~0n", jsonpointer.Pointer{"m~n"}, false},
		{"/~01", jsonpointer.Pointer{"~1"}, false},
		{"foo", nil, true},
		{"/a~", nil, true},
		{"/a~2", nil, true},
	}
	for _, test := range tests {
		got, err := jsonpointer.Parse(test.input)
		if err != nil {
			if !test.fail {
				t.Errorf("Parse(%q): unexpected error: %v", test.input, err)
			}
			continue
		} else if test.fail {
			t.Errorf("Parse(%q): got %q, want error", test.input, got)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("Parse(%q): (-want, +got)\n%s", test.input, diff)
		}
		if s := got.String(); s != test.input {
			t.Errorf("String: got %q, want %q", s, test.input)
		}
	}
}

func TestFromFragment(t *testing.T) {
	got, err := jsonpointer.FromFragment("/definitions/a%20b/c~1d")
	if err != nil {
		t.Fatalf("FromFragment: %v", err)
	}
	if diff := cmp.Diff(jsonpointer.Pointer{"definitions", "a b", "c/d"}, got); diff != "" {
		t.Errorf("FromFragment: (-want, +got)\n%s", diff)
	}
	if frag := got.Fragment(); frag != "/definitions/a%20b/c~1d" {
		t.Errorf("Fragment: got %q", frag)
	}
}

func TestResolve(t *testing.T) {
	doc := map[string]any{
		"foo": []any{"bar", "baz"},
		"":    0.0,
		"a/b": 1.0,
		"m~n": 8.0,
		"obj": map[string]any{"x": true},
	}
	tests := []struct {
		ptr  string
		want any
		fail bool
	}{
		{"/foo/0", "bar", false},
		{"/foo/1", "baz", false},
		{"/", 0.0, false},
		{"/a~1b", 1.0, false},
		{"/m~0n", 8.0, false},
		{"/obj/x", true, false},
		{"/foo/2", nil, true},
		{"/foo/01", nil, true},
		{"/foo/-", nil, true},
		{"/nope", nil, true},
		{"/obj/x/y", nil, true},
	}
	for _, test := range tests {
		p, err := jsonpointer.Parse(test.ptr)
		if err != nil {
			t.Fatalf("Parse(%q): %v", test.ptr, err)
		}
		got, err := p.Resolve(doc)
		if test.fail {
			if err == nil {
				t.Errorf("Resolve(%q): got %v, want error", test.ptr, got)
			}
			continue
		} else if err != nil {
			t.Errorf("Resolve(%q): unexpected error: %v", test.ptr, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("Resolve(%q): (-want, +got)\n%s", test.ptr, diff)
		}
	}
}

func TestAppend(t *testing.T) {
	if got := jsonpointer.Append("/a", "b/c~"); got != "/a/b~1c~0" {
		t.Errorf("Append: got %q", got)
	}
	if got := jsonpointer.AppendIndex("", 3); got != "/3" {
		t.Errorf("AppendIndex: got %q", got)
	}
}
