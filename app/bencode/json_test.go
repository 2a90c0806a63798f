package bencode

import (
	"errors"
	"testing"
)

func TestMarshalBNode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"5:hello", `"hello"`},
		{"i-52e", `-52`},
		{"l5:helloi52ee", `["hello",52]`},
		{"le", `[]`},
		{"d3:foo3:bar5:helloi52ee", `{"foo":"bar","hello":52}`},
		{"d0:i0e1:ade1:bli1ee1:cl0:ee", `{"":0,"a":{},"b":[1],"c":[""]}`},
	}

	for _, tt := range tests {
		node, err := DecodeAll([]byte(tt.input))
		if err != nil {
			t.Fatalf("Decode(%q): %v", tt.input, err)
		}
		out, err := MarshalBNode(&node)
		if err != nil {
			t.Fatalf("MarshalBNode(%q): %v", tt.input, err)
		}
		if string(out) != tt.expected {
			t.Errorf("MarshalBNode(%q): expected %s, got %s", tt.input, tt.expected, out)
		}
	}
}

func TestFromJSON(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"hello"`, "5:hello"},
		{`42`, "i42e"},
		{`-7`, "i-7e"},
		{`["spam", 42]`, "l4:spami42ee"},
		{`{"b": 2, "a": [1, {}]}`, "d1:ali1edee1:bi2ee"},
	}

	for _, tt := range tests {
		node, err := FromJSON([]byte(tt.input))
		if err != nil {
			t.Fatalf("FromJSON(%s): %v", tt.input, err)
		}
		encoded, err := Encode(node)
		if err != nil {
			t.Fatalf("Encode(%s): %v", tt.input, err)
		}
		if string(encoded) != tt.expected {
			t.Errorf("FromJSON(%s): expected %q, got %q", tt.input, tt.expected, encoded)
		}
	}
}

func TestFromJSONRejects(t *testing.T) {
	for _, input := range []string{`1.5`, `true`, `null`, `[1, false]`, `{"a": 1e3}`} {
		if _, err := FromJSON([]byte(input)); !errors.Is(err, ErrInvalidNode) {
			t.Errorf("FromJSON(%s): expected ErrInvalidNode, got %v", input, err)
		}
	}

	if _, err := FromJSON([]byte(`1 2`)); !errors.Is(err, ErrTrailingData) {
		t.Errorf("expected ErrTrailingData, got %v", err)
	}
	if _, err := FromJSON([]byte(`{`)); err == nil {
		t.Error("expected an error for truncated json")
	}
}
