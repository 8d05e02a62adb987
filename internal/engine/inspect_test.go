package engine

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/require"
)

func TestQuoteJS(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "whoa there!", `'whoa there!'`},
		{"single quote", "it's", `'it\'s'`},
		{"backslash", `a\b`, `'a\\b'`},
		{"newline and tab", "a\n\tb", `'a\n\tb'`},
		{"control byte", "a\x01b", `'a\x01b'`},
		{"empty", "", `''`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, QuoteJS(tc.input))
		})
	}
}

func TestInspect(t *testing.T) {
	vm := goja.New()

	tests := []struct {
		name     string
		expr     string
		expected string
	}{
		{"string", `"hi"`, `'hi'`},
		{"integer", `42`, `42`},
		{"float", `1.5`, `1.5`},
		{"boolean", `true`, `true`},
		{"null", `null`, `null`},
		{"undefined", `undefined`, `undefined`},
		{"array", `[1, "two", false]`, `[ 1, 'two', false ]`},
		{"empty array", `[]`, `[]`},
		{"object", `({a: 1, b: "x"})`, `{ a: 1, b: 'x' }`},
		{"empty object", `({})`, `{}`},
		{"depth bound", `({a: {b: {c: {d: 1}}}})`, `{ a: { b: { c: ... } } }`},
		{"named function", `(function greet() {})`, `function greet`},
		{"error", `new Error("boom")`, `Error: boom`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			value, err := vm.RunString(tc.expr)
			require.NoError(t, err)
			require.Equal(t, tc.expected, inspect(value, defaultInspectDepth))
		})
	}
}

func TestInspectNilValue(t *testing.T) {
	require.Equal(t, "undefined", inspect(nil, defaultInspectDepth))
}
