// Package engine executes extracted snippets sequentially inside one shared
// JavaScript scope, capturing each block's output. Shell snippets run in a
// persistent shell interpreter alongside it.
package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dop251/goja"
)

const defaultInspectDepth = 3

// inspect renders a JavaScript value as printable text. Strings become
// single-quoted literals, compound values are walked down to depth levels.
func inspect(v goja.Value, depth int) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}

	if goja.IsNull(v) {
		return "null"
	}

	if obj, ok := v.(*goja.Object); ok {
		return inspectObject(obj, depth)
	}

	if _, ok := v.Export().(string); ok {
		return QuoteJS(v.String())
	}

	return v.String()
}

func inspectObject(obj *goja.Object, depth int) string {
	if depth <= 0 {
		return "..."
	}

	switch obj.ClassName() {
	case "Array":
		return inspectArray(obj, depth)
	case "Function":
		name := obj.Get("name")
		if name != nil && name.String() != "" {
			return "function " + name.String()
		}

		return "function"
	case "Error", "Date", "RegExp":
		return obj.String()
	}

	keys := obj.Keys()
	if len(keys) == 0 {
		return "{}"
	}

	entries := make([]string, len(keys))
	for i, key := range keys {
		entries[i] = fmt.Sprintf("%s: %s", key, inspect(obj.Get(key), depth-1))
	}

	return "{ " + strings.Join(entries, ", ") + " }"
}

func inspectArray(obj *goja.Object, depth int) string {
	length := int(obj.Get("length").ToInteger())
	if length == 0 {
		return "[]"
	}

	items := make([]string, length)
	for i := 0; i < length; i++ {
		items[i] = inspect(obj.Get(strconv.Itoa(i)), depth-1)
	}

	return "[ " + strings.Join(items, ", ") + " ]"
}

// QuoteJS renders s as a single-quoted JavaScript string literal. Quotes,
// backslashes and the usual control characters get their literal escape
// sequences; other non-printable characters are hex escaped.
func QuoteJS(s string) string {
	var sb strings.Builder

	sb.WriteByte('\'')

	for _, r := range s {
		switch r {
		case '\'':
			sb.WriteString(`\'`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\v':
			sb.WriteString(`\v`)
		default:
			switch {
			case r < 0x20 || r == 0x7f:
				fmt.Fprintf(&sb, `\x%02x`, r)
			case r > 0x7f && !strconv.IsPrint(r):
				fmt.Fprintf(&sb, `\u%04x`, r)
			default:
				sb.WriteRune(r)
			}
		}
	}

	sb.WriteByte('\'')

	return sb.String()
}
