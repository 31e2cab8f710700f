// Package jsonpath resolves query expressions against JSON documents.
//
// The history subcommands use it to pull individual fields out of
// stored run records. Queries are written either as gjson-style dotted
// paths ("totals.sent") or as JSONPath ("$.totals.sent"); both forms
// resolve to the same field.
package jsonpath

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Extract resolves path against the JSON document doc and returns the
// matched value rendered as a string. Scalars render bare ("1500",
// "true"), objects and arrays render as raw JSON, and an explicit
// JSON null renders as "null". A path that matches nothing is an
// error.
func Extract(doc string, path string) (string, error) {
	if doc == "" {
		return "", fmt.Errorf("empty document")
	}
	if path == "" {
		return "", fmt.Errorf("empty query")
	}

	res := gjson.Get(doc, toGjson(path))
	if !res.Exists() {
		return "", fmt.Errorf("no value at %q", path)
	}
	if res.Type == gjson.Null {
		return "null", nil
	}
	return res.String(), nil
}

// toGjson rewrites a JSONPath-style expression into gjson syntax:
// "$.totals.sent" becomes "totals.sent", "$.steps[2].rps" becomes
// "steps.2.rps", and "$" alone selects the whole document. Bare
// dotted paths pass through unchanged.
func toGjson(path string) string {
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return "@this"
	}

	var b strings.Builder
	b.Grow(len(path))
	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '[':
			// Bracket segments become dotted segments: [2] -> .2,
			// ['name'] and ["name"] -> .name.
			if b.Len() > 0 {
				b.WriteByte('.')
			}
		case ']', '\'', '"':
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
