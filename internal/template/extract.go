package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Extract pulls values out of a JSON body using JSONPath expressions
// (variable name -> path). Paths use JSONPath syntax ($.foo.bar), converted
// internally to gjson format; array access $.items[0].id becomes items.0.id
// and [*] becomes #. All failed extractions are reported together.
func Extract(body []byte, rules map[string]string) (map[string]any, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON in body")
	}

	out := make(map[string]any, len(rules))
	var errs []error
	for name, jsonPath := range rules {
		value := gjson.GetBytes(body, toGJSONPath(jsonPath))
		if !value.Exists() {
			errs = append(errs, fmt.Errorf("path %q not found for variable %q", jsonPath, name))
			continue
		}
		out[name] = value.Value()
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// toGJSONPath converts JSONPath syntax to gjson path format.
func toGJSONPath(path string) string {
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")

	var b strings.Builder
	for i := 0; i < len(path); {
		if path[i] == '[' {
			end := strings.IndexByte(path[i:], ']')
			if end > 0 {
				idx := path[i+1 : i+end]
				if idx == "*" {
					b.WriteString(".#")
				} else {
					b.WriteByte('.')
					b.WriteString(idx)
				}
				i += end + 1
				continue
			}
		}
		b.WriteByte(path[i])
		i++
	}
	return b.String()
}
