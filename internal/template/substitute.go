// Package template provides placeholder substitution and JSON extraction for
// config-defined scenarios. It is protocol-agnostic.
package template

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Variables supplies values for ${var} placeholders.
type Variables interface {
	Get(key string) (any, bool)
}

// varPattern matches ${var} and ${env:VAR} placeholders.
var varPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Substitute replaces ${var}, ${env:VAR} and ${fn(...)} placeholders in
// text. Missing variables are reported together. Text without placeholders
// is returned unchanged.
func Substitute(text string, vars Variables) (string, error) {
	if !strings.Contains(text, "${") {
		return text, nil
	}

	var errs []error
	result := varPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-1]

		if env, ok := strings.CutPrefix(name, "env:"); ok {
			if val, found := os.LookupEnv(env); found {
				return val
			}
			errs = append(errs, fmt.Errorf("env var %q not set", env))
			return match
		}

		if val, handled, err := evalFunction(name); handled {
			if err != nil {
				errs = append(errs, err)
				return match
			}
			return val
		}

		if val, ok := vars.Get(name); ok {
			return fmt.Sprintf("%v", val)
		}
		errs = append(errs, fmt.Errorf("variable %q not found", name))
		return match
	})

	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return result, nil
}

// SubstituteMap applies substitution to all values in a map.
func SubstituteMap(m map[string]string, vars Variables) (map[string]string, error) {
	if m == nil {
		return nil, nil
	}
	result := make(map[string]string, len(m))
	var errs []error
	for k, v := range m {
		substituted, err := Substitute(v, vars)
		if err != nil {
			errs = append(errs, fmt.Errorf("%q: %w", k, err))
			continue
		}
		result[k] = substituted
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return result, nil
}
