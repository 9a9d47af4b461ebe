// Package env expands env(NAME) and env(NAME|default) references in
// configuration values.
package env

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml/ast"
)

// reference matches env(NAME) and env(NAME|default). Defaults cannot contain ')'.
var reference = regexp.MustCompile(`env\(([^)]+)\)`)

// controlChars are rejected in substituted values. Tab and newline pass so
// multi-line secrets still work.
var controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)

// LookupFunc resolves one variable, like os.LookupEnv.
type LookupFunc func(name string) (string, bool)

// Expander substitutes env references using Lookup.
type Expander struct {
	Lookup LookupFunc
}

// SubstituteEnvVarsNode expands references in the scalar values below node
// using the process environment. Mapping keys are left untouched.
func SubstituteEnvVarsNode(node ast.Node) error {
	return Expander{Lookup: os.LookupEnv}.Node(node)
}

// Node expands references in every scalar value below node.
func (e Expander) Node(node ast.Node) error {
	var err error
	visitValues(node, func(s *string) {
		if err != nil {
			return
		}
		*s, err = e.String(*s)
	})
	return err
}

// String expands the references in s. An unset variable without a default
// stays as written so CheckResolved can name it later.
func (e Expander) String(s string) (string, error) {
	var err error
	out := reference.ReplaceAllStringFunc(s, func(match string) string {
		name, def, hasDefault := strings.Cut(match[len("env("):len(match)-1], "|")
		value, ok := e.Lookup(name)
		switch {
		case !ok && hasDefault:
			return def
		case !ok:
			return match
		case controlChars.MatchString(value):
			if err == nil {
				err = fmt.Errorf("environment variable %s contains disallowed control characters", name)
			}
			return ""
		}
		return value
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// visitValues calls fn with a pointer to each scalar string in value
// position.
func visitValues(node ast.Node, fn func(*string)) {
	switch n := node.(type) {
	case *ast.DocumentNode:
		visitValues(n.Body, fn)
	case *ast.MappingNode:
		for _, v := range n.Values {
			visitValues(v, fn)
		}
	case *ast.MappingValueNode:
		visitValues(n.Value, fn)
	case *ast.SequenceNode:
		for _, v := range n.Values {
			visitValues(v, fn)
		}
	case *ast.TagNode:
		visitValues(n.Value, fn)
	case *ast.AnchorNode:
		visitValues(n.Value, fn)
	case *ast.LiteralNode:
		if n.Value != nil {
			fn(&n.Value.Value)
		}
	case *ast.StringNode:
		fn(&n.Value)
	}
}

// CheckResolved reports the variables still referenced in value, e.g.
// "release.github.token: environment variable GITHUB_TOKEN is not set".
// Pipes call it after their skip guards.
func CheckResolved(value, field string) error {
	matches := reference.FindAllStringSubmatch(value, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i], _, _ = strings.Cut(m[1], "|")
	}
	if len(names) == 1 {
		return fmt.Errorf("%s: environment variable %s is not set", field, names[0])
	}
	return fmt.Errorf("%s: environment variables %s are not set", field, strings.Join(names, ", "))
}
