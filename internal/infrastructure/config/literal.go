package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// errNotLiteral is returned by ParseLiteral when the text is not a
// recognised literal and has been kept as a plain string.
var errNotLiteral = errors.New("not a literal")

// ParseLiteral converts an environment or command line value into a typed
// settings value. Coercions are attempted in order:
//
//  1. integer            "42", "-7", "0x1f", "0o17"
//  2. float              "2.5", "1e3"
//  3. boolean keyword    "true", "False"
//  4. list               "[1, 2]", "['a', 'b']", "[[\"^x$\", \"y\"]]"
//  5. quoted string      "'abc'", "\"abc\""
//
// Zero-padded decimals such as "0123" and integers that overflow int64 are
// not numbers; they stay strings. Anything else is returned unchanged as a string together with a non-nil
// error, which callers log and otherwise ignore.
func ParseLiteral(raw string) (any, error) {
	s := strings.TrimSpace(raw)

	if zeroPadded(s) {
		return raw, fmt.Errorf("%w: zero-padded number %q", errNotLiteral, s)
	}
	i, err := strconv.ParseInt(s, 0, 64)
	switch {
	case err == nil:
		return int(i), nil
	case errors.Is(err, strconv.ErrRange):
		return raw, fmt.Errorf("%w: %w", errNotLiteral, err)
	}
	// ParseFloat also accepts "Inf" and "NaN"; those stay strings.
	if f, err := strconv.ParseFloat(s, 64); err == nil && strings.ContainsAny(s, "0123456789") {
		return f, nil
	}
	switch strings.ToLower(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		list, err := parseList(s)
		if err != nil {
			return raw, fmt.Errorf("%w: %w", errNotLiteral, err)
		}
		return list, nil
	}
	if len(s) >= 2 {
		if q := s[0]; (q == '\'' || q == '"') && s[len(s)-1] == q {
			return s[1 : len(s)-1], nil
		}
	}

	return raw, errNotLiteral
}

// parseList decodes a flow sequence. Only scalars and nested sequences are
// accepted; mappings and YAML tags are rejected so that environment values
// cannot smuggle arbitrary structure into the settings tree.
func parseList(s string) ([]any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(s), &node); err != nil {
		return nil, err
	}
	if len(node.Content) != 1 || node.Content[0].Kind != yaml.SequenceNode {
		return nil, errors.New("not a sequence")
	}
	v, err := listValue(node.Content[0])
	if err != nil {
		return nil, err
	}
	return v.([]any), nil
}

func listValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := listValue(child)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		if n.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) != 0 {
			return n.Value, nil
		}
		v, err := ParseLiteral(n.Value)
		if err != nil && !errors.Is(err, errNotLiteral) {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported list element at line %d", n.Line)
	}
}

// zeroPadded reports whether s is a decimal integer with a leading zero.
func zeroPadded(s string) bool {
	s = strings.TrimLeft(s, "+-")
	if len(s) < 2 || s[0] != '0' {
		return false
	}
	for _, c := range s[1:] {
		if (c < '0' || c > '9') && c != '_' {
			return false
		}
	}
	return true
}
