package config

import (
	"fmt"
	"sort"
	"strings"
)

// Tree is a settings document: string keys mapping to scalars, lists or
// nested Trees, arbitrarily deep.
type Tree map[string]any

// Merge recursively merges src into dst.
//
// For each key in src: if dst lacks the key, or the src value is not itself a
// mapping, the dst value is overwritten; otherwise both mappings are merged
// key by key. Scalars therefore replace defaults while nested sections are
// combined. Values copied from src are deep-copied so later overlays never
// write through to the source document.
func Merge(dst, src Tree) {
	for k, v := range src {
		sub, isTree := v.(Tree)
		existing, ok := dst[k].(Tree)
		if !isTree || !ok {
			dst[k] = copyValue(v)
			continue
		}
		Merge(existing, sub)
	}
}

// Lookup returns the value at the dotted path, e.g. Lookup("hubitat", "url").
func (t Tree) Lookup(path ...string) (any, bool) {
	var cur any = t
	for _, key := range path {
		node, ok := cur.(Tree)
		if !ok {
			return nil, false
		}
		cur, ok = node[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Section returns the nested Tree at path, or nil if it does not exist or is
// not a mapping.
func (t Tree) Section(path ...string) Tree {
	v, ok := t.Lookup(path...)
	if !ok {
		return nil
	}
	sub, _ := v.(Tree)
	return sub
}

// Copy returns a deep copy of the tree.
func (t Tree) Copy() Tree {
	if t == nil {
		return nil
	}
	return copyValue(t).(Tree)
}

// Keys returns the tree's keys in sorted order.
func (t Tree) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyValue(v any) any {
	switch val := v.(type) {
	case Tree:
		cpy := make(Tree, len(val))
		for k, sub := range val {
			cpy[k] = copyValue(sub)
		}
		return cpy
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = copyValue(elem)
		}
		return cpy
	default:
		return v
	}
}

// normalise converts decoded YAML into Tree form: every mapping becomes a
// Tree with string keys, so that merging and overlay treat documents
// uniformly regardless of how yaml.v3 typed their keys.
func normalise(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(Tree, len(val))
		for k, sub := range val {
			out[k] = normalise(sub)
		}
		return out
	case map[any]any:
		out := make(Tree, len(val))
		for k, sub := range val {
			out[fmt.Sprint(k)] = normalise(sub)
		}
		return out
	case Tree:
		out := make(Tree, len(val))
		for k, sub := range val {
			out[k] = normalise(sub)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalise(elem)
		}
		return out
	default:
		return v
	}
}

// envName builds the fully-qualified variable name for a key path:
// envName("HUBIBOT", "hubitat", "url") == "HUBIBOT_HUBITAT_URL".
func envName(prefix string, path ...string) string {
	parts := make([]string, 0, len(path)+1)
	parts = append(parts, prefix)
	parts = append(parts, path...)
	return strings.ToUpper(strings.Join(parts, "_"))
}

// stringList interprets a settings value as a list of names. A bare string
// (for example an environment value that did not parse as a list) is split
// on commas.
func stringList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(val))
		for _, elem := range val {
			if s := strings.TrimSpace(fmt.Sprint(elem)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return val
	case string:
		var out []string
		for _, s := range strings.Split(val, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{fmt.Sprint(val)}
	}
}
