// Package options - Option layers, validation and the merge that resolves
// them into a per-file Plan.
package options

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Layer is one source of options: the file query or the global config.
// Keys are case-sensitive. Values are primitives or nested maps.
type Layer map[string]any

// aliasGroups lists keys that name the same option. The first key of a group
// is the canonical one.
var aliasGroups = [][]string{
	{"format", "f"},
	{"quality", "q"},
	{"width", "w"},
	{"height", "h"},
	{"svgo", "svg"},
}

// Aliases returns every key naming the same option as key, canonical first.
// A key without aliases is returned alone.
func Aliases(key string) []string {
	for _, group := range aliasGroups {
		for _, k := range group {
			if k == key {
				return group
			}
		}
	}
	return []string{key}
}

// Has reports whether key or any of its aliases is present.
func (l Layer) Has(key string) bool {
	_, ok := l.Lookup(Aliases(key)...)
	return ok
}

// WithDefaults returns a copy of l with the options of defaults that l does
// not already set under any alias.
func (l Layer) WithDefaults(defaults Layer) Layer {
	out := l.Clone()
	if out == nil {
		out = Layer{}
	}
	for _, k := range defaults.Keys() {
		if !l.Has(k) {
			out[k] = defaults[k]
		}
	}
	return out
}

// Lookup returns the value of the first key present, so aliases resolve in
// order: Lookup("quality", "q").
func (l Layer) Lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := l[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// Sub returns the nested layer stored under the first key present, or nil.
func (l Layer) Sub(keys ...string) Layer {
	v, ok := l.Lookup(keys...)
	if !ok {
		return nil
	}
	return asLayer(v)
}

// Keys returns the layer's keys sorted, so validation reports errors in a
// stable order.
func (l Layer) Keys() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of the layer.
func (l Layer) Clone() Layer {
	if l == nil {
		return nil
	}
	out := make(Layer, len(l))
	for k, v := range l {
		if sub := asLayer(v); sub != nil {
			out[k] = sub.Clone()
			continue
		}
		out[k] = v
	}
	return out
}

func asLayer(v any) Layer {
	switch m := v.(type) {
	case Layer:
		return m
	case map[string]any:
		return Layer(m)
	case map[any]any:
		out := make(Layer, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out
	}
	return nil
}

// truthy reports whether a tri-state flag is on: present and not "false".
func truthy(v any, ok bool) bool {
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) != "false"
}

// toInt parses a numeric option the way a query string carries it. It reads
// a leading integer, so "80", 80, 80.0 and "80px" all give 80.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case bool:
		return 0, false
	}

	s := strings.TrimSpace(fmt.Sprint(v))
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
