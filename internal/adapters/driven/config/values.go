// Package config holds the dot-key value map shared by the config stores.
package config

import (
	"math"
	"sort"
	"strings"
	"sync"
)

// Values is a concurrency-safe map of dot-notation keys ("llm.model") to
// decoded values, with lenient typed accessors. A value of the wrong type
// reads as the zero value.
type Values struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewValues creates an empty value map.
func NewValues() *Values {
	return &Values{data: make(map[string]any)}
}

// Get returns the raw value for key.
func (v *Values) Get(key string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.data[key]
	return val, ok
}

// GetString returns key as a string.
func (v *Values) GetString(key string) string {
	s, _ := v.lookup(key).(string)
	return s
}

// GetInt returns key as an int. TOML decodes integers as int64; floats
// are accepted only when they hold a whole number.
func (v *Values) GetInt(key string) int {
	switch n := v.lookup(key).(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
	}
	return 0
}

// GetFloat returns key as a float64. Integers are converted since users
// rarely write 1.0 for 1.
func (v *Values) GetFloat(key string) float64 {
	switch n := v.lookup(key).(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// GetBool returns key as a bool.
func (v *Values) GetBool(key string) bool {
	b, _ := v.lookup(key).(bool)
	return b
}

// GetStringSlice returns key as a string slice, dropping non-string items.
func (v *Values) GetStringSlice(key string) []string {
	switch items := v.lookup(key).(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Put stores value under key.
func (v *Values) Put(key string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data[key] = value
}

// Replace swaps the whole map for a flattened copy of nested.
func (v *Values) Replace(nested map[string]any) {
	flat := Flatten(nested)
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data = flat
}

// Nested returns the values regrouped into tables by key prefix.
func (v *Values) Nested() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Nest(v.data)
}

// Keys returns the stored keys in sorted order.
func (v *Values) Keys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	keys := make([]string, 0, len(v.data))
	for k := range v.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v *Values) lookup(key string) any {
	val, _ := v.Get(key)
	return val
}

// Flatten turns nested tables into dot-notation keys:
// {"llm": {"model": "x"}} becomes {"llm.model": "x"}.
func Flatten(nested map[string]any) map[string]any {
	out := make(map[string]any)
	flattenInto(out, nested, "")
	return out
}

func flattenInto(out, m map[string]any, prefix string) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if table, ok := val.(map[string]any); ok {
			flattenInto(out, table, key)
			continue
		}
		out[key] = val
	}
}

// Nest is the inverse of Flatten. A key whose prefix is already taken by a
// scalar stays flat at the top level.
func Nest(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	// Shorter keys first so scalars claim their prefix before deeper keys.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})

	out := make(map[string]any)
	for _, key := range keys {
		parts := strings.Split(key, ".")
		table := out
		placed := true
		for _, part := range parts[:len(parts)-1] {
			next, exists := table[part]
			if !exists {
				child := make(map[string]any)
				table[part] = child
				table = child
				continue
			}
			child, ok := next.(map[string]any)
			if !ok {
				placed = false
				break
			}
			table = child
		}
		if placed {
			table[parts[len(parts)-1]] = flat[key]
		} else {
			out[key] = flat[key]
		}
	}
	return out
}
