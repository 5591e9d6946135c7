package dataset

import (
	"fmt"
	"maps"
	"slices"
)

// Attrs is a set of dataset or variable attributes as decoded from JSON:
// strings, float64 numbers, bools, lists and nested maps.
type Attrs map[string]any

func (a Attrs) clone() Attrs {
	if a == nil {
		return Attrs{}
	}
	return maps.Clone(a)
}

// Has reports whether key is present.
func (a Attrs) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// String returns the attribute when it is a string.
func (a Attrs) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Text formats any attribute value as a string. Missing keys yield "".
func (a Attrs) Text(key string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Keys returns the attribute names, sorted.
func (a Attrs) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}
