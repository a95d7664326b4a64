package jsondoc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Tree is a structured document: arbitrary nested JSON keyed by string.
type Tree map[string]any

// Lookup returns the value at the dotted key path and whether it exists.
// Intermediate path elements must be objects.
func (t Tree) Lookup(path string) (any, bool) {
	if t == nil || path == "" {
		return nil, false
	}

	var cur any = map[string]any(t)
	for _, key := range strings.Split(path, ".") {
		obj, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the string at path, or def when the path is absent or the
// value is not a string.
func (t Tree) String(path, def string) string {
	v, ok := t.Lookup(path)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// Int returns the integer at path, or def when the path is absent or the
// value is not an integral number.
func (t Tree) Int(path string, def int) int {
	v, ok := t.Lookup(path)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.Atoi(n.String())
		if err != nil {
			return def
		}
		return i
	case float64:
		if n != float64(int(n)) {
			return def
		}
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return def
}

// Bool returns the boolean at path, or def when absent or not a boolean.
func (t Tree) Bool(path string, def bool) bool {
	v, ok := t.Lookup(path)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// Set stores value at the dotted key path, creating intermediate objects.
func (t Tree) Set(path string, value any) {
	keys := strings.Split(path, ".")
	cur := map[string]any(t)
	for _, key := range keys[:len(keys)-1] {
		next, ok := asObject(cur[key])
		if !ok {
			next = map[string]any{}
			cur[key] = next
		}
		cur = next
	}
	cur[keys[len(keys)-1]] = value
}

// Decode copies the tree into out, which must be a pointer to a struct or
// map. Struct fields are matched by their json tag.
func (t Tree) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(t)); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

func asObject(v any) (map[string]any, bool) {
	switch o := v.(type) {
	case map[string]any:
		return o, true
	case Tree:
		return o, true
	}
	return nil, false
}
