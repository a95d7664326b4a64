package jsondoc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// YAML reads and writes trees as YAML documents. Written json.Number values
// become plain YAML numbers.
var YAML Codec = yamlCodec{}

type yamlCodec struct{}

var _ Codec = yamlCodec{}

func (yamlCodec) Read(r io.Reader) (Tree, error) {
	var v any
	if err := yaml.NewDecoder(r).Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document: %w", ErrNotObject)
		}
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("got %T: %w", v, ErrNotObject)
	}
	return Tree(obj), nil
}

func (yamlCodec) Write(w io.Writer, t Tree) error {
	if t == nil {
		t = Tree{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(plainNumbers(map[string]any(t))); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return enc.Close()
}

// plainNumbers replaces json.Number values, which yaml would quote as
// strings, with int64 or float64.
func plainNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plainNumbers(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plainNumbers(e)
		}
		return out
	}
	return v
}
