package jsondoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNotObject is returned when a document's top-level value is not a JSON
// object.
var ErrNotObject = errors.New("document is not a JSON object")

// Codec reads and writes structured documents.
type Codec interface {
	// Read parses a byte stream into a tree.
	Read(r io.Reader) (Tree, error)

	// Write serializes a tree to w.
	Write(w io.Writer, t Tree) error
}

// JSON is the default Codec.
var JSON Codec = jsonCodec{}

type jsonCodec struct{}

var _ Codec = jsonCodec{}

func (jsonCodec) Read(r io.Reader) (Tree, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
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

func (jsonCodec) Write(w io.Writer, t Tree) error {
	if t == nil {
		t = Tree{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(t)); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// Parse is a convenience wrapper reading a tree from a byte slice.
func Parse(b []byte) (Tree, error) {
	return JSON.Read(bytes.NewReader(b))
}
