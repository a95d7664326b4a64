package couch

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/FlavioFalcao/object-recognition-core/pkg/jsondoc"
	"github.com/FlavioFalcao/object-recognition-core/pkg/objectdb"
)

// documentAndRevision extracts both "id" and "rev" from a mutation response.
// Every missing or unusable field is reported, not just the first.
func (a *Adapter) documentAndRevision(body []byte) (string, string, error) {
	tree, err := a.parseResponse(body)
	if err != nil {
		return "", "", err
	}

	var result *multierror.Error
	id, err := stringField(tree, "id")
	if err != nil {
		result = multierror.Append(result, err)
	}
	rev, err := stringField(tree, "rev")
	if err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return "", "", err
	}
	return id, rev, nil
}

// revisionOnly extracts "rev" from a mutation response.
func (a *Adapter) revisionOnly(body []byte) (string, error) {
	tree, err := a.parseResponse(body)
	if err != nil {
		return "", err
	}
	return stringField(tree, "rev")
}

func (a *Adapter) parseResponse(body []byte) (jsondoc.Tree, error) {
	tree, err := a.codec.Read(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable response: %w", objectdb.ErrProtocol, err)
	}
	return tree, nil
}

// stringField distinguishes an absent key from one that is present but empty
// or not a string.
func stringField(tree jsondoc.Tree, key string) (string, error) {
	v, ok := tree.Lookup(key)
	if !ok {
		return "", &objectdb.MissingFieldError{Field: key}
	}
	s, ok := v.(string)
	if !ok {
		return "", &objectdb.InvalidFieldError{Field: key, Reason: fmt.Sprintf("a %s, not a string", jsonKind(v))}
	}
	if s == "" {
		return "", &objectdb.InvalidFieldError{Field: key, Reason: "empty"}
	}
	return s, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

// couchError is the error body CouchDB sends with non-2xx statuses.
type couchError struct {
	Type   string `json:"error"`
	Reason string `json:"reason"`
}

// statusError builds the error for a non-success status. The body is decoded
// when it carries CouchDB's error description and ignored otherwise.
func statusError(status int, body []byte) *objectdb.StatusError {
	var cErr couchError
	_ = json.Unmarshal(body, &cErr)
	return &objectdb.StatusError{
		StatusCode: status,
		Type:       cErr.Type,
		Reason:     cErr.Reason,
	}
}
