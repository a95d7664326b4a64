package couch

import (
	"net/url"
	"strings"

	"github.com/FlavioFalcao/object-recognition-core/pkg/objectdb"
)

// Document ids with these prefixes address special documents whose first
// slash must stay literal in the path.
var reservedPrefixes = []string{"_design/", "_local/"}

// resourcePath returns {base}/{collection} for an empty id, otherwise
// {base}/{collection}/{id}.
func (a *Adapter) resourcePath(collection, id string) string {
	p := a.base + "/" + url.PathEscape(collection)
	if id == "" {
		return p
	}
	return p + "/" + escapeDocID(id)
}

// attachmentPath returns the resource path of the attachment name.
func (a *Adapter) attachmentPath(collection, id, name string) string {
	return a.resourcePath(collection, id) + "/" + url.PathEscape(name)
}

// attachmentWritePath is attachmentPath with the revision being written
// against.
func (a *Adapter) attachmentWritePath(collection, id, name, rev string) string {
	return a.attachmentPath(collection, id, name) + "?rev=" + url.QueryEscape(rev)
}

func escapeDocID(id string) string {
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(id, prefix) && len(id) > len(prefix) {
			return prefix[:len(prefix)-1] + "/" + url.PathEscape(id[len(prefix):])
		}
	}
	return url.PathEscape(id)
}

// Preconditions. They run before any I/O.

func requireCollection(op, collection string) error {
	if collection == "" {
		return invalid(op, "collection name is required")
	}
	return nil
}

func requireID(op, id string) error {
	if id == "" {
		return invalid(op, "document id is required")
	}
	return nil
}

func requireRev(op, rev string) error {
	if rev == "" {
		return invalid(op, "revision id is required")
	}
	return nil
}

func requireAttachment(op, name string) error {
	if name == "" {
		return invalid(op, "attachment name is required")
	}
	return nil
}

func invalid(op, msg string) error {
	return &objectdb.Error{Op: op, Err: objectdb.ErrInvalidArgument, Msg: msg}
}
