package objectdb

import (
	"context"
	"io"
)

// ObjectDB is the contract every object database adapter implements.
//
// Each method performs at most one round trip to the store and returns only
// once it has completed. Preconditions are checked before any I/O.
type ObjectDB interface {
	// InsertDocument creates a document from fields and returns the id and
	// first revision assigned by the store.
	InsertDocument(ctx context.Context, collection CollectionName, fields Fields) (DocumentID, RevisionID, error)

	// UpdateDocument replaces the document body and returns the new revision.
	// When the document exists, fields must carry its current revision the
	// way the store expects (CouchDB: "_rev").
	UpdateDocument(ctx context.Context, id DocumentID, collection CollectionName, fields Fields) (RevisionID, error)

	// FetchDocument loads the document into dst. On any failure dst is left
	// exactly as passed in.
	FetchDocument(ctx context.Context, id DocumentID, collection CollectionName, dst *Fields) error

	// WriteAttachment streams r as the named attachment, written against rev,
	// and returns the document's new revision.
	WriteAttachment(ctx context.Context, id DocumentID, collection CollectionName, name AttachmentName, mimeType MimeType, r io.Reader, rev RevisionID) (RevisionID, error)

	// ReadAttachment streams the named attachment into w.
	ReadAttachment(ctx context.Context, id DocumentID, collection CollectionName, name AttachmentName, contentType MimeType, w io.Writer) error

	// Query runs a map-reduce view with limit/skip pagination.
	Query(ctx context.Context, queries []string, collection CollectionName, limitRows, startOffset int) (QueryResult, error)
}

// CollectionManager is implemented by adapters that can create collections.
type CollectionManager interface {
	// EnsureCollection creates the collection unless it already exists.
	EnsureCollection(ctx context.Context, collection CollectionName) error
}
