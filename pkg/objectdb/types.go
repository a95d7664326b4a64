package objectdb

import "github.com/FlavioFalcao/object-recognition-core/pkg/jsondoc"

// CollectionName names a group of documents.
type CollectionName = string

// DocumentID identifies a document within a collection. It is assigned by the
// store on insert or chosen by the client.
type DocumentID = string

// RevisionID is the opaque version token assigned by the store on every
// mutation.
type RevisionID = string

// AttachmentName names a blob attached to a document.
type AttachmentName = string

// MimeType is the content type of an attachment, e.g. "image/png".
type MimeType = string

// Fields is the body of a document.
type Fields = jsondoc.Tree

// QueryResult is one page of a view query.
type QueryResult struct {
	TotalRows   int
	Offset      int
	DocumentIDs []DocumentID
}
