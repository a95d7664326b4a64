// Package objectdb defines a generic object database: collections of JSON
// documents versioned by opaque revision tokens, with named binary
// attachments.
//
// # Core Concepts
//
//  1. Collection: a named grouping of documents (a CouchDB database).
//
//  2. Document: a Fields tree identified by a DocumentID. Every mutation is
//     answered by the store with a new RevisionID.
//
//  3. Revision token: opaque, owned by the caller. The latest known value
//     must be passed into the next mutating call; stores reject stale tokens.
//
//  4. Attachment: a named blob owned by one document revision.
//
// # Errors
//
// Every operation returns an *Error naming the failed operation. Match the
// cause with errors.Is against the sentinels (ErrInvalidArgument,
// ErrProtocol, ErrTransport, ErrNotFound, ErrConflict, ErrNotImplemented) or
// with errors.As against *MissingFieldError, *InvalidFieldError and
// *StatusError.
//
// Adapters live under adapters/, e.g. adapters/couch.
package objectdb
