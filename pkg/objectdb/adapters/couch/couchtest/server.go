// Package couchtest runs an in-memory, CouchDB-compatible HTTP server for
// tests. It covers the document and attachment API used by the couch adapter:
// database creation, document insert/update/fetch with revision checks, and
// attachment write/read.
package couchtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/FlavioFalcao/object-recognition-core/pkg/jsondoc"
)

type attachment struct {
	contentType string
	data        []byte
}

type document struct {
	rev         string
	fields      jsondoc.Tree
	attachments map[string]attachment
}

// Server is a fake CouchDB.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	dbs      map[string]map[string]*document
	username string
	password string
	requests atomic.Int64
}

// Option configures a Server.
type Option func(*Server)

// WithDatabases pre-creates databases.
func WithDatabases(names ...string) Option {
	return func(s *Server) {
		for _, n := range names {
			s.dbs[n] = map[string]*document{}
		}
	}
}

// WithBasicAuth makes the server require the given credentials.
func WithBasicAuth(username, password string) Option {
	return func(s *Server) {
		s.username, s.password = username, password
	}
}

// NewServer starts a fake CouchDB. Call Close when done.
func NewServer(opts ...Option) *Server {
	s := &Server{dbs: map[string]map[string]*document{}}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	return s
}

// RequestCount returns the number of requests served.
func (s *Server) RequestCount() int {
	return int(s.requests.Load())
}

// Revision returns the current revision of a document, or "" if it does not
// exist.
func (s *Server) Revision(db, id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.dbs[db][id]; ok {
		return doc.rev
	}
	return ""
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)

	if s.username != "" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.username || pass != s.password {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Name or password is incorrect.")
			return
		}
	}

	segs, err := splitPath(r.URL.EscapedPath())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case len(segs) == 0 && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"couchdb": "Welcome",
			"version": "3.3.3",
			"uuid":    "couchtest",
			"vendor":  map[string]any{"name": "couchtest"},
		})
	case len(segs) == 1 && r.Method == http.MethodPut:
		s.createDB(w, segs[0])
	case len(segs) == 1 && r.Method == http.MethodPost:
		s.insert(w, r, segs[0])
	case len(segs) == 2 && r.Method == http.MethodPut:
		s.put(w, r, segs[0], segs[1])
	case len(segs) == 2 && r.Method == http.MethodGet:
		s.get(w, segs[0], segs[1])
	case len(segs) == 3 && r.Method == http.MethodPut:
		s.putAttachment(w, r, segs[0], segs[1], segs[2])
	case len(segs) == 3 && r.Method == http.MethodGet:
		s.getAttachment(w, segs[0], segs[1], segs[2])
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only the document API is implemented.")
	}
}

func (s *Server) createDB(w http.ResponseWriter, db string) {
	if _, ok := s.dbs[db]; ok {
		writeError(w, http.StatusPreconditionFailed, "file_exists", "The database could not be created, the file already exists.")
		return
	}
	s.dbs[db] = map[string]*document{}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
}

func (s *Server) insert(w http.ResponseWriter, r *http.Request, db string) {
	docs, ok := s.database(w, db)
	if !ok {
		return
	}
	fields, ok := readBody(w, r)
	if !ok {
		return
	}
	id := fields.String("_id", "")
	if id == "" {
		id = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if _, exists := docs[id]; exists {
		writeError(w, http.StatusConflict, "conflict", "Document update conflict.")
		return
	}
	doc := &document{rev: nextRev(""), fields: fields, attachments: map[string]attachment{}}
	docs[id] = doc
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": id, "rev": doc.rev})
}

func (s *Server) put(w http.ResponseWriter, r *http.Request, db, id string) {
	docs, ok := s.database(w, db)
	if !ok {
		return
	}
	fields, ok := readBody(w, r)
	if !ok {
		return
	}
	rev := fields.String("_rev", r.URL.Query().Get("rev"))

	doc, exists := docs[id]
	switch {
	case exists && rev != doc.rev:
		writeError(w, http.StatusConflict, "conflict", "Document update conflict.")
		return
	case !exists && rev != "":
		writeError(w, http.StatusConflict, "conflict", "Document update conflict.")
		return
	case !exists:
		doc = &document{attachments: map[string]attachment{}}
		docs[id] = doc
	}
	doc.rev = nextRev(doc.rev)
	doc.fields = fields
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": id, "rev": doc.rev})
}

func (s *Server) get(w http.ResponseWriter, db, id string) {
	docs, ok := s.database(w, db)
	if !ok {
		return
	}
	doc, exists := docs[id]
	if !exists {
		writeError(w, http.StatusNotFound, "not_found", "missing")
		return
	}
	out := jsondoc.Tree{}
	for k, v := range doc.fields {
		out[k] = v
	}
	out["_id"] = id
	out["_rev"] = doc.rev
	if len(doc.attachments) > 0 {
		stubs := map[string]any{}
		for name, att := range doc.attachments {
			stubs[name] = map[string]any{
				"content_type": att.contentType,
				"length":       len(att.data),
				"stub":         true,
			}
		}
		out["_attachments"] = stubs
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = jsondoc.JSON.Write(w, out)
}

func (s *Server) putAttachment(w http.ResponseWriter, r *http.Request, db, id, name string) {
	docs, ok := s.database(w, db)
	if !ok {
		return
	}
	rev := r.URL.Query().Get("rev")
	doc, exists := docs[id]
	switch {
	case exists && rev != doc.rev:
		writeError(w, http.StatusConflict, "conflict", "Document update conflict.")
		return
	case !exists && rev != "":
		writeError(w, http.StatusConflict, "conflict", "Document update conflict.")
		return
	case !exists:
		doc = &document{fields: jsondoc.Tree{}, attachments: map[string]attachment{}}
		docs[id] = doc
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	doc.attachments[name] = attachment{contentType: contentType, data: data}
	doc.rev = nextRev(doc.rev)
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": id, "rev": doc.rev})
}

func (s *Server) getAttachment(w http.ResponseWriter, db, id, name string) {
	docs, ok := s.database(w, db)
	if !ok {
		return
	}
	doc, exists := docs[id]
	if !exists {
		writeError(w, http.StatusNotFound, "not_found", "missing")
		return
	}
	att, exists := doc.attachments[name]
	if !exists {
		writeError(w, http.StatusNotFound, "not_found", "Document is missing attachment")
		return
	}
	w.Header().Set("Content-Type", att.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(att.data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(att.data)
}

func (s *Server) database(w http.ResponseWriter, db string) (map[string]*document, bool) {
	docs, ok := s.dbs[db]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Database does not exist.")
	}
	return docs, ok
}

// splitPath unescapes path segments, joining "_design/" and "_local/"
// prefixes with the following segment as CouchDB does.
func splitPath(escaped string) ([]string, error) {
	var segs []string
	for _, p := range strings.Split(strings.Trim(escaped, "/"), "/") {
		if p == "" {
			continue
		}
		seg, err := url.PathUnescape(p)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	if len(segs) >= 3 && (segs[1] == "_design" || segs[1] == "_local") {
		segs = append([]string{segs[0], segs[1] + "/" + segs[2]}, segs[3:]...)
	}
	return segs, nil
}

func readBody(w http.ResponseWriter, r *http.Request) (jsondoc.Tree, bool) {
	tree, err := jsondoc.JSON.Read(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid UTF-8 JSON")
		return nil, false
	}
	return tree, true
}

func nextRev(rev string) string {
	n := 0
	if i := strings.IndexByte(rev, '-'); i > 0 {
		n, _ = strconv.Atoi(rev[:i])
	}
	return fmt.Sprintf("%d-%s", n+1, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, reason string) {
	writeJSON(w, status, map[string]string{"error": errType, "reason": reason})
}
