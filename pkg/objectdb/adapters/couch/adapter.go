// Package couch implements objectdb.ObjectDB on top of the CouchDB HTTP API.
//
// Every operation maps to exactly one request:
//
//	InsertDocument   POST {base}/{collection}
//	UpdateDocument   PUT  {base}/{collection}/{id}
//	FetchDocument    GET  {base}/{collection}/{id}
//	WriteAttachment  PUT  {base}/{collection}/{id}/{name}?rev={rev}
//	ReadAttachment   GET  {base}/{collection}/{id}/{name}
//
// Mutations answer with the new revision token, which the caller must pass
// into its next mutation of the same document. The adapter never caches
// revisions and never retries.
package couch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/FlavioFalcao/object-recognition-core/pkg/httpengine"
	"github.com/FlavioFalcao/object-recognition-core/pkg/jsondoc"
	"github.com/FlavioFalcao/object-recognition-core/pkg/metrics"
	"github.com/FlavioFalcao/object-recognition-core/pkg/objectdb"
)

const contentTypeJSON = "application/json"

// Adapter is a CouchDB client. It is safe for concurrent use: each call
// builds its own request and checks out its own buffers.
type Adapter struct {
	cfg     *Config
	base    string
	engine  httpengine.Engine
	codec   jsondoc.Codec
	logger  hclog.Logger
	buffers sync.Pool
}

var (
	_ objectdb.ObjectDB          = (*Adapter)(nil)
	_ objectdb.CollectionManager = (*Adapter)(nil)
)

// Option customizes an Adapter.
type Option func(*Adapter)

// WithEngine replaces the HTTP engine built from the config.
func WithEngine(e httpengine.Engine) Option {
	return func(a *Adapter) {
		a.engine = e
	}
}

// WithCodec replaces the JSON codec.
func WithCodec(c jsondoc.Codec) Option {
	return func(a *Adapter) {
		a.codec = c
	}
}

// NewAdapter creates a CouchDB adapter. Without WithEngine the adapter builds
// an httpengine.HTTPEngine, which requires httpengine.Init.
func NewAdapter(cfg *Config, logger hclog.Logger, opts ...Option) (*Adapter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("invalid CouchDB configuration: config is required")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid CouchDB configuration: %w", err)
	}

	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	a := &Adapter{
		cfg:    cfg,
		base:   cfg.URL,
		codec:  jsondoc.JSON,
		logger: logger.Named("couch"),
	}
	a.buffers.New = func() any { return new(bytes.Buffer) }
	for _, opt := range opts {
		opt(a)
	}

	if a.engine == nil {
		e, err := httpengine.New(cfg.EngineConfig(), a.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP engine: %w", err)
		}
		a.engine = e
	}

	a.logger.Debug("CouchDB adapter initialized", "url", a.base)
	return a, nil
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return "couchdb"
}

// URL returns the server root the adapter talks to.
func (a *Adapter) URL() string {
	return a.base
}

// InsertDocument implements objectdb.ObjectDB.
func (a *Adapter) InsertDocument(ctx context.Context, collection string, fields objectdb.Fields) (string, string, error) {
	const op = "InsertDocument"
	if err := requireCollection(op, collection); err != nil {
		return "", "", err
	}

	body, err := a.uploadJSON(ctx, op, http.MethodPost, a.resourcePath(collection, ""), fields)
	if err != nil {
		return "", "", err
	}

	id, rev, err := a.documentAndRevision(body)
	if err != nil {
		return "", "", &objectdb.Error{Op: op, Err: err}
	}
	a.logger.Trace("document inserted", "collection", collection, "id", id, "rev", rev)
	return id, rev, nil
}

// UpdateDocument implements objectdb.ObjectDB.
func (a *Adapter) UpdateDocument(ctx context.Context, id, collection string, fields objectdb.Fields) (string, error) {
	const op = "UpdateDocument"
	if err := requireID(op, id); err != nil {
		return "", err
	}
	if err := requireCollection(op, collection); err != nil {
		return "", err
	}

	body, err := a.uploadJSON(ctx, op, http.MethodPut, a.resourcePath(collection, id), fields)
	if err != nil {
		return "", err
	}

	rev, err := a.revisionOnly(body)
	if err != nil {
		return "", &objectdb.Error{Op: op, Err: err}
	}
	a.logger.Trace("document updated", "collection", collection, "id", id, "rev", rev)
	return rev, nil
}

// FetchDocument implements objectdb.ObjectDB. On a non-success status, or a
// body that cannot be decoded, *dst is left untouched and an error is
// returned; a missing document matches objectdb.ErrNotFound.
func (a *Adapter) FetchDocument(ctx context.Context, id, collection string, dst *objectdb.Fields) error {
	const op = "FetchDocument"
	if err := requireID(op, id); err != nil {
		return err
	}
	if err := requireCollection(op, collection); err != nil {
		return err
	}
	if dst == nil {
		return invalid(op, "destination is required")
	}

	buf := a.getBuffer()
	defer a.putBuffer(buf)

	if err := a.perform(ctx, op, &httpengine.Request{
		Method: http.MethodGet,
		URL:    a.resourcePath(collection, id),
		Header: http.Header{"Accept": []string{contentTypeJSON}},
		Sink:   buf,
	}); err != nil {
		return err
	}

	tree, err := a.codec.Read(buf)
	if err != nil {
		return &objectdb.Error{Op: op, Err: fmt.Errorf("%w: %w", objectdb.ErrProtocol, err)}
	}
	*dst = tree
	return nil
}

// WriteAttachment implements objectdb.ObjectDB.
func (a *Adapter) WriteAttachment(ctx context.Context, id, collection, name, mimeType string, r io.Reader, rev string) (string, error) {
	const op = "WriteAttachment"
	if err := requireID(op, id); err != nil {
		return "", err
	}
	if err := requireRev(op, rev); err != nil {
		return "", err
	}
	if err := requireCollection(op, collection); err != nil {
		return "", err
	}
	if err := requireAttachment(op, name); err != nil {
		return "", err
	}

	buf := a.getBuffer()
	defer a.putBuffer(buf)

	header := http.Header{"Accept": []string{contentTypeJSON}}
	if mimeType != "" {
		header.Set("Content-Type", mimeType)
	}
	if err := a.perform(ctx, op, &httpengine.Request{
		Method: http.MethodPut,
		URL:    a.attachmentWritePath(collection, id, name, rev),
		Header: header,
		Body:   r,
		Sink:   buf,
	}); err != nil {
		return "", err
	}

	newRev, err := a.revisionOnly(buf.Bytes())
	if err != nil {
		return "", &objectdb.Error{Op: op, Err: err}
	}
	a.logger.Trace("attachment written", "collection", collection, "id", id, "attachment", name, "rev", newRev)
	return newRev, nil
}

// ReadAttachment implements objectdb.ObjectDB. Only a successful response
// body is written to w.
func (a *Adapter) ReadAttachment(ctx context.Context, id, collection, name, contentType string, w io.Writer) error {
	const op = "ReadAttachment"
	if err := requireID(op, id); err != nil {
		return err
	}
	if err := requireCollection(op, collection); err != nil {
		return err
	}
	if err := requireAttachment(op, name); err != nil {
		return err
	}

	header := http.Header{}
	if contentType != "" {
		header.Set("Accept", contentType)
	}
	return a.perform(ctx, op, &httpengine.Request{
		Method: http.MethodGet,
		URL:    a.attachmentPath(collection, id, name),
		Header: header,
		Sink:   w,
	})
}

// Query implements objectdb.ObjectDB. View queries are not supported by this
// adapter; Query never touches the network.
func (a *Adapter) Query(ctx context.Context, queries []string, collection string, limitRows, startOffset int) (objectdb.QueryResult, error) {
	return objectdb.QueryResult{}, &objectdb.Error{
		Op:  "Query",
		Err: objectdb.ErrNotImplemented,
		Msg: "map-reduce view queries are not supported by the CouchDB adapter",
	}
}

// EnsureCollection implements objectdb.CollectionManager. An existing
// collection is not an error.
func (a *Adapter) EnsureCollection(ctx context.Context, collection string) error {
	const op = "EnsureCollection"
	if err := requireCollection(op, collection); err != nil {
		return err
	}

	buf := a.getBuffer()
	defer a.putBuffer(buf)

	resp, err := a.roundTrip(ctx, op, &httpengine.Request{
		Method:    http.MethodPut,
		URL:       a.resourcePath(collection, ""),
		Header:    http.Header{"Accept": []string{contentTypeJSON}},
		ErrorSink: buf,
	})
	if err != nil {
		return err
	}
	switch {
	case resp.OK():
		a.logger.Info("collection created", "collection", collection)
		return nil
	case resp.StatusCode == http.StatusPreconditionFailed:
		return nil
	}
	return &objectdb.Error{Op: op, Err: statusError(resp.StatusCode, buf.Bytes())}
}

// ServerInfo is the welcome document served at the CouchDB root.
type ServerInfo struct {
	CouchDB string `json:"couchdb"`
	Version string `json:"version"`
	UUID    string `json:"uuid"`
	Vendor  string `json:"-"`
}

// Ping fetches the server welcome document.
func (a *Adapter) Ping(ctx context.Context) (ServerInfo, error) {
	const op = "Ping"

	buf := a.getBuffer()
	defer a.putBuffer(buf)

	if err := a.perform(ctx, op, &httpengine.Request{
		Method: http.MethodGet,
		URL:    a.base + "/",
		Header: http.Header{"Accept": []string{contentTypeJSON}},
		Sink:   buf,
	}); err != nil {
		return ServerInfo{}, err
	}

	tree, err := a.parseResponse(buf.Bytes())
	if err != nil {
		return ServerInfo{}, &objectdb.Error{Op: op, Err: err}
	}
	var info ServerInfo
	if err := tree.Decode(&info); err != nil {
		return ServerInfo{}, &objectdb.Error{Op: op, Err: fmt.Errorf("%w: %w", objectdb.ErrProtocol, err)}
	}
	info.Vendor = tree.String("vendor.name", "")
	return info, nil
}

// uploadJSON sends fields as a JSON body and returns the success response
// body. The returned slice is a copy; the pooled buffer is released.
func (a *Adapter) uploadJSON(ctx context.Context, op, method, url string, fields objectdb.Fields) ([]byte, error) {
	reqBuf := a.getBuffer()
	defer a.putBuffer(reqBuf)
	respBuf := a.getBuffer()
	defer a.putBuffer(respBuf)

	if err := a.codec.Write(reqBuf, fields); err != nil {
		return nil, &objectdb.Error{Op: op, Err: fmt.Errorf("%w: %w", objectdb.ErrInvalidArgument, err)}
	}

	if err := a.perform(ctx, op, &httpengine.Request{
		Method: method,
		URL:    url,
		Header: http.Header{
			"Content-Type": []string{contentTypeJSON},
			"Accept":       []string{contentTypeJSON},
		},
		Body: reqBuf,
		Sink: respBuf,
	}); err != nil {
		return nil, err
	}
	return bytes.Clone(respBuf.Bytes()), nil
}

// perform runs req and converts every non-2xx status into a *StatusError.
// req.ErrorSink is set here, so error bodies never reach req.Sink.
func (a *Adapter) perform(ctx context.Context, op string, req *httpengine.Request) error {
	errBuf := a.getBuffer()
	defer a.putBuffer(errBuf)
	req.ErrorSink = errBuf

	resp, err := a.roundTrip(ctx, op, req)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &objectdb.Error{Op: op, Err: statusError(resp.StatusCode, errBuf.Bytes())}
	}
	return nil
}

// roundTrip performs one engine call, logging it and recording metrics.
func (a *Adapter) roundTrip(ctx context.Context, op string, req *httpengine.Request) (*httpengine.Response, error) {
	a.logger.Debug("request", "op", op, "method", req.Method, "url", req.URL)

	start := time.Now()
	resp, err := a.engine.Perform(ctx, req)
	metrics.CouchRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CouchRequests.WithLabelValues(op, "error").Inc()
		return nil, &objectdb.Error{Op: op, Err: fmt.Errorf("%w: %w", objectdb.ErrTransport, err)}
	}
	metrics.CouchRequests.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	a.logger.Trace("response", "op", op, "status", resp.StatusCode, "bytes", resp.Written)
	return resp, nil
}

func (a *Adapter) getBuffer() *bytes.Buffer {
	buf := a.buffers.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func (a *Adapter) putBuffer(buf *bytes.Buffer) {
	buf.Reset()
	a.buffers.Put(buf)
}
