package httpengine

import (
	"context"
	"io"
	"net/http"
)

// Request describes one HTTP call. It is built per call and never reused.
type Request struct {
	// Method is the HTTP verb. Any valid token is accepted, e.g. "COPY".
	Method string

	// URL is the absolute target URL.
	URL string

	// Header holds extra request headers, notably Content-Type.
	Header http.Header

	// Body is the request body source. Nil sends no body.
	Body io.Reader

	// Sink receives the response body. Nil discards it.
	Sink io.Writer

	// ErrorSink, when set, receives the response body instead of Sink for
	// non-2xx statuses.
	ErrorSink io.Writer
}

// Response is the outcome of a completed round trip.
type Response struct {
	StatusCode int
	Header     http.Header

	// Written is the number of body bytes copied to the sink.
	Written int64
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Engine performs HTTP round trips.
type Engine interface {
	// Perform executes req and blocks until the response body has been fully
	// copied to the sink. An error means the round trip itself failed; any
	// HTTP status, including 4xx and 5xx, is reported through Response.
	Perform(ctx context.Context, req *Request) (*Response, error)
}
