// Package enginetest provides a scripted httpengine.Engine for tests.
package enginetest

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/FlavioFalcao/object-recognition-core/pkg/httpengine"
)

// Reply is one scripted response.
type Reply struct {
	StatusCode int
	Header     http.Header
	Body       string

	// Err makes Perform fail as if the round trip broke.
	Err error
}

// Call is a recorded request.
type Call struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Stub replays scripted replies in order and records every call.
// When the script runs out the last reply is repeated.
type Stub struct {
	mu      sync.Mutex
	replies []Reply
	calls   []Call
}

var _ httpengine.Engine = (*Stub)(nil)

// New returns a stub that answers with replies.
func New(replies ...Reply) *Stub {
	return &Stub{replies: replies}
}

// JSON is a shortcut for a stub answering every call with status and body.
func JSON(status int, body string) *Stub {
	return New(Reply{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       body,
	})
}

// Perform implements httpengine.Engine.
func (s *Stub) Perform(ctx context.Context, req *httpengine.Request) (*httpengine.Response, error) {
	call := Call{
		Method: req.Method,
		URL:    req.URL,
		Header: req.Header.Clone(),
	}
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		call.Body = b
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	reply := Reply{StatusCode: http.StatusOK}
	if n := len(s.calls); len(s.replies) > 0 {
		if n > len(s.replies) {
			n = len(s.replies)
		}
		reply = s.replies[n-1]
	}
	s.mu.Unlock()

	if reply.Err != nil {
		return nil, reply.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp := &httpengine.Response{StatusCode: reply.StatusCode, Header: reply.Header}
	sink := req.Sink
	if !resp.OK() && req.ErrorSink != nil {
		sink = req.ErrorSink
	}
	if sink != nil {
		n, err := io.WriteString(sink, reply.Body)
		if err != nil {
			return nil, err
		}
		resp.Written = int64(n)
	}
	return resp, nil
}

// Calls returns a copy of the recorded calls.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns the number of Perform calls.
func (s *Stub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// LastCall returns the most recent call. It panics when there was none.
func (s *Stub) LastCall() Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}
