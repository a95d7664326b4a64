package httpengine

import (
	"errors"
	"net/http"
	"sync"
	"time"
)

// ErrNotInitialized is returned by New when Init has not been called and no
// custom transport was supplied.
var ErrNotInitialized = errors.New("httpengine: Init has not been called")

var lifecycle struct {
	mu        sync.Mutex
	refs      int
	transport *http.Transport
}

// Init acquires the process-wide transport, creating it on first use.
// Every successful Init must be paired with a Shutdown.
func Init() error {
	lifecycle.mu.Lock()
	defer lifecycle.mu.Unlock()

	if lifecycle.refs == 0 {
		lifecycle.transport = newTransport()
	}
	lifecycle.refs++
	return nil
}

// Shutdown releases one reference. The last release closes idle connections
// and drops the transport. Extra calls are no-ops.
func Shutdown() {
	lifecycle.mu.Lock()
	defer lifecycle.mu.Unlock()

	if lifecycle.refs == 0 {
		return
	}
	lifecycle.refs--
	if lifecycle.refs == 0 {
		lifecycle.transport.CloseIdleConnections()
		lifecycle.transport = nil
	}
}

// Initialized reports whether the process-wide transport is live.
func Initialized() bool {
	lifecycle.mu.Lock()
	defer lifecycle.mu.Unlock()
	return lifecycle.refs > 0
}

func sharedTransport() (*http.Transport, error) {
	lifecycle.mu.Lock()
	defer lifecycle.mu.Unlock()

	if lifecycle.transport == nil {
		return nil, ErrNotInitialized
	}
	return lifecycle.transport, nil
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 10
	t.IdleConnTimeout = 90 * time.Second
	return t
}
