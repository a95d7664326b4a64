package httpengine

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
	httptrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/net/http"
)

// Config configures an HTTPEngine. Timeouts belong here; the adapters above
// the engine expose none of their own.
type Config struct {
	// Timeout bounds a whole round trip, body included. Zero means no limit.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// Username and Password enable HTTP basic auth on every request.
	Username string
	Password string

	// UserAgent overrides the default Go user agent.
	UserAgent string

	// Trace wraps the client with Datadog APM tracing.
	Trace bool

	// Transport replaces the process-wide transport, e.g. in tests.
	Transport http.RoundTripper
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.Password, validation.When(c.Username == "", validation.Empty.Error("requires username"))),
	)
}

// HTTPEngine is the net/http implementation of Engine.
type HTTPEngine struct {
	client    *http.Client
	username  string
	password  string
	userAgent string
	logger    hclog.Logger
}

var _ Engine = (*HTTPEngine)(nil)

// New creates an engine. Unless cfg.Transport is set, Init must have been
// called first.
func New(cfg Config, logger hclog.Logger) (*HTTPEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	rt := cfg.Transport
	if rt == nil {
		shared, err := sharedTransport()
		if err != nil {
			return nil, err
		}
		rt = shared
		if cfg.InsecureSkipVerify {
			t := shared.Clone()
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
			rt = t
		}
	}

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: rt,
	}
	if cfg.Trace {
		client = httptrace.WrapClient(client, httptrace.RTWithServiceName("couchdb"))
	}

	return &HTTPEngine{
		client:    client,
		username:  cfg.Username,
		password:  cfg.Password,
		userAgent: cfg.UserAgent,
		logger:    logger.Named("httpengine"),
	}, nil
}

// Perform implements Engine.
func (e *HTTPEngine) Perform(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if e.username != "" {
		httpReq.SetBasicAuth(e.username, e.password)
	}
	if e.userAgent != "" {
		httpReq.Header.Set("User-Agent", e.userAgent)
	}

	start := time.Now()
	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	sink := req.Sink
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if req.ErrorSink != nil {
			sink = req.ErrorSink
		}
	}
	if sink == nil {
		sink = io.Discard
	}

	n, err := io.Copy(sink, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	e.logger.Trace("round trip complete",
		"method", req.Method,
		"url", req.URL,
		"status", resp.StatusCode,
		"bytes", n,
		"duration", time.Since(start))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Written:    n,
	}, nil
}
