package couch

import (
	"errors"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/FlavioFalcao/object-recognition-core/pkg/httpengine"
)

// Config contains configuration for the CouchDB adapter.
//
// Example configuration (HCL):
//
//	couchdb {
//	  url                     = "http://localhost:5984"
//	  username                = "admin"
//	  password                = env("COUCHDB_PASSWORD")
//	  request_timeout_seconds = 30
//	}
type Config struct {
	// URL is the server root, e.g. "http://localhost:5984".
	URL string `hcl:"url" json:"url"`

	// Username and Password enable basic auth.
	Username string `hcl:"username,optional" json:"username,omitempty"`
	Password string `hcl:"password,optional" json:"-"`

	// RequestTimeoutSeconds bounds each round trip. Default: 30.
	RequestTimeoutSeconds int `hcl:"request_timeout_seconds,optional" json:"requestTimeoutSeconds,omitempty"`

	// InsecureSkipVerify disables TLS verification. Testing only.
	InsecureSkipVerify bool `hcl:"insecure_skip_verify,optional" json:"insecureSkipVerify,omitempty"`

	// UserAgent sent with every request.
	UserAgent string `hcl:"user_agent,optional" json:"userAgent,omitempty"`

	// Trace enables Datadog APM tracing of requests.
	Trace bool `hcl:"trace,optional" json:"trace,omitempty"`
}

// DefaultConfig returns a Config pointing at a local CouchDB.
func DefaultConfig() *Config {
	return &Config{
		URL:                   "http://localhost:5984",
		RequestTimeoutSeconds: 30,
		UserAgent:             "objdb",
	}
}

// SetDefaults fills unset optional fields.
func (c *Config) SetDefaults() {
	if c.RequestTimeoutSeconds == 0 {
		c.RequestTimeoutSeconds = 30
	}
	if c.UserAgent == "" {
		c.UserAgent = "objdb"
	}
	c.URL = strings.TrimRight(c.URL, "/")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required, validation.By(httpURL)),
		validation.Field(&c.RequestTimeoutSeconds, validation.Min(0)),
		validation.Field(&c.Password, validation.When(c.Username == "", validation.Empty.Error("requires username"))),
	)
}

// EngineConfig converts the adapter settings into an engine configuration.
func (c *Config) EngineConfig() httpengine.Config {
	return httpengine.Config{
		Timeout:            time.Duration(c.RequestTimeoutSeconds) * time.Second,
		InsecureSkipVerify: c.InsecureSkipVerify,
		Username:           c.Username,
		Password:           c.Password,
		UserAgent:          c.UserAgent,
		Trace:              c.Trace,
	}
}

func httpURL(value interface{}) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must use http or https scheme")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return errors.New("must not include a query or fragment")
	}
	return nil
}
