package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/FlavioFalcao/object-recognition-core/pkg/objectdb/adapters/couch"
)

// Config contains the objdb configuration.
//
// Example:
//
//	log_level = "info"
//
//	couchdb {
//	  url      = "http://localhost:5984"
//	  username = "admin"
//	  password = env("COUCHDB_PASSWORD")
//	}
type Config struct {
	// LogLevel is one of trace, debug, info, warn, error. Default: info.
	LogLevel string `hcl:"log_level,optional"`

	// CouchDB configures the CouchDB adapter.
	CouchDB *couch.Config `hcl:"couchdb,block"`
}

// NewConfig parses the HCL file at path on fs. Relative paths resolve
// against the working directory. The env("NAME") function is available to
// every expression.
func NewConfig(fs afero.Fs, path string) (*Config, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// hclsimple picks the syntax from the file extension.
	filename := path
	if ext := filepath.Ext(path); ext != ".hcl" && ext != ".json" {
		filename = path + ".hcl"
	}

	var cfg Config
	if err := hclsimple.Decode(filename, src, evalContext(), &cfg); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// SetDefaults fills unset optional fields.
func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.CouchDB != nil {
		c.CouchDB.SetDefaults()
	}
}

// Validate checks if the configuration is valid. The couchdb block is
// validated through couch.Config.Validate.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "error")),
		validation.Field(&c.CouchDB, validation.Required.Error("couchdb block is required")),
	)
}

// Level returns LogLevel as an hclog level.
func (c *Config) Level() hclog.Level {
	return hclog.LevelFromString(c.LogLevel)
}

func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": envFunc,
		},
	}
}

// envFunc returns the value of an environment variable, or "" when unset.
var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})
