package base

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/FlavioFalcao/object-recognition-core/internal/config"
	"github.com/FlavioFalcao/object-recognition-core/pkg/httpengine"
	"github.com/FlavioFalcao/object-recognition-core/pkg/objectdb/adapters/couch"
)

// Command holds what every subcommand shares.
type Command struct {
	UI  cli.Ui
	Log hclog.Logger

	// Fs is where config and payload files are read from and written to.
	Fs afero.Fs
}

// NewCommand returns a Command backed by the OS filesystem.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{
		UI:  ui,
		Log: log,
		Fs:  afero.NewOsFs(),
	}
}

// LoadConfig parses the config file and applies its log level.
func (c *Command) LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config flag is required")
	}
	cfg, err := config.NewConfig(c.Fs, path)
	if err != nil {
		return nil, err
	}
	c.Log.SetLevel(cfg.Level())
	return cfg, nil
}

// Adapter loads the config and builds a CouchDB adapter. The returned
// release func must be called once the adapter is no longer used.
func (c *Command) Adapter(path string) (*couch.Adapter, func(), error) {
	cfg, err := c.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}

	if err := httpengine.Init(); err != nil {
		return nil, nil, fmt.Errorf("error initializing HTTP engine: %w", err)
	}
	a, err := couch.NewAdapter(cfg.CouchDB, c.Log)
	if err != nil {
		httpengine.Shutdown()
		return nil, nil, err
	}
	return a, httpengine.Shutdown, nil
}

// Context returns a context canceled on interrupt or SIGTERM.
func (c *Command) Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// FlagSet wraps flag.FlagSet with help rendering.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps f.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: f}
}

// Help renders the flags for a command's Help text.
func (f *FlagSet) Help() string {
	var b strings.Builder
	first := true
	f.VisitAll(func(fl *flag.Flag) {
		if first {
			b.WriteString("\n\nOptions:\n")
			first = false
		}
		fmt.Fprintf(&b, "\n  -%s", fl.Name)
		if fl.DefValue != "" && fl.DefValue != "false" {
			fmt.Fprintf(&b, "=%s", fl.DefValue)
		}
		fmt.Fprintf(&b, "\n      %s\n", fl.Usage)
	})
	return b.String()
}
