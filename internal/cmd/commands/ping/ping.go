package ping

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/FlavioFalcao/object-recognition-core/internal/cmd/base"
	"github.com/FlavioFalcao/object-recognition-core/pkg/objectdb"
	"github.com/FlavioFalcao/object-recognition-core/pkg/objectdb/adapters/couch"
)

type Command struct {
	*base.Command

	flagConfig string
	flagWait   time.Duration
}

func (c *Command) Synopsis() string {
	return "Check that the object database is reachable"
}

func (c *Command) Help() string {
	return `Usage: objdb ping [options]

  Fetch the server welcome document. With -wait, retry with exponential
  backoff until the server answers or the wait elapses.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("ping", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to objdb config file",
	)
	f.DurationVar(
		&c.flagWait, "wait", 0,
		"Keep retrying for up to this long, e.g. 30s.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	adapter, release, err := c.Adapter(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing adapter: %v", err))
		return 1
	}
	defer release()

	ctx, cancel := c.Context()
	defer cancel()

	var info couch.ServerInfo
	op := func() error {
		var err error
		info, err = adapter.Ping(ctx)

		// The server answered; retrying will not change its mind.
		var statusErr *objectdb.StatusError
		if errors.As(err, &statusErr) {
			return backoff.Permanent(err)
		}
		return err
	}

	if c.flagWait > 0 {
		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = c.flagWait
		err = backoff.RetryNotify(op, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
			c.Log.Debug("ping failed, retrying", "error", err, "backoff", next)
		})
	} else {
		err = op()
	}
	if err != nil {
		c.UI.Error(fmt.Sprintf("error pinging %s: %v", adapter.URL(), err))
		return 1
	}

	c.UI.Output(fmt.Sprintf("%s: %s %s (vendor: %s, uuid: %s)",
		adapter.URL(), info.CouchDB, info.Version, info.Vendor, info.UUID))
	return 0
}
