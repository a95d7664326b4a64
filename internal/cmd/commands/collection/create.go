package collection

import (
	"flag"
	"fmt"

	"github.com/FlavioFalcao/object-recognition-core/internal/cmd/base"
)

type CreateCommand struct {
	*base.Command

	flagConfig string
}

func (c *CreateCommand) Synopsis() string {
	return "Create a collection unless it already exists"
}

func (c *CreateCommand) Help() string {
	return `Usage: objdb create-collection [options] <collection>

  Create the named collection. An existing collection is left as is.` +
		c.Flags().Help()
}

func (c *CreateCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("create-collection", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to objdb config file",
	)

	return f
}

func (c *CreateCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("expected exactly one argument: <collection>")
		return 1
	}
	collection := f.Arg(0)

	adapter, release, err := c.Adapter(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing adapter: %v", err))
		return 1
	}
	defer release()

	ctx, cancel := c.Context()
	defer cancel()

	if err := adapter.EnsureCollection(ctx, collection); err != nil {
		c.UI.Error(fmt.Sprintf("error creating collection %q: %v", collection, err))
		return 1
	}

	c.UI.Info(fmt.Sprintf("collection %q is ready", collection))
	return 0
}
