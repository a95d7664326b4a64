package document

import (
	"flag"
	"fmt"

	"github.com/FlavioFalcao/object-recognition-core/internal/cmd/base"
)

type UpdateCommand struct {
	*base.Command

	flagConfig string
	flagData   string
	flagFile   string
	flagRev    string
}

func (c *UpdateCommand) Synopsis() string {
	return "Replace a document body and print the new revision"
}

func (c *UpdateCommand) Help() string {
	return `Usage: objdb update [options] <collection> <id>

  Replace the body of a document, creating it when it does not exist.
  Updating an existing document requires its current revision, passed with
  -rev or as "_rev" in the body.` + c.Flags().Help()
}

func (c *UpdateCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("update", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to objdb config file",
	)
	f.StringVar(
		&c.flagData, "data", "", "Document body as a JSON object.",
	)
	f.StringVar(
		&c.flagFile, "file", "", "Read the document body from a JSON or YAML file.",
	)
	f.StringVar(
		&c.flagRev, "rev", "", "Current revision of the document.",
	)

	return f
}

func (c *UpdateCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 2 {
		c.UI.Error("expected exactly two arguments: <collection> <id>")
		return 1
	}
	collection, id := f.Arg(0), f.Arg(1)

	fields, err := readFields(c.Fs, c.flagData, c.flagFile)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading document: %v", err))
		return 1
	}
	if c.flagRev != "" {
		fields.Set("_rev", c.flagRev)
	}

	adapter, release, err := c.Adapter(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing adapter: %v", err))
		return 1
	}
	defer release()

	ctx, cancel := c.Context()
	defer cancel()

	rev, err := adapter.UpdateDocument(ctx, id, collection, fields)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error updating document %q: %v", id, err))
		return 1
	}

	c.UI.Output(fmt.Sprintf("rev: %s", rev))
	return 0
}
