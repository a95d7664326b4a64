package document

import (
	"flag"
	"fmt"

	"github.com/FlavioFalcao/object-recognition-core/internal/cmd/base"
)

type InsertCommand struct {
	*base.Command

	flagConfig string
	flagData   string
	flagFile   string
}

func (c *InsertCommand) Synopsis() string {
	return "Insert a document and print its id and revision"
}

func (c *InsertCommand) Help() string {
	return `Usage: objdb insert [options] <collection>

  Insert a new document into the collection. The store assigns the id.` +
		c.Flags().Help()
}

func (c *InsertCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("insert", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to objdb config file",
	)
	f.StringVar(
		&c.flagData, "data", "", "Document body as a JSON object.",
	)
	f.StringVar(
		&c.flagFile, "file", "", "Read the document body from a JSON or YAML file.",
	)

	return f
}

func (c *InsertCommand) Run(args []string) int {
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

	fields, err := readFields(c.Fs, c.flagData, c.flagFile)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading document: %v", err))
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

	id, rev, err := adapter.InsertDocument(ctx, collection, fields)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error inserting document: %v", err))
		return 1
	}

	c.UI.Output(fmt.Sprintf("id:  %s\nrev: %s", id, rev))
	return 0
}
