package document

import (
	"bytes"
	"flag"
	"fmt"
	"strings"

	"github.com/FlavioFalcao/object-recognition-core/internal/cmd/base"
	"github.com/FlavioFalcao/object-recognition-core/pkg/jsondoc"
	"github.com/FlavioFalcao/object-recognition-core/pkg/objectdb"
)

type FetchCommand struct {
	*base.Command

	flagConfig string
	flagFormat string
}

func (c *FetchCommand) Synopsis() string {
	return "Print a document"
}

func (c *FetchCommand) Help() string {
	return `Usage: objdb fetch [options] <collection> <id>

  Fetch a document and print it as JSON or YAML.` + c.Flags().Help()
}

func (c *FetchCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("fetch", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to objdb config file",
	)
	f.StringVar(
		&c.flagFormat, "format", "json", "Output format: json or yaml.",
	)

	return f
}

func (c *FetchCommand) Run(args []string) int {
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

	var codec jsondoc.Codec
	switch c.flagFormat {
	case "json":
		codec = jsondoc.JSON
	case "yaml":
		codec = jsondoc.YAML
	default:
		c.UI.Error(fmt.Sprintf("unsupported format %q: must be json or yaml", c.flagFormat))
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

	var doc objectdb.Fields
	if err := adapter.FetchDocument(ctx, id, collection, &doc); err != nil {
		c.UI.Error(fmt.Sprintf("error fetching document %q: %v", id, err))
		return 1
	}

	var buf bytes.Buffer
	if err := codec.Write(&buf, doc); err != nil {
		c.UI.Error(fmt.Sprintf("error encoding document: %v", err))
		return 1
	}
	c.UI.Output(strings.TrimRight(buf.String(), "\n"))
	return 0
}
