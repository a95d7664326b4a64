package attachment

import (
	"flag"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/FlavioFalcao/object-recognition-core/internal/cmd/base"
)

type GetCommand struct {
	*base.Command

	flagConfig string
	flagOut    string
	flagType   string
}

func (c *GetCommand) Synopsis() string {
	return "Download a document attachment to a file"
}

func (c *GetCommand) Help() string {
	return `Usage: objdb get-attachment [options] <collection> <id> <name>

  Download the named attachment of a document. The output file is only
  written when the download succeeds.` + c.Flags().Help()
}

func (c *GetCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("get-attachment", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to objdb config file",
	)
	f.StringVar(
		&c.flagOut, "out", "", "(Required) File to write the attachment to.",
	)
	f.StringVar(
		&c.flagType, "type", "", "MIME type to request.",
	)

	return f
}

func (c *GetCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 3 {
		c.UI.Error("expected exactly three arguments: <collection> <id> <name>")
		return 1
	}
	collection, id, name := f.Arg(0), f.Arg(1), f.Arg(2)

	if c.flagOut == "" {
		c.UI.Error("out flag is required")
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

	// Download into a temp file next to the target so a failed read never
	// leaves a partial file at -out.
	tmp, err := afero.TempFile(c.Fs, filepath.Dir(c.flagOut), ".objdb-*")
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating output file: %v", err))
		return 1
	}
	defer c.Fs.Remove(tmp.Name())

	if err := adapter.ReadAttachment(ctx, id, collection, name, c.flagType, tmp); err != nil {
		tmp.Close()
		c.UI.Error(fmt.Sprintf("error reading attachment %q: %v", name, err))
		return 1
	}
	if err := tmp.Close(); err != nil {
		c.UI.Error(fmt.Sprintf("error writing output file: %v", err))
		return 1
	}
	if err := c.Fs.Rename(tmp.Name(), c.flagOut); err != nil {
		c.UI.Error(fmt.Sprintf("error writing output file: %v", err))
		return 1
	}

	c.UI.Info(fmt.Sprintf("wrote attachment %q to %s", name, c.flagOut))
	return 0
}
