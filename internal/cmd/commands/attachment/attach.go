package attachment

import (
	"flag"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/FlavioFalcao/object-recognition-core/internal/cmd/base"
)

type AttachCommand struct {
	*base.Command

	flagConfig string
	flagFile   string
	flagRev    string
	flagType   string
}

func (c *AttachCommand) Synopsis() string {
	return "Upload a file as a document attachment"
}

func (c *AttachCommand) Help() string {
	return `Usage: objdb attach [options] <collection> <id> <name>

  Upload a file as the named attachment of a document and print the
  document's new revision. The current revision is required.` + c.Flags().Help()
}

func (c *AttachCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("attach", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to objdb config file",
	)
	f.StringVar(
		&c.flagFile, "file", "", "(Required) File to upload.",
	)
	f.StringVar(
		&c.flagRev, "rev", "", "(Required) Current revision of the document.",
	)
	f.StringVar(
		&c.flagType, "type", "",
		"MIME type of the attachment. Guessed from the file extension when empty.",
	)

	return f
}

func (c *AttachCommand) Run(args []string) int {
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

	if c.flagFile == "" {
		c.UI.Error("file flag is required")
		return 1
	}
	mimeType := c.flagType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(c.flagFile))
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	file, err := c.Fs.Open(c.flagFile)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error opening file: %v", err))
		return 1
	}
	defer file.Close()

	adapter, release, err := c.Adapter(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing adapter: %v", err))
		return 1
	}
	defer release()

	ctx, cancel := c.Context()
	defer cancel()

	rev, err := adapter.WriteAttachment(ctx, id, collection, name, mimeType, file, c.flagRev)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error writing attachment %q: %v", name, err))
		return 1
	}

	c.UI.Output(fmt.Sprintf("rev: %s", rev))
	return 0
}
