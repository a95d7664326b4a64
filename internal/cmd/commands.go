package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/FlavioFalcao/object-recognition-core/internal/cmd/base"
	"github.com/FlavioFalcao/object-recognition-core/internal/cmd/commands/attachment"
	"github.com/FlavioFalcao/object-recognition-core/internal/cmd/commands/collection"
	"github.com/FlavioFalcao/object-recognition-core/internal/cmd/commands/document"
	"github.com/FlavioFalcao/object-recognition-core/internal/cmd/commands/ping"
	"github.com/FlavioFalcao/object-recognition-core/internal/cmd/commands/version"
)

// Commands is the mapping of all available objdb commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	registerCommands(base.NewCommand(log, ui))
}

func registerCommands(b *base.Command) {
	Commands = map[string]cli.CommandFactory{
		"ping": func() (cli.Command, error) {
			return &ping.Command{Command: b}, nil
		},
		"create-collection": func() (cli.Command, error) {
			return &collection.CreateCommand{Command: b}, nil
		},
		"insert": func() (cli.Command, error) {
			return &document.InsertCommand{Command: b}, nil
		},
		"update": func() (cli.Command, error) {
			return &document.UpdateCommand{Command: b}, nil
		},
		"fetch": func() (cli.Command, error) {
			return &document.FetchCommand{Command: b}, nil
		},
		"attach": func() (cli.Command, error) {
			return &attachment.AttachCommand{Command: b}, nil
		},
		"get-attachment": func() (cli.Command, error) {
			return &attachment.GetCommand{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
