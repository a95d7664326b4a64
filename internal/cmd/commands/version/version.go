package version

import (
	"github.com/FlavioFalcao/object-recognition-core/internal/cmd/base"
	"github.com/FlavioFalcao/object-recognition-core/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the objdb version"
}

func (c *Command) Help() string {
	return `Usage: objdb version

  Print the objdb version.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.Version)
	return 0
}
