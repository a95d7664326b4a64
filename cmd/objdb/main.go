package main

import (
	"os"

	"github.com/FlavioFalcao/object-recognition-core/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
