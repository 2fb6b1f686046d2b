package main

import (
	"os"

	"loadscript/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
