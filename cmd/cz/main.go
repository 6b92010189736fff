package main

import (
	"os"

	"czar/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
