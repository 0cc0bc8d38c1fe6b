package main

import (
	"os"

	"github.com/ammiranda/tree_diagram/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
