package main

import (
	"os"

	"github.com/recallhq/recall/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
