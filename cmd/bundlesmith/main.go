package main

import (
	"os"

	"github.com/bundlesmith/bundlesmith/pkg/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
