// Package main is the entry point for the swarmctl CLI.
package main

import (
	"os"

	"github.com/taskweave/swarmcore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
