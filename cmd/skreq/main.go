// Package main provides the skreq command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/sourcekit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
