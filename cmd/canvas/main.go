// Package main provides the entry point for the canvas CLI.
package main

import (
	"fmt"
	"os"

	"github.com/mcp-x-studio/canvas/cmd/canvas/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
