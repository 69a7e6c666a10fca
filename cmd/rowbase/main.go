// Package main is the entry point for the rowbase CLI.
package main

import (
	"fmt"
	"os"

	"github.com/rowbase/rowbase-go/cmd/rowbase/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
