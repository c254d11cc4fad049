// Package main is the entry point for stepscope, a terminal debugger front
// end for Debug Adapter Protocol adapters.
package main

import (
	"context"
	"fmt"
	"os"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCommand(os.Stdin, os.Stdout)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
