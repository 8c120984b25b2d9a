package main

import (
	"fmt"

	"nexora/pkg/version"
)

// printVersion prints the version information
func printVersion() {
	fmt.Printf("nexora version %s\n", version.Version)
	fmt.Printf("  commit: %s\n", version.Commit)
	fmt.Printf("  built: %s\n", version.Date)
	fmt.Printf("  platform: %s\n", version.Platform())
}
