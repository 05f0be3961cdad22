// Command ajoctl answers schedule and report questions directly from the
// SQLite store, without a running server.
package main

import (
	"fmt"
	"os"

	"ajo/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
