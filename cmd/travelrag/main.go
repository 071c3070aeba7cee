// Command travelrag answers questions about tourist attractions using a
// locally built retrieval corpus.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/travelrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/travelrag/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.Close()

	cli.SetVersion(version)
	cli.SetRuntime(a)

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
