package main

import (
	"fmt"
	"os"

	"github.com/rshade/footprint-estimator/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[footprint] Error: %v\n", err)
		os.Exit(1)
	}
}
