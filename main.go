// Package main is the entry point of the gost-sbom service and CLI.
package main

import (
	"os"

	"github.com/ortelius/gost-sbom/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
