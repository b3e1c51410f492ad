package main

import (
	"os"

	"github.com/dvloznov/orb-loader/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
