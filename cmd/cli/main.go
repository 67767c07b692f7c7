package main

import (
	"os"

	"github.com/appstore-dev/appstore/pkg/cli"
)

func main() {
	if err := cli.Root().Execute(); err != nil {
		os.Exit(1)
	}
}
