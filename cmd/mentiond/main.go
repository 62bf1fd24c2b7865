package main

import (
	"os"

	"github.com/bridgekit/mentiond/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
