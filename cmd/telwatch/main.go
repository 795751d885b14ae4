package main

import (
	"os"

	"github.com/theirongolddev/telwatch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
