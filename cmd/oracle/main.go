package main

import (
	"os"

	"github.com/harun/oracle/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
