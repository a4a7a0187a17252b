package main

import (
	"os"

	"github.com/old-castle-fansubs/vobsub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
