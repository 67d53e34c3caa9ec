package main

import (
	"os"

	"github.com/forgeevents/eventcatalog/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
