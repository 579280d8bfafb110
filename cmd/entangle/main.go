package main

import (
	"os"

	"github.com/yshui/entangle/cmd/entangle/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
