package main

import (
	"os"

	"github.com/apt777/finance-app/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
