package main

import (
	"os"

	"github.com/savevault/savevault/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
