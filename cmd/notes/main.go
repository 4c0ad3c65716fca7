package main

import (
	"os"

	"github.com/rustyeddy/notes/cmd/notes/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
