package main

import (
	"os"

	"github.com/rustyeddy/fxreplay/cmd/fxreplay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
