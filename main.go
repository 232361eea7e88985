package main

import (
	"os"

	"github.com/grovetools/altsync/cmd"
)

func main() {
	// cli.Execute has already printed the error
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
