package main

import (
	"os"

	"github.com/daromanx/qa-tracker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
