package main

import (
	"os"

	"github.com/tguellec/qcdispatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
