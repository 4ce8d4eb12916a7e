package main

import (
	"os"

	"github.com/plectrum/plectrum/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
