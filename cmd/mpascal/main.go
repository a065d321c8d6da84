package main

import (
	"os"

	"github.com/axill-mp/mpascal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
