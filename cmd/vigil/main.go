package main

import (
	"os"

	"github.com/grovetools/vigil/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
