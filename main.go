package main

import (
	"os"

	"github.com/scienceol/caffeinate/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
