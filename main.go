package main

import (
	"github.com/markuphq/markup/cmd"
)

func main() {
	cmd.Execute()
}
