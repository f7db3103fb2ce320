package main

import (
	"github.com/lcwatch/lcw/cmd/lcw/commands"
)

func main() {
	commands.Execute()
}
