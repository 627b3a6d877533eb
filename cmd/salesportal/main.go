package main

import (
	"github.com/matheusmosca/sales-portal/cmd/salesportal/commands"
)

var (
	version = "dev" // definido no build
)

func main() {
	commands.Version = version
	commands.Execute()
}
