package main

import "github.com/riskhound/faultquant/cmd/faultquant/commands"

func main() {
	commands.Execute()
}
