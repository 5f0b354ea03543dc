package main

import "github.com/arrivalkit/formpilot/cmd/formpilot/commands"

func main() {
	commands.Execute()
}
