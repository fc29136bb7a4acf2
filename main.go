package main

import "github.com/dexmac221/AgentsTeam/cmd"

func main() {
	cmd.Execute()
}
