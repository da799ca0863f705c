package main

import "earnquest-bot/cmd"

func main() {
	cmd.Execute()
}
