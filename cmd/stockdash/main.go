package main

import "github.com/marshallshelly/stockdash/cmd/stockdash/commands"

func main() {
	commands.Execute()
}
