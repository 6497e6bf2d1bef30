package main

import "github.com/RoscoeTheDog/codectx/cmd"

func main() {
	cmd.Execute()
}
