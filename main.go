package main

import "craftd/cmd"

func main() {
	cmd.Execute()
}
