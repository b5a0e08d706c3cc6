package main

import "remrun/cmd"

func main() {
	cmd.Execute()
}
