package main

import "tasublog/cmd"

func main() {
	cmd.Execute()
}
