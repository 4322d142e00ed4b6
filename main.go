package main

import "github.com/tanq16/dl/cmd"

func main() {
	cmd.Execute()
}
