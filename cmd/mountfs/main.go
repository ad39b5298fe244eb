package main

import "github.com/aweris/mountfs/cmd/mountfs/cmd"

func main() {
	cmd.Execute()
}
