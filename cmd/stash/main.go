package main

import "github.com/ssargent/stash/cmd/stash/cmd"

func main() {
	cmd.Execute()
}
