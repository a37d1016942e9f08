package main

import "github.com/halolight/halolight/cmd/haloctl/cmd"

func main() {
	cmd.Execute()
}
