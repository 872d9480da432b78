package main

import "github.com/team-spiral-racing/tsr-ops/cmd"

func main() {
	cmd.Execute()
}
