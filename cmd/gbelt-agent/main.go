package main

import "github.com/oshokin/goose-belt/cmd/gbelt-agent/cmd"

func main() {
	cmd.Execute()
}
