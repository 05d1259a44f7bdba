package main

import "github.com/oshokin/goose-belt/cmd/gbelt/cmd"

func main() {
	cmd.Execute()
}
