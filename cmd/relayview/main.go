package main

import "github.com/mcoot/relayview/internal/cli"

func main() {
	cli.Execute()
}
