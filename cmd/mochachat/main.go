package main

import "github.com/nfrund/mochachat/cmd/mochachat/cmd"

func main() {
	cmd.Execute()
}
