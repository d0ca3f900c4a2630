package main

import "github.com/trace2e-io/trace2e/internal/cli"

func main() {
	cli.Execute()
}
