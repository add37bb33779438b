package main

import "github.com/gato-vcs/gato/internal/cli"

func main() {
	cli.Execute()
}
