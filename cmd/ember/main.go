package main

import "github.com/emberfocus/ember/internal/cli"

func main() {
	cli.Execute()
}
