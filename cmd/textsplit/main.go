package main

import "textsplit/internal/cli"

func main() {
	cli.Execute()
}
