package main

import "sysdeck/internal/cli"

func main() {
	cli.Execute()
}
