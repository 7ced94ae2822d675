package main

import "github.com/volinit-project/volinit/internal/cli"

func main() {
	cli.Execute()
}
