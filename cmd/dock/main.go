package main

import "github.com/skorokithakis/dock/internal/cli"

func main() {
	cli.Execute()
}
