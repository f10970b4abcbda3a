package main

import "github.com/grump/agentguard/internal/cli"

func main() {
	cli.Execute()
}
