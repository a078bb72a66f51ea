package main

import "pharmarag/internal/cli"

func main() {
	cli.Execute()
}
