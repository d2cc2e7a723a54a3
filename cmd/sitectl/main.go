package main

import "github.com/harrylevesque/sectorgate/internal/cli"

func main() {
	cli.Execute()
}
