package main

import "github.com/finopshq/budgetwatch/internal/cli"

func main() {
	cli.Execute()
}
