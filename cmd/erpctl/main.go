package main

import "github.com/nurpe/erp-console/internal/cli"

func main() {
	cli.Execute()
}
