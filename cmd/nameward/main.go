// Package main provides the nameward CLI.
package main

import "github.com/mesh-intelligence/nameward/internal/cli"

func main() {
	cli.Execute()
}
