// # cmd/umlc/main.go
package main

import (
	"os"

	"umlc/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
