// # cmd/ratchet/main.go
package main

import (
	"os"

	"ratchet/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
