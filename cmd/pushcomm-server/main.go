// Command pushcomm-server runs the push communication directory as an HTTP
// service.
//
// Usage:
//
//	pushcomm-server migrate --config config.yaml
//	pushcomm-server serve --config config.yaml
package main

import (
	"fmt"
	"os"

	"github.com/coregx/pushcomm/cmd/pushcomm-server/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
