// Command dupfind reports files with identical content.
package main

import (
	"fmt"
	"os"

	"github.com/idelchi/dupfind/internal/cli"
)

// version is set at build time.
var version = "unknown - unofficial & generated by unknown"

func main() {
	if err := cli.New(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
