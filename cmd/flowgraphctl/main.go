// Command flowgraphctl validates and runs declarative experiment
// descriptions.
package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/flowgraph/cmd/flowgraphctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
