package main

import (
	"fmt"
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/cwbudde/flowgraph/cmd/flowgraphctl/cmd"
)

// TestMain lets testscript drive the flowgraphctl binary in-process: each
// txtar script under testdata/script runs `flowgraphctl` as if it were an
// external command, invoking cmd.Execute() itself rather than a build of
// the binary.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"flowgraphctl": run,
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}

func run() int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
