package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/flowgraph/internal/issue"
	"github.com/cwbudde/flowgraph/pkg/experiment"
)

var validateCmd = &cobra.Command{
	Use:   "validate [description.yaml]",
	Short: "Validate an experiment description",
	Long: `Validate checks an experiment description's shape, type universe,
reference graph, and task contracts, and prints every issue found.

Examples:
  flowgraphctl validate experiment.yaml
  flowgraphctl validate --quiet experiment.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var quiet bool

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress warnings, print only errors")
}

func runValidate(_ *cobra.Command, args []string) error {
	raw, err := loadDescription(args[0])
	if err != nil {
		return err
	}

	_, issues := experiment.Validate(raw)

	reported := issues
	if quiet {
		reported = issues.Errors()
	}
	if len(reported) > 0 {
		fmt.Print(issue.Format(reported))
	}

	if issues.HasErrors() {
		return fmt.Errorf("validation failed with %d error(s)", len(issues.Errors()))
	}
	if verbose {
		fmt.Fprintln(os.Stderr, "description is valid")
	}
	return nil
}

func loadDescription(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	raw, err := experiment.ParseYAML(data)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
