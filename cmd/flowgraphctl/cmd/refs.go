package cmd

import (
	"fmt"
	"os"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/cwbudde/flowgraph/internal/issue"
	"github.com/cwbudde/flowgraph/pkg/experiment"
)

var refsCmd = &cobra.Command{
	Use:   "refs [description.yaml]",
	Short: "Print the resolved dependency graph and step linearization",
	Long: `Refs validates a description, then prints the combined
dependency/data-reference graph and the deterministic topological order
the executor would run steps in. Useful for debugging why a step runs
where it does, or why a dependency was flagged as redundant.`,
	Args: cobra.ExactArgs(1),
	RunE: runRefs,
}

func init() {
	rootCmd.AddCommand(refsCmd)
}

func runRefs(_ *cobra.Command, args []string) error {
	raw, err := loadDescription(args[0])
	if err != nil {
		return err
	}

	desc, issues := experiment.Validate(raw)
	if len(issues) > 0 {
		fmt.Fprint(os.Stderr, issue.Format(issues))
	}
	if issues.HasErrors() {
		return fmt.Errorf("cannot inspect an invalid description")
	}

	plan := desc.Plan()
	order, _, ok := plan.Graph.TopoSort()
	if !ok {
		return fmt.Errorf("refs: plan graph unexpectedly contains a cycle")
	}

	fmt.Println("execution order:")
	for i, step := range order {
		deps := plan.Graph.Dependencies(step)
		fmt.Printf("  %d. %s", i+1, step)
		if len(deps) > 0 {
			fmt.Printf(" (depends on: %v)", deps)
		}
		fmt.Println()
	}

	if verbose {
		fmt.Println("\nparameters:")
		pretty.Println(plan.Params)
		fmt.Println("tasks:")
		pretty.Println(plan.Tasks)
	}

	return nil
}
