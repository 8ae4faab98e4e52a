package cmd

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/cwbudde/flowgraph/internal/issue"
	"github.com/cwbudde/flowgraph/internal/plugin"
	"github.com/cwbudde/flowgraph/pkg/experiment"
)

var (
	paramsFile string
	pluginDir  string
	dumpTrace  bool
)

var runCmd = &cobra.Command{
	Use:   "run [description.yaml]",
	Short: "Validate and run an experiment description",
	Long: `Run validates an experiment description, binds the supplied parameter
values (falling back to declared defaults), loads task plugins from a
directory, and executes the step graph in dependency order.

Examples:
  flowgraphctl run experiment.yaml --params params.yaml --plugins ./plugins
  flowgraphctl run experiment.yaml --plugins ./plugins --trace`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&paramsFile, "params", "", "path to a YAML/JSON file of parameter values")
	runCmd.Flags().StringVar(&pluginDir, "plugins", "", "directory of .so plugin modules")
	runCmd.Flags().BoolVar(&dumpTrace, "trace", false, "dump per-step outcomes in detail")
}

func runRun(_ *cobra.Command, args []string) error {
	raw, err := loadDescription(args[0])
	if err != nil {
		return err
	}

	desc, issues := experiment.Validate(raw)
	if len(issues) > 0 {
		fmt.Fprint(os.Stderr, issue.Format(issues))
	}
	if issues.HasErrors() {
		return fmt.Errorf("cannot run an invalid description (%d error(s))", len(issues.Errors()))
	}

	params, err := loadParams(paramsFile)
	if err != nil {
		return err
	}

	if pluginDir == "" {
		return fmt.Errorf("--plugins is required: the engine has no built-in task behavior")
	}
	loader := plugin.NewDirLoader(pluginDir)

	result, err := desc.Run(params, loader, nil)
	if err != nil {
		return err
	}

	for _, outcome := range result.Outcomes {
		if outcome.Success {
			fmt.Printf("%s: ok\n", outcome.Step)
			if dumpTrace {
				pretty.Println(outcome.Outputs)
			}
		} else {
			fmt.Fprintf(os.Stderr, "%s: FAILED: %v\n", outcome.Step, outcome.Err)
		}
	}

	if result.Failed {
		return fmt.Errorf("experiment failed")
	}
	return nil
}

func loadParams(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	// A plain (unordered) decode yields map[string]any mappings at every
	// level, which is the shape parameter values are handed to plugins in.
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: decoding parameters: %w", path, err)
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: parameter file must decode to a mapping", path)
	}
	return m, nil
}
