package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/cwbudde/flowgraph/internal/issue"
	"github.com/cwbudde/flowgraph/pkg/experiment"
)

var fixCmd = &cobra.Command{
	Use:   "fix [description.yaml]",
	Short: "Strip dependency entries already implied by data references",
	Long: `Fix validates a description, finds every "redundant dependency"
warning (an explicit dependencies entry subsumed by a $-reference edge),
and prints a normalized JSON rewrite of the description with those
entries removed. The rewrite is surgical: only the flagged dependency
entries change, the rest of the document round-trips through the JSON
encoding untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runFix,
}

func init() {
	rootCmd.AddCommand(fixCmd)
}

func runFix(_ *cobra.Command, args []string) error {
	raw, err := loadDescription(args[0])
	if err != nil {
		return err
	}

	_, issues := experiment.Validate(raw)

	// raw holds order-preserving yaml.MapSlice mappings, which do not
	// encode as JSON objects; decode again into plain maps for the rewrite.
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	var plain any
	if err := yaml.Unmarshal(data, &plain); err != nil {
		return fmt.Errorf("fix: decoding description: %w", err)
	}

	doc, err := json.Marshal(plain)
	if err != nil {
		return fmt.Errorf("fix: re-encoding description as JSON: %w", err)
	}

	fixed := 0
	for _, iss := range issues.Warnings() {
		if iss.Kind != issue.KindRedundantDependent {
			continue
		}
		stepName, depName, ok := parseRedundantDependency(iss.Message)
		if !ok {
			continue
		}

		depsPath := fmt.Sprintf("graph.%s.dependencies", stepName)
		result := gjson.GetBytes(doc, depsPath)

		switch {
		case result.IsArray():
			var kept []string
			for _, v := range result.Array() {
				if v.String() != depName {
					kept = append(kept, v.String())
				}
			}
			doc, err = sjson.SetBytes(doc, depsPath, kept)
		case result.String() == depName:
			doc, err = sjson.DeleteBytes(doc, depsPath)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("fix: patching %s: %w", depsPath, err)
		}
		fixed++
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, doc, "", "  "); err != nil {
		return fmt.Errorf("fix: formatting result: %w", err)
	}
	fmt.Println(pretty.String())

	if verbose {
		fmt.Fprintf(os.Stderr, "removed %d redundant dependency entry(ies)\n", fixed)
	}
	return nil
}

// parseRedundantDependency extracts the step name and the now-redundant
// dependency name out of a KindRedundantDependent issue's message, always
// of the form: explicit dependency of "STEP" on "DEP" is already implied
// by a data reference.
func parseRedundantDependency(msg string) (step, dep string, ok bool) {
	parts := strings.Split(msg, `"`)
	if len(parts) < 4 {
		return "", "", false
	}
	return parts[1], parts[3], true
}
