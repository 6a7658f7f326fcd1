package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"plancraft/internal/assertion"
	"plancraft/internal/formatting"
)

func newAssertionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "assertion",
		Aliases: []string{"assertions"},
		Short:   "Explore the assertion rule model",
		Long: `Explore which comparisons each assertion source supports and how an
assertion is repaired when its source changes.

Examples:
  plancraft assertion comparisons
  plancraft assertion comparisons header
  plancraft assertion repair status_code --source header --property Content-Type --comparison contains --target json`,
	}
	cmd.AddCommand(newComparisonsCmd(), newRepairCmd())
	return cmd
}

type comparisonRow struct {
	Source           assertion.Source       `json:"source"`
	PropertyRequired bool                   `json:"propertyRequired"`
	Comparisons      []assertion.Comparison `json:"comparisons"`
}

func newComparisonsCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "comparisons [source]",
		Short:     "List the comparisons legal for each assertion source",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: sourceNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := outputFormatter()
			if err != nil {
				return err
			}

			sources := assertion.Sources
			if len(args) == 1 {
				src, err := assertion.ParseSource(args[0])
				if err != nil {
					return err
				}
				sources = []assertion.Source{src}
			}

			entries := make([]comparisonRow, 0, len(sources))
			rows := make([][]string, 0, len(sources))
			for _, src := range sources {
				legal := assertion.LegalComparisons(src)
				entries = append(entries, comparisonRow{Source: src, PropertyRequired: assertion.PropertyRequired(src), Comparisons: legal})

				names := make([]string, len(legal))
				for i, c := range legal {
					names[i] = string(c)
				}
				rows = append(rows, []string{string(src), yesNo(assertion.PropertyRequired(src)), strings.Join(names, ", ")})
			}

			if f.GetOptions().Format == formatting.FormatTable {
				fmt.Fprintln(cmd.OutOrStdout(), f.FormatRows([]string{"Source", "Property", "Comparisons"}, rows))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), f.FormatValue(entries))
			return nil
		},
	}
}

func newRepairCmd() *cobra.Command {
	var (
		from       string
		property   string
		comparison string
		target     string
	)
	cmd := &cobra.Command{
		Use:   "repair <new-source>",
		Short: "Show how an assertion changes when moved to a new source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := outputFormatter()
			if err != nil {
				return err
			}

			to, err := assertion.ParseSource(args[0])
			if err != nil {
				return err
			}
			src, err := assertion.ParseSource(from)
			if err != nil {
				return err
			}
			cmp, err := assertion.ParseComparison(comparison)
			if err != nil {
				return err
			}

			before := assertion.Record{Source: src, Property: property, Comparison: cmp, TargetValue: target, Enabled: true}
			after := assertion.Repair(before, to)

			if f.GetOptions().Format != formatting.FormatTable {
				fmt.Fprintln(cmd.OutOrStdout(), f.FormatValue(map[string]interface{}{
					"before":   assertion.ToWire(before),
					"after":    assertion.ToWire(after),
					"problems": assertion.Check(after),
				}))
				return nil
			}

			rows := [][]string{
				{"before", string(before.Source), before.Property, string(before.Comparison), before.TargetValue},
				{"after", string(after.Source), after.Property, string(after.Comparison), after.TargetValue},
			}
			fmt.Fprintln(cmd.OutOrStdout(), f.FormatRows([]string{"", "Source", "Property", "Comparison", "Target"}, rows))
			for _, p := range assertion.Check(after) {
				fmt.Fprintf(cmd.OutOrStdout(), "Note: %s\n", p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "source", string(assertion.SourceStatusCode), "Current source")
	cmd.Flags().StringVar(&property, "property", "", "Current property (header name or JSON path)")
	cmd.Flags().StringVar(&comparison, "comparison", string(assertion.Equals), "Current comparison")
	cmd.Flags().StringVar(&target, "target", "", "Current target value")
	return cmd
}

func sourceNames() []string {
	names := make([]string, len(assertion.Sources))
	for i, s := range assertion.Sources {
		names[i] = string(s)
	}
	return names
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// outputFormatter builds a formatter from --output for commands that need
// no configuration.
func outputFormatter() (formatting.Formatter, error) {
	format, err := formatting.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return formatting.New(formatting.Options{Format: format}), nil
}
