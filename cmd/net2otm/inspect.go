package main

import (
	"io"

	"github.com/LdDl/net2otm"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	inspectInput string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Compile network in memory and print diagnostics",
	RunE: func(cmd *cobra.Command, args []string) error {
		scenario, err := compileNetwork(inspectInput, nil)
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), inspectInput, scenario.Report())
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectInput, "input", "i", "network.geojson", "Network file (.geojson, .json, .xml or .csv)")
	rootCmd.AddCommand(inspectCmd)
}

func printReport(w io.Writer, name string, report net2otm.CompileReport) {
	title := color.New(color.FgCyan, color.Bold)
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)

	title.Fprintf(w, "%s\n", name)
	ok.Fprintf(w, "\tNodes: %d\n\tLinks: %d\n\tRoad params: %d\n\tRoad connections: %d\n\tSplits: %d\n\tDemands: %d\n\tActuators: %d\n",
		report.Nodes, report.Links, report.RoadParams, report.Movements, report.Splits, report.Demands, report.Actuators)
	printCounter(w, ok, warn, "Weak components", report.Components, 1)
	printCounter(w, ok, warn, "Nodes without movements", report.DegenerateNodes, 0)
	printCounter(w, ok, warn, "Excluded boundary nodes", report.ExcludedBoundaryNodes, 0)
	printCounter(w, ok, warn, "Duplicated boundary nodes", report.DuplicatedBoundaryNodes, 0)
	printCounter(w, ok, warn, "Non-cardinal movements", report.NonCardinalMovements, 0)
	for _, warning := range report.Warnings {
		warn.Fprintf(w, "\t%s\n", warning)
	}
}

// printCounter highlights values exceeding expected one
func printCounter(w io.Writer, ok, warn *color.Color, name string, value, expected int) {
	c := ok
	if value > expected {
		c = warn
	}
	c.Fprintf(w, "\t%s: %d\n", name, value)
}
