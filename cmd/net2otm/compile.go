package main

import (
	"github.com/LdDl/net2otm"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	compileInput    string
	compileOut      string
	compileLanes    string
	compileBoundary string
	compileWorkers  int
	compileSummary  bool
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile road network into scenario XML document",
	RunE: func(cmd *cobra.Command, args []string) error {
		scenario, err := compileNetwork(compileInput, func(cfg *net2otm.Config) error {
			if cmd.Flags().Changed("lanes") {
				if err := cfg.LanePolicy.UnmarshalText([]byte(compileLanes)); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("boundary") {
				if err := cfg.Boundary.UnmarshalText([]byte(compileBoundary)); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = compileWorkers
			}
			return nil
		})
		if err != nil {
			return err
		}
		if err := scenario.ExportToXML(compileOut); err != nil {
			return errors.Wrapf(err, "Can't write '%s'", compileOut)
		}
		if compileSummary {
			printReport(cmd.OutOrStdout(), compileOut, scenario.Report())
		}
		return nil
	},
}

func init() {
	compileCmd.Flags().StringVarP(&compileInput, "input", "i", "network.geojson", "Network file (.geojson, .json, .xml or .csv)")
	compileCmd.Flags().StringVarP(&compileOut, "out", "o", "scenario.xml", "Output scenario document")
	compileCmd.Flags().StringVar(&compileLanes, "lanes", "uniform", "Lane policy: uniform / per_turn")
	compileCmd.Flags().StringVar(&compileBoundary, "boundary", "strict", "Boundary policy: strict / duplicate_node")
	compileCmd.Flags().IntVar(&compileWorkers, "workers", 1, "Number of goroutines processing nodes")
	compileCmd.Flags().BoolVar(&compileSummary, "summary", true, "Print compilation summary")
	rootCmd.AddCommand(compileCmd)
}
