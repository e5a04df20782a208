package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	exportInput   string
	exportOut     string
	exportGeoJSON string
)

var exportCmd = &cobra.Command{
	Use:   "export-csv",
	Short: "Export compiled nodes, links and road connections as CSV (and optionally GeoJSON)",
	Long: `Export compiled network as ';' separated CSV files with WKT geometry.
E.g.: if file name is 'map.csv' then 3 files will be produced: 'map_nodes.csv', 'map_links.csv', 'map_movement.csv'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scenario, err := compileNetwork(exportInput, nil)
		if err != nil {
			return err
		}
		if err := scenario.ExportToCSV(exportOut); err != nil {
			return err
		}
		if exportGeoJSON == "" {
			return nil
		}
		file, err := os.Create(exportGeoJSON)
		if err != nil {
			return errors.Wrap(err, "Can't create GeoJSON file")
		}
		defer file.Close()
		return scenario.ExportToGeoJSON(file)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportInput, "input", "i", "network.geojson", "Network file (.geojson, .json, .xml or .csv)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "network.csv", "Base name of output CSV files")
	exportCmd.Flags().StringVar(&exportGeoJSON, "geojson", "", "Optional GeoJSON output with nodes, links and road connections")
	rootCmd.AddCommand(exportCmd)
}
