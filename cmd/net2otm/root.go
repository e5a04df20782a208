package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/LdDl/net2otm"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose    bool
	configPath string
	envFile    string
	mercator   bool
	logger     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "net2otm",
	Short: "net2otm compiles road network graphs into traffic simulation scenarios",
	Long: `net2otm turns a road network (nodes and directed links with lanes, speed and capacity)
into a scenario document for the simulation engine: road parameters, road connections,
splits, demands, sensors, controllers and signal phases.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnv(envFile); err != nil {
			return err
		}
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			return errors.Wrap(err, "Can't prepare logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose (development) logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration. Defaults are used when empty")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Path to .env file")
	rootCmd.PersistentFlags().BoolVar(&mercator, "mercator", false, "Treat GeoJSON coordinates as WGS84 longitude/latitude and project them to EPSG:3857")
}

// loadEnv reads .env file. Missing file is fine: the engine URL may come from the environment or flags
func loadEnv(fname string) error {
	err := godotenv.Load(fname)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "Can't read env file '%s'", fname)
	}
	return nil
}

// loadConfig reads configuration file if it has been provided
func loadConfig() (net2otm.Config, error) {
	if configPath == "" {
		return net2otm.DefaultConfig(), nil
	}
	return net2otm.LoadConfig(configPath)
}

// loadNetwork picks loader by file extension: .geojson/.json, .xml or .csv (pair of '_nodes.csv' and '_links.csv' files)
func loadNetwork(fname string) (*net2otm.Network, error) {
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".geojson", ".json":
		file, err := openFile(fname)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		if mercator {
			return net2otm.LoadGeoJSON(file, net2otm.WithWebMercator())
		}
		return net2otm.LoadGeoJSON(file)
	case ".xml":
		file, err := openFile(fname)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return net2otm.LoadScenarioXML(file)
	case ".csv":
		return net2otm.ImportFromCSV(fname)
	}
	return nil, errors.Errorf("unknown network format of '%s': expected .geojson, .json, .xml or .csv", fname)
}

// compileNetwork loads network and compiles it with configuration adjusted by command flags
func compileNetwork(fname string, adjust func(cfg *net2otm.Config) error) (*net2otm.Scenario, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if adjust != nil {
		if err := adjust(&cfg); err != nil {
			return nil, err
		}
	}
	net, err := loadNetwork(fname)
	if err != nil {
		return nil, errors.Wrap(err, "Can't load network")
	}
	compiler := net2otm.NewCompiler(
		net2otm.WithConfig(cfg),
		net2otm.WithLogger(logger),
	)
	return compiler.Compile(net)
}

func openFile(fname string) (*os.File, error) {
	file, err := os.Open(fname)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open '%s'", fname)
	}
	return file, nil
}
