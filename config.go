package net2otm

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// CommodityConfig declares a vehicle class. Empty Subnetworks means every subnetwork of the network
type CommodityConfig struct {
	Name        string `yaml:"name"`
	Subnetworks []int  `yaml:"subnetworks"`
	ID          int    `yaml:"id"`
	Pathfull    bool   `yaml:"pathfull"`
}

type ControllerConfig struct {
	Type       string  `yaml:"type"`
	SensorType string  `yaml:"sensor_type"`
	ID         int     `yaml:"id"`
	Dt         float64 `yaml:"dt"`
	SensorDt   float64 `yaml:"sensor_dt"`
	Enabled    bool    `yaml:"enabled"`
}

type PluginConfig struct {
	Name   string `yaml:"name"`
	Folder string `yaml:"folder"`
	Class  string `yaml:"class"`
}

type ModelConfig struct {
	Type          string  `yaml:"type"`
	Name          string  `yaml:"name"`
	MaxCellLength float64 `yaml:"max_cell_length"`
	SimDt         float64 `yaml:"sim_dt"`
	IsDefault     bool    `yaml:"is_default"`
}

// Config is the immutable set of conventions and auxiliary declarations used by the compiler
type Config struct {
	Turns       TurnConvention    `yaml:"turns"`
	Phases      PhaseConfig       `yaml:"phases"`
	Demand      DemandProfile     `yaml:"demand"`
	Commodities []CommodityConfig `yaml:"commodities"`
	Plugins     []PluginConfig    `yaml:"plugins"`
	Controller  ControllerConfig  `yaml:"controller"`
	Model       ModelConfig       `yaml:"model"`
	TurnLanes   TurnLanes         `yaml:"turn_lanes"`
	LanePolicy  LanePolicy        `yaml:"lane_policy"`
	Boundary    BoundaryPolicy    `yaml:"boundary"`
	// Workers is the number of goroutines processing nodes. Values below 2 mean sequential processing
	Workers int `yaml:"workers"`
}

func DefaultConfig() Config {
	return Config{
		Turns:  DefaultTurnConvention(),
		Phases: DefaultPhaseConfig(),
		Demand: DemandProfile{
			StartTime: 0,
			Dt:        28000,
			Values:    []float64{600},
		},
		Commodities: []CommodityConfig{
			{ID: 0, Name: "car"},
		},
		Plugins: []PluginConfig{
			{Name: "linkpressure", Folder: "", Class: "ControllerSignalPretimedInternal"},
		},
		Controller: ControllerConfig{
			Type:       "linkpressure",
			SensorType: "fixed",
			ID:         0,
			Dt:         2,
			SensorDt:   2,
			Enabled:    true,
		},
		Model: ModelConfig{
			Type:          "point_queue",
			Name:          "my_model",
			MaxCellLength: 20,
			SimDt:         2,
			IsDefault:     true,
		},
		TurnLanes:  TurnLanes{Left: 1, Right: 1},
		LanePolicy: LANES_UNIFORM,
		Boundary:   BOUNDARY_STRICT,
		Workers:    1,
	}
}

// LoadConfig reads YAML file and puts its values over DefaultConfig
func LoadConfig(fname string) (Config, error) {
	cfg := DefaultConfig()
	file, err := os.Open(fname)
	if err != nil {
		return cfg, errors.Wrap(err, "Can't open config file")
	}
	defer file.Close()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, errors.Wrap(err, "Can't decode config file")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks config for consistency
func (cfg Config) Validate() error {
	if err := cfg.Turns.validate(); err != nil {
		return err
	}
	if err := cfg.Phases.validate(); err != nil {
		return err
	}
	if cfg.LanePolicy != LANES_UNIFORM && cfg.LanePolicy != LANES_PER_TURN {
		return errors.Wrapf(ErrInvalidConfig, "unknown lane policy %d", cfg.LanePolicy)
	}
	if cfg.TurnLanes.Left < 0 || cfg.TurnLanes.Right < 0 {
		return errors.Wrap(ErrInvalidConfig, "turn lanes must not be negative")
	}
	if cfg.Boundary != BOUNDARY_STRICT && cfg.Boundary != BOUNDARY_DUPLICATE_NODE {
		return errors.Wrapf(ErrInvalidConfig, "unknown boundary policy %d", cfg.Boundary)
	}
	if cfg.Demand.Dt <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "demand dt must be positive, got %v", cfg.Demand.Dt)
	}
	if len(cfg.Demand.Values) == 0 {
		return errors.Wrap(ErrInvalidConfig, "demand profile must contain at least one value")
	}
	for _, v := range cfg.Demand.Values {
		if v < 0 || !isFinite(v) {
			return errors.Wrapf(ErrInvalidConfig, "demand value must be non-negative, got %v", v)
		}
	}
	if len(cfg.Commodities) == 0 {
		return errors.Wrap(ErrInvalidConfig, "at least one commodity is required")
	}
	seen := make(map[int]struct{}, len(cfg.Commodities))
	for _, commodity := range cfg.Commodities {
		if _, ok := seen[commodity.ID]; ok {
			return errors.Wrapf(ErrInvalidConfig, "duplicate commodity %d", commodity.ID)
		}
		seen[commodity.ID] = struct{}{}
		if commodity.Name == "" {
			return errors.Wrapf(ErrInvalidConfig, "commodity %d has no name", commodity.ID)
		}
	}
	if cfg.Controller.Enabled && (cfg.Controller.Dt <= 0 || cfg.Controller.SensorDt <= 0) {
		return errors.Wrap(ErrInvalidConfig, "controller and sensor dt must be positive")
	}
	if cfg.Model.SimDt <= 0 || cfg.Model.MaxCellLength <= 0 {
		return errors.Wrap(ErrInvalidConfig, "model sim_dt and max_cell_length must be positive")
	}
	if cfg.Workers < 0 {
		return errors.Wrapf(ErrInvalidConfig, "workers number must not be negative, got %d", cfg.Workers)
	}
	return nil
}

func (cfg Config) commodityIDs() []CommodityID {
	ids := make([]CommodityID, 0, len(cfg.Commodities))
	for _, commodity := range cfg.Commodities {
		ids = append(ids, CommodityID(commodity.ID))
	}
	return ids
}

func (cfg Config) movementSettings() movementSettings {
	return movementSettings{
		turns:      cfg.Turns,
		lanePolicy: cfg.LanePolicy,
		turnLanes:  cfg.TurnLanes,
	}
}
