package net2otm

import (
	"github.com/pkg/errors"
)

// PhaseBucket is a named group of non-conflicting movement types released together
type PhaseBucket struct {
	Name      string                  `yaml:"name"`
	Movements []MovementCompositeType `yaml:"movements"`
}

func (bucket PhaseBucket) contains(mvmtType MovementCompositeType) bool {
	for _, m := range bucket.Movements {
		if m == mvmtType {
			return true
		}
	}
	return false
}

// PhaseTiming holds fixed timing parameters of every phase (seconds)
type PhaseTiming struct {
	Yellow   float64 `yaml:"yellow"`
	RedClear float64 `yaml:"red_clear"`
	MinGreen float64 `yaml:"min_green"`
}

type PhaseConfig struct {
	Buckets []PhaseBucket `yaml:"buckets"`
	Timing  PhaseTiming   `yaml:"timing"`
	// SignalizeAll puts an actuator on every node with movements. Otherwise only nodes with 'signal' control type get one
	SignalizeAll bool `yaml:"signalize_all"`
	// StrictCardinal reports movements not aligned to the cardinal directions as unsupported topology
	StrictCardinal bool `yaml:"strict_cardinal"`
}

func DefaultPhaseConfig() PhaseConfig {
	return PhaseConfig{
		Buckets: []PhaseBucket{
			{Name: "ns", Movements: []MovementCompositeType{MOVEMENT_NBT, MOVEMENT_SBT, MOVEMENT_NBR, MOVEMENT_SBR}},
			{Name: "ew", Movements: []MovementCompositeType{MOVEMENT_EBT, MOVEMENT_WBT, MOVEMENT_EBR, MOVEMENT_WBR}},
			{Name: "left_ns", Movements: []MovementCompositeType{MOVEMENT_NBL, MOVEMENT_SBL}},
			{Name: "left_ew", Movements: []MovementCompositeType{MOVEMENT_EBL, MOVEMENT_WBL}},
		},
		Timing: PhaseTiming{
			Yellow:   3,
			RedClear: 2,
			MinGreen: 5,
		},
		SignalizeAll: true,
	}
}

func (cfg PhaseConfig) validate() error {
	if len(cfg.Buckets) == 0 {
		return errors.Wrap(ErrInvalidConfig, "at least one phase bucket is required")
	}
	for i, bucket := range cfg.Buckets {
		if bucket.Name == "" {
			return errors.Wrapf(ErrInvalidConfig, "phase bucket %d has no name", i)
		}
		for _, mvmt := range bucket.Movements {
			if mvmt == MOVEMENT_NONE || mvmt > MOVEMENT_WBL {
				return errors.Wrapf(ErrInvalidConfig, "phase bucket '%s' contains unknown movement", bucket.Name)
			}
		}
	}
	if cfg.Timing.Yellow < 0 || cfg.Timing.RedClear < 0 || cfg.Timing.MinGreen < 0 {
		return errors.Wrap(ErrInvalidConfig, "phase timings must not be negative")
	}
	return nil
}

// SignalPhase is a group of road connections released together by a controller
type SignalPhase struct {
	Name              string
	RoadConnectionIDs []MovementID
	ID                int
	YellowTime        float64
	RedClearTime      float64
	MinGreenTime      float64
}

// Actuator is a traffic signal placed at a node
type Actuator struct {
	Phases []*SignalPhase
	ID     int
	NodeID NetworkNodeID
}

func (cfg PhaseConfig) signalized(node *NetworkNode) bool {
	return cfg.SignalizeAll || node.controlType == IS_SIGNAL
}

// genPhases groups movements of a single node into phases. Phase identifier is the bucket index;
// empty buckets are skipped. Movements are expected in ascending identifier order
func (cfg PhaseConfig) genPhases(movements []*Movement) []*SignalPhase {
	phases := make([]*SignalPhase, 0, len(cfg.Buckets))
	for bucketIdx, bucket := range cfg.Buckets {
		rcs := make([]MovementID, 0)
		for _, mvmt := range movements {
			if bucket.contains(mvmt.movementCompositeType) {
				rcs = append(rcs, mvmt.ID)
			}
		}
		if len(rcs) == 0 {
			continue
		}
		phases = append(phases, &SignalPhase{
			Name:              bucket.Name,
			RoadConnectionIDs: rcs,
			ID:                bucketIdx,
			YellowTime:        cfg.Timing.Yellow,
			RedClearTime:      cfg.Timing.RedClear,
			MinGreenTime:      cfg.Timing.MinGreen,
		})
	}
	return phases
}

// unsupportedTopology builds diagnostic for a node having movements which are not aligned to cardinal directions
func unsupportedTopology(nodeID NetworkNodeID, movements int) error {
	return errors.Wrapf(ErrUnsupportedTopology, "node %d: %d movement(s) are not aligned to cardinal directions, nearest direction is used", nodeID, movements)
}
