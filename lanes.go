package net2otm

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type LanePolicy uint16

const (
	// LANES_UNIFORM gives the full lane range of the link to every movement
	LANES_UNIFORM = LanePolicy(iota + 1)
	// LANES_PER_TURN reserves inner lanes for left turns and outer lanes for right turns
	LANES_PER_TURN
)

func (iotaIdx LanePolicy) String() string {
	return [...]string{"undefined", "uniform", "per_turn"}[iotaIdx]
}

func (iotaIdx LanePolicy) MarshalText() ([]byte, error) {
	return []byte(iotaIdx.String()), nil
}

func (iotaIdx *LanePolicy) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "uniform":
		*iotaIdx = LANES_UNIFORM
	case "per_turn", "per-turn":
		*iotaIdx = LANES_PER_TURN
	default:
		return errors.Errorf("unknown lane policy '%s'", string(text))
	}
	return nil
}

// TurnLanes is the number of lanes dedicated to turning movements on multi-lane links
type TurnLanes struct {
	Left  int `yaml:"left"`
	Right int `yaml:"right"`
}

// laneRange is an inclusive 1-based lane interval
type laneRange struct {
	start int
	end   int
}

func (lr laneRange) String() string {
	return fmt.Sprintf("%d#%d", lr.start, lr.end)
}

func parseLaneRange(s string) (laneRange, error) {
	var lr laneRange
	if _, err := fmt.Sscanf(s, "%d#%d", &lr.start, &lr.end); err != nil {
		return lr, errors.Wrapf(err, "Can't parse lane range '%s'", s)
	}
	return lr, nil
}

// allocateLanes returns lane range used by the movement on the link with the given number of lanes
func allocateLanes(policy LanePolicy, turnLanes TurnLanes, handedness Handedness, movementType MovementType, lanes int) laneRange {
	full := laneRange{start: 1, end: lanes}
	if policy != LANES_PER_TURN || lanes <= 1 {
		return full
	}
	inner, outer := turnLanes.Left, turnLanes.Right
	innerTurn, outerTurn := MOVEMENT_LEFT, MOVEMENT_RIGHT
	if handedness == LEFT_HAND_TRAFFIC {
		inner, outer = turnLanes.Right, turnLanes.Left
		innerTurn, outerTurn = MOVEMENT_RIGHT, MOVEMENT_LEFT
	}
	switch movementType {
	case innerTurn:
		return laneRange{start: 1, end: minInt(lanes, 1+inner)}
	case outerTurn:
		return laneRange{start: maxInt(1, lanes-outer), end: lanes}
	}
	return full
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
