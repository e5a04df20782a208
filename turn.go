package net2otm

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

type MovementType uint16

const (
	MOVEMENT_THRU = MovementType(iota + 1)
	MOVEMENT_RIGHT
	MOVEMENT_LEFT

	MOVEMENT_UNDEFINED = MovementType(0)
)

func (iotaIdx MovementType) String() string {
	return [...]string{"undefined", "thru", "right", "left"}[iotaIdx]
}

type Handedness uint16

const (
	RIGHT_HAND_TRAFFIC = Handedness(iota)
	LEFT_HAND_TRAFFIC
)

func (iotaIdx Handedness) String() string {
	return [...]string{"right", "left"}[iotaIdx]
}

func (iotaIdx Handedness) MarshalText() ([]byte, error) {
	return []byte(iotaIdx.String()), nil
}

func (iotaIdx *Handedness) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "right", "rht":
		*iotaIdx = RIGHT_HAND_TRAFFIC
	case "left", "lht":
		*iotaIdx = LEFT_HAND_TRAFFIC
	default:
		return errors.Errorf("unknown handedness '%s'", string(text))
	}
	return nil
}

// TurnDistance defines how the bearing difference is compared against canonical angles
type TurnDistance uint16

const (
	// TURN_DISTANCE_LINEAR compares the difference in [0, 2π) with canonical angles as plain numbers,
	// so every difference in (π, 2π) is nearer to 3π/2 than to 0
	TURN_DISTANCE_LINEAR = TurnDistance(iota)
	// TURN_DISTANCE_CIRCULAR compares angles on the circle, so a slight right bend stays through
	TURN_DISTANCE_CIRCULAR
)

func (iotaIdx TurnDistance) String() string {
	return [...]string{"linear", "circular"}[iotaIdx]
}

func (iotaIdx TurnDistance) MarshalText() ([]byte, error) {
	return []byte(iotaIdx.String()), nil
}

func (iotaIdx *TurnDistance) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "linear":
		*iotaIdx = TURN_DISTANCE_LINEAR
	case "circular":
		*iotaIdx = TURN_DISTANCE_CIRCULAR
	default:
		return errors.Errorf("unknown turn distance '%s'", string(text))
	}
	return nil
}

// TurnConvention holds canonical angles (radians) of the bearing difference `outgoing - incoming` for each turn.
// Bearings are measured counter-clockwise from +X axis in a y-up planar frame
type TurnConvention struct {
	Through float64 `yaml:"through"`
	Left    float64 `yaml:"left"`
	Right   float64 `yaml:"right"`
	// Handedness affects lane allocation only: on right-hand traffic left turns use inner lanes with the lowest numbers
	Handedness Handedness `yaml:"handedness"`
	// Distance is the metric used to pick the nearest canonical angle
	Distance TurnDistance `yaml:"distance"`
	// CardinalTolerance is the maximum deviation of incoming bearing from a cardinal direction
	// for a movement to be treated as aligned
	CardinalTolerance float64 `yaml:"cardinal_tolerance"`
}

func DefaultTurnConvention() TurnConvention {
	return TurnConvention{
		Through:           0,
		Left:              math.Pi / 2,
		Right:             3 * math.Pi / 2,
		Handedness:        RIGHT_HAND_TRAFFIC,
		Distance:          TURN_DISTANCE_LINEAR,
		CardinalTolerance: math.Pi / 8,
	}
}

// Classify returns turn of the movement from the incoming link with the given bearing to the outcoming one.
// The nearest canonical angle wins; ties are broken toward through, then left, then right
func (convention TurnConvention) Classify(inBearing, outBearing float64) MovementType {
	diff := normalizeAngle(outBearing - inBearing)
	best := MOVEMENT_THRU
	bestDistance := convention.distance(diff, convention.Through)
	if d := convention.distance(diff, convention.Left); d < bestDistance {
		best, bestDistance = MOVEMENT_LEFT, d
	}
	if d := convention.distance(diff, convention.Right); d < bestDistance {
		best = MOVEMENT_RIGHT
	}
	return best
}

// distance between normalized bearing difference and the canonical angle
func (convention TurnConvention) distance(diff, canonical float64) float64 {
	if convention.Distance == TURN_DISTANCE_CIRCULAR {
		return angularDistance(diff, canonical)
	}
	return math.Abs(diff - normalizeAngle(canonical))
}

func (convention TurnConvention) validate() error {
	for _, angle := range []float64{convention.Through, convention.Left, convention.Right, convention.CardinalTolerance} {
		if !isFinite(angle) {
			return errors.Wrap(ErrInvalidConfig, "turn angles must be finite numbers")
		}
	}
	if convention.CardinalTolerance < 0 || convention.CardinalTolerance > math.Pi/4 {
		return errors.Wrapf(ErrInvalidConfig, "cardinal tolerance must be in [0, π/4], got %v", convention.CardinalTolerance)
	}
	if convention.Distance > TURN_DISTANCE_CIRCULAR {
		return errors.Wrapf(ErrInvalidConfig, "unknown turn distance %d", convention.Distance)
	}
	if convention.Handedness > LEFT_HAND_TRAFFIC {
		return errors.Wrapf(ErrInvalidConfig, "unknown handedness %d", convention.Handedness)
	}
	return nil
}

type CardinalDirection uint16

const (
	DIRECTION_SB = CardinalDirection(iota + 1)
	DIRECTION_EB
	DIRECTION_NB
	DIRECTION_WB

	DIRECTION_UNDEFINED = CardinalDirection(0)
)

func (iotaIdx CardinalDirection) String() string {
	return [...]string{"undefined", "SB", "EB", "NB", "WB"}[iotaIdx]
}

// angle returns bearing of the cardinal direction
func (iotaIdx CardinalDirection) angle() float64 {
	return [...]float64{0, 1.5 * math.Pi, 0, 0.5 * math.Pi, math.Pi}[iotaIdx]
}

// cardinalDirection returns the nearest cardinal direction for the given bearing
func cardinalDirection(bearing float64) CardinalDirection {
	bearing = normalizeAngle(bearing)
	switch {
	case bearing < 0.25*math.Pi || bearing >= 1.75*math.Pi:
		return DIRECTION_EB
	case bearing < 0.75*math.Pi:
		return DIRECTION_NB
	case bearing < 1.25*math.Pi:
		return DIRECTION_WB
	default:
		return DIRECTION_SB
	}
}

// isCardinal checks if the bearing is within the tolerance of its nearest cardinal direction
func (convention TurnConvention) isCardinal(bearing float64) bool {
	return angularDistance(bearing, cardinalDirection(bearing).angle()) <= convention.CardinalTolerance
}

type MovementCompositeType uint16

const (
	MOVEMENT_SBT = MovementCompositeType(iota + 1)
	MOVEMENT_SBR
	MOVEMENT_SBL
	MOVEMENT_EBT
	MOVEMENT_EBR
	MOVEMENT_EBL
	MOVEMENT_NBT
	MOVEMENT_NBR
	MOVEMENT_NBL
	MOVEMENT_WBT
	MOVEMENT_WBR
	MOVEMENT_WBL
	MOVEMENT_NONE = MovementCompositeType(0)
)

var (
	movementTxt = map[string]MovementCompositeType{
		"SBT": MOVEMENT_SBT,
		"SBR": MOVEMENT_SBR,
		"SBL": MOVEMENT_SBL,
		"EBT": MOVEMENT_EBT,
		"EBR": MOVEMENT_EBR,
		"EBL": MOVEMENT_EBL,
		"NBT": MOVEMENT_NBT,
		"NBR": MOVEMENT_NBR,
		"NBL": MOVEMENT_NBL,
		"WBT": MOVEMENT_WBT,
		"WBR": MOVEMENT_WBR,
		"WBL": MOVEMENT_WBL,
	}
	movementSuffix = map[MovementType]string{
		MOVEMENT_THRU:  "T",
		MOVEMENT_RIGHT: "R",
		MOVEMENT_LEFT:  "L",
	}
)

func (iotaIdx MovementCompositeType) String() string {
	return [...]string{"undefined", "SBT", "SBR", "SBL", "EBT", "EBR", "EBL", "NBT", "NBR", "NBL", "WBT", "WBR", "WBL"}[iotaIdx]
}

func (iotaIdx MovementCompositeType) MarshalText() ([]byte, error) {
	return []byte(iotaIdx.String()), nil
}

func (iotaIdx *MovementCompositeType) UnmarshalText(text []byte) error {
	mvmt, ok := movementTxt[strings.ToUpper(string(text))]
	if !ok {
		return errors.Errorf("unknown movement '%s'", string(text))
	}
	*iotaIdx = mvmt
	return nil
}

func compositeMovement(direction CardinalDirection, movementType MovementType) MovementCompositeType {
	return movementTxt[direction.String()+movementSuffix[movementType]]
}
