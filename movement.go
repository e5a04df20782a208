package net2otm

import (
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"
)

type MovementID int

// Movement is a road connection: a permitted transition from one incoming link to one outcoming link at a shared node
type Movement struct {
	geom orb.LineString

	ID              MovementID
	NodeID          NetworkNodeID
	IncomingLinkID  NetworkLinkID
	OutcomingLinkID NetworkLinkID

	movementCompositeType MovementCompositeType
	movementType          MovementType
	direction             CardinalDirection
	incomeLanes           laneRange
	outcomeLanes          laneRange
	cardinal              bool
}

func (mvmt *Movement) Type() MovementType {
	return mvmt.movementType
}

func (mvmt *Movement) CompositeType() MovementCompositeType {
	return mvmt.movementCompositeType
}

// Direction returns cardinal direction of the incoming link
func (mvmt *Movement) Direction() CardinalDirection {
	return mvmt.direction
}

// IsCardinal checks if the incoming link is aligned to its cardinal direction within the configured tolerance
func (mvmt *Movement) IsCardinal() bool {
	return mvmt.cardinal
}

// IncomeLanes returns lane range on the incoming link in "min#max" form
func (mvmt *Movement) IncomeLanes() string {
	return mvmt.incomeLanes.String()
}

// OutcomeLanes returns lane range on the outcoming link in "min#max" form
func (mvmt *Movement) OutcomeLanes() string {
	return mvmt.outcomeLanes.String()
}

// Geom returns short segment connecting incoming and outcoming links near the node
func (mvmt *Movement) Geom() orb.LineString {
	return mvmt.geom
}

type movementSettings struct {
	turns      TurnConvention
	lanePolicy LanePolicy
	turnLanes  TurnLanes
}

// genMovement returns movements of the node without identifiers
func (node *NetworkNode) genMovement(links []*NetworkLink, settings movementSettings) []*Movement {
	candidates := node.movementCandidates(links)
	movements := make([]*Movement, 0, len(candidates))
	for _, pair := range candidates {
		incomingLink, outcomingLink := pair[0], pair[1]
		movementType := settings.turns.Classify(incomingLink.bearing, outcomingLink.bearing)
		direction := cardinalDirection(incomingLink.bearing)
		movements = append(movements, &Movement{
			geom:                  movementGeomBetweenLines(incomingLink.geom, outcomingLink.geom),
			NodeID:                node.ID,
			IncomingLinkID:        incomingLink.ID,
			OutcomingLinkID:       outcomingLink.ID,
			movementCompositeType: compositeMovement(direction, movementType),
			movementType:          movementType,
			direction:             direction,
			incomeLanes:           allocateLanes(settings.lanePolicy, settings.turnLanes, settings.turns.Handedness, movementType, incomingLink.lanes),
			outcomeLanes:          allocateLanes(settings.lanePolicy, settings.turnLanes, settings.turns.Handedness, movementType, outcomingLink.lanes),
			cardinal:              settings.turns.isCardinal(incomingLink.bearing),
		})
	}
	return movements
}

// genMovements enumerates movements of every node.
// Nodes may be processed concurrently, but identifiers are minted afterwards from the single counter in node order,
// so the result does not depend on the number of workers
func (net *Network) genMovements(settings movementSettings, workers int) ([][]*Movement, error) {
	perNode := make([][]*Movement, len(net.nodes))
	if workers <= 1 {
		for i, node := range net.nodes {
			perNode[i] = node.genMovement(net.links, settings)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(workers)
		for i, node := range net.nodes {
			i, node := i, node
			g.Go(func() error {
				perNode[i] = node.genMovement(net.links, settings)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	mvmtID := MovementID(0)
	for _, movements := range perNode {
		for _, mvmt := range movements {
			mvmt.ID = mvmtID
			mvmtID++
		}
	}
	return perNode, nil
}
