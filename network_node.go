package net2otm

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

/* Nodes stuff */

type NetworkNodeID int

type NetworkNode struct {
	incomingLinks  []NetworkLinkID
	outcomingLinks []NetworkLinkID
	elevation      *float64
	ID             NetworkNodeID
	externalID     int64
	osmNodeID      osm.NodeID
	controlType    ControlType
	geom           orb.Point
}

// Point returns planar coordinates of the node
func (node *NetworkNode) Point() orb.Point {
	return node.geom
}

// Elevation returns elevation of the node if it has been provided
func (node *NetworkNode) Elevation() (float64, bool) {
	if node.elevation == nil {
		return 0, false
	}
	return *node.elevation, true
}

// ExternalID returns identifier the node had in the source graph
func (node *NetworkNode) ExternalID() int64 {
	return node.externalID
}

func (node *NetworkNode) OSMNodeID() osm.NodeID {
	return node.osmNodeID
}

func (node *NetworkNode) ControlType() ControlType {
	return node.controlType
}

// IncomingLinks returns identifiers of links terminating at the node in ascending order
func (node *NetworkNode) IncomingLinks() []NetworkLinkID {
	return node.incomingLinks
}

// OutcomingLinks returns identifiers of links starting at the node in ascending order
func (node *NetworkNode) OutcomingLinks() []NetworkLinkID {
	return node.outcomingLinks
}

// BoundaryType classifies the node by its degree
func (node *NetworkNode) BoundaryType() BoundaryType {
	switch {
	case len(node.incomingLinks) == 0 && len(node.outcomingLinks) == 0:
		return BOUNDARY_NONE
	case len(node.incomingLinks) == 0:
		return BOUNDARY_INCOME_ONLY
	case len(node.outcomingLinks) == 0:
		return BOUNDARY_OUTCOME_ONLY
	}
	return BOUNDARY_NONE
}

func (node *NetworkNode) clone() *NetworkNode {
	cp := *node
	cp.incomingLinks = append([]NetworkLinkID(nil), node.incomingLinks...)
	cp.outcomingLinks = append([]NetworkLinkID(nil), node.outcomingLinks...)
	if node.elevation != nil {
		elevation := *node.elevation
		cp.elevation = &elevation
	}
	return &cp
}

// movementCandidates returns legal (incoming, outcoming) link pairs at the node.
// Outer loop walks incoming links, inner loop walks outcoming links, both in ascending order.
// Pairs formed by a link and its reverse twin (same nodes, swapped) and pairs formed by the same link are skipped.
func (node *NetworkNode) movementCandidates(links []*NetworkLink) [][2]*NetworkLink {
	if len(node.incomingLinks) == 0 || len(node.outcomingLinks) == 0 {
		return nil
	}
	candidates := make([][2]*NetworkLink, 0, len(node.incomingLinks)*len(node.outcomingLinks))
	for _, incomingLinkID := range node.incomingLinks {
		incomingLink := links[incomingLinkID]
		for _, outcomingLinkID := range node.outcomingLinks {
			outcomingLink := links[outcomingLinkID]
			if incomingLink.ID == outcomingLink.ID {
				continue
			}
			if incomingLink.isReverseOf(outcomingLink) { // Ignore all reverse directions
				continue
			}
			candidates = append(candidates, [2]*NetworkLink{incomingLink, outcomingLink})
		}
	}
	return candidates
}

type ControlType uint16

const (
	NOT_SIGNAL = ControlType(iota + 1)
	IS_SIGNAL
)

func (iotaIdx ControlType) String() string {
	return [...]string{"common", "signal"}[iotaIdx-1]
}

func parseControlType(s string) (ControlType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "common", "none", "not_signal":
		return NOT_SIGNAL, nil
	case "signal", "traffic_signals", "is_signal":
		return IS_SIGNAL, nil
	}
	return NOT_SIGNAL, errors.Errorf("unknown control type '%s'", s)
}
