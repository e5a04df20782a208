package net2otm

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

/* Links stuff */
type NetworkLinkID int

type NetworkLink struct {
	geom         orb.LineString
	lengthMeters float64
	freeSpeed    float64
	capacity     float64
	bearing      float64
	ID           NetworkLinkID
	sourceNodeID NetworkNodeID
	targetNodeID NetworkNodeID
	lanes        int
	subnetworkID int
	osmWayID     osm.WayID
}

func (link *NetworkLink) SourceNodeID() NetworkNodeID {
	return link.sourceNodeID
}

func (link *NetworkLink) TargetNodeID() NetworkNodeID {
	return link.targetNodeID
}

// Length returns length of the link in units of the source graph
func (link *NetworkLink) Length() float64 {
	return link.lengthMeters
}

func (link *NetworkLink) GetLanes() int {
	return link.lanes
}

// FreeSpeed returns free-flow speed of the link
func (link *NetworkLink) FreeSpeed() float64 {
	return link.freeSpeed
}

// Capacity returns capacity per lane per hour
func (link *NetworkLink) Capacity() float64 {
	return link.capacity
}

// Bearing returns direction of travel in radians, [0, 2π)
func (link *NetworkLink) Bearing() float64 {
	return link.bearing
}

func (link *NetworkLink) SubnetworkID() int {
	return link.subnetworkID
}

func (link *NetworkLink) OSMWayID() osm.WayID {
	return link.osmWayID
}

// Geom returns polyline of the link. When no geometry has been provided it is a straight segment between the link nodes
func (link *NetworkLink) Geom() orb.LineString {
	return link.geom
}

// isReverseOf checks if both links connect the same pair of nodes in opposite directions
func (link *NetworkLink) isReverseOf(other *NetworkLink) bool {
	return link.sourceNodeID == other.targetNodeID && link.targetNodeID == other.sourceNodeID
}

func (link *NetworkLink) clone() *NetworkLink {
	cp := *link
	cp.geom = link.geom.Clone()
	return &cp
}
