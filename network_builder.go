package net2otm

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

const (
	// AUTO_LINK_ID tells the builder to assign link identifier by position of the link in input
	AUTO_LINK_ID = -1
	// DEFAULT_SUBNETWORK is used for links which do not declare subnetwork
	DEFAULT_SUBNETWORK = 1
)

// NodeInput is a raw node record as it comes from the graph source
type NodeInput struct {
	Elevation   *float64
	ID          int64
	X           float64
	Y           float64
	OSMNodeID   osm.NodeID
	ControlType ControlType
}

// LinkInput is a raw link record as it comes from the graph source
type LinkInput struct {
	Geom         orb.LineString
	Direction    *float64
	ID           int
	SourceNodeID int64
	TargetNodeID int64
	Length       float64
	Lanes        int
	Speed        float64
	Capacity     float64
	SubnetworkID int
	OSMWayID     osm.WayID
}

// NetworkBuilder collects raw records and validates them once in Build
type NetworkBuilder struct {
	nodes []NodeInput
	links []LinkInput
}

func NewNetworkBuilder() *NetworkBuilder {
	return &NetworkBuilder{
		nodes: make([]NodeInput, 0),
		links: make([]LinkInput, 0),
	}
}

func (builder *NetworkBuilder) AddNode(node NodeInput) *NetworkBuilder {
	builder.nodes = append(builder.nodes, node)
	return builder
}

func (builder *NetworkBuilder) AddLink(link LinkInput) *NetworkBuilder {
	builder.links = append(builder.links, link)
	return builder
}

// Build validates collected records and produces immutable Network.
//
// Node identifiers are densified into [0, n) keeping the order of the source identifiers.
// Link identifiers must either be supplied for every link (and form a permutation of [0, m)) or for none of them;
// in the latter case they are assigned in input order.
func (builder *NetworkBuilder) Build() (*Network, error) {
	nodesInput := make([]NodeInput, len(builder.nodes))
	copy(nodesInput, builder.nodes)
	sort.SliceStable(nodesInput, func(i, j int) bool {
		return nodesInput[i].ID < nodesInput[j].ID
	})

	net := &Network{
		nodes: make([]*NetworkNode, len(nodesInput)),
		links: make([]*NetworkLink, len(builder.links)),
	}
	denseIDs := make(map[int64]NetworkNodeID, len(nodesInput))
	for i, nodeInput := range nodesInput {
		if _, ok := denseIDs[nodeInput.ID]; ok {
			return nil, malformedNode(nodeInput.ID, "duplicate node identifier")
		}
		if !isFinite(nodeInput.X) || !isFinite(nodeInput.Y) {
			return nil, malformedNode(nodeInput.ID, "coordinates must be finite numbers, got (%v, %v)", nodeInput.X, nodeInput.Y)
		}
		node := &NetworkNode{
			incomingLinks:  make([]NetworkLinkID, 0),
			outcomingLinks: make([]NetworkLinkID, 0),
			ID:             NetworkNodeID(i),
			externalID:     nodeInput.ID,
			osmNodeID:      nodeInput.OSMNodeID,
			controlType:    nodeInput.ControlType,
			geom:           orb.Point{nodeInput.X, nodeInput.Y},
		}
		if node.controlType == 0 {
			node.controlType = NOT_SIGNAL
		}
		if node.controlType > IS_SIGNAL {
			return nil, malformedNode(nodeInput.ID, "unknown control type %d", nodeInput.ControlType)
		}
		if nodeInput.Elevation != nil {
			if !isFinite(*nodeInput.Elevation) {
				return nil, malformedNode(nodeInput.ID, "elevation must be a finite number")
			}
			elevation := *nodeInput.Elevation
			node.elevation = &elevation
		}
		denseIDs[nodeInput.ID] = node.ID
		net.nodes[i] = node
	}

	explicitIDs := 0
	for _, linkInput := range builder.links {
		if linkInput.ID != AUTO_LINK_ID {
			explicitIDs++
		}
	}
	if explicitIDs != 0 && explicitIDs != len(builder.links) {
		return nil, errors.Wrapf(ErrMalformedGraph, "link identifiers provided for %d of %d links: either all links or none must have identifiers", explicitIDs, len(builder.links))
	}

	for i, linkInput := range builder.links {
		linkID := i
		if explicitIDs != 0 {
			linkID = linkInput.ID
			if linkID < 0 || linkID >= len(builder.links) {
				return nil, malformedLink(linkID, "identifier is out of range [0, %d)", len(builder.links))
			}
			if net.links[linkID] != nil {
				return nil, malformedLink(linkID, "duplicate link identifier")
			}
		}
		link, err := prepareLink(NetworkLinkID(linkID), linkInput, denseIDs, net.nodes)
		if err != nil {
			return nil, err
		}
		net.links[linkID] = link
	}

	// Links are walked in ascending order so adjacency lists stay sorted
	for _, link := range net.links {
		net.nodes[link.sourceNodeID].outcomingLinks = append(net.nodes[link.sourceNodeID].outcomingLinks, link.ID)
		net.nodes[link.targetNodeID].incomingLinks = append(net.nodes[link.targetNodeID].incomingLinks, link.ID)
	}
	return net, nil
}

func prepareLink(id NetworkLinkID, linkInput LinkInput, denseIDs map[int64]NetworkNodeID, nodes []*NetworkNode) (*NetworkLink, error) {
	sourceNodeID, ok := denseIDs[linkInput.SourceNodeID]
	if !ok {
		return nil, malformedLink(int(id), "start node %d does not exist", linkInput.SourceNodeID)
	}
	targetNodeID, ok := denseIDs[linkInput.TargetNodeID]
	if !ok {
		return nil, malformedLink(int(id), "end node %d does not exist", linkInput.TargetNodeID)
	}
	if !isFinite(linkInput.Length) || linkInput.Length <= 0 {
		return nil, malformedLink(int(id), "length must be positive, got %v", linkInput.Length)
	}
	if linkInput.Lanes <= 0 {
		return nil, malformedLink(int(id), "lanes number must be positive, got %d", linkInput.Lanes)
	}
	if !isFinite(linkInput.Speed) || linkInput.Speed <= 0 {
		return nil, malformedLink(int(id), "speed must be positive, got %v", linkInput.Speed)
	}
	if !isFinite(linkInput.Capacity) || linkInput.Capacity <= 0 {
		return nil, malformedLink(int(id), "capacity must be positive, got %v", linkInput.Capacity)
	}
	if linkInput.SubnetworkID < 0 {
		return nil, malformedLink(int(id), "subnetwork identifier must not be negative, got %d", linkInput.SubnetworkID)
	}
	if linkInput.Geom != nil && len(linkInput.Geom) < 2 {
		return nil, malformedLink(int(id), "geometry must contain at least 2 points, got %d", len(linkInput.Geom))
	}
	for _, pt := range linkInput.Geom {
		if !isFinite(pt.X()) || !isFinite(pt.Y()) {
			return nil, malformedLink(int(id), "geometry contains non-finite coordinates")
		}
	}
	if linkInput.Direction != nil && !isFinite(*linkInput.Direction) {
		return nil, malformedLink(int(id), "direction must be a finite number")
	}

	link := &NetworkLink{
		lengthMeters: linkInput.Length,
		freeSpeed:    linkInput.Speed,
		capacity:     linkInput.Capacity,
		ID:           id,
		sourceNodeID: sourceNodeID,
		targetNodeID: targetNodeID,
		lanes:        linkInput.Lanes,
		subnetworkID: linkInput.SubnetworkID,
		osmWayID:     linkInput.OSMWayID,
	}
	if link.subnetworkID == 0 {
		link.subnetworkID = DEFAULT_SUBNETWORK
	}
	if linkInput.Geom != nil {
		link.geom = linkInput.Geom.Clone()
	} else {
		link.geom = orb.LineString{nodes[sourceNodeID].geom, nodes[targetNodeID].geom}
	}
	switch {
	case linkInput.Direction != nil:
		link.bearing = normalizeAngle(*linkInput.Direction)
	default:
		link.bearing = bearingBetween(link.geom[0], link.geom[len(link.geom)-1])
	}
	return link, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
