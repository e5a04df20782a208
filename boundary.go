package net2otm

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type BoundaryType uint16

const (
	BOUNDARY_NONE = BoundaryType(iota)
	BOUNDARY_INCOME_ONLY
	BOUNDARY_OUTCOME_ONLY
)

func (iotaIdx BoundaryType) String() string {
	return [...]string{"none", "income_only", "outcome_only"}[iotaIdx]
}

// BoundaryPolicy defines how source nodes with several outcoming links are treated
type BoundaryPolicy uint16

const (
	// BOUNDARY_STRICT injects demand only at source nodes with exactly one outcoming link
	BOUNDARY_STRICT = BoundaryPolicy(iota + 1)
	// BOUNDARY_DUPLICATE_NODE gives every outcoming link of a source node its own copy of the node
	BOUNDARY_DUPLICATE_NODE
)

func (iotaIdx BoundaryPolicy) String() string {
	return [...]string{"undefined", "strict", "duplicate_node"}[iotaIdx]
}

func (iotaIdx BoundaryPolicy) MarshalText() ([]byte, error) {
	return []byte(iotaIdx.String()), nil
}

func (iotaIdx *BoundaryPolicy) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "strict":
		*iotaIdx = BOUNDARY_STRICT
	case "duplicate_node", "duplicate-node":
		*iotaIdx = BOUNDARY_DUPLICATE_NODE
	default:
		return errors.Errorf("unknown boundary policy '%s'", string(text))
	}
	return nil
}

// boundaryLinks returns links starting at nodes without incoming links in ascending order.
// Source nodes having more than one outcoming link are skipped and returned separately
func (net *Network) boundaryLinks() ([]NetworkLinkID, []NetworkNodeID) {
	links := make([]NetworkLinkID, 0)
	excluded := make([]NetworkNodeID, 0)
	for _, node := range net.nodes {
		if node.BoundaryType() != BOUNDARY_INCOME_ONLY {
			continue
		}
		if len(node.outcomingLinks) > 1 {
			excluded = append(excluded, node.ID)
			continue
		}
		links = append(links, node.outcomingLinks[0])
	}
	sortLinkIDs(links)
	return links, excluded
}

// duplicateSourceNodes returns copy of the network where every source node keeps only its first outcoming link.
// Each other outcoming link starts at a new node placed at the same coordinates; new nodes get identifiers after the last one.
// The second value is the number of created nodes
func (net *Network) duplicateSourceNodes() (*Network, int) {
	cp := net.clone()
	created := 0
	for _, node := range net.nodes {
		if node.BoundaryType() != BOUNDARY_INCOME_ONLY || len(node.outcomingLinks) <= 1 {
			continue
		}
		source := cp.nodes[node.ID]
		for _, linkID := range node.outcomingLinks[1:] {
			twin := source.clone()
			twin.ID = NetworkNodeID(len(cp.nodes))
			twin.incomingLinks = make([]NetworkLinkID, 0)
			twin.outcomingLinks = []NetworkLinkID{linkID}
			cp.nodes = append(cp.nodes, twin)
			cp.links[linkID].sourceNodeID = twin.ID
			created++
		}
		source.outcomingLinks = source.outcomingLinks[:1]
	}
	return cp, created
}

// DemandProfile is the injection pattern applied at every boundary link
type DemandProfile struct {
	StartTime float64   `yaml:"start_time"`
	Dt        float64   `yaml:"dt"`
	Values    []float64 `yaml:"values"`
}

// Demand associates a boundary link with injected flow of a commodity
type Demand struct {
	Values       []float64
	CommodityID  CommodityID
	SubnetworkID int
	LinkID       NetworkLinkID
	StartTime    float64
	Dt           float64
}

// genDemands emits one demand per commodity per boundary link. A commodity restricted to some subnetworks
// gets no demand on links outside of them
func genDemands(net *Network, boundary []NetworkLinkID, commodities []Commodity, profile DemandProfile) []*Demand {
	demands := make([]*Demand, 0, len(boundary)*len(commodities))
	for _, commodity := range commodities {
		for _, linkID := range boundary {
			subnetworkID := net.links[linkID].subnetworkID
			if !lo.Contains(commodity.Subnetworks, subnetworkID) {
				continue
			}
			values := make([]float64, len(profile.Values))
			copy(values, profile.Values)
			demands = append(demands, &Demand{
				Values:       values,
				CommodityID:  commodity.ID,
				SubnetworkID: subnetworkID,
				LinkID:       linkID,
				StartTime:    profile.StartTime,
				Dt:           profile.Dt,
			})
		}
	}
	return demands
}
