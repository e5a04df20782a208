package net2otm

import (
	"io"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// LoadScenarioXML reads network section of a scenario document
func LoadScenarioXML(r io.Reader) (*Network, error) {
	doc, err := ReadScenario(r)
	if err != nil {
		return nil, err
	}
	return doc.BuildNetwork()
}

// BuildNetwork restores network from the document. Capacity and speed of links come from their road parameters,
// subnetwork of a link is the first subnetwork listing it
func (doc *ScenarioDocument) BuildNetwork() (*Network, error) {
	params := make(map[int]RoadParamElement, len(doc.Network.RoadParams.RoadParams))
	for _, param := range doc.Network.RoadParams.RoadParams {
		params[param.ID] = param
	}
	subnetworks := make(map[int]int)
	for _, subnetwork := range doc.Subnetworks.Subnetworks {
		for _, linkID := range subnetwork.LinkIDs {
			if _, ok := subnetworks[linkID]; !ok {
				subnetworks[linkID] = subnetwork.ID
			}
		}
	}

	builder := NewNetworkBuilder()
	for _, element := range doc.Network.Nodes.Nodes {
		node := NodeInput{
			ID: int64(element.ID),
			X:  float64(element.X),
			Y:  float64(element.Y),
		}
		if element.Z != nil {
			z := float64(*element.Z)
			node.Elevation = &z
		}
		builder.AddNode(node)
	}
	for _, element := range doc.Network.Links.Links {
		param, ok := params[element.RoadParam]
		if !ok {
			return nil, malformedLink(element.ID, "unknown road parameter %d", element.RoadParam)
		}
		link := LinkInput{
			ID:           element.ID,
			SourceNodeID: int64(element.StartNodeID),
			TargetNodeID: int64(element.EndNodeID),
			Length:       float64(element.Length),
			Lanes:        element.FullLanes,
			Speed:        float64(param.Speed),
			Capacity:     float64(param.Capacity),
			SubnetworkID: subnetworks[element.ID],
		}
		if element.Points != nil {
			link.Geom = make(orb.LineString, 0, len(element.Points.Points))
			for _, pt := range element.Points.Points {
				link.Geom = append(link.Geom, orb.Point{float64(pt.X), float64(pt.Y)})
			}
		}
		builder.AddLink(link)
	}
	net, err := builder.Build()
	if err != nil {
		return nil, errors.Wrap(err, "Can't restore network")
	}
	return net, nil
}
