package net2otm

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Network is an immutable snapshot of the road graph. Nodes and links are stored positionally:
// node with ID i is nodes[i] and link with ID j is links[j]
type Network struct {
	nodes []*NetworkNode
	links []*NetworkLink
}

func (net *Network) NodesNum() int {
	return len(net.nodes)
}

func (net *Network) LinksNum() int {
	return len(net.links)
}

// Nodes returns nodes in ascending ID order
func (net *Network) Nodes() []*NetworkNode {
	return net.nodes
}

// Links returns links in ascending ID order
func (net *Network) Links() []*NetworkLink {
	return net.links
}

func (net *Network) Node(id NetworkNodeID) (*NetworkNode, bool) {
	if id < 0 || int(id) >= len(net.nodes) {
		return nil, false
	}
	return net.nodes[id], true
}

func (net *Network) Link(id NetworkLinkID) (*NetworkLink, bool) {
	if id < 0 || int(id) >= len(net.links) {
		return nil, false
	}
	return net.links[id], true
}

// clone returns deep copy of the network
func (net *Network) clone() *Network {
	cp := &Network{
		nodes: make([]*NetworkNode, len(net.nodes)),
		links: make([]*NetworkLink, len(net.links)),
	}
	for i, node := range net.nodes {
		cp.nodes[i] = node.clone()
	}
	for i, link := range net.links {
		cp.links[i] = link.clone()
	}
	return cp
}

// weakComponents returns number of weakly connected components of the network.
// Isolated nodes count as separate components
func (net *Network) weakComponents() int {
	if len(net.nodes) == 0 {
		return 0
	}
	g := simple.NewUndirectedGraph()
	for _, node := range net.nodes {
		g.AddNode(simple.Node(node.ID))
	}
	for _, link := range net.links {
		if link.sourceNodeID == link.targetNodeID {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(link.sourceNodeID), simple.Node(link.targetNodeID)))
	}
	return len(topo.ConnectedComponents(g))
}

func sortLinkIDs(ids []NetworkLinkID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
}
