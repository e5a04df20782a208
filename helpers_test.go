package net2otm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testNode(id int64, x, y float64) NodeInput {
	return NodeInput{ID: id, X: x, Y: y}
}

func testLink(source, target int64) LinkInput {
	return LinkInput{
		ID:           AUTO_LINK_ID,
		SourceNodeID: source,
		TargetNodeID: target,
		Length:       100,
		Lanes:        1,
		Speed:        50,
		Capacity:     1800,
	}
}

func mustBuild(t *testing.T, nodes []NodeInput, links []LinkInput) *Network {
	t.Helper()
	builder := NewNetworkBuilder()
	for _, node := range nodes {
		builder.AddNode(node)
	}
	for _, link := range links {
		builder.AddLink(link)
	}
	net, err := builder.Build()
	require.NoError(t, err)
	return net
}

// fourWayIntersection returns node 0 at the origin connected by two-way roads with
// node 1 (north), node 2 (east), node 3 (south) and node 4 (west).
// Links are: 0: 1->0, 1: 0->1, 2: 2->0, 3: 0->2, 4: 3->0, 5: 0->3, 6: 4->0, 7: 0->4
func fourWayIntersection(t *testing.T) *Network {
	t.Helper()
	nodes := []NodeInput{
		testNode(0, 0, 0),
		testNode(1, 0, 100),
		testNode(2, 100, 0),
		testNode(3, 0, -100),
		testNode(4, -100, 0),
	}
	links := make([]LinkInput, 0, 8)
	for arm := int64(1); arm <= 4; arm++ {
		links = append(links, testLink(arm, 0), testLink(0, arm))
	}
	return mustBuild(t, nodes, links)
}

// pathNetwork returns 0->1->2->3 along X axis
func pathNetwork(t *testing.T) *Network {
	t.Helper()
	return mustBuild(t,
		[]NodeInput{testNode(0, 0, 0), testNode(1, 100, 0), testNode(2, 200, 0), testNode(3, 300, 0)},
		[]LinkInput{testLink(0, 1), testLink(1, 2), testLink(2, 3)},
	)
}

// gridNetwork returns rows x cols grid with two-way links between neighbours.
// Link attributes vary so that several road parameters appear
func gridNetwork(t *testing.T, rows, cols int) *Network {
	t.Helper()
	nodes := make([]NodeInput, 0, rows*cols)
	links := make([]LinkInput, 0)
	id := func(r, c int) int64 { return int64(r*cols + c) }
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			nodes = append(nodes, testNode(id(r, c), float64(c)*100, float64(r)*100))
		}
	}
	addPair := func(a, b int64, lanes int) {
		forward := testLink(a, b)
		forward.Lanes = lanes
		forward.Speed = float64(30 + 10*lanes)
		backward := forward
		backward.SourceNodeID, backward.TargetNodeID = b, a
		links = append(links, forward, backward)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c+1 < cols {
				addPair(id(r, c), id(r, c+1), 1+(r%3))
			}
			if r+1 < rows {
				addPair(id(r, c), id(r+1, c), 1+(c%2))
			}
		}
	}
	return mustBuild(t, nodes, links)
}
