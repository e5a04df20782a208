package net2otm

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCompileFourWay(t *testing.T) {
	scenario, err := NewCompiler().Compile(fourWayIntersection(t))
	require.NoError(t, err)
	report := scenario.Report()
	assert.Equal(t, 5, report.Nodes)
	assert.Equal(t, 8, report.Links)
	assert.Equal(t, 1, report.RoadParams)
	assert.Equal(t, 12, report.Movements)
	assert.Equal(t, 4, report.Splits)
	assert.Equal(t, 0, report.Demands)
	assert.Equal(t, 1, report.Actuators)
	assert.Equal(t, 4, report.DegenerateNodes)
	assert.Equal(t, 1, report.Components)
	assert.Empty(t, report.Warnings)

	require.Len(t, scenario.Actuators(), 1)
	assert.Equal(t, NetworkNodeID(0), scenario.Actuators()[0].NodeID)
	assert.Len(t, scenario.Actuators()[0].Phases, 4)
	assert.Len(t, scenario.Sensors(), 8)
	require.Len(t, scenario.Subnetworks(), 1)
	assert.Equal(t, []NetworkLinkID{0, 1, 2, 3, 4, 5, 6, 7}, scenario.Subnetworks()[0].LinkIDs)
	require.Len(t, scenario.Commodities(), 1)
	assert.Equal(t, []int{1}, scenario.Commodities()[0].Subnetworks)
	for i := 0; i < 8; i++ {
		assert.Equal(t, RoadParamID(0), scenario.LinkRoadParam(NetworkLinkID(i)))
	}
}

func TestCompilePathDemand(t *testing.T) {
	scenario, err := NewCompiler().Compile(pathNetwork(t))
	require.NoError(t, err)
	require.Len(t, scenario.Demands(), 1)
	assert.Equal(t, NetworkLinkID(0), scenario.Demands()[0].LinkID)
	// Straight path: one through movement at each inner node
	assert.Len(t, scenario.Movements(), 2)
	for _, mvmt := range scenario.Movements() {
		assert.Equal(t, MOVEMENT_THRU, mvmt.Type())
	}
}

func TestCompileBoundaryPolicies(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	strict, err := NewCompiler(WithLogger(zap.New(core))).Compile(forkNetwork(t))
	require.NoError(t, err)
	assert.Empty(t, strict.Demands())
	assert.Equal(t, 1, strict.Report().ExcludedBoundaryNodes)
	assert.Equal(t, 1, logs.FilterMessageSnippet("not used for demand injection").Len())

	cfg := DefaultConfig()
	cfg.Boundary = BOUNDARY_DUPLICATE_NODE
	duplicated, err := NewCompiler(WithConfig(cfg)).Compile(forkNetwork(t))
	require.NoError(t, err)
	require.Len(t, duplicated.Demands(), 2)
	assert.Equal(t, NetworkLinkID(0), duplicated.Demands()[0].LinkID)
	assert.Equal(t, NetworkLinkID(1), duplicated.Demands()[1].LinkID)
	assert.Equal(t, 0, duplicated.Report().ExcludedBoundaryNodes)
	assert.Equal(t, 1, duplicated.Report().DuplicatedBoundaryNodes)
	assert.Equal(t, 5, duplicated.Network().NodesNum())
}

func TestCompileNonCardinal(t *testing.T) {
	// Steep approach from the south-west into a node with an eastbound exit
	nodes := []NodeInput{testNode(0, 0, 0), testNode(1, -50, -100), testNode(2, 100, 0)}
	links := []LinkInput{testLink(1, 0), testLink(0, 2)}
	net := mustBuild(t, nodes, links)
	assert.InDelta(t, math.Atan2(100, 50), net.links[0].Bearing(), eps)

	scenario, err := NewCompiler().Compile(net)
	require.NoError(t, err)
	assert.Equal(t, 1, scenario.Report().NonCardinalMovements)
	assert.Empty(t, scenario.Report().Warnings)
	// Bearing of ~63° falls to the northbound bucket, turn to the east is a right one
	require.Len(t, scenario.Movements(), 1)
	assert.Equal(t, MOVEMENT_NBR, scenario.Movements()[0].CompositeType())
	require.Len(t, scenario.Actuators(), 1)

	cfg := DefaultConfig()
	cfg.Phases.StrictCardinal = true
	strict, err := NewCompiler(WithConfig(cfg)).Compile(net)
	require.NoError(t, err)
	require.Len(t, strict.Report().Warnings, 1)
	assert.ErrorIs(t, strict.Report().Warnings[0], ErrUnsupportedTopology)
	// The movement is kept
	assert.Len(t, strict.Movements(), 1)
}

func TestCompileSignalizedOnly(t *testing.T) {
	nodes := []NodeInput{
		{ID: 0, ControlType: IS_SIGNAL},
		testNode(1, 0, 100),
		testNode(2, 100, 0),
		testNode(3, 0, -100),
		testNode(4, -100, 0),
	}
	links := make([]LinkInput, 0, 8)
	for arm := int64(1); arm <= 4; arm++ {
		links = append(links, testLink(arm, 0), testLink(0, arm))
	}
	net := mustBuild(t, nodes, links)

	cfg := DefaultConfig()
	cfg.Phases.SignalizeAll = false
	scenario, err := NewCompiler(WithConfig(cfg)).Compile(net)
	require.NoError(t, err)
	require.Len(t, scenario.Actuators(), 1)
	assert.Equal(t, NetworkNodeID(0), scenario.Actuators()[0].NodeID)

	unsignalized := fourWayIntersection(t)
	scenario, err = NewCompiler(WithConfig(cfg)).Compile(unsignalized)
	require.NoError(t, err)
	assert.Empty(t, scenario.Actuators())
}

func TestCompileCommodities(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Commodities = []CommodityConfig{{ID: 0, Name: "car"}, {ID: 3, Name: "bus", Subnetworks: []int{1}}}
	scenario, err := NewCompiler(WithConfig(cfg)).Compile(pathNetwork(t))
	require.NoError(t, err)
	assert.Len(t, scenario.Demands(), 2)
	assert.Equal(t, CommodityID(3), scenario.Demands()[1].CommodityID)
	// One split per commodity for each inner node
	assert.Len(t, scenario.Splits(), 4)

	cfg.Commodities[1].Subnetworks = []int{7}
	_, err = NewCompiler(WithConfig(cfg)).Compile(pathNetwork(t))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCompileDemandsFollowCommoditySubnetworks(t *testing.T) {
	busLane := func(source, target int64) LinkInput {
		link := testLink(source, target)
		link.SubnetworkID = 2
		return link
	}
	net := mustBuild(t,
		[]NodeInput{testNode(0, 0, 0), testNode(1, 100, 0), testNode(2, 0, 50), testNode(3, 100, 50)},
		[]LinkInput{testLink(0, 1), busLane(2, 3)},
	)
	cfg := DefaultConfig()
	cfg.Commodities = []CommodityConfig{{ID: 0, Name: "car"}, {ID: 1, Name: "bus", Subnetworks: []int{2}}}
	scenario, err := NewCompiler(WithConfig(cfg)).Compile(net)
	require.NoError(t, err)

	type injection struct {
		commodity  CommodityID
		link       NetworkLinkID
		subnetwork int
	}
	got := make([]injection, 0)
	for _, demand := range scenario.Demands() {
		got = append(got, injection{demand.CommodityID, demand.LinkID, demand.SubnetworkID})
	}
	assert.Equal(t, []injection{{0, 0, 1}, {0, 1, 2}, {1, 1, 2}}, got)
}

func TestCompileInvalidInput(t *testing.T) {
	_, err := NewCompiler().Compile(nil)
	require.ErrorIs(t, err, ErrMalformedGraph)

	cfg := DefaultConfig()
	cfg.Demand.Values = nil
	_, err = NewCompiler(WithConfig(cfg)).Compile(pathNetwork(t))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCompileIsDeterministic(t *testing.T) {
	net := gridNetwork(t, 5, 5)
	render := func(compiler *Compiler) []byte {
		scenario, err := compiler.Compile(net)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, scenario.WriteXML(&buf))
		return buf.Bytes()
	}
	first := render(NewCompiler())
	assert.Equal(t, first, render(NewCompiler()))
	assert.Equal(t, first, render(NewCompiler(WithWorkers(6))))
}

func TestCompileLinkIDsArePermutation(t *testing.T) {
	scenario, err := NewCompiler().Compile(gridNetwork(t, 3, 4))
	require.NoError(t, err)
	seen := make(map[NetworkLinkID]bool)
	for _, link := range scenario.Network().Links() {
		require.False(t, seen[link.ID])
		seen[link.ID] = true
	}
	for i := 0; i < scenario.Network().LinksNum(); i++ {
		assert.True(t, seen[NetworkLinkID(i)])
	}
}

func TestCompileEmptyNetwork(t *testing.T) {
	net, err := NewNetworkBuilder().Build()
	require.NoError(t, err)
	scenario, err := NewCompiler().Compile(net)
	require.NoError(t, err)
	report := scenario.Report()
	assert.Equal(t, 0, report.Components)
	assert.Empty(t, scenario.Movements())
	assert.Empty(t, scenario.Demands())
	assert.Empty(t, scenario.Actuators())

	var buf bytes.Buffer
	require.NoError(t, scenario.WriteXML(&buf))
	assert.Contains(t, buf.String(), "<models>")
}
