package net2otm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatten(perNode [][]*Movement) []*Movement {
	all := make([]*Movement, 0)
	for _, movements := range perNode {
		all = append(all, movements...)
	}
	return all
}

func TestMovementsFourWay(t *testing.T) {
	net := fourWayIntersection(t)
	perNode, err := net.genMovements(DefaultConfig().movementSettings(), 1)
	require.NoError(t, err)
	require.Len(t, perNode, 5)
	require.Len(t, perNode[0], 12)
	for i := 1; i <= 4; i++ {
		assert.Empty(t, perNode[i], "dead-end node %d must have no movements", i)
	}

	expected := []struct {
		in, out NetworkLinkID
		kind    MovementCompositeType
	}{
		{0, 3, MOVEMENT_SBL}, {0, 5, MOVEMENT_SBT}, {0, 7, MOVEMENT_SBR},
		{2, 1, MOVEMENT_WBR}, {2, 5, MOVEMENT_WBL}, {2, 7, MOVEMENT_WBT},
		{4, 1, MOVEMENT_NBT}, {4, 3, MOVEMENT_NBR}, {4, 7, MOVEMENT_NBL},
		{6, 1, MOVEMENT_EBL}, {6, 3, MOVEMENT_EBT}, {6, 5, MOVEMENT_EBR},
	}
	for i, mvmt := range perNode[0] {
		assert.Equal(t, MovementID(i), mvmt.ID)
		assert.Equal(t, NetworkNodeID(0), mvmt.NodeID)
		assert.Equal(t, expected[i].in, mvmt.IncomingLinkID)
		assert.Equal(t, expected[i].out, mvmt.OutcomingLinkID)
		assert.Equal(t, expected[i].kind, mvmt.CompositeType())
		assert.True(t, mvmt.IsCardinal())
		assert.Equal(t, "1#1", mvmt.IncomeLanes())
		assert.Equal(t, "1#1", mvmt.OutcomeLanes())
	}
}

func TestMovementsExcludeReverseAndSelfPairs(t *testing.T) {
	net := gridNetwork(t, 4, 5)
	perNode, err := net.genMovements(DefaultConfig().movementSettings(), 1)
	require.NoError(t, err)
	all := flatten(perNode)
	require.NotEmpty(t, all)
	for i, mvmt := range all {
		assert.Equal(t, MovementID(i), mvmt.ID)
		in, out := net.links[mvmt.IncomingLinkID], net.links[mvmt.OutcomingLinkID]
		assert.NotEqual(t, in.ID, out.ID)
		assert.False(t, in.isReverseOf(out), "movement %d pairs link %d with its reverse %d", mvmt.ID, in.ID, out.ID)
		assert.Equal(t, in.TargetNodeID(), mvmt.NodeID)
		assert.Equal(t, out.SourceNodeID(), mvmt.NodeID)
	}
}

func TestMovementsSelfLoop(t *testing.T) {
	net := mustBuild(t,
		[]NodeInput{testNode(0, 0, 0), testNode(1, 100, 0)},
		[]LinkInput{testLink(0, 1), testLink(1, 1)},
	)
	perNode, err := net.genMovements(DefaultConfig().movementSettings(), 1)
	require.NoError(t, err)
	// Link 0 into the loop is the only legal movement at node 1
	require.Len(t, perNode[1], 1)
	assert.Equal(t, NetworkLinkID(0), perNode[1][0].IncomingLinkID)
	assert.Equal(t, NetworkLinkID(1), perNode[1][0].OutcomingLinkID)
}

func TestMovementsWorkersDoNotChangeResult(t *testing.T) {
	net := gridNetwork(t, 6, 6)
	settings := DefaultConfig().movementSettings()
	sequential, err := net.genMovements(settings, 1)
	require.NoError(t, err)
	concurrent, err := net.genMovements(settings, 8)
	require.NoError(t, err)
	assert.Equal(t, flatten(sequential), flatten(concurrent))
}

func TestMovementsPerTurnLanes(t *testing.T) {
	nodes := []NodeInput{testNode(0, 0, 0), testNode(1, 0, -100), testNode(2, 100, 0), testNode(3, 0, 100), testNode(4, -100, 0)}
	in := testLink(1, 0)
	in.Lanes = 3
	net := mustBuild(t, nodes, []LinkInput{in, testLink(0, 2), testLink(0, 3), testLink(0, 4)})
	cfg := DefaultConfig()
	cfg.LanePolicy = LANES_PER_TURN
	perNode, err := net.genMovements(cfg.movementSettings(), 1)
	require.NoError(t, err)
	require.Len(t, perNode[0], 3)
	lanes := make(map[MovementType]string)
	for _, mvmt := range perNode[0] {
		lanes[mvmt.Type()] = mvmt.IncomeLanes()
	}
	assert.Equal(t, map[MovementType]string{
		MOVEMENT_RIGHT: "2#3",
		MOVEMENT_THRU:  "1#3",
		MOVEMENT_LEFT:  "1#2",
	}, lanes)
}
