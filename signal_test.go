package net2otm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhasesFourWay(t *testing.T) {
	net := fourWayIntersection(t)
	perNode, err := net.genMovements(DefaultConfig().movementSettings(), 1)
	require.NoError(t, err)

	cfg := DefaultPhaseConfig()
	phases := cfg.genPhases(perNode[0])
	require.Len(t, phases, 4)

	expected := []struct {
		name string
		rcs  []MovementID
	}{
		{"ns", []MovementID{1, 2, 6, 7}},
		{"ew", []MovementID{3, 5, 10, 11}},
		{"left_ns", []MovementID{0, 8}},
		{"left_ew", []MovementID{4, 9}},
	}
	for i, phase := range phases {
		assert.Equal(t, i, phase.ID)
		assert.Equal(t, expected[i].name, phase.Name)
		assert.Equal(t, expected[i].rcs, phase.RoadConnectionIDs)
		assert.Equal(t, 3.0, phase.YellowTime)
		assert.Equal(t, 2.0, phase.RedClearTime)
		assert.Equal(t, 5.0, phase.MinGreenTime)
	}
	// Every bucket with through movements contains them
	byID := make(map[MovementID]*Movement)
	for _, mvmt := range perNode[0] {
		byID[mvmt.ID] = mvmt
	}
	for _, phase := range phases[:2] {
		through := 0
		for _, rc := range phase.RoadConnectionIDs {
			if byID[rc].Type() == MOVEMENT_THRU {
				through++
			}
		}
		assert.Equal(t, 2, through, "phase %s", phase.Name)
	}
}

func TestPhasesSkipEmptyBuckets(t *testing.T) {
	// T-junction with one-way south arm leaving the node: no movement comes from the south
	nodes := []NodeInput{testNode(0, 0, 0), testNode(1, -100, 0), testNode(2, 100, 0), testNode(3, 0, -100)}
	net := mustBuild(t, nodes, []LinkInput{
		testLink(1, 0), testLink(0, 1),
		testLink(2, 0), testLink(0, 2),
		testLink(0, 3),
	})
	perNode, err := net.genMovements(DefaultConfig().movementSettings(), 1)
	require.NoError(t, err)
	phases := DefaultPhaseConfig().genPhases(perNode[0])
	names := make([]string, 0, len(phases))
	ids := make([]int, 0, len(phases))
	for _, phase := range phases {
		names = append(names, phase.Name)
		ids = append(ids, phase.ID)
	}
	assert.Equal(t, []string{"ew", "left_ew"}, names)
	assert.Equal(t, []int{1, 3}, ids)

	cfg := DefaultPhaseConfig()
	cfg.Buckets = cfg.Buckets[:1]
	cfg.Buckets[0].Movements = []MovementCompositeType{MOVEMENT_SBT}
	assert.Empty(t, cfg.genPhases(perNode[0]))
}

func TestPhaseConfigValidate(t *testing.T) {
	require.NoError(t, DefaultPhaseConfig().validate())
	cfg := DefaultPhaseConfig()
	cfg.Buckets = nil
	require.ErrorIs(t, cfg.validate(), ErrInvalidConfig)
	cfg = DefaultPhaseConfig()
	cfg.Timing.Yellow = -1
	require.ErrorIs(t, cfg.validate(), ErrInvalidConfig)
}
