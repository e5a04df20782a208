package net2otm

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderScenario(t *testing.T, scenario *Scenario) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, scenario.WriteXML(&buf))
	return buf.Bytes()
}

func TestWriteXMLSectionsOrder(t *testing.T) {
	scenario, err := NewCompiler().Compile(fourWayIntersection(t))
	require.NoError(t, err)
	text := string(renderScenario(t, scenario))
	require.True(t, strings.HasPrefix(text, `<?xml version="1.0" encoding="UTF-8"?>`))

	sections := []string{"<network>", "<nodes>", "<links>", "<roadparams>", "<roadconnections>", "<splits>", "<subnetworks>", "<commodities>", "<demands>", "<sensors>", "<controllers>", "<plugins>", "<actuators>", "<models>"}
	last := -1
	for _, section := range sections {
		idx := strings.Index(text, section)
		require.Greater(t, idx, last, "section %s is out of order", section)
		last = idx
	}
	assert.Contains(t, text, `<link id="0" length="100" full_lanes="1" start_node_id="1" end_node_id="0" roadparam="0">`)
	assert.Contains(t, text, `<roadparam id="0" name="link type 0" speed="50" capacity="1800" jam_density="180">`)
	assert.Contains(t, text, `<roadconnection id="0" in_link="0" out_link="3" in_link_lanes="1#1" out_link_lanes="1#1">`)
	assert.Contains(t, text, `<subnetwork id="1">0,1,2,3,4,5,6,7</subnetwork>`)
	assert.Contains(t, text, `<commodity id="0" name="car" subnetworks="1" pathfull="false">`)
	assert.Contains(t, text, `<phase id="2" yellow_time="3" red_clear_time="2" min_green_time="5" roadconnection_ids="0,8">`)
	assert.Contains(t, text, `<target_actuator id="0" usage="0">`)
	assert.Contains(t, text, `<actuator_target type="node" id="0">`)
	assert.NotContains(t, text, "<points>")
}

func TestWriteXMLIsIdempotent(t *testing.T) {
	net := gridNetwork(t, 4, 4)
	first, err := NewCompiler().Compile(net)
	require.NoError(t, err)
	second, err := NewCompiler().Compile(net)
	require.NoError(t, err)
	assert.Equal(t, renderScenario(t, first), renderScenario(t, second))
	assert.Equal(t, renderScenario(t, first), renderScenario(t, first))
}

func TestReadScenarioRoundTrip(t *testing.T) {
	net := gridNetwork(t, 3, 4)
	cfg := DefaultConfig()
	cfg.LanePolicy = LANES_PER_TURN
	scenario, err := NewCompiler(WithConfig(cfg)).Compile(net)
	require.NoError(t, err)

	doc, err := ReadScenario(bytes.NewReader(renderScenario(t, scenario)))
	require.NoError(t, err)

	require.Len(t, doc.Network.Links.Links, net.LinksNum())
	for i, link := range doc.Network.Links.Links {
		assert.Equal(t, i, link.ID)
		assert.Equal(t, int(net.links[i].SourceNodeID()), link.StartNodeID)
		assert.Equal(t, int(scenario.LinkRoadParam(NetworkLinkID(i))), link.RoadParam)
	}

	require.Len(t, doc.Network.RoadConnections.RoadConnections, len(scenario.Movements()))
	for i, rc := range doc.Network.RoadConnections.RoadConnections {
		mvmt := scenario.Movements()[i]
		assert.Equal(t, int(mvmt.ID), rc.ID)
		assert.Equal(t, int(mvmt.IncomingLinkID), rc.InLink)
		assert.Equal(t, int(mvmt.OutcomingLinkID), rc.OutLink)
		inLanes, err := parseLaneRange(rc.InLinkLanes)
		require.NoError(t, err)
		assert.Equal(t, mvmt.incomeLanes, inLanes)
		outLanes, err := parseLaneRange(rc.OutLinkLanes)
		require.NoError(t, err)
		assert.Equal(t, mvmt.outcomeLanes, outLanes)
	}

	require.Len(t, doc.Splits.SplitNodes, len(scenario.Splits()))
	for i, splitNode := range doc.Splits.SplitNodes {
		split := scenario.Splits()[i]
		assert.Equal(t, int(split.NodeID), splitNode.NodeID)
		assert.Equal(t, int(split.LinkIn), splitNode.LinkIn)
		require.Len(t, splitNode.Splits, len(split.Ratios))
		for j, element := range splitNode.Splits {
			assert.Equal(t, int(split.Ratios[j].LinkOut), element.LinkOut)
			assert.Equal(t, split.Ratios[j].Ratio, float64(element.Ratio))
		}
	}
	require.NotNil(t, doc.Models)
	assert.Equal(t, "point_queue", doc.Models.Models[0].Type)
	assert.Equal(t, 20.0, float64(doc.Models.Models[0].Params.MaxCellLength))
}

func TestLoadScenarioXMLRecompiles(t *testing.T) {
	elevation := 12.5
	nodes := []NodeInput{testNode(0, 0, 0), testNode(1, 100, 0), testNode(2, 200, 0), testNode(3, 200, 100)}
	nodes[1].Elevation = &elevation
	curved := testLink(2, 3)
	curved.Geom = orb.LineString{{200, 0}, {250, 50}, {200, 100}}
	curved.Capacity = 900
	net := mustBuild(t, nodes, []LinkInput{testLink(0, 1), testLink(1, 2), curved})

	scenario, err := NewCompiler().Compile(net)
	require.NoError(t, err)
	original := renderScenario(t, scenario)
	assert.Contains(t, string(original), `<point x="250" y="50">`)
	assert.Contains(t, string(original), `z="12.5"`)

	restored, err := LoadScenarioXML(bytes.NewReader(original))
	require.NoError(t, err)
	again, err := NewCompiler().Compile(restored)
	require.NoError(t, err)
	assert.Equal(t, string(original), string(renderScenario(t, again)))
}

func TestExportToXML(t *testing.T) {
	scenario, err := NewCompiler().Compile(pathNetwork(t))
	require.NoError(t, err)
	fname := filepath.Join(t.TempDir(), "scenario.xml")
	require.NoError(t, scenario.ExportToXML(fname))
	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Equal(t, renderScenario(t, scenario), data)

	err = scenario.ExportToXML(filepath.Join(t.TempDir(), "missing", "scenario.xml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

var errBrokenWriter = errors.New("broken writer")

type brokenWriter struct{}

func (brokenWriter) Write(p []byte) (int, error) {
	return 0, errBrokenWriter
}

func TestWriteXMLReturnsWriterError(t *testing.T) {
	scenario, err := NewCompiler().Compile(pathNetwork(t))
	require.NoError(t, err)
	assert.Equal(t, errBrokenWriter, scenario.WriteXML(brokenWriter{}))
}

func TestFloatFormatting(t *testing.T) {
	cases := map[float64]string{
		0.1:       "0.1",
		1.0 / 3.0: "0.3333333333333333",
		28000:     "28000",
		-2.5:      "-2.5",
		1e21:      "1000000000000000000000",
	}
	for value, text := range cases {
		got, err := Float(value).MarshalText()
		require.NoError(t, err)
		assert.Equal(t, text, string(got))
	}
	var list IntList
	require.NoError(t, list.UnmarshalText([]byte(" 3, 1,2 ")))
	assert.Equal(t, IntList{3, 1, 2}, list)
	var values FloatList
	require.Error(t, values.UnmarshalText([]byte("1,x")))
}
