package net2otm

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
)

var (
	nodesCSVHeader    = []string{"id", "osm_node_id", "control_type", "boundary_type", "x", "y", "elevation"}
	linksCSVHeader    = []string{"id", "source_node", "target_node", "osm_way_id", "lanes", "free_speed", "capacity", "length", "subnetwork_id", "roadparam_id", "direction", "geom"}
	movementCSVHeader = []string{"id", "node_id", "in_link_id", "in_lane_start", "in_lane_end", "out_link_id", "out_lane_start", "out_lane_end", "type", "movement_composite_type", "geom"}
)

// ExportToCSV writes nodes, links and movements of the scenario into three ';' separated files
// named after the given one: 'x_nodes.csv', 'x_links.csv' and 'x_movement.csv' for 'x.csv'
func (scenario *Scenario) ExportToCSV(fname string) error {
	fnameParts := strings.Split(fname, ".csv")
	fnameNodes := fnameParts[0] + "_nodes.csv"
	fnameLinks := fnameParts[0] + "_links.csv"
	fnameMovement := fnameParts[0] + "_movement.csv"

	err := exportToFile(fnameNodes, scenario.writeNodesCSV)
	if err != nil {
		return errors.Wrap(err, "Can't export nodes")
	}

	err = exportToFile(fnameLinks, scenario.writeLinksCSV)
	if err != nil {
		return errors.Wrap(err, "Can't export links")
	}

	err = exportToFile(fnameMovement, scenario.writeMovementCSV)
	if err != nil {
		return errors.Wrap(err, "Can't export movement")
	}

	return nil
}

func exportToFile(fname string, write func(w io.Writer) error) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()
	return write(file)
}

func newCSVWriter(w io.Writer) *csv.Writer {
	writer := csv.NewWriter(w)
	writer.Comma = ';'
	return writer
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (scenario *Scenario) writeNodesCSV(w io.Writer) error {
	writer := newCSVWriter(w)
	err := writer.Write(nodesCSVHeader)
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, node := range scenario.network.nodes {
		elevation := ""
		if z, ok := node.Elevation(); ok {
			elevation = formatFloat(z)
		}
		err = writer.Write([]string{
			fmt.Sprintf("%d", node.ID),
			fmt.Sprintf("%d", node.osmNodeID),
			node.controlType.String(),
			node.BoundaryType().String(),
			formatFloat(node.geom.X()),
			formatFloat(node.geom.Y()),
			elevation,
		})
		if err != nil {
			return errors.Wrap(err, "Can't write node")
		}
	}
	writer.Flush()
	return writer.Error()
}

func (scenario *Scenario) writeLinksCSV(w io.Writer) error {
	writer := newCSVWriter(w)
	err := writer.Write(linksCSVHeader)
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, link := range scenario.network.links {
		err = writer.Write([]string{
			fmt.Sprintf("%d", link.ID),
			fmt.Sprintf("%d", link.sourceNodeID),
			fmt.Sprintf("%d", link.targetNodeID),
			fmt.Sprintf("%d", link.osmWayID),
			fmt.Sprintf("%d", link.lanes),
			formatFloat(link.freeSpeed),
			formatFloat(link.capacity),
			formatFloat(link.lengthMeters),
			fmt.Sprintf("%d", link.subnetworkID),
			fmt.Sprintf("%d", scenario.linkRoadParams[link.ID]),
			formatFloat(link.bearing),
			wkt.MarshalString(link.geom),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write link")
		}
	}
	writer.Flush()
	return writer.Error()
}

func (scenario *Scenario) writeMovementCSV(w io.Writer) error {
	writer := newCSVWriter(w)
	err := writer.Write(movementCSVHeader)
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, mvmt := range scenario.movements {
		err = writer.Write([]string{
			fmt.Sprintf("%d", mvmt.ID),
			fmt.Sprintf("%d", mvmt.NodeID),
			fmt.Sprintf("%d", mvmt.IncomingLinkID),
			fmt.Sprintf("%d", mvmt.incomeLanes.start),
			fmt.Sprintf("%d", mvmt.incomeLanes.end),
			fmt.Sprintf("%d", mvmt.OutcomingLinkID),
			fmt.Sprintf("%d", mvmt.outcomeLanes.start),
			fmt.Sprintf("%d", mvmt.outcomeLanes.end),
			mvmt.movementType.String(),
			mvmt.movementCompositeType.String(),
			wkt.MarshalString(mvmt.geom),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write movement")
		}
	}
	writer.Flush()
	return writer.Error()
}
