package net2otm

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// ImportFromCSV reads network written by ExportToCSV: 'x_nodes.csv' and 'x_links.csv' for 'x.csv'
func ImportFromCSV(fname string) (*Network, error) {
	fnameParts := strings.Split(fname, ".csv")
	nodesFile, err := os.Open(fnameParts[0] + "_nodes.csv")
	if err != nil {
		return nil, errors.Wrap(err, "Can't open nodes file")
	}
	defer nodesFile.Close()
	linksFile, err := os.Open(fnameParts[0] + "_links.csv")
	if err != nil {
		return nil, errors.Wrap(err, "Can't open links file")
	}
	defer linksFile.Close()
	return LoadCSV(nodesFile, linksFile)
}

// csvTable gives access to CSV columns by header name
type csvTable struct {
	columns map[string]int
	records [][]string
}

func readCSVTable(r io.Reader) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "Can't read CSV")
	}
	if len(records) == 0 {
		return nil, errors.New("CSV has no header")
	}
	table := &csvTable{
		columns: make(map[string]int, len(records[0])),
		records: records[1:],
	}
	for i, name := range records[0] {
		table.columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return table, nil
}

// value returns first non-empty value among the given columns
func (table *csvTable) value(record []string, names ...string) (string, bool) {
	for _, name := range names {
		idx, ok := table.columns[name]
		if !ok || idx >= len(record) {
			continue
		}
		if v := strings.TrimSpace(record[idx]); v != "" {
			return v, true
		}
	}
	return "", false
}

func (table *csvTable) floatValue(record []string, names ...string) (float64, bool, error) {
	v, ok := table.value(record, names...)
	if !ok {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, errors.Errorf("attribute '%s' is not a number: '%s'", names[0], v)
	}
	return f, true, nil
}

func (table *csvTable) intValue(record []string, names ...string) (int64, bool, error) {
	v, ok := table.value(record, names...)
	if !ok {
		return 0, false, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, errors.Errorf("attribute '%s' is not an integer: '%s'", names[0], v)
	}
	return i, true, nil
}

// LoadCSV reads network from ';' separated nodes and links tables.
//
// Nodes columns: id, x, y (required), elevation, control_type, osm_node_id.
//
// Links columns: source_node, target_node, lanes, free_speed (or speed), capacity, length (required),
// id, subnetwork_id, direction, osm_way_id, geom (WKT LINESTRING)
//
func LoadCSV(nodes, links io.Reader) (*Network, error) {
	builder := NewNetworkBuilder()

	nodesTable, err := readCSVTable(nodes)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read nodes")
	}
	for i, record := range nodesTable.records {
		node, err := nodeFromCSV(nodesTable, record)
		if err != nil {
			return nil, errors.Wrapf(err, "nodes row %d", i+1)
		}
		builder.AddNode(node)
	}

	linksTable, err := readCSVTable(links)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read links")
	}
	for i, record := range linksTable.records {
		link, err := linkFromCSV(linksTable, record, i)
		if err != nil {
			return nil, errors.Wrapf(err, "links row %d", i+1)
		}
		builder.AddLink(link)
	}
	return builder.Build()
}

func nodeFromCSV(table *csvTable, record []string) (NodeInput, error) {
	id, ok, err := table.intValue(record, "id")
	if err != nil {
		return NodeInput{}, errors.Wrap(ErrMalformedGraph, err.Error())
	}
	if !ok {
		return NodeInput{}, errors.Wrap(ErrMalformedGraph, "node has no 'id'")
	}
	node := NodeInput{ID: id}
	x, okX, errX := table.floatValue(record, "x", "longitude")
	y, okY, errY := table.floatValue(record, "y", "latitude")
	if errX != nil || errY != nil || !okX || !okY {
		return node, malformedNode(id, "missing or invalid coordinates")
	}
	node.X, node.Y = x, y
	if elevation, ok, err := table.floatValue(record, "elevation"); err != nil {
		return node, malformedNode(id, "%s", err.Error())
	} else if ok {
		node.Elevation = &elevation
	}
	if controlType, ok := table.value(record, "control_type"); ok {
		if node.ControlType, err = parseControlType(controlType); err != nil {
			return node, malformedNode(id, "%s", err.Error())
		}
	}
	osmNodeID, _, err := table.intValue(record, "osm_node_id")
	if err != nil {
		return node, malformedNode(id, "%s", err.Error())
	}
	node.OSMNodeID = osm.NodeID(osmNodeID)
	return node, nil
}

func linkFromCSV(table *csvTable, record []string, idx int) (LinkInput, error) {
	link := LinkInput{ID: AUTO_LINK_ID}
	name := idx
	id, ok, err := table.intValue(record, "id", "link_id")
	if err != nil {
		return link, malformedLink(name, "%s", err.Error())
	}
	if ok {
		link.ID, name = int(id), int(id)
	}
	requiredInt := func(names ...string) (int64, error) {
		v, ok, err := table.intValue(record, names...)
		if err != nil {
			return 0, malformedLink(name, "%s", err.Error())
		}
		if !ok {
			return 0, malformedLink(name, "missing attribute '%s'", names[0])
		}
		return v, nil
	}
	requiredFloat := func(names ...string) (float64, error) {
		v, ok, err := table.floatValue(record, names...)
		if err != nil {
			return 0, malformedLink(name, "%s", err.Error())
		}
		if !ok {
			return 0, malformedLink(name, "missing attribute '%s'", names[0])
		}
		return v, nil
	}
	if link.SourceNodeID, err = requiredInt("source_node", "source"); err != nil {
		return link, err
	}
	if link.TargetNodeID, err = requiredInt("target_node", "target"); err != nil {
		return link, err
	}
	lanes, err := requiredInt("lanes")
	if err != nil {
		return link, err
	}
	link.Lanes = int(lanes)
	if link.Speed, err = requiredFloat("free_speed", "speed"); err != nil {
		return link, err
	}
	if link.Capacity, err = requiredFloat("capacity", "capacity_lane_hour"); err != nil {
		return link, err
	}
	if link.Length, err = requiredFloat("length", "length_meters"); err != nil {
		return link, err
	}
	subnetworkID, _, err := table.intValue(record, "subnetwork_id")
	if err != nil {
		return link, malformedLink(name, "%s", err.Error())
	}
	link.SubnetworkID = int(subnetworkID)
	if direction, ok, err := table.floatValue(record, "direction"); err != nil {
		return link, malformedLink(name, "%s", err.Error())
	} else if ok {
		link.Direction = &direction
	}
	osmWayID, _, err := table.intValue(record, "osm_way_id")
	if err != nil {
		return link, malformedLink(name, "%s", err.Error())
	}
	link.OSMWayID = osm.WayID(osmWayID)
	if geom, ok := table.value(record, "geom", "geometry"); ok {
		line, err := wkt.UnmarshalLineString(geom)
		if err != nil {
			return link, malformedLink(name, "can't parse geometry: %s", err.Error())
		}
		link.Geom = line
	}
	return link, nil
}
