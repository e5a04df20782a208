package net2otm

import (
	"io"
	"math"
	"strconv"
	"strings"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// GeoJSONOption tunes LoadGeoJSON
type GeoJSONOption func(*geojsonLoader)

type geojsonLoader struct {
	mercator bool
}

// WithWebMercator treats coordinates as WGS84 longitude/latitude and projects them onto EPSG:3857,
// so bearings and lengths are computed in meters
func WithWebMercator() GeoJSONOption {
	return func(loader *geojsonLoader) {
		loader.mercator = true
	}
}

func (loader *geojsonLoader) project(x, y float64) (float64, float64) {
	if !loader.mercator {
		return x, y
	}
	return epsg4326To3857(x, y)
}

// LoadGeoJSON reads network from GeoJSON FeatureCollection.
//
// Point features are nodes with properties:
//	id (required), elevation, control_type, osm_node_id
// (the third coordinate is used as elevation when there is no elevation property).
//
// LineString features are links with properties:
//	source, target, length, lanes, speed (required), capacity_lane_hour or capacity (required),
//	link_id, subnetwork_id, direction, osm_way_id
//
func LoadGeoJSON(r io.Reader, options ...GeoJSONOption) (*Network, error) {
	loader := &geojsonLoader{}
	for _, o := range options {
		o(loader)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read GeoJSON")
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "Can't decode GeoJSON")
	}
	builder := NewNetworkBuilder()
	linkIdx := 0
	for i, feature := range fc.Features {
		if feature.Geometry == nil {
			return nil, errors.Wrapf(ErrMalformedGraph, "feature %d has no geometry", i)
		}
		switch {
		case feature.Geometry.IsPoint():
			node, err := loader.nodeFromFeature(feature)
			if err != nil {
				return nil, errors.Wrapf(err, "feature %d", i)
			}
			builder.AddNode(node)
		case feature.Geometry.IsLineString():
			link, err := loader.linkFromFeature(feature, linkIdx)
			if err != nil {
				return nil, errors.Wrapf(err, "feature %d", i)
			}
			builder.AddLink(link)
			linkIdx++
		default:
			return nil, errors.Wrapf(ErrMalformedGraph, "feature %d: unsupported geometry type '%s'", i, feature.Geometry.Type)
		}
	}
	return builder.Build()
}

func (loader *geojsonLoader) nodeFromFeature(feature *geojson.Feature) (NodeInput, error) {
	props := feature.Properties
	id, ok, err := propInt(props, "id")
	if err != nil {
		return NodeInput{}, errors.Wrap(ErrMalformedGraph, err.Error())
	}
	if !ok {
		return NodeInput{}, errors.Wrap(ErrMalformedGraph, "node has no 'id' property")
	}
	pt := feature.Geometry.Point
	if len(pt) < 2 {
		return NodeInput{}, malformedNode(id, "point must have at least 2 coordinates")
	}
	node := NodeInput{ID: id}
	node.X, node.Y = loader.project(pt[0], pt[1])
	elevation, ok, err := propFloat(props, "elevation")
	if err != nil {
		return NodeInput{}, malformedNode(id, "%s", err.Error())
	}
	switch {
	case ok:
		node.Elevation = &elevation
	case len(pt) > 2:
		z := pt[2]
		node.Elevation = &z
	}
	if controlType, ok := props["control_type"].(string); ok {
		node.ControlType, err = parseControlType(controlType)
		if err != nil {
			return NodeInput{}, malformedNode(id, "%s", err.Error())
		}
	}
	osmNodeID, _, err := propInt(props, "osm_node_id")
	if err != nil {
		return NodeInput{}, malformedNode(id, "%s", err.Error())
	}
	node.OSMNodeID = osm.NodeID(osmNodeID)
	return node, nil
}

func (loader *geojsonLoader) linkFromFeature(feature *geojson.Feature, idx int) (LinkInput, error) {
	props := feature.Properties
	link := LinkInput{ID: AUTO_LINK_ID}
	linkID, ok, err := propInt(props, "link_id")
	if err != nil {
		return link, malformedLink(idx, "%s", err.Error())
	}
	name := idx
	if ok {
		link.ID = int(linkID)
		name = int(linkID)
	}
	required := func(keys ...string) (float64, error) {
		for _, key := range keys {
			v, ok, err := propFloat(props, key)
			if err != nil {
				return 0, malformedLink(name, "%s", err.Error())
			}
			if ok {
				return v, nil
			}
		}
		return 0, malformedLink(name, "missing attribute '%s'", strings.Join(keys, "' or '"))
	}
	requiredInt := func(key string) (int64, error) {
		v, ok, err := propInt(props, key)
		if err != nil {
			return 0, malformedLink(name, "%s", err.Error())
		}
		if !ok {
			return 0, malformedLink(name, "missing attribute '%s'", key)
		}
		return v, nil
	}
	if link.SourceNodeID, err = requiredInt("source"); err != nil {
		return link, err
	}
	if link.TargetNodeID, err = requiredInt("target"); err != nil {
		return link, err
	}
	if link.Length, err = required("length"); err != nil {
		return link, err
	}
	lanes, err := requiredInt("lanes")
	if err != nil {
		return link, err
	}
	if lanes > math.MaxInt32 || lanes < math.MinInt32 {
		return link, malformedLink(name, "lanes number %d is out of range", lanes)
	}
	link.Lanes = int(lanes)
	if link.Speed, err = required("speed"); err != nil {
		return link, err
	}
	if link.Capacity, err = required("capacity_lane_hour", "capacity"); err != nil {
		return link, err
	}

	subnetworkID, _, err := propInt(props, "subnetwork_id")
	if err != nil {
		return link, malformedLink(name, "%s", err.Error())
	}
	link.SubnetworkID = int(subnetworkID)
	if direction, ok, err := propFloat(props, "direction"); err != nil {
		return link, malformedLink(name, "%s", err.Error())
	} else if ok {
		link.Direction = &direction
	}
	osmWayID, _, err := propInt(props, "osm_way_id")
	if err != nil {
		return link, malformedLink(name, "%s", err.Error())
	}
	link.OSMWayID = osm.WayID(osmWayID)

	link.Geom = make(orb.LineString, 0, len(feature.Geometry.LineString))
	for _, coords := range feature.Geometry.LineString {
		if len(coords) < 2 {
			return link, malformedLink(name, "point must have at least 2 coordinates")
		}
		x, y := loader.project(coords[0], coords[1])
		link.Geom = append(link.Geom, orb.Point{x, y})
	}
	return link, nil
}

// propFloat returns numeric property. Numbers written as strings are accepted as well
func propFloat(props map[string]interface{}, key string) (float64, bool, error) {
	raw, ok := props[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, true, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false, errors.Errorf("attribute '%s' is not a number: '%s'", key, v)
		}
		return f, true, nil
	}
	return 0, false, errors.Errorf("attribute '%s' has unexpected type %T", key, raw)
}

// propInt returns integer property
func propInt(props map[string]interface{}, key string) (int64, bool, error) {
	f, ok, err := propFloat(props, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if f != math.Trunc(f) {
		return 0, false, errors.Errorf("attribute '%s' is not an integer: %v", key, f)
	}
	// float64(math.MaxInt64) is 2^63 which does not fit int64 itself
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false, errors.Errorf("attribute '%s' is out of integer range: %v", key, f)
	}
	return int64(f), true, nil
}

// ExportToGeoJSON writes nodes, links and movements of the scenario as a single FeatureCollection
func (scenario *Scenario) ExportToGeoJSON(w io.Writer) error {
	fc := geojson.NewFeatureCollection()
	for _, node := range scenario.network.nodes {
		feature := geojson.NewPointFeature([]float64{node.geom.X(), node.geom.Y()})
		feature.SetProperty("id", int(node.ID))
		feature.SetProperty("control_type", node.controlType.String())
		feature.SetProperty("boundary_type", node.BoundaryType().String())
		if elevation, ok := node.Elevation(); ok {
			feature.SetProperty("elevation", elevation)
		}
		fc.AddFeature(feature)
	}
	for _, link := range scenario.network.links {
		feature := geojson.NewLineStringFeature(lineToCoords(link.geom))
		feature.SetProperty("link_id", int(link.ID))
		feature.SetProperty("source", int(link.sourceNodeID))
		feature.SetProperty("target", int(link.targetNodeID))
		feature.SetProperty("length", link.lengthMeters)
		feature.SetProperty("lanes", link.lanes)
		feature.SetProperty("speed", link.freeSpeed)
		feature.SetProperty("capacity_lane_hour", link.capacity)
		feature.SetProperty("subnetwork_id", link.subnetworkID)
		feature.SetProperty("direction", link.bearing)
		feature.SetProperty("roadparam_id", int(scenario.linkRoadParams[link.ID]))
		fc.AddFeature(feature)
	}
	for _, mvmt := range scenario.movements {
		feature := geojson.NewLineStringFeature(lineToCoords(mvmt.geom))
		feature.SetProperty("movement_id", int(mvmt.ID))
		feature.SetProperty("node_id", int(mvmt.NodeID))
		feature.SetProperty("in_link", int(mvmt.IncomingLinkID))
		feature.SetProperty("out_link", int(mvmt.OutcomingLinkID))
		feature.SetProperty("type", mvmt.movementType.String())
		feature.SetProperty("movement_composite_type", mvmt.movementCompositeType.String())
		fc.AddFeature(feature)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Can't encode GeoJSON")
	}
	_, err = w.Write(data)
	return err
}

func lineToCoords(line orb.LineString) [][]float64 {
	coords := make([][]float64, len(line))
	for i, pt := range line {
		coords[i] = []float64{pt.X(), pt.Y()}
	}
	return coords
}
