package net2otm

import (
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Float is a number printed in the shortest form which parses back to the same value
type Float float64

func (f Float) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(f), 'f', -1, 64)), nil
}

func (f *Float) UnmarshalText(text []byte) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(text)), 64)
	if err != nil {
		return errors.Wrapf(err, "Can't parse number '%s'", string(text))
	}
	*f = Float(v)
	return nil
}

// IntList is a comma separated list of integers
type IntList []int

func (list IntList) MarshalText() ([]byte, error) {
	parts := make([]string, len(list))
	for i, v := range list {
		parts[i] = strconv.Itoa(v)
	}
	return []byte(strings.Join(parts, ",")), nil
}

func (list *IntList) UnmarshalText(text []byte) error {
	values := make(IntList, 0)
	for _, part := range splitCSV(string(text)) {
		v, err := strconv.Atoi(part)
		if err != nil {
			return errors.Wrapf(err, "Can't parse integer list '%s'", string(text))
		}
		values = append(values, v)
	}
	*list = values
	return nil
}

// FloatList is a comma separated list of numbers
type FloatList []float64

func (list FloatList) MarshalText() ([]byte, error) {
	parts := make([]string, len(list))
	for i, v := range list {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return []byte(strings.Join(parts, ",")), nil
}

func (list *FloatList) UnmarshalText(text []byte) error {
	values := make(FloatList, 0)
	for _, part := range splitCSV(string(text)) {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return errors.Wrapf(err, "Can't parse number list '%s'", string(text))
		}
		values = append(values, v)
	}
	*list = values
	return nil
}

func splitCSV(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// ScenarioDocument is the scenario file layout. Field order defines order of sections in the file
type ScenarioDocument struct {
	XMLName     xml.Name             `xml:"scenario"`
	Network     NetworkDocument      `xml:"network"`
	Splits      SplitsDocument       `xml:"splits"`
	Subnetworks SubnetworksDocument  `xml:"subnetworks"`
	Commodities CommoditiesDocument  `xml:"commodities"`
	Demands     DemandsDocument      `xml:"demands"`
	Sensors     *SensorsDocument     `xml:"sensors"`
	Controllers *ControllersDocument `xml:"controllers"`
	Plugins     *PluginsDocument     `xml:"plugins"`
	Actuators   *ActuatorsDocument   `xml:"actuators"`
	Models      *ModelsDocument      `xml:"models"`
}

type NetworkDocument struct {
	Nodes           NodesDocument           `xml:"nodes"`
	Links           LinksDocument           `xml:"links"`
	RoadParams      RoadParamsDocument      `xml:"roadparams"`
	RoadConnections RoadConnectionsDocument `xml:"roadconnections"`
}

type NodesDocument struct {
	Nodes []NodeElement `xml:"node"`
}

type NodeElement struct {
	ID int    `xml:"id,attr"`
	X  Float  `xml:"x,attr"`
	Y  Float  `xml:"y,attr"`
	Z  *Float `xml:"z,attr,omitempty"`
}

type LinksDocument struct {
	Links []LinkElement `xml:"link"`
}

type LinkElement struct {
	ID          int             `xml:"id,attr"`
	Length      Float           `xml:"length,attr"`
	FullLanes   int             `xml:"full_lanes,attr"`
	StartNodeID int             `xml:"start_node_id,attr"`
	EndNodeID   int             `xml:"end_node_id,attr"`
	RoadParam   int             `xml:"roadparam,attr"`
	Points      *PointsDocument `xml:"points"`
}

type PointsDocument struct {
	Points []PointElement `xml:"point"`
}

type PointElement struct {
	X Float `xml:"x,attr"`
	Y Float `xml:"y,attr"`
}

type RoadParamsDocument struct {
	RoadParams []RoadParamElement `xml:"roadparam"`
}

type RoadParamElement struct {
	ID         int    `xml:"id,attr"`
	Name       string `xml:"name,attr"`
	Speed      Float  `xml:"speed,attr"`
	Capacity   Float  `xml:"capacity,attr"`
	JamDensity Float  `xml:"jam_density,attr"`
}

type RoadConnectionsDocument struct {
	RoadConnections []RoadConnectionElement `xml:"roadconnection"`
}

type RoadConnectionElement struct {
	ID           int    `xml:"id,attr"`
	InLink       int    `xml:"in_link,attr"`
	OutLink      int    `xml:"out_link,attr"`
	InLinkLanes  string `xml:"in_link_lanes,attr"`
	OutLinkLanes string `xml:"out_link_lanes,attr"`
}

type SplitsDocument struct {
	SplitNodes []SplitNodeElement `xml:"split_node"`
}

type SplitNodeElement struct {
	NodeID      int            `xml:"node_id,attr"`
	CommodityID int            `xml:"commodity_id,attr"`
	LinkIn      int            `xml:"link_in,attr"`
	Splits      []SplitElement `xml:"split"`
}

type SplitElement struct {
	LinkOut int   `xml:"link_out,attr"`
	Ratio   Float `xml:",chardata"`
}

type SubnetworksDocument struct {
	Subnetworks []SubnetworkElement `xml:"subnetwork"`
}

type SubnetworkElement struct {
	ID      int     `xml:"id,attr"`
	LinkIDs IntList `xml:",chardata"`
}

type CommoditiesDocument struct {
	Commodities []CommodityElement `xml:"commodity"`
}

type CommodityElement struct {
	ID          int     `xml:"id,attr"`
	Name        string  `xml:"name,attr"`
	Subnetworks IntList `xml:"subnetworks,attr"`
	Pathfull    bool    `xml:"pathfull,attr"`
}

type DemandsDocument struct {
	Demands []DemandElement `xml:"demand"`
}

type DemandElement struct {
	CommodityID int       `xml:"commodity_id,attr"`
	Subnetwork  int       `xml:"subnetwork,attr"`
	StartTime   Float     `xml:"start_time,attr"`
	LinkID      int       `xml:"link_id,attr"`
	Dt          Float     `xml:"dt,attr"`
	Values      FloatList `xml:",chardata"`
}

type SensorsDocument struct {
	Sensors []SensorElement `xml:"sensor"`
}

type SensorElement struct {
	ID     int    `xml:"id,attr"`
	Type   string `xml:"type,attr"`
	LinkID int    `xml:"link_id,attr"`
	Dt     Float  `xml:"dt,attr"`
}

type ControllersDocument struct {
	Controllers []ControllerElement `xml:"controller"`
}

type ControllerElement struct {
	ID              int             `xml:"id,attr"`
	Type            string          `xml:"type,attr"`
	Dt              Float           `xml:"dt,attr"`
	FeedbackSensors FeedbackSensors `xml:"feedback_sensors"`
	TargetActuators TargetActuators `xml:"target_actuators"`
}

type FeedbackSensors struct {
	Sensors []UsageElement `xml:"feedback_sensor"`
}

type TargetActuators struct {
	Actuators []UsageElement `xml:"target_actuator"`
}

type UsageElement struct {
	ID    int `xml:"id,attr"`
	Usage int `xml:"usage,attr"`
}

type PluginsDocument struct {
	Plugins []PluginElement `xml:"plugin"`
}

type PluginElement struct {
	Name   string `xml:"name,attr"`
	Folder string `xml:"folder,attr"`
	Class  string `xml:"class,attr"`
}

type ActuatorsDocument struct {
	Actuators []ActuatorElement `xml:"actuator"`
}

type ActuatorElement struct {
	ID     int                   `xml:"id,attr"`
	Type   string                `xml:"type,attr"`
	Target ActuatorTargetElement `xml:"actuator_target"`
	Signal SignalElement         `xml:"signal"`
}

type ActuatorTargetElement struct {
	Type string `xml:"type,attr"`
	ID   int    `xml:"id,attr"`
}

type SignalElement struct {
	Phases []PhaseElement `xml:"phase"`
}

type PhaseElement struct {
	ID                int     `xml:"id,attr"`
	YellowTime        Float   `xml:"yellow_time,attr"`
	RedClearTime      Float   `xml:"red_clear_time,attr"`
	MinGreenTime      Float   `xml:"min_green_time,attr"`
	RoadConnectionIDs IntList `xml:"roadconnection_ids,attr"`
}

type ModelsDocument struct {
	Models []ModelElement `xml:"model"`
}

type ModelElement struct {
	Type      string             `xml:"type,attr"`
	Name      string             `xml:"name,attr"`
	IsDefault bool               `xml:"is_default,attr"`
	Params    ModelParamsElement `xml:"model_params"`
}

type ModelParamsElement struct {
	MaxCellLength Float `xml:"max_cell_length,attr"`
	SimDt         Float `xml:"sim_dt,attr"`
}

// Document assembles scenario file contents. Every table is ordered by identifiers
func (scenario *Scenario) Document() *ScenarioDocument {
	net := scenario.network
	doc := &ScenarioDocument{}

	doc.Network.Nodes.Nodes = make([]NodeElement, 0, len(net.nodes))
	for _, node := range net.nodes {
		element := NodeElement{
			ID: int(node.ID),
			X:  Float(node.geom.X()),
			Y:  Float(node.geom.Y()),
		}
		if elevation, ok := node.Elevation(); ok {
			z := Float(elevation)
			element.Z = &z
		}
		doc.Network.Nodes.Nodes = append(doc.Network.Nodes.Nodes, element)
	}

	doc.Network.Links.Links = make([]LinkElement, 0, len(net.links))
	for _, link := range net.links {
		element := LinkElement{
			ID:          int(link.ID),
			Length:      Float(link.lengthMeters),
			FullLanes:   link.lanes,
			StartNodeID: int(link.sourceNodeID),
			EndNodeID:   int(link.targetNodeID),
			RoadParam:   int(scenario.linkRoadParams[link.ID]),
		}
		if len(link.geom) > 2 {
			element.Points = &PointsDocument{Points: make([]PointElement, 0, len(link.geom))}
			for _, pt := range link.geom {
				element.Points.Points = append(element.Points.Points, PointElement{X: Float(pt.X()), Y: Float(pt.Y())})
			}
		}
		doc.Network.Links.Links = append(doc.Network.Links.Links, element)
	}

	doc.Network.RoadParams.RoadParams = make([]RoadParamElement, 0, len(scenario.roadParams))
	for _, param := range scenario.roadParams {
		doc.Network.RoadParams.RoadParams = append(doc.Network.RoadParams.RoadParams, RoadParamElement{
			ID:         int(param.ID),
			Name:       param.Name,
			Speed:      Float(param.Speed),
			Capacity:   Float(param.Capacity),
			JamDensity: Float(param.JamDensity),
		})
	}

	doc.Network.RoadConnections.RoadConnections = make([]RoadConnectionElement, 0, len(scenario.movements))
	for _, mvmt := range scenario.movements {
		doc.Network.RoadConnections.RoadConnections = append(doc.Network.RoadConnections.RoadConnections, RoadConnectionElement{
			ID:           int(mvmt.ID),
			InLink:       int(mvmt.IncomingLinkID),
			OutLink:      int(mvmt.OutcomingLinkID),
			InLinkLanes:  mvmt.IncomeLanes(),
			OutLinkLanes: mvmt.OutcomeLanes(),
		})
	}

	doc.Splits.SplitNodes = make([]SplitNodeElement, 0, len(scenario.splits))
	for _, split := range scenario.splits {
		element := SplitNodeElement{
			NodeID:      int(split.NodeID),
			CommodityID: int(split.CommodityID),
			LinkIn:      int(split.LinkIn),
			Splits:      make([]SplitElement, 0, len(split.Ratios)),
		}
		for _, ratio := range split.Ratios {
			element.Splits = append(element.Splits, SplitElement{LinkOut: int(ratio.LinkOut), Ratio: Float(ratio.Ratio)})
		}
		doc.Splits.SplitNodes = append(doc.Splits.SplitNodes, element)
	}

	doc.Subnetworks.Subnetworks = make([]SubnetworkElement, 0, len(scenario.subnetworks))
	for _, subnetwork := range scenario.subnetworks {
		linkIDs := make(IntList, len(subnetwork.LinkIDs))
		for i, linkID := range subnetwork.LinkIDs {
			linkIDs[i] = int(linkID)
		}
		doc.Subnetworks.Subnetworks = append(doc.Subnetworks.Subnetworks, SubnetworkElement{ID: subnetwork.ID, LinkIDs: linkIDs})
	}

	doc.Commodities.Commodities = make([]CommodityElement, 0, len(scenario.commodities))
	for _, commodity := range scenario.commodities {
		doc.Commodities.Commodities = append(doc.Commodities.Commodities, CommodityElement{
			ID:          int(commodity.ID),
			Name:        commodity.Name,
			Subnetworks: IntList(commodity.Subnetworks),
			Pathfull:    commodity.Pathfull,
		})
	}

	doc.Demands.Demands = make([]DemandElement, 0, len(scenario.demands))
	for _, demand := range scenario.demands {
		doc.Demands.Demands = append(doc.Demands.Demands, DemandElement{
			CommodityID: int(demand.CommodityID),
			Subnetwork:  demand.SubnetworkID,
			StartTime:   Float(demand.StartTime),
			LinkID:      int(demand.LinkID),
			Dt:          Float(demand.Dt),
			Values:      FloatList(demand.Values),
		})
	}

	cfg := scenario.cfg
	if cfg.Controller.Enabled {
		doc.Sensors = &SensorsDocument{Sensors: make([]SensorElement, 0, len(scenario.sensors))}
		controller := ControllerElement{
			ID:   cfg.Controller.ID,
			Type: cfg.Controller.Type,
			Dt:   Float(cfg.Controller.Dt),
		}
		for _, sensor := range scenario.sensors {
			doc.Sensors.Sensors = append(doc.Sensors.Sensors, SensorElement{
				ID:     sensor.ID,
				Type:   sensor.Type,
				LinkID: int(sensor.LinkID),
				Dt:     Float(sensor.Dt),
			})
			controller.FeedbackSensors.Sensors = append(controller.FeedbackSensors.Sensors, UsageElement{ID: sensor.ID, Usage: sensor.ID})
		}
		for _, actuator := range scenario.actuators {
			controller.TargetActuators.Actuators = append(controller.TargetActuators.Actuators, UsageElement{ID: actuator.ID, Usage: int(actuator.NodeID)})
		}
		doc.Controllers = &ControllersDocument{Controllers: []ControllerElement{controller}}
	}

	if len(cfg.Plugins) > 0 {
		doc.Plugins = &PluginsDocument{Plugins: make([]PluginElement, 0, len(cfg.Plugins))}
		for _, plugin := range cfg.Plugins {
			doc.Plugins.Plugins = append(doc.Plugins.Plugins, PluginElement{Name: plugin.Name, Folder: plugin.Folder, Class: plugin.Class})
		}
	}

	if len(scenario.actuators) > 0 {
		doc.Actuators = &ActuatorsDocument{Actuators: make([]ActuatorElement, 0, len(scenario.actuators))}
		for _, actuator := range scenario.actuators {
			element := ActuatorElement{
				ID:     actuator.ID,
				Type:   "signal",
				Target: ActuatorTargetElement{Type: "node", ID: int(actuator.NodeID)},
				Signal: SignalElement{Phases: make([]PhaseElement, 0, len(actuator.Phases))},
			}
			for _, phase := range actuator.Phases {
				rcs := make(IntList, len(phase.RoadConnectionIDs))
				for i, rc := range phase.RoadConnectionIDs {
					rcs[i] = int(rc)
				}
				element.Signal.Phases = append(element.Signal.Phases, PhaseElement{
					ID:                phase.ID,
					YellowTime:        Float(phase.YellowTime),
					RedClearTime:      Float(phase.RedClearTime),
					MinGreenTime:      Float(phase.MinGreenTime),
					RoadConnectionIDs: rcs,
				})
			}
			doc.Actuators.Actuators = append(doc.Actuators.Actuators, element)
		}
	}

	doc.Models = &ModelsDocument{Models: []ModelElement{{
		Type:      cfg.Model.Type,
		Name:      cfg.Model.Name,
		IsDefault: cfg.Model.IsDefault,
		Params: ModelParamsElement{
			MaxCellLength: Float(cfg.Model.MaxCellLength),
			SimDt:         Float(cfg.Model.SimDt),
		},
	}}}
	return doc
}

// WriteXML writes scenario document. Errors of the writer are returned as is
func (scenario *Scenario) WriteXML(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(scenario.Document()); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ExportToXML writes scenario document into the file
func (scenario *Scenario) ExportToXML(fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := scenario.WriteXML(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ReadScenario parses scenario document
func ReadScenario(r io.Reader) (*ScenarioDocument, error) {
	doc := &ScenarioDocument{}
	if err := xml.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrap(err, "Can't decode scenario document")
	}
	return doc, nil
}
