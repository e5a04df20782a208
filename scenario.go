package net2otm

// Subnetwork is a named set of links available to commodities
type Subnetwork struct {
	LinkIDs []NetworkLinkID
	ID      int
}

// Commodity is a vehicle class with subnetworks it may use
type Commodity struct {
	Name        string
	Subnetworks []int
	ID          CommodityID
	Pathfull    bool
}

// Sensor is a fixed loop detector placed on a link
type Sensor struct {
	Type   string
	ID     int
	LinkID NetworkLinkID
	Dt     float64
}

// CompileReport collects diagnostics of a single compilation
type CompileReport struct {
	// Warnings are recoverable issues, e.g. ErrUnsupportedTopology
	Warnings                []error
	Nodes                   int
	Links                   int
	RoadParams              int
	Movements               int
	Splits                  int
	Demands                 int
	Actuators               int
	DegenerateNodes         int
	ExcludedBoundaryNodes   int
	DuplicatedBoundaryNodes int
	NonCardinalMovements    int
	Components              int
}

// Scenario is the fully populated model ready to be serialized
type Scenario struct {
	network        *Network
	roadParams     []RoadParam
	linkRoadParams []RoadParamID
	movements      []*Movement
	splits         []*Split
	subnetworks    []Subnetwork
	commodities    []Commodity
	demands        []*Demand
	sensors        []Sensor
	actuators      []*Actuator
	cfg            Config
	report         CompileReport
}

// Network returns graph the scenario has been compiled from. It differs from the input one when boundary nodes have been duplicated
func (scenario *Scenario) Network() *Network {
	return scenario.network
}

func (scenario *Scenario) RoadParams() []RoadParam {
	return scenario.roadParams
}

// LinkRoadParam returns road parameter of the link
func (scenario *Scenario) LinkRoadParam(linkID NetworkLinkID) RoadParamID {
	return scenario.linkRoadParams[linkID]
}

// Movements returns road connections in ascending identifier order
func (scenario *Scenario) Movements() []*Movement {
	return scenario.movements
}

func (scenario *Scenario) Splits() []*Split {
	return scenario.splits
}

func (scenario *Scenario) Subnetworks() []Subnetwork {
	return scenario.subnetworks
}

func (scenario *Scenario) Commodities() []Commodity {
	return scenario.commodities
}

func (scenario *Scenario) Demands() []*Demand {
	return scenario.demands
}

func (scenario *Scenario) Sensors() []Sensor {
	return scenario.sensors
}

func (scenario *Scenario) Actuators() []*Actuator {
	return scenario.actuators
}

func (scenario *Scenario) Report() CompileReport {
	return scenario.report
}
