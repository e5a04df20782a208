package net2otm

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Compiler turns road network into simulation scenario
type Compiler struct {
	logger *zap.Logger
	cfg    Config
}

type Option func(*Compiler)

// NewCompiler returns compiler with DefaultConfig and no-op logger unless options say otherwise
func NewCompiler(options ...Option) *Compiler {
	compiler := &Compiler{
		logger: zap.NewNop(),
		cfg:    DefaultConfig(),
	}
	for _, o := range options {
		o(compiler)
	}
	return compiler
}

func WithConfig(cfg Config) Option {
	return func(compiler *Compiler) {
		compiler.cfg = cfg
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(compiler *Compiler) {
		if logger != nil {
			compiler.logger = logger
		}
	}
}

// WithWorkers sets number of goroutines used for per-node stages
func WithWorkers(workers int) Option {
	return func(compiler *Compiler) {
		compiler.cfg.Workers = workers
	}
}

func (compiler *Compiler) Config() Config {
	return compiler.cfg
}

// Compile derives every scenario table from the network. The input network is never modified
func (compiler *Compiler) Compile(net *Network) (*Scenario, error) {
	if net == nil {
		return nil, errors.Wrap(ErrMalformedGraph, "network is nil")
	}
	cfg := compiler.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := compiler.logger
	st := time.Now()

	scenario := &Scenario{
		network: net,
		cfg:     cfg,
	}
	report := &scenario.report
	report.Components = net.weakComponents()
	if report.Components > 1 {
		log.Warn("network is not weakly connected", zap.Int("components", report.Components))
	}

	if cfg.Boundary == BOUNDARY_DUPLICATE_NODE {
		scenario.network, report.DuplicatedBoundaryNodes = net.duplicateSourceNodes()
		if report.DuplicatedBoundaryNodes > 0 {
			log.Info("boundary nodes duplicated", zap.Int("created_nodes", report.DuplicatedBoundaryNodes))
		}
	}
	work := scenario.network
	report.Nodes, report.Links = work.NodesNum(), work.LinksNum()

	catalog := newRoadParamCatalog()
	scenario.linkRoadParams = catalog.internLinks(work.links)
	scenario.roadParams = catalog.Params()
	report.RoadParams = len(scenario.roadParams)
	log.Info("road parameters prepared", zap.Int("road_params", report.RoadParams))

	mvmtStart := time.Now()
	perNode, err := work.genMovements(cfg.movementSettings(), cfg.Workers)
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare movements")
	}
	scenario.movements = make([]*Movement, 0)
	for i, movements := range perNode {
		node := work.nodes[i]
		if len(movements) == 0 && len(node.incomingLinks) > 0 && len(node.outcomingLinks) > 0 {
			report.DegenerateNodes++
			log.Debug("node has no movements", zap.Int("node_id", int(node.ID)))
		}
		scenario.movements = append(scenario.movements, movements...)
	}
	report.Movements = len(scenario.movements)
	log.Info("movements prepared",
		zap.Int("movements", report.Movements),
		zap.Int("degenerate_nodes", report.DegenerateNodes),
		zap.Duration("elapsed", time.Since(mvmtStart)),
	)

	commodities := cfg.commodityIDs()
	scenario.splits = make([]*Split, 0)
	for i, movements := range perNode {
		scenario.splits = append(scenario.splits, genSplits(NetworkNodeID(i), movements, commodities)...)
	}
	report.Splits = len(scenario.splits)

	scenario.subnetworks = work.subnetworks()
	scenario.commodities, err = resolveCommodities(cfg.Commodities, scenario.subnetworks)
	if err != nil {
		return nil, err
	}

	boundary, excluded := work.boundaryLinks()
	report.ExcludedBoundaryNodes = len(excluded)
	if len(excluded) > 0 {
		log.Warn("source nodes with several outcoming links are not used for demand injection",
			zap.Int("excluded_nodes", len(excluded)),
			zap.Ints("node_ids", lo.Map(excluded, func(id NetworkNodeID, _ int) int { return int(id) })),
		)
	}
	scenario.demands = genDemands(work, boundary, scenario.commodities, cfg.Demand)
	report.Demands = len(scenario.demands)
	log.Info("demands prepared", zap.Int("boundary_links", len(boundary)), zap.Int("demands", report.Demands))

	if cfg.Controller.Enabled {
		scenario.sensors = make([]Sensor, 0, len(work.links))
		for _, link := range work.links {
			scenario.sensors = append(scenario.sensors, Sensor{
				Type:   cfg.Controller.SensorType,
				ID:     int(link.ID),
				LinkID: link.ID,
				Dt:     cfg.Controller.SensorDt,
			})
		}
	}

	scenario.actuators = make([]*Actuator, 0)
	for i, movements := range perNode {
		nonCardinal := lo.CountBy(movements, func(mvmt *Movement) bool { return !mvmt.cardinal })
		report.NonCardinalMovements += nonCardinal
		node := work.nodes[i]
		if !cfg.Phases.signalized(node) {
			continue
		}
		if nonCardinal > 0 && cfg.Phases.StrictCardinal {
			warning := unsupportedTopology(node.ID, nonCardinal)
			report.Warnings = append(report.Warnings, warning)
			log.Warn("intersection is not aligned to cardinal directions", zap.Error(warning))
		}
		phases := cfg.Phases.genPhases(movements)
		if len(phases) == 0 {
			continue
		}
		scenario.actuators = append(scenario.actuators, &Actuator{
			Phases: phases,
			ID:     len(scenario.actuators),
			NodeID: node.ID,
		})
	}
	report.Actuators = len(scenario.actuators)
	if report.NonCardinalMovements > 0 {
		log.Info("movements assigned to the nearest cardinal direction", zap.Int("movements", report.NonCardinalMovements))
	}

	log.Info("scenario compiled",
		zap.Int("nodes", report.Nodes),
		zap.Int("links", report.Links),
		zap.Int("splits", report.Splits),
		zap.Int("actuators", report.Actuators),
		zap.Duration("elapsed", time.Since(st)),
	)
	return scenario, nil
}

// subnetworks groups links by subnetwork identifier. Both groups and links inside them are sorted
func (net *Network) subnetworks() []Subnetwork {
	grouped := lo.GroupBy(net.links, func(link *NetworkLink) int { return link.subnetworkID })
	ids := lo.Keys(grouped)
	sort.Ints(ids)
	subnetworks := make([]Subnetwork, 0, len(ids))
	for _, id := range ids {
		linkIDs := lo.Map(grouped[id], func(link *NetworkLink, _ int) NetworkLinkID { return link.ID })
		sortLinkIDs(linkIDs)
		subnetworks = append(subnetworks, Subnetwork{LinkIDs: linkIDs, ID: id})
	}
	return subnetworks
}

func resolveCommodities(declared []CommodityConfig, subnetworks []Subnetwork) ([]Commodity, error) {
	known := lo.Map(subnetworks, func(s Subnetwork, _ int) int { return s.ID })
	commodities := make([]Commodity, 0, len(declared))
	for _, commodityCfg := range declared {
		commodity := Commodity{
			Name:     commodityCfg.Name,
			ID:       CommodityID(commodityCfg.ID),
			Pathfull: commodityCfg.Pathfull,
		}
		if len(commodityCfg.Subnetworks) == 0 {
			commodity.Subnetworks = append([]int(nil), known...)
		} else {
			for _, subnetworkID := range commodityCfg.Subnetworks {
				if !lo.Contains(known, subnetworkID) {
					return nil, errors.Wrapf(ErrInvalidConfig, "commodity %d refers to unknown subnetwork %d", commodityCfg.ID, subnetworkID)
				}
			}
			commodity.Subnetworks = lo.Uniq(commodityCfg.Subnetworks)
			sort.Ints(commodity.Subnetworks)
		}
		commodities = append(commodities, commodity)
	}
	return commodities, nil
}
