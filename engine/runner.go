package engine

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DEFAULT_SIMULATION_TIME = 2 * 7200.0
	DEFAULT_SAMPLE_DT       = 15.0
)

// Result holds link outputs of a single run (or mean of several runs)
type Result struct {
	LinkVehicles   LinkSeries
	LinkFlows      LinkSeries
	DocumentPath   string
	SimulationTime float64
	SampleDt       float64
	Trials         int
	Elapsed        time.Duration
}

// Runner loads scenario, runs it from zero to the simulation time and collects vehicles and flows of every link
type Runner struct {
	engine         Engine
	logger         *zap.Logger
	schedules      map[int][]float64
	simulationTime float64
	sampleDt       float64
}

type RunnerOption func(*Runner)

// WithSimulationTime sets simulated duration (seconds)
func WithSimulationTime(seconds float64) RunnerOption {
	return func(runner *Runner) {
		runner.simulationTime = seconds
	}
}

// WithSampleDt sets sampling interval of link outputs (seconds)
func WithSampleDt(seconds float64) RunnerOption {
	return func(runner *Runner) {
		runner.sampleDt = seconds
	}
}

// WithSchedule inserts stage durations for the actuator before every run
func WithSchedule(actuatorID int, stageDurations []float64) RunnerOption {
	return func(runner *Runner) {
		runner.schedules[actuatorID] = stageDurations
	}
}

func WithRunnerLogger(logger *zap.Logger) RunnerOption {
	return func(runner *Runner) {
		runner.logger = logger
	}
}

func NewRunner(engine Engine, options ...RunnerOption) *Runner {
	runner := &Runner{
		engine:         engine,
		logger:         zap.NewNop(),
		schedules:      make(map[int][]float64),
		simulationTime: DEFAULT_SIMULATION_TIME,
		sampleDt:       DEFAULT_SAMPLE_DT,
	}
	for _, o := range options {
		o(runner)
	}
	return runner
}

// Run performs single simulation of the document
func (runner *Runner) Run(ctx context.Context, documentPath string) (*Result, error) {
	if runner.simulationTime <= 0 || runner.sampleDt <= 0 {
		return nil, errors.Errorf("simulation time and sample dt must be positive, got %v and %v", runner.simulationTime, runner.sampleDt)
	}
	session, err := runner.engine.Load(ctx, documentPath, true)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(context.Background()); err != nil {
			runner.logger.Warn("can't close session", zap.Error(err))
		}
	}()

	actuatorIDs := lo.Keys(runner.schedules)
	sort.Ints(actuatorIDs)
	for _, actuatorID := range actuatorIDs {
		if err := session.InsertActuatorSchedule(ctx, actuatorID, runner.schedules[actuatorID]); err != nil {
			return nil, errors.Wrapf(err, "Can't insert schedule of actuator %d", actuatorID)
		}
	}
	if err := session.RequestLinkOutputs(ctx, runner.sampleDt); err != nil {
		return nil, errors.Wrap(err, "Can't request link outputs")
	}
	st := time.Now()
	if err := session.Run(ctx, 0, runner.simulationTime); err != nil {
		return nil, errors.Wrap(err, "Can't run simulation")
	}
	elapsed := time.Since(st)
	runner.logger.Info("simulation done", zap.String("document", documentPath), zap.Float64("simulation_time", runner.simulationTime), zap.Duration("elapsed", elapsed))

	vehicles, err := session.LinkVehicles(ctx)
	if err != nil {
		return nil, err
	}
	flows, err := session.LinkFlows(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{
		LinkVehicles:   vehicles,
		LinkFlows:      flows,
		DocumentPath:   documentPath,
		SimulationTime: runner.simulationTime,
		SampleDt:       runner.sampleDt,
		Trials:         1,
		Elapsed:        elapsed,
	}, nil
}

// RunTrials performs several independent simulations (at most parallel at once) and averages their outputs element-wise
func (runner *Runner) RunTrials(ctx context.Context, documentPath string, trials, parallel int) (*Result, error) {
	if trials <= 0 {
		return nil, errors.Errorf("number of trials must be positive, got %d", trials)
	}
	st := time.Now()
	results := make([]*Result, trials)
	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i := 0; i < trials; i++ {
		i := i
		g.Go(func() error {
			res, err := runner.Run(gctx, documentPath)
			if err != nil {
				return errors.Wrapf(err, "trial %d", i)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Result{
		LinkVehicles:   meanSeries(lo.Map(results, func(r *Result, _ int) LinkSeries { return r.LinkVehicles })),
		LinkFlows:      meanSeries(lo.Map(results, func(r *Result, _ int) LinkSeries { return r.LinkFlows })),
		DocumentPath:   documentPath,
		SimulationTime: runner.simulationTime,
		SampleDt:       runner.sampleDt,
		Trials:         trials,
		Elapsed:        time.Since(st),
	}, nil
}

// meanSeries averages series of the same link. Shorter series contribute to the leading samples only
func meanSeries(all []LinkSeries) LinkSeries {
	sums := make(LinkSeries)
	counts := make(map[string][]int)
	for _, series := range all {
		for linkID, values := range series {
			for len(sums[linkID]) < len(values) {
				sums[linkID] = append(sums[linkID], 0)
				counts[linkID] = append(counts[linkID], 0)
			}
			for i, v := range values {
				sums[linkID][i] += v
				counts[linkID][i]++
			}
		}
	}
	for linkID, values := range sums {
		for i := range values {
			values[i] /= float64(counts[linkID][i])
		}
	}
	return sums
}
