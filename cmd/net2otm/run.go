package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/LdDl/net2otm/engine"
	"github.com/LdDl/net2otm/engine/store"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const engineURLEnv = "NET2OTM_ENGINE_URL"

var (
	runScenario  string
	runEngineURL string
	runSimTime   float64
	runSampleDt  float64
	runTrials    int
	runParallel  int
	runDB        string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run scenario document on the simulation engine and collect link outputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		engineURL := runEngineURL
		if engineURL == "" {
			engineURL = os.Getenv(engineURLEnv)
		}
		if engineURL == "" {
			return errors.Errorf("engine URL is not set: use --engine-url or %s", engineURLEnv)
		}
		eng, err := engine.NewHTTPEngine(engineURL, engine.WithLogger(logger))
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		runner := engine.NewRunner(eng,
			engine.WithSimulationTime(runSimTime),
			engine.WithSampleDt(runSampleDt),
			engine.WithRunnerLogger(logger),
		)
		var result *engine.Result
		if runTrials > 1 {
			result, err = runner.RunTrials(ctx, runScenario, runTrials, runParallel)
		} else {
			result, err = runner.Run(ctx, runScenario)
		}
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Simulation of '%s' took %v (%d trial(s), %d links)\n", runScenario, result.Elapsed, result.Trials, len(result.LinkFlows))

		if runDB == "" {
			return nil
		}
		return saveResult(ctx, result)
	},
}

func saveResult(ctx context.Context, result *engine.Result) error {
	st, err := store.Open(runDB)
	if err != nil {
		return err
	}
	defer st.Close()
	runID, err := st.SaveRun(ctx, result)
	if err != nil {
		return err
	}
	logger.Info("run saved", zap.String("run_id", runID), zap.String("db", runDB))
	return nil
}

func init() {
	runCmd.Flags().StringVarP(&runScenario, "scenario", "s", "scenario.xml", "Scenario document")
	runCmd.Flags().StringVar(&runEngineURL, "engine-url", "", "Engine gateway URL (default: "+engineURLEnv+" env var)")
	runCmd.Flags().Float64Var(&runSimTime, "sim-time", engine.DEFAULT_SIMULATION_TIME, "Simulated duration (seconds)")
	runCmd.Flags().Float64Var(&runSampleDt, "sample-dt", engine.DEFAULT_SAMPLE_DT, "Sampling interval of link outputs (seconds)")
	runCmd.Flags().IntVar(&runTrials, "trials", 1, "Number of independent runs to average")
	runCmd.Flags().IntVar(&runParallel, "parallel", 1, "Maximum number of simultaneous runs")
	runCmd.Flags().StringVar(&runDB, "db", "", "SQLite file to store link outputs into")
	rootCmd.AddCommand(runCmd)
}
