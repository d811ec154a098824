package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/wxhealth/riskbench/internal/evaluation"
	"github.com/wxhealth/riskbench/internal/models"
	"github.com/wxhealth/riskbench/internal/predictor"
	"github.com/wxhealth/riskbench/internal/projectconfig"
	"github.com/wxhealth/riskbench/internal/results"
	"github.com/wxhealth/riskbench/internal/risk"
	"golang.org/x/sync/errgroup"
)

var (
	runModels      []string
	runEndpoint    string
	runAPIKey      string
	runTimeoutSec  int
	runSensitivity float64
	runBackend     string
	runOutputDir   string
	runNoSave      bool
	runVerbose     bool
	runConditions  []string
)

// modelRun pairs a model identifier with its completed result set.
type modelRun struct {
	model string
	set   *models.ResultSet
	path  string
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scenario catalog against one or more predictors",
		Long: `Run every catalog scenario against a prediction backend.

Each scenario's answer is compared to the deterministic classifier's ground
truth. Backend failures (unreachable, timeout, malformed response) are
recorded per scenario and never abort the run. The exit status reflects only
whether the run could be configured and executed — prediction inaccuracy is
data, not an error.`,
		Args: cobra.NoArgs,
		RunE: runCommandE,
	}

	cmd.Flags().StringArrayVarP(&runModels, "model", "m", nil, "Model identity (can be repeated to evaluate several models)")
	cmd.Flags().StringVar(&runEndpoint, "endpoint", "", "Prediction endpoint URL")
	cmd.Flags().StringVar(&runAPIKey, "api-key", "", "API key sent as bearer token (optional for local backends)")
	cmd.Flags().IntVar(&runTimeoutSec, "timeout", 0, "Per-prediction timeout in seconds")
	cmd.Flags().Float64Var(&runSensitivity, "sensitivity", risk.DefaultSensitivity, "Sensitivity multiplier in (0, 2]")
	cmd.Flags().StringVar(&runBackend, "backend", "", "Backend kind: http or mock")
	cmd.Flags().StringVarP(&runOutputDir, "output-dir", "o", "", "Directory for result records")
	cmd.Flags().BoolVar(&runNoSave, "no-save", false, "Don't persist the result record (ephemeral run)")
	cmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Verbose output with per-scenario detail")
	cmd.Flags().StringArrayVar(&runConditions, "condition", nil, "Restrict to a condition: migraine or sinusitis (can be repeated)")

	return cmd
}

// runSettings is the fully resolved run configuration: flags layered over
// .riskbench.yaml over defaults.
type runSettings struct {
	models      []string
	endpoint    string
	apiKey      string
	timeout     time.Duration
	sensitivity float64
	backend     string
	outputDir   string
	conditions  []risk.Condition
}

func resolveRunSettings(cmd *cobra.Command) (*runSettings, error) {
	cfg, err := projectconfig.Load(".")
	if err != nil {
		return nil, err
	}

	s := &runSettings{
		models:      runModels,
		endpoint:    runEndpoint,
		apiKey:      runAPIKey,
		sensitivity: runSensitivity,
		backend:     runBackend,
		outputDir:   runOutputDir,
	}

	if s.endpoint == "" {
		s.endpoint = cfg.Defaults.Endpoint
	}
	if s.apiKey == "" {
		s.apiKey = cfg.Defaults.APIKey
	}
	if s.backend == "" {
		s.backend = cfg.Defaults.Backend
	}
	if s.outputDir == "" {
		s.outputDir = cfg.Paths.Results
	}

	timeoutSec := runTimeoutSec
	if timeoutSec <= 0 {
		timeoutSec = cfg.Defaults.Timeout
	}
	s.timeout = time.Duration(timeoutSec) * time.Second

	if !cmd.Flags().Changed("sensitivity") && cfg.Defaults.Sensitivity != 0 {
		s.sensitivity = cfg.Defaults.Sensitivity
	}
	if err := risk.ValidateSensitivity(s.sensitivity); err != nil {
		return nil, err
	}

	if len(s.models) == 0 && cfg.Defaults.Model != "" {
		s.models = []string{cfg.Defaults.Model}
	}

	switch s.backend {
	case "http":
		if s.endpoint == "" {
			return nil, fmt.Errorf("no endpoint configured: set --endpoint or defaults.endpoint in .riskbench.yaml")
		}
		if len(s.models) == 0 {
			return nil, fmt.Errorf("no model configured: set --model or defaults.model in .riskbench.yaml")
		}
	case "mock":
		if len(s.models) == 0 {
			s.models = []string{"mock"}
		}
	default:
		return nil, fmt.Errorf("unknown backend %q (supported: http, mock)", s.backend)
	}

	for _, c := range runConditions {
		cond, err := risk.ParseCondition(c)
		if err != nil {
			return nil, err
		}
		s.conditions = append(s.conditions, cond)
	}

	return s, nil
}

func (s *runSettings) buildPredictor(model string) (predictor.Predictor, error) {
	switch s.backend {
	case "mock":
		return predictor.NewMockPredictor(model), nil
	default:
		return predictor.NewHTTPPredictor(predictor.HTTPOptions{
			Endpoint: s.endpoint,
			Model:    model,
			APIKey:   s.apiKey,
			Timeout:  s.timeout,
		})
	}
}

func runCommandE(cmd *cobra.Command, _ []string) error {
	settings, err := resolveRunSettings(cmd)
	if err != nil {
		return err
	}

	// Predictors are constructed up front so a bad configuration fails
	// before any scenario executes.
	predictors := make([]predictor.Predictor, 0, len(settings.models))
	for _, model := range settings.models {
		p, err := settings.buildPredictor(model)
		if err != nil {
			return fmt.Errorf("configuring predictor for %s: %w", model, err)
		}
		predictors = append(predictors, p)
	}

	store := results.NewStore(settings.outputDir)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Printf("Backend: %s\n", settings.backend)
	if settings.endpoint != "" {
		fmt.Printf("Endpoint: %s\n", settings.endpoint)
	}
	fmt.Printf("Sensitivity: %.2f\n", settings.sensitivity)
	fmt.Println()

	var runs []modelRun
	if len(predictors) == 1 {
		run, err := executeSingle(ctx, settings, predictors[0], store, true)
		if err != nil {
			return err
		}
		runs = append(runs, run)
	} else {
		// Different models evaluate concurrently; every runner is itself
		// strictly sequential over its scenarios.
		runs = make([]modelRun, len(predictors))
		g, gctx := errgroup.WithContext(ctx)
		for i, p := range predictors {
			i, p := i, p
			g.Go(func() error {
				fmt.Printf("Evaluating %s...\n", p.Model())
				run, err := executeSingle(gctx, settings, p, store, false)
				if err != nil {
					return err
				}
				runs[i] = run
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for _, run := range runs {
			printRunSummary(run.set)
		}
	}

	for _, run := range runs {
		if run.path != "" {
			fmt.Printf("Results saved to: %s\n", run.path)
		}
	}
	if len(runs) > 1 {
		printModelComparison(runs)
	}

	return nil
}

// executeSingle runs the catalog for one predictor and optionally persists
// the record. Progress is only streamed for single-model runs to keep
// concurrent output readable.
func executeSingle(ctx context.Context, settings *runSettings, p predictor.Predictor, store *results.Store, streamProgress bool) (modelRun, error) {
	opts := []evaluation.Option{
		evaluation.WithSensitivity(settings.sensitivity),
	}
	if len(settings.conditions) > 0 {
		opts = append(opts, evaluation.WithConditions(settings.conditions...))
	}
	runner := evaluation.NewRunner(p, opts...)

	if streamProgress {
		fmt.Printf("Model: %s\n\n", p.Model())
		if runVerbose {
			runner.OnProgress(verboseProgressListener)
		} else {
			runner.OnProgress(simpleProgressListener)
		}
	}

	set, err := runner.Run(ctx)
	if err != nil {
		return modelRun{}, fmt.Errorf("evaluation of %s failed: %w", p.Model(), err)
	}

	if streamProgress {
		printRunSummary(set)
	}

	run := modelRun{model: p.Model(), set: set}
	if !runNoSave {
		path, err := store.Save(set)
		if err != nil {
			return modelRun{}, fmt.Errorf("saving results for %s: %w", p.Model(), err)
		}
		run.path = path
	} else {
		slog.Debug("skipping persistence", "model", p.Model())
	}
	return run, nil
}

func verboseProgressListener(event evaluation.ProgressEvent) {
	switch event.Type {
	case evaluation.EventConditionStart:
		fmt.Printf("%s scenarios (%d):\n", strings.ToUpper(string(event.Condition)), event.TotalInCond)
	case evaluation.EventScenarioStart:
		fmt.Printf("[%d/%d] Testing: %s\n", event.ScenarioNum, event.TotalInCond, event.ScenarioName)
	case evaluation.EventScenarioComplete:
		r := event.Result
		status := "✗ FAIL"
		if r.Correct {
			status = "✓ PASS"
		}
		fmt.Printf("    Weighted Score: %.3f\n", r.WeightedScore)
		fmt.Printf("    Expected: %s | Predicted: %s | %s\n", r.Expected, orNA(string(r.Predicted)), status)
		if r.Confidence != nil {
			fmt.Printf("    Confidence: %.2f\n", *r.Confidence)
		}
		if r.Error != "" {
			fmt.Printf("    ERROR: %s\n", r.Error)
		}
	case evaluation.EventRunComplete:
		duration := time.Duration(event.DurationMs) * time.Millisecond
		fmt.Printf("\nRun completed in %v\n", duration)
	}
}

func simpleProgressListener(event evaluation.ProgressEvent) {
	if event.Type != evaluation.EventScenarioComplete {
		return
	}
	icon := "✗"
	if event.Result.Correct {
		icon = "✓"
	}
	fmt.Printf("%s [%d/%d] %s/%s\n", icon, event.ScenarioNum, event.TotalInCond, event.Condition, event.ScenarioName)
}

func printRunSummary(set *models.ResultSet) {
	fmt.Println()
	fmt.Println("=" + strings.Repeat("=", 50))
	fmt.Printf(" RESULTS: %s\n", set.Model)
	fmt.Println("=" + strings.Repeat("=", 50))

	for _, cond := range risk.Conditions() {
		cs, ok := set.Summary.Conditions[cond]
		if !ok {
			continue
		}
		fmt.Printf("%-12s accuracy: %5.1f%% (%d/%d), errors: %d\n",
			cond, cs.Accuracy*100, cs.Correct, cs.Total, cs.Errors)
	}

	fmt.Printf("%-12s accuracy: %5.1f%% (%d/%d), errors: %d\n",
		"overall", set.Summary.OverallAccuracy*100,
		set.Summary.TotalCorrect, set.Summary.TotalTests, set.Summary.TotalErrors)
	fmt.Printf("Verdict: %s\n", set.Summary.Grade())

	var missed []models.PredictionResult
	for _, cond := range risk.Conditions() {
		for _, r := range set.Predictions[cond] {
			if !r.Correct {
				missed = append(missed, r)
			}
		}
	}
	if len(missed) > 0 {
		fmt.Println("\nMissed scenarios:")
		for _, r := range missed {
			if r.Error != "" {
				fmt.Printf("  ✗ %s/%s — error: %s\n", r.Condition, r.ScenarioName, r.Error)
			} else {
				fmt.Printf("  ✗ %s/%s — expected %s, predicted %s\n", r.Condition, r.ScenarioName, r.Expected, r.Predicted)
			}
		}
	}
	fmt.Println()
}

// printModelComparison renders the accuracy table for multi-model runs.
func printModelComparison(runs []modelRun) {
	fmt.Println()
	fmt.Println("═" + strings.Repeat("═", 60))
	fmt.Println(" MODEL COMPARISON")
	fmt.Println("═" + strings.Repeat("═", 60))
	fmt.Printf("%-30s %-10s %-10s %s\n", "Model", "Overall", "Correct", "Errors")
	fmt.Println("─" + strings.Repeat("─", 60))

	for _, run := range runs {
		s := run.set.Summary
		fmt.Printf("%-30s %-10s %d/%-8d %d\n",
			truncateName(run.model, 30),
			fmt.Sprintf("%.1f%%", s.OverallAccuracy*100),
			s.TotalCorrect, s.TotalTests, s.TotalErrors)
	}
	fmt.Println()
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
