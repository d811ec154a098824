// Package evaluation drives the scenario catalog against one predictor
// instance and assembles an immutable ResultSet. Scenario predictions run
// strictly sequentially: backends are often rate-limited or locally hosted,
// and sequential execution keeps per-model latency attributable. Running
// separate Runners for different models concurrently is safe — they share
// nothing mutable.
package evaluation

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/wxhealth/riskbench/internal/models"
	"github.com/wxhealth/riskbench/internal/predictor"
	"github.com/wxhealth/riskbench/internal/risk"
	"github.com/wxhealth/riskbench/internal/scenario"
)

// EventType identifies a progress event.
type EventType string

const (
	EventRunStart         EventType = "run_start"
	EventConditionStart   EventType = "condition_start"
	EventScenarioStart    EventType = "scenario_start"
	EventScenarioComplete EventType = "scenario_complete"
	EventRunComplete      EventType = "run_complete"
)

// ProgressEvent is a progress update emitted during a run.
type ProgressEvent struct {
	Type         EventType
	Condition    risk.Condition
	ScenarioName string
	ScenarioNum  int
	TotalInCond  int
	// Result is set on EventScenarioComplete.
	Result     *models.PredictionResult
	DurationMs int64
}

// ProgressListener receives progress updates.
type ProgressListener func(event ProgressEvent)

// Runner executes the full catalog against one predictor.
type Runner struct {
	pred        predictor.Predictor
	sensitivity float64
	conditions  []risk.Condition
	clock       clockwork.Clock

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// Option configures a Runner.
type Option func(*Runner)

// WithSensitivity overrides the default sensitivity of 1.0 for the whole
// run. Expected classifications are re-derived from the deterministic
// classifier at the overridden value.
func WithSensitivity(s float64) Option {
	return func(r *Runner) {
		r.sensitivity = s
	}
}

// WithConditions restricts the run to the given conditions.
func WithConditions(conds ...risk.Condition) Option {
	return func(r *Runner) {
		if len(conds) > 0 {
			r.conditions = conds
		}
	}
}

// WithClock injects the clock used for the run timestamp.
func WithClock(c clockwork.Clock) Option {
	return func(r *Runner) {
		r.clock = c
	}
}

// NewRunner creates a runner for one predictor instance.
func NewRunner(pred predictor.Predictor, opts ...Option) *Runner {
	r := &Runner{
		pred:        pred,
		sensitivity: risk.DefaultSensitivity,
		conditions:  risk.Conditions(),
		clock:       clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// OnProgress registers a progress listener.
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notify(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}

// Run executes every catalog scenario for the configured conditions and
// returns the complete ResultSet. Predictor failures never abort the run:
// each failed call is recorded on that scenario's result with Correct set
// false. The run produces exactly one PredictionResult per catalog scenario.
// The only error Run returns is context cancellation, checked between
// scenario boundaries; no partial result escapes in that case.
func (r *Runner) Run(ctx context.Context) (*models.ResultSet, error) {
	if err := risk.ValidateSensitivity(r.sensitivity); err != nil {
		return nil, err
	}

	start := r.clock.Now().UTC()
	r.notify(ProgressEvent{Type: EventRunStart})

	predictions := make(map[risk.Condition][]models.PredictionResult, len(r.conditions))

	for _, cond := range r.conditions {
		scenarios := scenario.ForCondition(cond)
		r.notify(ProgressEvent{Type: EventConditionStart, Condition: cond, TotalInCond: len(scenarios)})

		results := make([]models.PredictionResult, 0, len(scenarios))
		for i := range scenarios {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			sc := &scenarios[i]
			r.notify(ProgressEvent{
				Type:         EventScenarioStart,
				Condition:    cond,
				ScenarioName: sc.Name,
				ScenarioNum:  i + 1,
				TotalInCond:  len(scenarios),
			})

			result := r.runScenario(ctx, sc)
			results = append(results, result)

			r.notify(ProgressEvent{
				Type:         EventScenarioComplete,
				Condition:    cond,
				ScenarioName: sc.Name,
				ScenarioNum:  i + 1,
				TotalInCond:  len(scenarios),
				Result:       &result,
				DurationMs:   result.DurationMs,
			})
		}
		predictions[cond] = results
	}

	set := &models.ResultSet{
		RunID:       uuid.NewString(),
		Model:       r.pred.Model(),
		Endpoint:    r.pred.Endpoint(),
		Timestamp:   start,
		Sensitivity: r.sensitivity,
		Predictions: predictions,
		Summary:     models.BuildSummary(predictions),
	}

	r.notify(ProgressEvent{
		Type:       EventRunComplete,
		DurationMs: r.clock.Since(start).Milliseconds(),
	})
	return set, nil
}

// runScenario evaluates one scenario: derive the ground truth, call the
// predictor, and fold any failure into the recorded result.
func (r *Runner) runScenario(ctx context.Context, sc *scenario.Scenario) models.PredictionResult {
	result := models.PredictionResult{
		ScenarioName: sc.Name,
		Description:  sc.Description,
		Condition:    sc.Condition,
	}

	score, err := risk.WeightedScore(sc.Condition, sc.FactorScores)
	if err != nil {
		// A validation failure aborts only this scenario's scoring; the
		// catalog is checked for this in tests so it indicates fixture
		// corruption.
		result.Error = err.Error()
		return result
	}
	result.WeightedScore = score
	result.Expected = risk.Classify(score, r.sensitivity, sc.Condition)

	pred := r.pred.Predict(ctx, predictor.Request{
		Condition:        sc.Condition,
		FactorScores:     sc.FactorScores,
		AggregateContext: sc.AggregateContext,
		Sensitivity:      r.sensitivity,
	})
	result.DurationMs = pred.DurationMs

	if pred.Failed() {
		result.Error = pred.Err.Error()
		return result
	}

	level, ok := pred.Response.Level()
	if !ok {
		// The HTTP adapter schema-checks responses, but the interface does
		// not guarantee it for other backends.
		result.Error = (&predictor.MalformedResponseError{
			Reason: "invalid classification " + pred.Response.Classification,
		}).Error()
		return result
	}

	confidence := pred.Response.Confidence
	result.Predicted = level
	result.Correct = level == result.Expected
	result.Confidence = &confidence
	result.Rationale = pred.Response.Rationale
	result.Analysis = pred.Response.Analysis
	return result
}

// IsCancellation reports whether a Run error was a context cancellation
// rather than a configuration problem.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
