// Package models defines the persisted result records produced by an
// evaluation run and the summary math over them.
package models

import (
	"time"

	"github.com/wxhealth/riskbench/internal/risk"
)

// PredictionResult is the recorded outcome of one scenario against one
// predictor. Exactly one exists per catalog scenario in every run,
// regardless of how many predictor calls failed.
type PredictionResult struct {
	ScenarioName string         `json:"scenario_name"`
	Description  string         `json:"description,omitempty"`
	Condition    risk.Condition `json:"condition"`

	// WeightedScore is the deterministic ground-truth score for the
	// scenario's factor inputs.
	WeightedScore float64             `json:"weighted_score"`
	Expected      risk.Classification `json:"expected"`

	// Predicted is empty when the predictor call failed; Error then carries
	// the failure. A failed call counts as incorrect.
	Predicted  risk.Classification `json:"predicted,omitempty"`
	Correct    bool                `json:"correct"`
	Confidence *float64            `json:"confidence,omitempty"`
	Rationale  string              `json:"rationale,omitempty"`
	Analysis   string              `json:"analysis,omitempty"`
	Error      string              `json:"error,omitempty"`
	DurationMs int64               `json:"duration_ms"`
}

// Errored reports whether the predictor call for this scenario failed.
func (p *PredictionResult) Errored() bool {
	return p.Error != ""
}

// ResultSet is the complete, immutable output of running every catalog
// scenario against one predictor instance.
type ResultSet struct {
	RunID       string                                 `json:"run_id"`
	Model       string                                 `json:"model"`
	Endpoint    string                                 `json:"endpoint"`
	Timestamp   time.Time                              `json:"timestamp"`
	Sensitivity float64                                `json:"sensitivity"`
	Predictions map[risk.Condition][]PredictionResult  `json:"predictions"`
	Summary     Summary                                `json:"summary"`
}

// ConditionSummary holds accuracy metrics for one condition.
type ConditionSummary struct {
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Errors   int     `json:"errors"`
	Accuracy float64 `json:"accuracy"`
}

// Summary holds the per-condition and overall accuracy metrics for a run.
// Accuracy counts errored scenarios as incorrect; error totals are kept
// separately for reporting.
type Summary struct {
	Conditions      map[risk.Condition]ConditionSummary `json:"conditions"`
	TotalCorrect    int                                 `json:"total_correct"`
	TotalTests      int                                 `json:"total_tests"`
	TotalErrors     int                                 `json:"total_errors"`
	OverallAccuracy float64                             `json:"overall_accuracy"`
}

// BuildSummary computes accuracy metrics over a run's predictions.
func BuildSummary(predictions map[risk.Condition][]PredictionResult) Summary {
	s := Summary{Conditions: make(map[risk.Condition]ConditionSummary, len(predictions))}

	for cond, results := range predictions {
		cs := ConditionSummary{Total: len(results)}
		for i := range results {
			if results[i].Correct {
				cs.Correct++
			}
			if results[i].Errored() {
				cs.Errors++
			}
		}
		if cs.Total > 0 {
			cs.Accuracy = float64(cs.Correct) / float64(cs.Total)
		}
		s.Conditions[cond] = cs

		s.TotalCorrect += cs.Correct
		s.TotalTests += cs.Total
		s.TotalErrors += cs.Errors
	}

	if s.TotalTests > 0 {
		s.OverallAccuracy = float64(s.TotalCorrect) / float64(s.TotalTests)
	}
	return s
}

// Grade bands model accuracy into a coarse verdict for run output.
func (s Summary) Grade() string {
	switch {
	case s.OverallAccuracy >= 0.9:
		return "excellent"
	case s.OverallAccuracy >= 0.75:
		return "good"
	case s.OverallAccuracy >= 0.6:
		return "fair"
	default:
		return "poor"
	}
}
