package predictor

import (
	"context"
	"fmt"
	"time"

	"github.com/wxhealth/riskbench/internal/risk"
)

// MockPredictor is an offline backend for tests and smoke runs. Without a
// Respond function it answers with the deterministic ground truth, so a
// mock run always scores 100% accuracy.
type MockPredictor struct {
	model string

	// Respond overrides the default behavior when set.
	Respond func(req Request) Prediction
}

// NewMockPredictor creates a mock backend with the given model identity.
func NewMockPredictor(model string) *MockPredictor {
	if model == "" {
		model = "mock"
	}
	return &MockPredictor{model: model}
}

func (m *MockPredictor) Model() string    { return m.model }
func (m *MockPredictor) Endpoint() string { return "" }

func (m *MockPredictor) Predict(ctx context.Context, req Request) Prediction {
	if m.Respond != nil {
		return m.Respond(req)
	}

	start := time.Now()
	score, err := risk.WeightedScore(req.Condition, req.FactorScores)
	if err != nil {
		return Prediction{Err: err, DurationMs: time.Since(start).Milliseconds()}
	}

	level := risk.Classify(score, req.Sensitivity, req.Condition)
	return Prediction{
		Response: &Response{
			Classification: string(level),
			Confidence:     1.0,
			Rationale:      fmt.Sprintf("deterministic weighted score %.3f", score),
			Analysis:       "mock backend echoing the threshold classifier",
		},
		DurationMs: time.Since(start).Milliseconds(),
	}
}
