// Package predictor defines the pluggable prediction backend interface and
// its HTTP implementation. Backends are expected to be unreliable: every
// failure mode is captured in the returned Prediction rather than surfaced
// as a call error, so one bad response never aborts a batch evaluation.
package predictor

import (
	"context"
	"errors"
	"fmt"

	"github.com/wxhealth/riskbench/internal/risk"
)

// Request is the wire request sent to a prediction backend. The field set
// and JSON names are a compatibility contract; do not change them.
type Request struct {
	Condition        risk.Condition        `json:"condition"`
	FactorScores     risk.FactorScores     `json:"factor_scores"`
	AggregateContext risk.AggregateContext `json:"aggregate_context"`
	Sensitivity      float64               `json:"sensitivity"`
}

// Response is the wire response expected from a prediction backend. Any
// other shape is a malformed response.
type Response struct {
	Classification string  `json:"classification" mapstructure:"classification"`
	Confidence     float64 `json:"confidence" mapstructure:"confidence"`
	Rationale      string  `json:"rationale" mapstructure:"rationale"`
	Analysis       string  `json:"analysis" mapstructure:"analysis"`
}

// Level returns the response classification as a validated enum value.
func (r *Response) Level() (risk.Classification, bool) {
	return risk.ParseClassification(r.Classification)
}

// Prediction is the tagged outcome of one predictor round trip: either a
// well-formed response or a failure. Exactly one of Response and Err is
// set.
type Prediction struct {
	Response   *Response
	Err        error
	DurationMs int64
}

// Failed reports whether the round trip produced no usable response.
func (p Prediction) Failed() bool {
	return p.Err != nil
}

// Predictor is one configured prediction backend instance.
type Predictor interface {
	// Predict performs a single round trip for one scenario. Failures are
	// reported inside the Prediction, never as a panic or a propagated
	// error.
	Predict(ctx context.Context, req Request) Prediction

	// Model returns the backend's model identity for result records.
	Model() string

	// Endpoint returns the configured endpoint URL, empty for local
	// backends.
	Endpoint() string
}

// Failure classification for predictor round trips. Callers match with
// errors.Is / errors.As.
var (
	// ErrConnection marks a backend that could not be reached.
	ErrConnection = errors.New("predictor unreachable")
	// ErrTimeout marks a round trip that exceeded the configured timeout.
	ErrTimeout = errors.New("predictor timed out")
)

// MalformedResponseError reports a backend response that does not parse
// into the expected shape. Raw carries the offending body for reporting.
type MalformedResponseError struct {
	Reason string
	Raw    string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed predictor response: %s", e.Reason)
}
