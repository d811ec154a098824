// Package risk implements the deterministic weather-health risk model:
// per-condition factor weights, the weighted-score combination, and the
// sensitivity-shifted threshold classifier. Everything in this package is
// pure and side-effect free; it is the ground truth the evaluation harness
// checks predictors against.
package risk

import "fmt"

// Condition identifies one of the two supported health conditions.
type Condition string

const (
	ConditionMigraine  Condition = "migraine"
	ConditionSinusitis Condition = "sinusitis"
)

// Conditions returns all supported conditions in canonical order.
func Conditions() []Condition {
	return []Condition{ConditionMigraine, ConditionSinusitis}
}

// ParseCondition converts a string into a Condition.
func ParseCondition(s string) (Condition, error) {
	switch Condition(s) {
	case ConditionMigraine, ConditionSinusitis:
		return Condition(s), nil
	}
	return "", fmt.Errorf("unknown condition %q (expected migraine or sinusitis)", s)
}

// Classification is the three-level risk verdict.
type Classification string

const (
	ClassificationLow    Classification = "LOW"
	ClassificationMedium Classification = "MEDIUM"
	ClassificationHigh   Classification = "HIGH"
)

// Severity orders classifications LOW < MEDIUM < HIGH. Unknown values rank
// below LOW so they never count as an escalation.
func (c Classification) Severity() int {
	switch c {
	case ClassificationLow:
		return 1
	case ClassificationMedium:
		return 2
	case ClassificationHigh:
		return 3
	}
	return 0
}

// ParseClassification validates a classification string. It is strict: the
// wire contract requires the exact uppercase forms.
func ParseClassification(s string) (Classification, bool) {
	switch Classification(s) {
	case ClassificationLow, ClassificationMedium, ClassificationHigh:
		return Classification(s), true
	}
	return "", false
}

// Weather factor names. Both conditions share the same factor set; the
// weights differ.
const (
	FactorTemperatureChange = "temperature_change"
	FactorHumidityExtreme   = "humidity_extreme"
	FactorPressureChange    = "pressure_change"
	FactorPressureLow       = "pressure_low"
	FactorPrecipitation     = "precipitation"
	FactorCloudCover        = "cloud_cover"
)

// factorOrder is the canonical iteration order for factors, so score
// combination is reproducible independent of map ordering.
var factorOrder = []string{
	FactorTemperatureChange,
	FactorHumidityExtreme,
	FactorPressureChange,
	FactorPressureLow,
	FactorPrecipitation,
	FactorCloudCover,
}

// FactorScores maps factor name to a normalized score in [0,1].
type FactorScores map[string]float64

// AggregateContext carries advisory summary statistics (average forecast
// temperature, humidity, pressure). It is forwarded to predictors for
// situational grounding and never consumed by the deterministic model.
type AggregateContext map[string]float64

// WeightVector maps factor name to its fixed weight for one condition.
type WeightVector map[string]float64

var migraineWeights = WeightVector{
	FactorTemperatureChange: 0.25,
	FactorHumidityExtreme:   0.15,
	FactorPressureChange:    0.30,
	FactorPressureLow:       0.15,
	FactorPrecipitation:     0.05,
	FactorCloudCover:        0.10,
}

var sinusitisWeights = WeightVector{
	FactorTemperatureChange: 0.30,
	FactorHumidityExtreme:   0.25,
	FactorPressureChange:    0.20,
	FactorPressureLow:       0.10,
	FactorPrecipitation:     0.10,
	FactorCloudCover:        0.05,
}

// Weights returns a copy of the fixed weight vector for the condition.
func (c Condition) Weights() WeightVector {
	var src WeightVector
	switch c {
	case ConditionSinusitis:
		src = sinusitisWeights
	default:
		src = migraineWeights
	}
	out := make(WeightVector, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Factors returns the required factor names for the condition in canonical
// order. Both conditions currently require the full shared factor set.
func (c Condition) Factors() []string {
	out := make([]string, len(factorOrder))
	copy(out, factorOrder)
	return out
}

// Thresholds is a per-condition (low, high) cutoff pair on the weighted
// score.
type Thresholds struct {
	Low  float64
	High float64
}

// BaseThresholds returns the unshifted cutoffs for the condition.
func (c Condition) BaseThresholds() Thresholds {
	if c == ConditionSinusitis {
		return Thresholds{Low: 0.35, High: 0.65}
	}
	return Thresholds{Low: 0.40, High: 0.70}
}

// DefaultSensitivity is the neutral per-user sensitivity multiplier.
const DefaultSensitivity = 1.0

// sensitivityShiftFactor converts a sensitivity delta into a threshold
// shift. Higher sensitivity lowers both cutoffs so sensitive users are
// warned earlier.
const sensitivityShiftFactor = 0.15

// ValidateSensitivity checks that s lies in the supported domain (0, 2].
func ValidateSensitivity(s float64) error {
	if s <= 0 || s > 2 {
		return fmt.Errorf("sensitivity %v out of range: must be in (0, 2]", s)
	}
	return nil
}

// MissingFactorError reports a required factor absent from a score map.
type MissingFactorError struct {
	Condition Condition
	Factor    string
}

func (e *MissingFactorError) Error() string {
	return fmt.Sprintf("missing required factor %q for condition %s", e.Factor, e.Condition)
}

// WeightedScore combines factor scores into one [0,1] risk figure:
// Σ(score×weight) / Σ(weight) over the condition's required factors.
// Every required factor must be present; values outside [0,1] are clamped
// into range before combination rather than rejected, so the function is
// total over any numeric map with the right keys.
func WeightedScore(c Condition, scores FactorScores) (float64, error) {
	weights := c.Weights()

	var sum, weightSum float64
	for _, factor := range factorOrder {
		v, ok := scores[factor]
		if !ok {
			return 0, &MissingFactorError{Condition: c, Factor: factor}
		}
		sum += clamp01(v) * weights[factor]
		weightSum += weights[factor]
	}
	return sum / weightSum, nil
}

// EffectiveThresholds applies the sensitivity shift to the condition's base
// cutoffs: shift = (sensitivity − 1) × 0.15, subtracted from both. The
// shifted cutoffs are clamped into [0,1].
func EffectiveThresholds(c Condition, sensitivity float64) Thresholds {
	base := c.BaseThresholds()
	shift := (sensitivity - DefaultSensitivity) * sensitivityShiftFactor
	return Thresholds{
		Low:  clamp01(base.Low - shift),
		High: clamp01(base.High - shift),
	}
}

// Classify maps a weighted score and sensitivity to LOW/MEDIUM/HIGH:
// score < effective_low → LOW; below effective_high → MEDIUM; else HIGH.
// If clamping drives effective_low ≥ effective_high the MEDIUM band is
// empty and classification collapses to a two-way split at effective_high.
func Classify(score, sensitivity float64, c Condition) Classification {
	t := EffectiveThresholds(c, sensitivity)

	if t.Low >= t.High {
		if score >= t.High {
			return ClassificationHigh
		}
		return ClassificationLow
	}

	switch {
	case score >= t.High:
		return ClassificationHigh
	case score >= t.Low:
		return ClassificationMedium
	default:
		return ClassificationLow
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
