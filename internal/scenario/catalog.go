// Package scenario holds the fixed evaluation catalog: named, literal test
// cases per condition with known-correct classifications. The catalog is
// human-curated and never generated procedurally, so evaluation runs stay
// reproducible and auditable. Expected classifications are derived from the
// deterministic classifier at sensitivity 1.0 — the catalog is consistent
// with it by construction, never an independent source of truth.
package scenario

import "github.com/wxhealth/riskbench/internal/risk"

// Scenario is one immutable catalog entry.
type Scenario struct {
	Name        string
	Description string
	Condition   risk.Condition
	// FactorScores are the literal normalized inputs.
	FactorScores risk.FactorScores
	// AggregateContext is advisory context forwarded to the predictor.
	AggregateContext risk.AggregateContext
	// Expected is the ground-truth classification at sensitivity 1.0.
	Expected risk.Classification
	// ReferenceScore is the weighted score rounded to 3 decimals, kept for
	// reporting alongside results.
	ReferenceScore float64
}

var migraineScenarios = []Scenario{
	{
		Name:        "Clear LOW - Minimal risk",
		Description: "Perfect weather, no risk factors",
		Condition:   risk.ConditionMigraine,
		FactorScores: risk.FactorScores{
			risk.FactorTemperatureChange: 0.0,
			risk.FactorHumidityExtreme:   0.0,
			risk.FactorPressureChange:    0.0,
			risk.FactorPressureLow:       0.0,
			risk.FactorPrecipitation:     0.0,
			risk.FactorCloudCover:        0.0,
		},
		AggregateContext: risk.AggregateContext{
			"avg_forecast_temperature": 20.0,
			"avg_forecast_humidity":    50.0,
			"avg_forecast_pressure":    1013.0,
		},
		Expected:       risk.ClassificationLow,
		ReferenceScore: 0.000,
	},
	{
		Name:        "Clear HIGH - Multiple severe factors",
		Description: "Major pressure drop + large temp change + high humidity",
		Condition:   risk.ConditionMigraine,
		FactorScores: risk.FactorScores{
			risk.FactorTemperatureChange: 0.9,
			risk.FactorHumidityExtreme:   0.85,
			risk.FactorPressureChange:    0.95,
			risk.FactorPressureLow:       0.8,
			risk.FactorPrecipitation:     0.6,
			risk.FactorCloudCover:        0.9,
		},
		AggregateContext: risk.AggregateContext{
			"avg_forecast_temperature": 8.0,
			"avg_forecast_humidity":    92.0,
			"avg_forecast_pressure":    992.0,
		},
		Expected:       risk.ClassificationHigh,
		ReferenceScore: 0.878,
	},
	{
		Name:        "Boundary MEDIUM (low end)",
		Description: "Just above the LOW threshold (0.40)",
		Condition:   risk.ConditionMigraine,
		FactorScores: risk.FactorScores{
			risk.FactorTemperatureChange: 0.4,
			risk.FactorHumidityExtreme:   0.5,
			risk.FactorPressureChange:    0.5,
			risk.FactorPressureLow:       0.3,
			risk.FactorPrecipitation:     0.2,
			risk.FactorCloudCover:        0.4,
		},
		AggregateContext: risk.AggregateContext{
			"avg_forecast_temperature": 15.0,
			"avg_forecast_humidity":    72.0,
			"avg_forecast_pressure":    1003.0,
		},
		Expected:       risk.ClassificationMedium,
		ReferenceScore: 0.420,
	},
	{
		Name:        "Boundary HIGH (just above threshold)",
		Description: "Computed score lands just past the HIGH threshold (0.70)",
		Condition:   risk.ConditionMigraine,
		FactorScores: risk.FactorScores{
			risk.FactorTemperatureChange: 0.7,
			risk.FactorHumidityExtreme:   0.75,
			risk.FactorPressureChange:    0.8,
			risk.FactorPressureLow:       0.6,
			risk.FactorPrecipitation:     0.4,
			risk.FactorCloudCover:        0.7,
		},
		AggregateContext: risk.AggregateContext{
			"avg_forecast_temperature": 10.0,
			"avg_forecast_humidity":    85.0,
			"avg_forecast_pressure":    998.0,
		},
		Expected:       risk.ClassificationHigh,
		ReferenceScore: 0.708,
	},
	{
		Name:        "Boundary HIGH (low end)",
		Description: "Comfortably past the HIGH threshold (0.70)",
		Condition:   risk.ConditionMigraine,
		FactorScores: risk.FactorScores{
			risk.FactorTemperatureChange: 0.75,
			risk.FactorHumidityExtreme:   0.8,
			risk.FactorPressureChange:    0.85,
			risk.FactorPressureLow:       0.7,
			risk.FactorPrecipitation:     0.5,
			risk.FactorCloudCover:        0.8,
		},
		AggregateContext: risk.AggregateContext{
			"avg_forecast_temperature": 7.0,
			"avg_forecast_humidity":    88.0,
			"avg_forecast_pressure":    995.0,
		},
		Expected:       risk.ClassificationHigh,
		ReferenceScore: 0.773,
	},
	{
		Name:        "High pressure change only",
		Description: "Single dominant factor (pressure change, 30% weight)",
		Condition:   risk.ConditionMigraine,
		FactorScores: risk.FactorScores{
			risk.FactorTemperatureChange: 0.1,
			risk.FactorHumidityExtreme:   0.1,
			risk.FactorPressureChange:    0.95,
			risk.FactorPressureLow:       0.2,
			risk.FactorPrecipitation:     0.1,
			risk.FactorCloudCover:        0.3,
		},
		AggregateContext: risk.AggregateContext{
			"avg_forecast_temperature": 18.0,
			"avg_forecast_humidity":    55.0,
			"avg_forecast_pressure":    1008.0,
		},
		Expected:       risk.ClassificationLow,
		ReferenceScore: 0.390,
	},
	{
		Name:        "London example (reported as HIGH)",
		Description: "Real-world case that was misclassified in production",
		Condition:   risk.ConditionMigraine,
		FactorScores: risk.FactorScores{
			risk.FactorTemperatureChange: 0.11,
			risk.FactorHumidityExtreme:   0.53,
			risk.FactorPressureChange:    0.71,
			risk.FactorPressureLow:       0.26,
			risk.FactorPrecipitation:     0.18,
			risk.FactorCloudCover:        1.0,
		},
		AggregateContext: risk.AggregateContext{
			"avg_forecast_temperature": 12.9,
			"avg_forecast_humidity":    84.0,
			"avg_forecast_pressure":    1001.2,
		},
		Expected:       risk.ClassificationMedium,
		ReferenceScore: 0.468,
	},
	{
		Name:        "Thessaloniki example (reported as HIGH)",
		Description: "Real-world case with weighted score 0.376",
		Condition:   risk.ConditionMigraine,
		FactorScores: risk.FactorScores{
			risk.FactorTemperatureChange: 0.04,
			risk.FactorHumidityExtreme:   0.81,
			risk.FactorPressureChange:    0.41,
			risk.FactorPressureLow:       0.0,
			risk.FactorPrecipitation:     0.42,
			risk.FactorCloudCover:        1.0,
		},
		AggregateContext: risk.AggregateContext{
			"avg_forecast_temperature": 15.5,
			"avg_forecast_humidity":    94.0,
			"avg_forecast_pressure":    1010.2,
		},
		Expected:       risk.ClassificationLow,
		ReferenceScore: 0.376,
	},
}

var sinusitisScenarios = []Scenario{
	{
		Name:        "Clear LOW - Minimal risk",
		Description: "Perfect weather for sinuses",
		Condition:   risk.ConditionSinusitis,
		FactorScores: risk.FactorScores{
			risk.FactorTemperatureChange: 0.0,
			risk.FactorHumidityExtreme:   0.0,
			risk.FactorPressureChange:    0.0,
			risk.FactorPressureLow:       0.0,
			risk.FactorPrecipitation:     0.0,
			risk.FactorCloudCover:        0.0,
		},
		AggregateContext: risk.AggregateContext{
			"avg_forecast_temperature": 20.0,
			"avg_forecast_humidity":    50.0,
			"avg_forecast_pressure":    1013.0,
		},
		Expected:       risk.ClassificationLow,
		ReferenceScore: 0.000,
	},
	{
		Name:        "Clear HIGH - Humidity and temp change",
		Description: "High humidity + temperature change (key sinusitis triggers)",
		Condition:   risk.ConditionSinusitis,
		FactorScores: risk.FactorScores{
			risk.FactorTemperatureChange: 0.9,
			risk.FactorHumidityExtreme:   0.95,
			risk.FactorPressureChange:    0.7,
			risk.FactorPressureLow:       0.5,
			risk.FactorPrecipitation:     0.8,
			risk.FactorCloudCover:        0.6,
		},
		AggregateContext: risk.AggregateContext{
			"avg_forecast_temperature": 8.0,
			"avg_forecast_humidity":    92.0,
			"avg_forecast_pressure":    998.0,
		},
		Expected:       risk.ClassificationHigh,
		ReferenceScore: 0.808,
	},
	{
		Name:        "Boundary MEDIUM (sinusitis)",
		Description: "Just above the LOW threshold (0.35)",
		Condition:   risk.ConditionSinusitis,
		FactorScores: risk.FactorScores{
			risk.FactorTemperatureChange: 0.4,
			risk.FactorHumidityExtreme:   0.5,
			risk.FactorPressureChange:    0.3,
			risk.FactorPressureLow:       0.2,
			risk.FactorPrecipitation:     0.3,
			risk.FactorCloudCover:        0.2,
		},
		AggregateContext: risk.AggregateContext{
			"avg_forecast_temperature": 15.0,
			"avg_forecast_humidity":    75.0,
			"avg_forecast_pressure":    1002.0,
		},
		Expected:       risk.ClassificationMedium,
		ReferenceScore: 0.365,
	},
}

// ForCondition returns the catalog entries for one condition, in fixed
// order. The returned slice is a copy; callers must treat the entries as
// immutable.
func ForCondition(c risk.Condition) []Scenario {
	var src []Scenario
	switch c {
	case risk.ConditionSinusitis:
		src = sinusitisScenarios
	default:
		src = migraineScenarios
	}
	out := make([]Scenario, len(src))
	copy(out, src)
	return out
}

// Count returns the number of scenarios for one condition.
func Count(c risk.Condition) int {
	return len(ForCondition(c))
}

// TotalCount returns the catalog size across all conditions.
func TotalCount() int {
	total := 0
	for _, c := range risk.Conditions() {
		total += Count(c)
	}
	return total
}
