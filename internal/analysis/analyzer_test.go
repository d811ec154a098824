package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wxhealth/riskbench/internal/models"
	"github.com/wxhealth/riskbench/internal/risk"
)

// resultSetFor builds a ResultSet where each scenario name maps to whether
// the model answered correctly; an empty predicted value marks an errored
// call.
func resultSetFor(model string, ts time.Time, outcomes map[string]risk.Classification) *models.ResultSet {
	expected := map[string]risk.Classification{
		"low":  risk.ClassificationLow,
		"mid":  risk.ClassificationMedium,
		"high": risk.ClassificationHigh,
	}
	scores := map[string]float64{"low": 0.1, "mid": 0.5, "high": 0.9}

	var results []models.PredictionResult
	for _, name := range []string{"low", "mid", "high"} {
		r := models.PredictionResult{
			ScenarioName:  name,
			Condition:     risk.ConditionMigraine,
			WeightedScore: scores[name],
			Expected:      expected[name],
		}
		if predicted, ok := outcomes[name]; ok && predicted != "" {
			r.Predicted = predicted
			r.Correct = predicted == expected[name]
		} else {
			r.Error = "predictor unreachable"
		}
		results = append(results, r)
	}

	predictions := map[risk.Condition][]models.PredictionResult{
		risk.ConditionMigraine: results,
	}
	return &models.ResultSet{
		RunID:       "run-" + model,
		Model:       model,
		Timestamp:   ts,
		Sensitivity: 1.0,
		Predictions: predictions,
		Summary:     models.BuildSummary(predictions),
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New()
	require.Error(t, err)

	_, err = New(nil)
	require.Error(t, err)

	a, err := New(resultSetFor("m", time.Now(), map[string]risk.Classification{
		"low": risk.ClassificationLow, "mid": risk.ClassificationMedium, "high": risk.ClassificationHigh,
	}))
	require.NoError(t, err)
	require.NotNil(t, a)
}

func TestRank_OrdersByAccuracyDescending(t *testing.T) {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	perfect := resultSetFor("perfect", base, map[string]risk.Classification{
		"low": risk.ClassificationLow, "mid": risk.ClassificationMedium, "high": risk.ClassificationHigh,
	})
	partial := resultSetFor("partial", base.Add(time.Hour), map[string]risk.Classification{
		"low": risk.ClassificationLow, "mid": risk.ClassificationHigh, "high": risk.ClassificationHigh,
	})
	broken := resultSetFor("broken", base.Add(2*time.Hour), map[string]risk.Classification{})

	a, err := New(partial, broken, perfect)
	require.NoError(t, err)

	ranked := a.Rank()
	require.Len(t, ranked, 3)

	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "perfect", ranked[0].Model)
	assert.InDelta(t, 1.0, ranked[0].Overall, 1e-9)

	assert.Equal(t, "partial", ranked[1].Model)
	assert.InDelta(t, 2.0/3.0, ranked[1].Overall, 1e-9)

	assert.Equal(t, "broken", ranked[2].Model)
	assert.InDelta(t, 0.0, ranked[2].Overall, 1e-9)
	assert.Equal(t, 3, ranked[2].Errors)
}

func TestRank_TieBreaksOnEarlierTimestamp(t *testing.T) {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	outcomes := map[string]risk.Classification{
		"low": risk.ClassificationLow, "mid": risk.ClassificationMedium, "high": risk.ClassificationHigh,
	}

	later := resultSetFor("later", base.Add(time.Hour), outcomes)
	earlier := resultSetFor("earlier", base, outcomes)

	a, err := New(later, earlier)
	require.NoError(t, err)

	ranked := a.Rank()
	assert.Equal(t, "earlier", ranked[0].Model)
	assert.Equal(t, "later", ranked[1].Model)
}

func TestRank_Deterministic(t *testing.T) {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	sets := []*models.ResultSet{
		resultSetFor("a", base, map[string]risk.Classification{"low": risk.ClassificationLow}),
		resultSetFor("b", base.Add(time.Minute), map[string]risk.Classification{
			"low": risk.ClassificationLow, "mid": risk.ClassificationMedium,
		}),
	}

	a, err := New(sets...)
	require.NoError(t, err)
	assert.Equal(t, a.Rank(), a.Rank(), "repeated analysis of the same records must be identical")
	assert.Equal(t, a.ScenarioBreakdown(), a.ScenarioBreakdown())
	assert.Equal(t, a.ProblematicScenarios(DefaultProblematicThreshold), a.ProblematicScenarios(DefaultProblematicThreshold))
}

func TestScenarioBreakdown(t *testing.T) {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	good := resultSetFor("good", base, map[string]risk.Classification{
		"low": risk.ClassificationLow, "mid": risk.ClassificationMedium, "high": risk.ClassificationHigh,
	})
	overcaller := resultSetFor("overcaller", base.Add(time.Hour), map[string]risk.Classification{
		"low": risk.ClassificationMedium, "mid": risk.ClassificationHigh, "high": risk.ClassificationHigh,
	})
	flaky := resultSetFor("flaky", base.Add(2*time.Hour), map[string]risk.Classification{
		"low": risk.ClassificationLow, "high": risk.ClassificationHigh, // "mid" errors
	})

	a, err := New(good, overcaller, flaky)
	require.NoError(t, err)

	breakdown := a.ScenarioBreakdown()
	require.Len(t, breakdown, 3)

	byName := make(map[string]ScenarioStat)
	for _, st := range breakdown {
		byName[st.Name] = st
	}

	low := byName["low"]
	assert.Equal(t, risk.ClassificationLow, low.Expected)
	assert.Equal(t, 2, low.Correct)
	assert.Equal(t, 3, low.Total)
	assert.InDelta(t, 2.0/3.0, low.SuccessRate, 1e-9)
	assert.Equal(t, map[risk.Classification]int{
		risk.ClassificationLow:    2,
		risk.ClassificationMedium: 1,
	}, low.Distribution)
	assert.Equal(t, []string{"overcaller"}, low.WrongModels)

	mid := byName["mid"]
	assert.Equal(t, 1, mid.Correct)
	assert.Equal(t, 1, mid.ErrorCount)
	assert.NotContains(t, mid.Distribution, risk.Classification(""),
		"errored observations stay out of the prediction distribution")
	assert.ElementsMatch(t, []string{"overcaller", "flaky"}, mid.WrongModels)

	high := byName["high"]
	assert.Equal(t, 3, high.Correct)
	assert.InDelta(t, 1.0, high.SuccessRate, 1e-9)
	assert.Empty(t, high.WrongModels)
}

func TestProblematicScenarios(t *testing.T) {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	// "mid" is missed by both models, "low" by one, "high" by none.
	m1 := resultSetFor("m1", base, map[string]risk.Classification{
		"low": risk.ClassificationLow, "mid": risk.ClassificationHigh, "high": risk.ClassificationHigh,
	})
	m2 := resultSetFor("m2", base.Add(time.Hour), map[string]risk.Classification{
		"low": risk.ClassificationMedium, "mid": risk.ClassificationLow, "high": risk.ClassificationHigh,
	})

	a, err := New(m1, m2)
	require.NoError(t, err)

	problematic := a.ProblematicScenarios(DefaultProblematicThreshold)
	require.Len(t, problematic, 1, "a scenario at exactly the threshold is not problematic")
	assert.Equal(t, "mid", problematic[0].Name)
	assert.InDelta(t, 0.0, problematic[0].SuccessRate, 1e-9)

	// Raising the threshold pulls in the half-missed scenario, hardest first.
	problematic = a.ProblematicScenarios(0.75)
	require.Len(t, problematic, 2)
	assert.Equal(t, "mid", problematic[0].Name)
	assert.Equal(t, "low", problematic[1].Name)
}

func TestBestWorstDiff(t *testing.T) {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	best := resultSetFor("best", base, map[string]risk.Classification{
		"low": risk.ClassificationLow, "mid": risk.ClassificationMedium, "high": risk.ClassificationHigh,
	})
	worst := resultSetFor("worst", base.Add(time.Hour), map[string]risk.Classification{
		"low": risk.ClassificationLow, "mid": risk.ClassificationHigh, // "high" errors
	})

	a, err := New(worst, best)
	require.NoError(t, err)

	diff := a.BestWorstDiff()
	require.NotNil(t, diff)
	assert.Equal(t, "best", diff.BestModel)
	assert.Equal(t, "worst", diff.WorstModel)

	require.Len(t, diff.Entries, 2, "only scenarios best got right and worst missed appear")
	byName := make(map[string]DiffEntry)
	for _, e := range diff.Entries {
		byName[e.Name] = e
	}

	mispredicted := byName["mid"]
	assert.Equal(t, risk.ClassificationMedium, mispredicted.BestPredicted)
	assert.Equal(t, risk.ClassificationHigh, mispredicted.WorstPredicted)
	assert.Empty(t, mispredicted.WorstError)

	errored := byName["high"]
	assert.Equal(t, risk.ClassificationHigh, errored.BestPredicted)
	assert.Empty(t, errored.WorstPredicted)
	assert.NotEmpty(t, errored.WorstError)
}

func TestBestWorstDiff_NilForSingleSet(t *testing.T) {
	set := resultSetFor("only", time.Now(), map[string]risk.Classification{
		"low": risk.ClassificationLow, "mid": risk.ClassificationMedium, "high": risk.ClassificationHigh,
	})
	a, err := New(set)
	require.NoError(t, err)
	assert.Nil(t, a.BestWorstDiff())
}
