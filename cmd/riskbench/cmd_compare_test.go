package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wxhealth/riskbench/internal/analysis"
	"github.com/wxhealth/riskbench/internal/models"
	"github.com/wxhealth/riskbench/internal/risk"
)

func resetCompareGlobals() {
	compareOutputFormat = "table"
	compareThreshold = analysis.DefaultProblematicThreshold
}

func writeRecord(t *testing.T, dir, name string, set *models.ResultSet) string {
	t.Helper()
	data, err := json.MarshalIndent(set, "", "  ")
	require.NoError(t, err)
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func sampleSet(model string, correct bool) *models.ResultSet {
	predicted := risk.ClassificationMedium
	if !correct {
		predicted = risk.ClassificationLow
	}
	predictions := map[risk.Condition][]models.PredictionResult{
		risk.ConditionMigraine: {
			{
				ScenarioName:  "Boundary MEDIUM (low end)",
				Condition:     risk.ConditionMigraine,
				WeightedScore: 0.42,
				Expected:      risk.ClassificationMedium,
				Predicted:     predicted,
				Correct:       correct,
			},
		},
	}
	return &models.ResultSet{
		RunID:       "run-" + model,
		Model:       model,
		Timestamp:   time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
		Sensitivity: 1.0,
		Predictions: predictions,
		Summary:     models.BuildSummary(predictions),
	}
}

func TestCompareCommand_RejectsUnknownFormat(t *testing.T) {
	resetCompareGlobals()
	t.Cleanup(resetCompareGlobals)
	compareOutputFormat = "csv"

	err := compareCommandE(nil, []string{"whatever.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv")
}

func TestCompareCommand_FailsWhenNothingLoads(t *testing.T) {
	resetCompareGlobals()
	t.Cleanup(resetCompareGlobals)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.json"), []byte("{"), 0o644))

	err := compareCommandE(nil, []string{filepath.Join(dir, "junk.json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid result records")
}

func TestCompareCommand_TableOutput(t *testing.T) {
	resetCompareGlobals()
	t.Cleanup(resetCompareGlobals)

	dir := t.TempDir()
	writeRecord(t, dir, "good_2026-04-01T12-00-00Z.json", sampleSet("good", true))
	writeRecord(t, dir, "bad_2026-04-01T12-00-00Z.json", sampleSet("bad", false))

	err := compareCommandE(nil, []string{filepath.Join(dir, "*.json")})
	require.NoError(t, err)
}

func TestCompareCommand_JSONOutput(t *testing.T) {
	resetCompareGlobals()
	t.Cleanup(resetCompareGlobals)
	compareOutputFormat = "json"

	dir := t.TempDir()
	writeRecord(t, dir, "only_2026-04-01T12-00-00Z.json", sampleSet("only", true))

	err := compareCommandE(nil, []string{filepath.Join(dir, "only_2026-04-01T12-00-00Z.json")})
	require.NoError(t, err)
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "short", truncateName("short", 10))
	assert.Equal(t, "exactly-te", truncateName("exactly-te", 10))
	assert.Equal(t, "very-long…", truncateName("very-long-name", 10))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", padRight("ab", 5))
	assert.Equal(t, "abcdef", padRight("abcdef", 5))
}
