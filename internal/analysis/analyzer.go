// Package analysis aggregates persisted result records across models: it
// ranks runs, breaks accuracy down per scenario, and surfaces the scenarios
// most models get wrong. The analyzer only reads; it never mutates or
// re-persists a record, and its output ordering is deterministic so
// repeated analyses of the same records are identical.
package analysis

import (
	"errors"
	"sort"

	"github.com/wxhealth/riskbench/internal/models"
	"github.com/wxhealth/riskbench/internal/risk"
)

// DefaultProblematicThreshold is the success-rate cutoff below which a
// scenario is flagged as problematic.
const DefaultProblematicThreshold = 0.5

// Analyzer aggregates one or more loaded result sets.
type Analyzer struct {
	sets []*models.ResultSet
}

// New creates an analyzer over n ≥ 1 result sets.
func New(sets ...*models.ResultSet) (*Analyzer, error) {
	if len(sets) == 0 {
		return nil, errors.New("at least one result set is required")
	}
	for _, s := range sets {
		if s == nil {
			return nil, errors.New("nil result set")
		}
	}
	return &Analyzer{sets: sets}, nil
}

// Ranked is one row of the model ranking.
type Ranked struct {
	Rank       int                                         `json:"rank"`
	Model      string                                      `json:"model"`
	Timestamp  string                                      `json:"timestamp"`
	Overall    float64                                     `json:"overall_accuracy"`
	Correct    int                                         `json:"correct"`
	Total      int                                         `json:"total"`
	Errors     int                                         `json:"errors"`
	Conditions map[risk.Condition]models.ConditionSummary  `json:"conditions"`
}

// Rank sorts the loaded sets by overall accuracy descending; ties break
// toward the earlier timestamp, then model name for stability.
func (a *Analyzer) Rank() []Ranked {
	sets := make([]*models.ResultSet, len(a.sets))
	copy(sets, a.sets)

	sort.SliceStable(sets, func(i, j int) bool {
		si, sj := sets[i], sets[j]
		if si.Summary.OverallAccuracy != sj.Summary.OverallAccuracy {
			return si.Summary.OverallAccuracy > sj.Summary.OverallAccuracy
		}
		if !si.Timestamp.Equal(sj.Timestamp) {
			return si.Timestamp.Before(sj.Timestamp)
		}
		return si.Model < sj.Model
	})

	ranked := make([]Ranked, 0, len(sets))
	for i, s := range sets {
		ranked = append(ranked, Ranked{
			Rank:       i + 1,
			Model:      s.Model,
			Timestamp:  s.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			Overall:    s.Summary.OverallAccuracy,
			Correct:    s.Summary.TotalCorrect,
			Total:      s.Summary.TotalTests,
			Errors:     s.Summary.TotalErrors,
			Conditions: s.Summary.Conditions,
		})
	}
	return ranked
}

// ScenarioStat aggregates one scenario's outcomes across all loaded sets.
type ScenarioStat struct {
	Name      string              `json:"name"`
	Condition risk.Condition      `json:"condition"`
	Expected  risk.Classification `json:"expected"`
	// WeightedScore is the deterministic score recorded with the first
	// observation.
	WeightedScore float64 `json:"weighted_score"`
	// Distribution counts predicted classifications; errored observations
	// are counted in ErrorCount instead.
	Distribution map[risk.Classification]int `json:"distribution"`
	ErrorCount   int                         `json:"error_count"`
	Correct      int                         `json:"correct"`
	Total        int                         `json:"total"`
	SuccessRate  float64                     `json:"success_rate"`
	// WrongModels lists the model identities that missed this scenario.
	WrongModels []string `json:"wrong_models,omitempty"`
}

type scenarioKey struct {
	condition risk.Condition
	name      string
}

// ScenarioBreakdown aggregates per-scenario outcomes across every loaded
// set, ordered by condition then by first appearance within each set.
func (a *Analyzer) ScenarioBreakdown() []ScenarioStat {
	stats := make(map[scenarioKey]*ScenarioStat)
	var order []scenarioKey

	for _, cond := range risk.Conditions() {
		for _, set := range a.sets {
			for i := range set.Predictions[cond] {
				p := &set.Predictions[cond][i]
				key := scenarioKey{condition: cond, name: p.ScenarioName}

				st, ok := stats[key]
				if !ok {
					st = &ScenarioStat{
						Name:          p.ScenarioName,
						Condition:     cond,
						Expected:      p.Expected,
						WeightedScore: p.WeightedScore,
						Distribution:  make(map[risk.Classification]int),
					}
					stats[key] = st
					order = append(order, key)
				}

				st.Total++
				if p.Correct {
					st.Correct++
				} else {
					st.WrongModels = append(st.WrongModels, set.Model)
				}
				if p.Errored() {
					st.ErrorCount++
				} else if p.Predicted != "" {
					st.Distribution[p.Predicted]++
				}
			}
		}
	}

	out := make([]ScenarioStat, 0, len(order))
	for _, key := range order {
		st := stats[key]
		if st.Total > 0 {
			st.SuccessRate = float64(st.Correct) / float64(st.Total)
		}
		sort.Strings(st.WrongModels)
		out = append(out, *st)
	}
	return out
}

// ProblematicScenarios returns the scenarios whose cross-model success rate
// is strictly below threshold, hardest first.
func (a *Analyzer) ProblematicScenarios(threshold float64) []ScenarioStat {
	var out []ScenarioStat
	for _, st := range a.ScenarioBreakdown() {
		if st.SuccessRate < threshold {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SuccessRate < out[j].SuccessRate
	})
	return out
}

// DiffEntry is one scenario the best-ranked model got right and the
// worst-ranked model got wrong.
type DiffEntry struct {
	Name           string              `json:"name"`
	Condition      risk.Condition      `json:"condition"`
	Expected       risk.Classification `json:"expected"`
	BestPredicted  risk.Classification `json:"best_predicted"`
	WorstPredicted risk.Classification `json:"worst_predicted,omitempty"`
	WorstError     string              `json:"worst_error,omitempty"`
}

// BestWorst summarizes where the top- and bottom-ranked models diverge.
type BestWorst struct {
	BestModel  string      `json:"best_model"`
	WorstModel string      `json:"worst_model"`
	Entries    []DiffEntry `json:"entries"`
}

// BestWorstDiff compares the top- and bottom-ranked sets and lists the
// scenarios the best got right and the worst missed. Returns nil when
// fewer than two sets are loaded.
func (a *Analyzer) BestWorstDiff() *BestWorst {
	if len(a.sets) < 2 {
		return nil
	}

	ranked := a.Rank()
	best := a.findSet(ranked[0].Model, ranked[0].Timestamp)
	worst := a.findSet(ranked[len(ranked)-1].Model, ranked[len(ranked)-1].Timestamp)

	diff := &BestWorst{BestModel: best.Model, WorstModel: worst.Model}

	for _, cond := range risk.Conditions() {
		worstByName := make(map[string]*models.PredictionResult)
		for i := range worst.Predictions[cond] {
			p := &worst.Predictions[cond][i]
			worstByName[p.ScenarioName] = p
		}

		for i := range best.Predictions[cond] {
			bp := &best.Predictions[cond][i]
			wp, ok := worstByName[bp.ScenarioName]
			if !ok || !bp.Correct || wp.Correct {
				continue
			}
			diff.Entries = append(diff.Entries, DiffEntry{
				Name:           bp.ScenarioName,
				Condition:      cond,
				Expected:       bp.Expected,
				BestPredicted:  bp.Predicted,
				WorstPredicted: wp.Predicted,
				WorstError:     wp.Error,
			})
		}
	}
	return diff
}

// findSet locates the loaded set matching a ranking row.
func (a *Analyzer) findSet(model, timestamp string) *models.ResultSet {
	for _, s := range a.sets {
		if s.Model == model && s.Timestamp.UTC().Format("2006-01-02T15:04:05Z") == timestamp {
			return s
		}
	}
	return a.sets[0]
}
