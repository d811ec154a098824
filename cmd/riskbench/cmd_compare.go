package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/wxhealth/riskbench/internal/analysis"
	"github.com/wxhealth/riskbench/internal/models"
	"github.com/wxhealth/riskbench/internal/results"
	"github.com/wxhealth/riskbench/internal/risk"
)

var (
	compareOutputFormat string
	compareThreshold    float64
)

func newCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <record.json|glob> [more ...]",
		Short: "Compare persisted evaluation result records",
		Long: `Compare result records from one or more evaluation runs.

Accepts file paths and glob patterns. Produces a ranking by overall
accuracy, a per-scenario breakdown across all loaded records, the list of
problematic scenarios (success rate below the threshold), and — with two or
more records — the scenarios the best model got right and the worst missed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: compareCommandE,
	}

	cmd.Flags().StringVarP(&compareOutputFormat, "format", "f", "table", "Output format: table or json")
	cmd.Flags().Float64Var(&compareThreshold, "threshold", analysis.DefaultProblematicThreshold, "Success-rate cutoff for problematic scenarios")

	return cmd
}

// compareReport is the full comparison output.
type compareReport struct {
	Files       []string                `json:"files"`
	Rankings    []analysis.Ranked       `json:"rankings"`
	Scenarios   []analysis.ScenarioStat `json:"scenarios"`
	Problematic []analysis.ScenarioStat `json:"problematic"`
	BestWorst   *analysis.BestWorst     `json:"best_worst,omitempty"`
}

func compareCommandE(_ *cobra.Command, args []string) error {
	if compareOutputFormat != "table" && compareOutputFormat != "json" {
		return fmt.Errorf("unsupported format %q: must be table or json", compareOutputFormat)
	}

	loaded, skipped, err := results.LoadGlob(args...)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		fmt.Fprintf(os.Stderr, "Warning: skipping %s\n", s)
	}
	if len(loaded) == 0 {
		return fmt.Errorf("no valid result records loaded from %s", strings.Join(args, ", "))
	}

	files := make([]string, 0, len(loaded))
	sets := make([]*models.ResultSet, 0, len(loaded))
	for _, l := range loaded {
		files = append(files, l.Path)
		sets = append(sets, l.Set)
	}

	analyzer, err := analysis.New(sets...)
	if err != nil {
		return err
	}

	report := &compareReport{
		Files:       files,
		Rankings:    analyzer.Rank(),
		Scenarios:   analyzer.ScenarioBreakdown(),
		Problematic: analyzer.ProblematicScenarios(compareThreshold),
		BestWorst:   analyzer.BestWorstDiff(),
	}

	if compareOutputFormat == "json" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal comparison report: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printCompareTables(report)
	return nil
}

func printCompareTables(r *compareReport) {
	fmt.Println(strings.Repeat("=", 78))
	fmt.Println(" MODEL PERFORMANCE SUMMARY")
	fmt.Println(strings.Repeat("=", 78))
	for i, f := range r.Files {
		fmt.Printf("  [%d] %s\n", i+1, f)
	}
	fmt.Println()

	fmt.Printf("  %-4s %s %-20s %-18s %s\n", "Rank", padRight("Model", 28), "Timestamp", "Overall", "Errors")
	fmt.Println("  " + strings.Repeat("-", 74))
	for _, row := range r.Rankings {
		overall := fmt.Sprintf("%.1f%% (%d/%d)", row.Overall*100, row.Correct, row.Total)
		fmt.Printf("  %-4d %s %-20s %-18s %d\n",
			row.Rank, padRight(truncateName(row.Model, 28), 28), row.Timestamp, overall, row.Errors)
	}
	fmt.Println()

	fmt.Println(strings.Repeat("-", 78))
	fmt.Println(" PER-SCENARIO BREAKDOWN")
	fmt.Println(strings.Repeat("-", 78))
	for _, st := range r.Scenarios {
		fmt.Printf("  %s/%s\n", st.Condition, st.Name)
		fmt.Printf("    Expected: %s | Weighted Score: %.3f\n", st.Expected, st.WeightedScore)
		fmt.Printf("    Success Rate: %.1f%% (%d/%d)", st.SuccessRate*100, st.Correct, st.Total)
		if st.ErrorCount > 0 {
			fmt.Printf(" | Errors: %d", st.ErrorCount)
		}
		fmt.Println()
		if len(st.Distribution) > 0 {
			fmt.Printf("    Predictions: %s\n", formatDistribution(st.Distribution))
		}
		if len(st.WrongModels) > 0 {
			fmt.Printf("    Failed by: %s\n", strings.Join(st.WrongModels, ", "))
		}
	}
	fmt.Println()

	fmt.Println(strings.Repeat("-", 78))
	fmt.Println(" PROBLEMATIC SCENARIOS")
	fmt.Println(strings.Repeat("-", 78))
	if len(r.Problematic) == 0 {
		fmt.Println("  (none below threshold)")
	}
	for _, st := range r.Problematic {
		fmt.Printf("  • %s/%s — expected %s, success rate %.1f%% (%d/%d)\n",
			st.Condition, st.Name, st.Expected, st.SuccessRate*100, st.Correct, st.Total)
	}
	fmt.Println()

	if r.BestWorst != nil {
		fmt.Println(strings.Repeat("-", 78))
		fmt.Printf(" BEST (%s) vs WORST (%s)\n", r.BestWorst.BestModel, r.BestWorst.WorstModel)
		fmt.Println(strings.Repeat("-", 78))
		if len(r.BestWorst.Entries) == 0 {
			fmt.Println("  (none — both models made the same mistakes)")
		}
		for _, e := range r.BestWorst.Entries {
			worst := string(e.WorstPredicted)
			if worst == "" {
				worst = "error: " + e.WorstError
			}
			fmt.Printf("  • %s/%s — expected %s | best: %s | worst: %s\n",
				e.Condition, e.Name, e.Expected, e.BestPredicted, worst)
		}
		fmt.Println()
	}
}

func formatDistribution(dist map[risk.Classification]int) string {
	var parts []string
	for _, level := range []risk.Classification{risk.ClassificationLow, risk.ClassificationMedium, risk.ClassificationHigh} {
		if n, ok := dist[level]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", level, n))
		}
	}
	return strings.Join(parts, " ")
}

// truncateName shortens a name to maxLen runes, replacing the last rune with "…" if needed.
func truncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
