package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"impact-platform/internal/config"
	"impact-platform/internal/models"
	"impact-platform/internal/services"
	"impact-platform/pkg/logging"
	"impact-platform/pkg/metrics"
)

// Demonstrates the survey pipeline without a database: parse, aggregate
// and normalize a local CSV, then print the buckets per grouping.
func main() {
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("IMPACT PLATFORM - SURVEY PIPELINE DEMONSTRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()

	source := "./data/diet_impacts.csv"
	if len(os.Args) > 1 {
		source = os.Args[1]
	}

	// Initialize logger and metrics
	logger := logging.NewStructuredLogger("demo", "1.0.0", logging.WarnLevel)
	metricsCollector := metrics.NewCollector("impact_demo")
	ctx := context.Background()

	aggregator := services.NewAggregationService(logger, metricsCollector)
	pipeline := services.NewPipelineService(aggregator, logger, metricsCollector)

	result := pipeline.Run(ctx, source)
	if result.Status == services.StatusFailed {
		fmt.Printf("Pipeline failed: %s\n", result.ErrorMessage())
		os.Exit(1)
	}

	fmt.Printf("Source:       %s\n", source)
	fmt.Printf("Rows read:    %d\n", result.RowsRead)
	fmt.Printf("Parse errors: %d\n", result.ParseErrors)
	fmt.Printf("Rows dropped: %d\n", result.RowsDropped)
	fmt.Printf("Records:      %d\n", result.Records)
	fmt.Printf("Duration:     %v\n", result.Duration)
	fmt.Println()

	fmt.Printf("Diet groups: %s\n", strings.Join(result.Labels.DietGroups, ", "))
	fmt.Printf("Genders:     %s\n", strings.Join(result.Labels.Genders, ", "))
	fmt.Printf("Age groups:  %s\n", strings.Join(result.Labels.AgeGroups, ", "))

	// Print raw means per grouping
	byGrouping := make(map[string][]models.ImpactSummary)
	for _, s := range result.Summaries {
		byGrouping[s.Grouping] = append(byGrouping[s.Grouping], s)
	}

	for _, name := range services.GroupingNames() {
		subset := byGrouping[name]
		if len(subset) == 0 {
			continue
		}

		fmt.Printf("\n─────────────────────────────────────────────────────────────\n")
		fmt.Printf("Grouping: %s (%d buckets)\n", name, len(subset))
		fmt.Printf("─────────────────────────────────────────────────────────────\n")

		for _, s := range subset {
			fmt.Printf("  %-40s n=%-5d", bucketLabel(s), s.RecordCount)
			for i := 0; i < models.NumIndicators; i++ {
				ind := models.Indicator(i)
				fmt.Printf(" %s=%.3f", ind.Key(), s.MeanValue(ind))
			}
			fmt.Println()
		}
	}

	// Normalized view of the diet_age grouping, as the chart endpoint
	// would serve it
	subset := byGrouping["diet_age"]
	if len(subset) > 0 {
		fmt.Println("\n════════════════════════════════════════════════════════════════")
		fmt.Println("NORMALIZED (diet_age, default weights)")
		fmt.Println("════════════════════════════════════════════════════════════════")

		norm := services.NewNormalizationService(config.DefaultWeights(), logger)
		for _, n := range norm.Normalize(ctx, subset) {
			fmt.Printf("  %s / %s:", n.DietGroup, n.AgeGroup)
			for _, key := range models.IndicatorKeys {
				fmt.Printf(" %s=%.3f", key, n.Values[key])
			}
			fmt.Println()
		}
	}
}

func bucketLabel(s models.ImpactSummary) string {
	parts := make([]string, 0, 3)
	for _, dim := range []string{s.DietGroup, s.Gender, s.AgeGroup} {
		if dim != models.AllLabel {
			parts = append(parts, dim)
		}
	}
	if len(parts) == 0 {
		return models.AllLabel
	}
	return strings.Join(parts, " / ")
}
