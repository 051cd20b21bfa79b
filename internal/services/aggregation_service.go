package services

import (
	"context"
	"time"

	"impact-platform/internal/models"
	"impact-platform/pkg/logging"
	"impact-platform/pkg/metrics"
)

// grouping describes one group-key kind: which dimensions of the
// composite (dietGroup, gender, ageGroup) key it partitions by.
// Dimensions it does not use are flattened to models.AllLabel.
type grouping struct {
	Name      string
	UseDiet   bool
	UseGender bool
	UseAge    bool
}

// groupings are the six kinds computed, in emission order. The
// (diet × gender × age) triple is deliberately not computed.
var groupings = []grouping{
	{Name: "all"},
	{Name: "diet_group", UseDiet: true},
	{Name: "gender", UseGender: true},
	{Name: "age_group", UseAge: true},
	{Name: "diet_gender", UseDiet: true, UseGender: true},
	{Name: "diet_age", UseDiet: true, UseAge: true},
}

// GroupingNames lists the valid grouping identifiers in emission order.
func GroupingNames() []string {
	names := make([]string, len(groupings))
	for i, g := range groupings {
		names[i] = g.Name
	}
	return names
}

// bucketKey is the flattened composite key for one bucket.
type bucketKey struct {
	dietGroup string
	gender    string
	ageGroup  string
}

// accumulator holds running sums and contributing-sample counts per
// indicator for one bucket. Counts increment only for cells that were
// actually present and parseable, so sparse indicator coverage does not
// deflate the mean.
type accumulator struct {
	sums    [models.NumIndicators]float64
	counts  [models.NumIndicators]int
	records int
}

// AggregationService buckets canonical records by every grouping kind
// and computes per-bucket indicator means.
type AggregationService struct {
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAggregationService creates a new aggregation service.
func NewAggregationService(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AggregationService {
	return &AggregationService{
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Aggregate computes the full summary collection across all grouping
// kinds. Within a kind, buckets emit in insertion order (first
// encounter while scanning records). Records without a diet-group
// label contribute to no bucket of any kind.
func (s *AggregationService) Aggregate(ctx context.Context, records []*models.ImpactRecord) ([]models.ImpactSummary, models.Labels) {
	startTime := time.Now()

	var summaries []models.ImpactSummary

	for _, g := range groupings {
		buckets := make(map[bucketKey]*accumulator)
		order := make([]bucketKey, 0)

		for _, rec := range records {
			if rec.DietGroup == "" {
				continue
			}

			key := bucketKey{
				dietGroup: models.AllLabel,
				gender:    models.AllLabel,
				ageGroup:  models.AllLabel,
			}
			if g.UseDiet {
				key.dietGroup = rec.DietGroup
			}
			if g.UseGender {
				key.gender = rec.Gender
			}
			if g.UseAge {
				key.ageGroup = rec.AgeGroup
			}

			acc, exists := buckets[key]
			if !exists {
				acc = &accumulator{}
				buckets[key] = acc
				order = append(order, key)
			}

			acc.records++
			for i := 0; i < models.NumIndicators; i++ {
				if v := rec.IndicatorValue(models.Indicator(i)); v != nil {
					acc.sums[i] += *v
					acc.counts[i]++
				}
			}
		}

		for _, key := range order {
			acc := buckets[key]
			summary := models.ImpactSummary{
				Grouping:    g.Name,
				DietGroup:   key.dietGroup,
				Gender:      key.gender,
				AgeGroup:    key.ageGroup,
				RecordCount: acc.records,
				CreatedAt:   time.Now().UTC(),
			}
			for i := 0; i < models.NumIndicators; i++ {
				ind := models.Indicator(i)
				if acc.counts[i] > 0 {
					summary.SetMean(ind, acc.sums[i]/float64(acc.counts[i]))
				}
				summary.SetValidCount(ind, acc.counts[i])
			}
			summaries = append(summaries, summary)
		}
	}

	labels := collectLabels(summaries)

	duration := time.Since(startTime)
	s.metrics.AggregationDuration.Observe(duration.Seconds())
	s.logger.Info(ctx, "[AGGREGATE_COMPLETE] Aggregation completed", logging.Fields{
		"input_records":   len(records),
		"summary_buckets": len(summaries),
		"grouping_kinds":  len(groupings),
		"duration_ms":     duration.Milliseconds(),
		"diet_groups":     len(labels.DietGroups),
		"genders":         len(labels.Genders),
		"age_groups":      len(labels.AgeGroups),
	})

	return summaries, labels
}

// collectLabels derives the deduplicated per-dimension label lists in
// first-seen order over the output summary sequence. The AllLabel
// placeholder is not a selectable category and is excluded.
func collectLabels(summaries []models.ImpactSummary) models.Labels {
	labels := models.Labels{
		DietGroups: make([]string, 0),
		Genders:    make([]string, 0),
		AgeGroups:  make([]string, 0),
	}

	seenDiet := make(map[string]struct{})
	seenGender := make(map[string]struct{})
	seenAge := make(map[string]struct{})

	for _, sum := range summaries {
		if sum.DietGroup != models.AllLabel {
			if _, ok := seenDiet[sum.DietGroup]; !ok {
				seenDiet[sum.DietGroup] = struct{}{}
				labels.DietGroups = append(labels.DietGroups, sum.DietGroup)
			}
		}
		if sum.Gender != models.AllLabel {
			if _, ok := seenGender[sum.Gender]; !ok {
				seenGender[sum.Gender] = struct{}{}
				labels.Genders = append(labels.Genders, sum.Gender)
			}
		}
		if sum.AgeGroup != models.AllLabel {
			if _, ok := seenAge[sum.AgeGroup]; !ok {
				seenAge[sum.AgeGroup] = struct{}{}
				labels.AgeGroups = append(labels.AgeGroups, sum.AgeGroup)
			}
		}
	}

	return labels
}
