package services

import (
	"context"

	"impact-platform/internal/config"
	"impact-platform/internal/models"
	"impact-platform/pkg/logging"
)

// NormalizedSummary is one bucket with indicator values scaled for
// stacked charting: (raw mean / per-indicator max) * weight.
type NormalizedSummary struct {
	DietGroup string `json:"diet_group"`
	Gender    string `json:"gender"`
	AgeGroup  string `json:"age_group"`

	Values map[string]float64 `json:"values"` // keyed by indicator key
}

// NormalizationService applies max-based normalization with fixed
// per-indicator weights to a chosen subset of summaries. Maxima are
// recomputed per call against the subset actually being rendered, never
// cached or taken globally.
type NormalizationService struct {
	weights config.Weights
	logger  *logging.StructuredLogger
}

// NewNormalizationService creates a normalization service with the
// given weight configuration.
func NewNormalizationService(weights config.Weights, logger *logging.StructuredLogger) *NormalizationService {
	return &NormalizationService{
		weights: weights,
		logger:  logger,
	}
}

// Weights returns the configured per-indicator weights.
func (s *NormalizationService) Weights() config.Weights {
	return s.weights
}

// Maxima computes the per-indicator maximum raw mean across the subset.
func (s *NormalizationService) Maxima(subset []models.ImpactSummary) [models.NumIndicators]float64 {
	var maxima [models.NumIndicators]float64
	for _, sum := range subset {
		for i := 0; i < models.NumIndicators; i++ {
			if v := sum.MeanValue(models.Indicator(i)); v > maxima[i] {
				maxima[i] = v
			}
		}
	}
	return maxima
}

// Normalize scales each summary's indicators into [0, weight] relative
// to the subset's maxima. An indicator whose maximum is zero (entirely
// absent from the subset) normalizes to 0 for every bucket.
func (s *NormalizationService) Normalize(ctx context.Context, subset []models.ImpactSummary) []NormalizedSummary {
	maxima := s.Maxima(subset)

	result := make([]NormalizedSummary, 0, len(subset))
	for _, sum := range subset {
		norm := NormalizedSummary{
			DietGroup: sum.DietGroup,
			Gender:    sum.Gender,
			AgeGroup:  sum.AgeGroup,
			Values:    make(map[string]float64, models.NumIndicators),
		}
		for i := 0; i < models.NumIndicators; i++ {
			ind := models.Indicator(i)
			var v float64
			if maxima[i] > 0 {
				v = sum.MeanValue(ind) / maxima[i] * s.weights.For(ind)
			}
			norm.Values[ind.Key()] = v
		}
		result = append(result, norm)
	}

	s.logger.Debug(ctx, "[NORMALIZE] Subset normalized", logging.Fields{
		"subset_size": len(subset),
	})

	return result
}
