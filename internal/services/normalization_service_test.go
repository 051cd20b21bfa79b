package services

import (
	"context"
	"math"
	"testing"

	"impact-platform/internal/config"
	"impact-platform/internal/models"
)

func summaryWith(diet string, ghgs, landUse float64) models.ImpactSummary {
	return models.ImpactSummary{
		Grouping:  "diet_group",
		DietGroup: diet,
		Gender:    models.AllLabel,
		AgeGroup:  models.AllLabel,
		GHGs:      ghgs,
		LandUse:   landUse,
	}
}

func TestNormalizationService_Normalize(t *testing.T) {
	weights := config.Weights{
		GHGs:           1.0,
		LandUse:        0.5,
		WaterScarcity:  0.6,
		Eutrophication: 0.8,
		Acidification:  0.8,
		Biodiversity:   0.7,
	}
	svc := NewNormalizationService(weights, testLogger)

	subset := []models.ImpactSummary{
		summaryWith("vegan", 2.0, 8.0),
		summaryWith("high_meat", 8.0, 4.0),
	}

	norm := svc.Normalize(context.Background(), subset)

	if len(norm) != 2 {
		t.Fatalf("normalized %d summaries, want 2", len(norm))
	}

	// The maximum value of each indicator scales to exactly its weight
	if got := norm[1].Values["ghgs"]; got != 1.0 {
		t.Errorf("high_meat ghgs = %v, want 1.0 (max scales to weight)", got)
	}
	if got := norm[0].Values["land_use"]; got != 0.5 {
		t.Errorf("vegan land_use = %v, want 0.5 (max scales to weight)", got)
	}

	// Non-maximum values scale proportionally
	if got := norm[0].Values["ghgs"]; got != 0.25 {
		t.Errorf("vegan ghgs = %v, want 0.25 (2/8 * 1.0)", got)
	}
	if got := norm[1].Values["land_use"]; got != 0.25 {
		t.Errorf("high_meat land_use = %v, want 0.25 (4/8 * 0.5)", got)
	}

	// Indicators absent from the whole subset normalize to 0, never NaN
	for i, n := range norm {
		for _, key := range []string{"water_scarcity", "eutrophication", "acidification", "biodiversity"} {
			v := n.Values[key]
			if v != 0 || math.IsNaN(v) {
				t.Errorf("summary %d %s = %v, want 0 for empty indicator", i, key, v)
			}
		}
	}
}

func TestNormalizationService_Normalize_Bounds(t *testing.T) {
	svc := NewNormalizationService(config.DefaultWeights(), testLogger)

	subset := []models.ImpactSummary{
		summaryWith("vegan", 2.89, 7.77),
		summaryWith("vegetarian", 4.16, 11.23),
		summaryWith("high_meat", 12.64, 28.96),
	}

	weights := svc.Weights()
	norm := svc.Normalize(context.Background(), subset)

	for _, n := range norm {
		for i := 0; i < models.NumIndicators; i++ {
			ind := models.Indicator(i)
			v := n.Values[ind.Key()]
			if v < 0 || v > weights.For(ind) {
				t.Errorf("%s %s = %v, want within [0, %v]", n.DietGroup, ind.Key(), v, weights.For(ind))
			}
		}
	}
}

func TestNormalizationService_Maxima(t *testing.T) {
	svc := NewNormalizationService(config.DefaultWeights(), testLogger)

	subset := []models.ImpactSummary{
		summaryWith("vegan", 2.0, 9.0),
		summaryWith("fish", 5.0, 3.0),
	}

	maxima := svc.Maxima(subset)

	if maxima[models.GHGs] != 5.0 {
		t.Errorf("ghgs max = %v, want 5.0", maxima[models.GHGs])
	}
	if maxima[models.LandUse] != 9.0 {
		t.Errorf("land_use max = %v, want 9.0", maxima[models.LandUse])
	}
	if maxima[models.Biodiversity] != 0 {
		t.Errorf("biodiversity max = %v, want 0", maxima[models.Biodiversity])
	}
}

func TestNormalizationService_Normalize_EmptySubset(t *testing.T) {
	svc := NewNormalizationService(config.DefaultWeights(), testLogger)

	norm := svc.Normalize(context.Background(), nil)
	if len(norm) != 0 {
		t.Errorf("normalized %d summaries, want 0 for empty subset", len(norm))
	}
}
