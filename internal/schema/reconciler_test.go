package schema

import (
	"testing"

	"impact-platform/internal/models"
)

func TestReconciler_Reconcile(t *testing.T) {
	tests := []struct {
		name       string
		headers    []string
		wantMap    map[string]string
		wantAbsent []string
	}{
		{
			name:    "survey export headers",
			headers: []string{"grouping", "sex", "age_group", "mean_ghgs", "mean_land", "mean_watscar", "mean_eut", "mean_acid", "mean_bio"},
			wantMap: map[string]string{
				FieldDietGroup:   "grouping",
				FieldGender:      "sex",
				FieldAgeGroup:    "age_group",
				"ghgs":           "mean_ghgs",
				"land_use":       "mean_land",
				"water_scarcity": "mean_watscar",
				"eutrophication": "mean_eut",
				"acidification":  "mean_acid",
				"biodiversity":   "mean_bio",
			},
		},
		{
			name:    "case and whitespace insensitive",
			headers: []string{"  Diet Group ", "GENDER", "Age Band", "GHGs"},
			wantMap: map[string]string{
				FieldDietGroup: "  Diet Group ",
				FieldGender:    "GENDER",
				FieldAgeGroup:  "Age Band",
				"ghgs":         "GHGs",
			},
			wantAbsent: []string{"land_use", "water_scarcity", "eutrophication", "acidification", "biodiversity"},
		},
		{
			name:    "first matching header wins",
			headers: []string{"mean_ghgs", "ghg", "ghgs"},
			wantMap: map[string]string{
				"ghgs": "mean_ghgs",
			},
			wantAbsent: []string{FieldDietGroup, FieldGender, FieldAgeGroup},
		},
		{
			name:       "unrecognized headers map nothing",
			headers:    []string{"respondent_id", "country", "notes"},
			wantAbsent: []string{FieldDietGroup, FieldGender, FieldAgeGroup, "ghgs", "biodiversity"},
		},
		{
			name:       "empty header row",
			headers:    []string{},
			wantAbsent: []string{FieldDietGroup, "ghgs"},
		},
	}

	r := NewReconciler()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapping := r.Reconcile(tt.headers)

			for field, wantHeader := range tt.wantMap {
				got, ok := mapping[field]
				if !ok {
					t.Errorf("field %q unmapped, want header %q", field, wantHeader)
					continue
				}
				if got != wantHeader {
					t.Errorf("field %q mapped to %q, want %q", field, got, wantHeader)
				}
			}

			for _, field := range tt.wantAbsent {
				if header, ok := mapping[field]; ok {
					t.Errorf("field %q mapped to %q, want absent", field, header)
				}
			}
		})
	}
}

func TestFieldMapping_Value(t *testing.T) {
	mapping := FieldMapping{FieldDietGroup: "grouping"}
	row := models.RawSurveyRow{"grouping": "vegan", "sex": "female"}

	if got := mapping.Value(row, FieldDietGroup); got != "vegan" {
		t.Errorf("mapped field = %q, want %q", got, "vegan")
	}

	// Unmapped field extracts as empty, never errors
	if got := mapping.Value(row, FieldGender); got != "" {
		t.Errorf("unmapped field = %q, want empty", got)
	}
}

func TestFieldMapping_ToImpactRecord(t *testing.T) {
	headers := []string{"grouping", "sex", "age_group", "mean_ghgs", "mean_land", "mean_watscar", "mean_eut", "mean_acid", "mean_bio"}
	mapping := NewReconciler().Reconcile(headers)

	tests := []struct {
		name        string
		row         models.RawSurveyRow
		wantErr     bool
		checkValues func(*testing.T, *models.ImpactRecord)
	}{
		{
			name: "fully populated row",
			row: models.RawSurveyRow{
				"grouping":     "meat50",
				"sex":          "female",
				"age_group":    "30-39",
				"mean_ghgs":    "8.75",
				"mean_land":    "20.38",
				"mean_watscar": "779.4",
				"mean_eut":     "28.91",
				"mean_acid":    "36.48",
				"mean_bio":     "9.96",
			},
			checkValues: func(t *testing.T, rec *models.ImpactRecord) {
				if rec.DietGroup != "medium_meat" {
					t.Errorf("DietGroup = %q, want %q", rec.DietGroup, "medium_meat")
				}
				if rec.Gender != "Female" {
					t.Errorf("Gender = %q, want %q", rec.Gender, "Female")
				}
				if rec.AgeGroup != "30-39" {
					t.Errorf("AgeGroup = %q, want %q", rec.AgeGroup, "30-39")
				}
				if rec.GHGs == nil || *rec.GHGs != 8.75 {
					t.Errorf("GHGs = %v, want 8.75", rec.GHGs)
				}
				if rec.Biodiversity == nil || *rec.Biodiversity != 9.96 {
					t.Errorf("Biodiversity = %v, want 9.96", rec.Biodiversity)
				}
			},
		},
		{
			name: "missing diet group rejects the row",
			row: models.RawSurveyRow{
				"grouping":  "",
				"sex":       "male",
				"mean_ghgs": "5.0",
			},
			wantErr: true,
		},
		{
			name: "whitespace-only diet group rejects the row",
			row: models.RawSurveyRow{
				"grouping": "   ",
				"sex":      "male",
			},
			wantErr: true,
		},
		{
			name: "unparseable numerics become missing, not errors",
			row: models.RawSurveyRow{
				"grouping":  "vegan",
				"sex":       "female",
				"age_group": "20-29",
				"mean_ghgs": "not-a-number",
				"mean_land": "7,77",
			},
			checkValues: func(t *testing.T, rec *models.ImpactRecord) {
				if rec.GHGs != nil {
					t.Errorf("GHGs = %v, want nil for unparseable cell", *rec.GHGs)
				}
				if rec.LandUse == nil || *rec.LandUse != 7.77 {
					t.Errorf("LandUse = %v, want 7.77 via comma coercion", rec.LandUse)
				}
				if rec.WaterScarcity != nil {
					t.Errorf("WaterScarcity = %v, want nil for absent cell", *rec.WaterScarcity)
				}
			},
		},
		{
			name: "unknown demographic codes default silently",
			row: models.RawSurveyRow{
				"grouping":  "keto",
				"sex":       "unspecified",
				"age_group": "90-99",
			},
			checkValues: func(t *testing.T, rec *models.ImpactRecord) {
				if rec.DietGroup != "keto" {
					t.Errorf("DietGroup = %q, want pass-through %q", rec.DietGroup, "keto")
				}
				if rec.Gender != models.UnknownLabel {
					t.Errorf("Gender = %q, want %q", rec.Gender, models.UnknownLabel)
				}
				if rec.AgeGroup != models.UnknownLabel {
					t.Errorf("AgeGroup = %q, want %q", rec.AgeGroup, models.UnknownLabel)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := mapping.ToImpactRecord(tt.row)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if _, ok := err.(*models.ValidationError); !ok {
					t.Errorf("error type = %T, want *models.ValidationError", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.checkValues != nil {
				tt.checkValues(t, rec)
			}
		})
	}
}
