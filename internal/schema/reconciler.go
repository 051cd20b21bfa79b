package schema

import (
	"strings"

	"impact-platform/internal/models"
)

// Canonical field names the reconciler can map input headers onto.
const (
	FieldDietGroup = "diet_group"
	FieldGender    = "gender"
	FieldAgeGroup  = "age_group"
)

// IndicatorFields are the canonical numeric field names, indexed by
// models.Indicator.
var IndicatorFields = [models.NumIndicators]string{
	models.GHGs:           "ghgs",
	models.LandUse:        "land_use",
	models.WaterScarcity:  "water_scarcity",
	models.Eutrophication: "eutrophication",
	models.Acidification:  "acidification",
	models.Biodiversity:   "biodiversity",
}

// fieldOrder fixes the mapping pass order so reconciliation is
// deterministic regardless of map iteration.
var fieldOrder = []string{
	FieldDietGroup,
	FieldGender,
	FieldAgeGroup,
	"ghgs",
	"land_use",
	"water_scarcity",
	"eutrophication",
	"acidification",
	"biodiversity",
}

// fieldAliases accepts the header spellings observed across source file
// revisions. Matching is case-insensitive and whitespace-trimmed.
var fieldAliases = map[string][]string{
	FieldDietGroup: {"diet_group", "diet group", "dietgroup", "diet", "grouping"},
	FieldGender:    {"sex", "gender"},
	FieldAgeGroup:  {"age_group", "age group", "agegroup", "age", "age_band"},
	"ghgs":         {"mean_ghgs", "ghgs", "ghg", "mean_ghg", "greenhouse gas emissions"},
	"land_use":     {"mean_land", "land_use", "land use", "land", "landuse"},
	"water_scarcity": {
		"mean_watscar", "water_scarcity", "water scarcity", "watscar", "mean_watuse", "water_use",
	},
	"eutrophication": {"mean_eut", "eutrophication", "eut"},
	"acidification":  {"mean_acid", "acidification", "acid"},
	"biodiversity":   {"mean_bio", "biodiversity", "bio"},
}

// FieldMapping maps canonical field name → actual input header to use
// for extraction. Fields with no matching header are absent from the
// map and extract as empty values.
type FieldMapping map[string]string

// Value extracts a canonical field from a raw row, returning "" when
// the field is unmapped or the row lacks the column.
func (m FieldMapping) Value(row models.RawSurveyRow, field string) string {
	header, ok := m[field]
	if !ok {
		return ""
	}
	return row[header]
}

// Reconciler maps loosely-specified input headers onto the canonical
// schema. It runs once per load against the header row; later rows are
// assumed to share the same schema.
type Reconciler struct {
	aliases map[string][]string
}

// NewReconciler creates a Reconciler with the built-in alias table.
func NewReconciler() *Reconciler {
	return &Reconciler{aliases: fieldAliases}
}

// Reconcile scans the available headers in input order and, for each
// canonical field, selects the first header whose normalized form
// appears in that field's alias list. Unmatched fields are left
// unmapped; that is a tolerated degradation, not an error.
func (r *Reconciler) Reconcile(headers []string) FieldMapping {
	mapping := make(FieldMapping, len(fieldOrder))

	for _, field := range fieldOrder {
		aliasSet := make(map[string]struct{}, len(r.aliases[field]))
		for _, a := range r.aliases[field] {
			aliasSet[a] = struct{}{}
		}

		for _, header := range headers {
			if _, ok := aliasSet[normalizeHeader(header)]; ok {
				mapping[field] = header
				break
			}
		}
	}

	return mapping
}

// ToImpactRecord converts a raw row into a canonical record using the
// reconciled mapping. Rows without a diet-group label are rejected with
// a ValidationError; aggregation must never see them. Missing or
// unparseable numeric cells become nil indicator values.
func (m FieldMapping) ToImpactRecord(row models.RawSurveyRow) (*models.ImpactRecord, error) {
	dietRaw := m.Value(row, FieldDietGroup)
	if strings.TrimSpace(dietRaw) == "" {
		return nil, &models.ValidationError{
			Field:   FieldDietGroup,
			Value:   dietRaw,
			Message: "record has no diet-group label",
		}
	}

	rec := &models.ImpactRecord{
		DietGroup: models.CanonicalDietGroup(dietRaw),
		Gender:    models.CanonicalGender(m.Value(row, FieldGender)),
		AgeGroup:  models.CanonicalAgeGroup(m.Value(row, FieldAgeGroup)),
	}

	for i := 0; i < models.NumIndicators; i++ {
		ind := models.Indicator(i)
		rec.SetIndicator(ind, models.CoerceNumber(m.Value(row, IndicatorFields[ind])))
	}

	return rec, nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
