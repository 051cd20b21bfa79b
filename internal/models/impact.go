package models

import (
	"strconv"
	"strings"
	"time"
)

// AllLabel is the sentinel reported for dimensions a grouping does not
// partition by.
const AllLabel = "All"

// UnknownLabel is the fallback for gender/age codes missing from the
// translation tables. Diet-group codes deliberately have no such
// fallback and pass through verbatim.
const UnknownLabel = "Unknown"

// Indicator identifies one of the six environmental-impact measures.
type Indicator int

const (
	GHGs Indicator = iota
	LandUse
	WaterScarcity
	Eutrophication
	Acidification
	Biodiversity

	NumIndicators = 6
)

// IndicatorKeys are the stable machine-readable names, indexed by Indicator.
var IndicatorKeys = [NumIndicators]string{
	"ghgs",
	"land_use",
	"water_scarcity",
	"eutrophication",
	"acidification",
	"biodiversity",
}

// IndicatorNames are display names, indexed by Indicator.
var IndicatorNames = [NumIndicators]string{
	"GHG Emissions",
	"Land Use",
	"Water Scarcity",
	"Eutrophication",
	"Acidification",
	"Biodiversity Impact",
}

func (i Indicator) Key() string {
	if i < 0 || i >= NumIndicators {
		return "unknown"
	}
	return IndicatorKeys[i]
}

func (i Indicator) DisplayName() string {
	if i < 0 || i >= NumIndicators {
		return "Unknown"
	}
	return IndicatorNames[i]
}

// dietGroupCodes translates raw survey diet codes to display-stable
// identifiers. Codes not present pass through verbatim (lower-cased,
// trimmed) rather than falling back to "Unknown".
var dietGroupCodes = map[string]string{
	"vegan":   "vegan",
	"veggie":  "vegetarian",
	"fish":    "fish",
	"meat":    "low_meat",
	"meat50":  "medium_meat",
	"meat100": "high_meat",
}

// genderCodes translates raw survey sex codes. Unrecognized codes map
// to UnknownLabel.
var genderCodes = map[string]string{
	"female": "Female",
	"male":   "Male",
}

// ageGroupCodes lists the survey age brackets. Canonical brackets map
// to themselves so re-canonicalization is idempotent.
var ageGroupCodes = map[string]string{
	"20-29": "20-29",
	"30-39": "30-39",
	"40-49": "40-49",
	"50-59": "50-59",
	"60-69": "60-69",
	"70-79": "70-79",
}

// CanonicalDietGroup translates a raw diet-group code. An unrecognized
// code is returned lower-cased and trimmed, which makes the translation
// idempotent for already-canonical codes.
func CanonicalDietGroup(code string) string {
	c := strings.ToLower(strings.TrimSpace(code))
	if canonical, ok := dietGroupCodes[c]; ok {
		return canonical
	}
	return c
}

// CanonicalGender translates a raw sex/gender code, falling back to
// UnknownLabel for codes missing from the table.
func CanonicalGender(code string) string {
	c := strings.ToLower(strings.TrimSpace(code))
	if canonical, ok := genderCodes[c]; ok {
		return canonical
	}
	return UnknownLabel
}

// CanonicalAgeGroup translates a raw age-bracket code, falling back to
// UnknownLabel for brackets missing from the table.
func CanonicalAgeGroup(code string) string {
	c := strings.ToLower(strings.TrimSpace(code))
	if canonical, ok := ageGroupCodes[c]; ok {
		return canonical
	}
	return UnknownLabel
}

// CoerceNumber parses a raw cell into a float. It trims whitespace and
// accepts "," as a decimal separator. Empty or unparseable input
// returns nil, which marks the value missing: the record's own total
// treats it as zero, but aggregation excludes it from the averaging
// denominator.
func CoerceNumber(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// RawSurveyRow is one parsed input row keyed by the original header
// names. The schema is not statically known; header spelling varies by
// source file revision.
type RawSurveyRow map[string]string

// ImpactRecord is a canonicalized respondent record. Indicator fields
// use pointers so missing or unparseable cells stay distinguishable
// from genuine zeros.
type ImpactRecord struct {
	DietGroup string `json:"diet_group"`
	Gender    string `json:"gender"`
	AgeGroup  string `json:"age_group"`

	GHGs           *float64 `json:"ghgs,omitempty"`
	LandUse        *float64 `json:"land_use,omitempty"`
	WaterScarcity  *float64 `json:"water_scarcity,omitempty"`
	Eutrophication *float64 `json:"eutrophication,omitempty"`
	Acidification  *float64 `json:"acidification,omitempty"`
	Biodiversity   *float64 `json:"biodiversity,omitempty"`
}

// IndicatorValue returns the pointer for one indicator; nil means the
// source cell was absent or unparseable.
func (r *ImpactRecord) IndicatorValue(i Indicator) *float64 {
	switch i {
	case GHGs:
		return r.GHGs
	case LandUse:
		return r.LandUse
	case WaterScarcity:
		return r.WaterScarcity
	case Eutrophication:
		return r.Eutrophication
	case Acidification:
		return r.Acidification
	case Biodiversity:
		return r.Biodiversity
	default:
		return nil
	}
}

// SetIndicator assigns one indicator field by index.
func (r *ImpactRecord) SetIndicator(i Indicator, v *float64) {
	switch i {
	case GHGs:
		r.GHGs = v
	case LandUse:
		r.LandUse = v
	case WaterScarcity:
		r.WaterScarcity = v
	case Eutrophication:
		r.Eutrophication = v
	case Acidification:
		r.Acidification = v
	case Biodiversity:
		r.Biodiversity = v
	}
}

// ImpactSummary is one aggregated bucket: the arithmetic mean of each
// indicator over the records sharing a group key. Dimensions the
// grouping does not partition by hold AllLabel. Valid counts record how
// many samples actually contributed to each mean.
type ImpactSummary struct {
	ID       int64  `json:"id,omitempty" db:"id"`
	Grouping string `json:"grouping" db:"grouping_kind"`

	DietGroup string `json:"diet_group" db:"diet_group"`
	Gender    string `json:"gender" db:"gender"`
	AgeGroup  string `json:"age_group" db:"age_group"`

	GHGs           float64 `json:"ghgs" db:"ghgs"`
	LandUse        float64 `json:"land_use" db:"land_use"`
	WaterScarcity  float64 `json:"water_scarcity" db:"water_scarcity"`
	Eutrophication float64 `json:"eutrophication" db:"eutrophication"`
	Acidification  float64 `json:"acidification" db:"acidification"`
	Biodiversity   float64 `json:"biodiversity" db:"biodiversity"`

	RecordCount       int `json:"record_count" db:"record_count"`
	ValidGHGsCount    int `json:"valid_ghgs_count" db:"valid_ghgs_count"`
	ValidLandUseCount int `json:"valid_land_use_count" db:"valid_land_use_count"`
	ValidWaterCount   int `json:"valid_water_count" db:"valid_water_count"`
	ValidEutroCount   int `json:"valid_eutro_count" db:"valid_eutro_count"`
	ValidAcidCount    int `json:"valid_acid_count" db:"valid_acid_count"`
	ValidBiodivCount  int `json:"valid_biodiv_count" db:"valid_biodiv_count"`

	CreatedAt time.Time `json:"created_at,omitempty" db:"created_at"`
}

// MeanValue returns the stored mean for one indicator.
func (s *ImpactSummary) MeanValue(i Indicator) float64 {
	switch i {
	case GHGs:
		return s.GHGs
	case LandUse:
		return s.LandUse
	case WaterScarcity:
		return s.WaterScarcity
	case Eutrophication:
		return s.Eutrophication
	case Acidification:
		return s.Acidification
	case Biodiversity:
		return s.Biodiversity
	default:
		return 0
	}
}

// SetMean assigns the mean for one indicator.
func (s *ImpactSummary) SetMean(i Indicator, v float64) {
	switch i {
	case GHGs:
		s.GHGs = v
	case LandUse:
		s.LandUse = v
	case WaterScarcity:
		s.WaterScarcity = v
	case Eutrophication:
		s.Eutrophication = v
	case Acidification:
		s.Acidification = v
	case Biodiversity:
		s.Biodiversity = v
	}
}

// SetValidCount assigns the contributing-sample count for one indicator.
func (s *ImpactSummary) SetValidCount(i Indicator, n int) {
	switch i {
	case GHGs:
		s.ValidGHGsCount = n
	case LandUse:
		s.ValidLandUseCount = n
	case WaterScarcity:
		s.ValidWaterCount = n
	case Eutrophication:
		s.ValidEutroCount = n
	case Acidification:
		s.ValidAcidCount = n
	case Biodiversity:
		s.ValidBiodivCount = n
	}
}

// Labels holds the distinct category values observed per dimension, in
// first-seen order over the output summary sequence. Used to populate
// selection UIs.
type Labels struct {
	DietGroups []string `json:"diet_groups"`
	Genders    []string `json:"genders"`
	AgeGroups  []string `json:"age_groups"`
}

// ValidationError represents a data validation error.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent.
func (e *ValidationError) IsTransient() bool {
	return false
}
