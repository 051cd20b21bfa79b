package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"impact-platform/internal/config"
	"impact-platform/internal/models"
	"impact-platform/internal/repository"
	"impact-platform/internal/services"
	"impact-platform/pkg/logging"
	"impact-platform/pkg/metrics"
)

var (
	testLogger    = logging.NewStructuredLogger("test", "0.0.0", logging.ErrorLevel)
	testCollector = metrics.NewCollector("handlers_test")
)

// fakeRepo serves canned summaries so handler behavior can be tested
// without Postgres.
type fakeRepo struct {
	summaries []models.ImpactSummary
	labels    models.Labels
	failWith  error
	unhealthy bool
}

func (f *fakeRepo) ReplaceSummaries(ctx context.Context, summaries []models.ImpactSummary) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.summaries = summaries
	return nil
}

func (f *fakeRepo) GetSummaries(ctx context.Context, filter repository.SummaryFilter) ([]*models.ImpactSummary, int, error) {
	if f.failWith != nil {
		return nil, 0, f.failWith
	}

	var matched []*models.ImpactSummary
	for i := range f.summaries {
		s := &f.summaries[i]
		if filter.Grouping != nil && s.Grouping != *filter.Grouping {
			continue
		}
		if filter.DietGroup != nil && s.DietGroup != *filter.DietGroup {
			continue
		}
		if filter.Gender != nil && s.Gender != *filter.Gender {
			continue
		}
		if filter.AgeGroup != nil && s.AgeGroup != *filter.AgeGroup {
			continue
		}
		matched = append(matched, s)
	}

	total := len(matched)
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakeRepo) GetLabels(ctx context.Context) (*models.Labels, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &f.labels, nil
}

func (f *fakeRepo) HealthCheck(ctx context.Context) error {
	if f.unhealthy {
		return errors.New("connection refused")
	}
	return nil
}

func fixtureSummaries() []models.ImpactSummary {
	return []models.ImpactSummary{
		{Grouping: "all", DietGroup: models.AllLabel, Gender: models.AllLabel, AgeGroup: models.AllLabel, GHGs: 6.0, RecordCount: 4},
		{Grouping: "diet_group", DietGroup: "vegan", Gender: models.AllLabel, AgeGroup: models.AllLabel, GHGs: 3.0, RecordCount: 2},
		{Grouping: "diet_group", DietGroup: "high_meat", Gender: models.AllLabel, AgeGroup: models.AllLabel, GHGs: 12.0, RecordCount: 2},
		{Grouping: "diet_age", DietGroup: "vegan", Gender: models.AllLabel, AgeGroup: "20-29", GHGs: 3.0, RecordCount: 2},
		{Grouping: "diet_age", DietGroup: "high_meat", Gender: models.AllLabel, AgeGroup: "40-49", GHGs: 12.0, RecordCount: 2},
	}
}

func newTestRouter(repo repository.SummaryRepository) *mux.Router {
	norm := services.NewNormalizationService(config.DefaultWeights(), testLogger)
	handler := NewImpactHandler(repo, norm, testLogger, testCollector)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func doRequest(t *testing.T, router *mux.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestImpactHandler_GetSummaries(t *testing.T) {
	router := newTestRouter(&fakeRepo{summaries: fixtureSummaries()})

	rec := doRequest(t, router, "/api/impact/summaries")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var response PaginatedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Total != 5 {
		t.Errorf("Total = %d, want 5", response.Total)
	}
	if response.Page != 1 || response.Limit != 100 {
		t.Errorf("Page = %d, Limit = %d, want defaults 1, 100", response.Page, response.Limit)
	}
}

func TestImpactHandler_GetSummaries_GroupingFilter(t *testing.T) {
	router := newTestRouter(&fakeRepo{summaries: fixtureSummaries()})

	rec := doRequest(t, router, "/api/impact/summaries?grouping=diet_group")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var response PaginatedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Total != 2 {
		t.Errorf("Total = %d, want 2 diet_group buckets", response.Total)
	}
}

func TestImpactHandler_GetSummaries_InvalidGrouping(t *testing.T) {
	router := newTestRouter(&fakeRepo{summaries: fixtureSummaries()})

	rec := doRequest(t, router, "/api/impact/summaries?grouping=diet_gender_age")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var response ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Code != http.StatusBadRequest {
		t.Errorf("Code = %d, want %d", response.Code, http.StatusBadRequest)
	}
}

func TestImpactHandler_GetSummaries_RepoError(t *testing.T) {
	router := newTestRouter(&fakeRepo{failWith: errors.New("db down")})

	rec := doRequest(t, router, "/api/impact/summaries")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestImpactHandler_GetLabels(t *testing.T) {
	repo := &fakeRepo{
		labels: models.Labels{
			DietGroups: []string{"vegan", "high_meat"},
			Genders:    []string{"Female", "Male"},
			AgeGroups:  []string{"20-29", "40-49"},
		},
	}
	router := newTestRouter(repo)

	rec := doRequest(t, router, "/api/impact/labels")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var labels models.Labels
	if err := json.Unmarshal(rec.Body.Bytes(), &labels); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(labels.DietGroups) != 2 || labels.DietGroups[0] != "vegan" {
		t.Errorf("DietGroups = %v, want [vegan high_meat]", labels.DietGroups)
	}
}

func TestImpactHandler_GetChart(t *testing.T) {
	router := newTestRouter(&fakeRepo{summaries: fixtureSummaries()})

	rec := doRequest(t, router, "/api/impact/chart?grouping=diet_group")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var chart ChartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &chart); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if chart.Grouping != "diet_group" {
		t.Errorf("Grouping = %q, want %q", chart.Grouping, "diet_group")
	}
	if len(chart.Series) != models.NumIndicators {
		t.Fatalf("Series = %d, want %d", len(chart.Series), models.NumIndicators)
	}

	// First series is GHGs; high_meat is the subset max so it scales to
	// the full weight, vegan to a quarter of it
	ghgs := chart.Series[0]
	if ghgs.Key != "ghgs" {
		t.Fatalf("first series key = %q, want ghgs", ghgs.Key)
	}
	if len(ghgs.Data) != 2 {
		t.Fatalf("ghgs points = %d, want 2", len(ghgs.Data))
	}
	if ghgs.Data[0].Label != "vegan" || ghgs.Data[0].Value != 0.25*ghgs.Weight {
		t.Errorf("vegan point = %+v, want value %v", ghgs.Data[0], 0.25*ghgs.Weight)
	}
	if ghgs.Data[1].Label != "high_meat" || ghgs.Data[1].Value != ghgs.Weight {
		t.Errorf("high_meat point = %+v, want value %v", ghgs.Data[1], ghgs.Weight)
	}
}

func TestImpactHandler_GetChart_DefaultGrouping(t *testing.T) {
	router := newTestRouter(&fakeRepo{summaries: fixtureSummaries()})

	rec := doRequest(t, router, "/api/impact/chart")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var chart ChartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &chart); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if chart.Grouping != "diet_age" {
		t.Errorf("default Grouping = %q, want diet_age", chart.Grouping)
	}

	// diet_age point labels join the partitioned dimensions
	if len(chart.Series) == 0 || len(chart.Series[0].Data) == 0 {
		t.Fatal("expected chart data for diet_age")
	}
	if got := chart.Series[0].Data[0].Label; got != "vegan / 20-29" {
		t.Errorf("point label = %q, want %q", got, "vegan / 20-29")
	}
}

func TestDocsEndpoints(t *testing.T) {
	router := newTestRouter(&fakeRepo{})

	rec := doRequest(t, router, "/api/docs")
	if rec.Code != http.StatusOK {
		t.Fatalf("docs status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("docs Content-Type = %q, want text/html; charset=utf-8", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "/api/docs/openapi.json") {
		t.Error("docs page does not reference the OpenAPI document")
	}
	if !strings.Contains(body, "swagger-ui") {
		t.Error("docs page does not mount the Swagger UI")
	}

	rec = doRequest(t, router, "/api/docs/openapi.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("openapi status = %d, want %d", rec.Code, http.StatusOK)
	}

	var spec map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("failed to decode openapi document: %v", err)
	}
	if spec["openapi"] != "3.0.0" {
		t.Errorf("openapi version = %v, want 3.0.0", spec["openapi"])
	}
	paths, ok := spec["paths"].(map[string]interface{})
	if !ok {
		t.Fatal("openapi document has no paths object")
	}
	for _, path := range []string{"/api/impact/summaries", "/api/impact/labels", "/api/impact/chart", "/health"} {
		if _, ok := paths[path]; !ok {
			t.Errorf("openapi document missing path %s", path)
		}
	}
}

func TestImpactHandler_HealthCheck(t *testing.T) {
	router := newTestRouter(&fakeRepo{})

	rec := doRequest(t, router, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	router = newTestRouter(&fakeRepo{unhealthy: true})
	rec = doRequest(t, router, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var status map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status["status"] != "degraded" {
		t.Errorf("status = %q, want degraded", status["status"])
	}
}
