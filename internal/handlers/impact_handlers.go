package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"impact-platform/internal/models"
	"impact-platform/internal/repository"
	"impact-platform/internal/services"
	"impact-platform/pkg/logging"
	"impact-platform/pkg/metrics"
)

// ImpactHandler handles the impact API endpoints.
type ImpactHandler struct {
	repo    repository.SummaryRepository
	norm    *services.NormalizationService
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewImpactHandler creates a new impact handler.
func NewImpactHandler(
	repo repository.SummaryRepository,
	norm *services.NormalizationService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *ImpactHandler {
	return &ImpactHandler{
		repo:    repo,
		norm:    norm,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// ChartPoint is a single normalized data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartSeries is one indicator's normalized series across buckets.
type ChartSeries struct {
	Name   string       `json:"name"`
	Key    string       `json:"key"`
	Weight float64      `json:"weight"`
	Data   []ChartPoint `json:"data"`
}

// ChartResponse is the render-ready stacked chart payload.
type ChartResponse struct {
	Title    string        `json:"title"`
	Grouping string        `json:"grouping"`
	Series   []ChartSeries `json:"series"`
}

// GetSummaries handles GET /api/impact/summaries
func (h *ImpactHandler) GetSummaries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/impact/summaries").Observe(duration.Seconds())
	}()

	page, limit := parsePagination(r)
	offset := (page - 1) * limit

	filter := repository.SummaryFilter{
		Limit:  limit,
		Offset: offset,
	}

	if v := r.URL.Query().Get("grouping"); v != "" {
		if !validGrouping(v) {
			h.sendError(w, r, "invalid grouping, expected one of: "+strings.Join(services.GroupingNames(), ", "), http.StatusBadRequest)
			return
		}
		filter.Grouping = &v
	}
	if v := r.URL.Query().Get("diet_group"); v != "" {
		filter.DietGroup = &v
	}
	if v := r.URL.Query().Get("gender"); v != "" {
		filter.Gender = &v
	}
	if v := r.URL.Query().Get("age_group"); v != "" {
		filter.AgeGroup = &v
	}

	summaries, total, err := h.repo.GetSummaries(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_SUMMARIES_ERROR] Failed to get summaries", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/impact/summaries")
		h.sendError(w, r, "failed to retrieve summaries", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       summaries,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/impact/summaries", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetLabels handles GET /api/impact/labels
func (h *ImpactHandler) GetLabels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/impact/labels").Observe(duration.Seconds())
	}()

	labels, err := h.repo.GetLabels(ctx)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_LABELS_ERROR] Failed to get labels", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/impact/labels")
		h.sendError(w, r, "failed to retrieve labels", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/impact/labels", "GET", "200")
	h.sendJSON(w, labels, http.StatusOK)
}

// GetChart handles GET /api/impact/chart
//
// Returns per-indicator series normalized against the maxima of the
// requested grouping's buckets, scaled by the configured weights.
func (h *ImpactHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/impact/chart").Observe(duration.Seconds())
	}()

	grouping := r.URL.Query().Get("grouping")
	if grouping == "" {
		grouping = "diet_age"
	}
	if !validGrouping(grouping) {
		h.sendError(w, r, "invalid grouping, expected one of: "+strings.Join(services.GroupingNames(), ", "), http.StatusBadRequest)
		return
	}

	filter := repository.SummaryFilter{
		Grouping: &grouping,
		Limit:    1000,
	}

	stored, _, err := h.repo.GetSummaries(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_CHART_ERROR] Failed to load summaries for chart", logging.Fields{
			"grouping": grouping,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/impact/chart")
		h.sendError(w, r, "failed to build chart", http.StatusInternalServerError)
		return
	}

	subset := make([]models.ImpactSummary, 0, len(stored))
	for _, s := range stored {
		subset = append(subset, *s)
	}

	normalized := h.norm.Normalize(ctx, subset)

	response := ChartResponse{
		Title:    "Environmental impact by " + grouping,
		Grouping: grouping,
		Series:   make([]ChartSeries, 0, models.NumIndicators),
	}

	weights := h.norm.Weights()
	for i := 0; i < models.NumIndicators; i++ {
		ind := models.Indicator(i)
		series := ChartSeries{
			Name:   ind.DisplayName(),
			Key:    ind.Key(),
			Weight: weights.For(ind),
			Data:   make([]ChartPoint, 0, len(normalized)),
		}
		for _, n := range normalized {
			series.Data = append(series.Data, ChartPoint{
				Label: bucketLabel(n),
				Value: n.Values[ind.Key()],
			})
		}
		response.Series = append(response.Series, series)
	}

	h.metrics.RecordAPIRequest("/api/impact/chart", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *ImpactHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.repo.HealthCheck(ctx); err != nil {
		status["status"] = "degraded"
		h.sendJSON(w, status, http.StatusServiceUnavailable)
		return
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// bucketLabel composes a point label from the partitioned dimensions.
func bucketLabel(n services.NormalizedSummary) string {
	parts := make([]string, 0, 3)
	for _, v := range []string{n.DietGroup, n.Gender, n.AgeGroup} {
		if v != models.AllLabel {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return models.AllLabel
	}
	return strings.Join(parts, " / ")
}

func validGrouping(name string) bool {
	for _, g := range services.GroupingNames() {
		if g == name {
			return true
		}
	}
	return false
}

func parsePagination(r *http.Request) (page, limit int) {
	page = 1
	limit = 100

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	return page, limit
}

// sendJSON sends a JSON response.
func (h *ImpactHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response.
func (h *ImpactHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all impact API routes.
func (h *ImpactHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/impact/summaries", h.GetSummaries).Methods("GET")
	router.HandleFunc("/api/impact/labels", h.GetLabels).Methods("GET")
	router.HandleFunc("/api/impact/chart", h.GetChart).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
}
