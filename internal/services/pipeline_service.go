package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"impact-platform/internal/models"
	"impact-platform/internal/schema"
	"impact-platform/pkg/logging"
	"impact-platform/pkg/metrics"
)

// Status is the lifecycle state of one pipeline invocation.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

// String returns the string representation of a pipeline status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PipelineResult is the explicit result object of one pipeline run.
// The caller owns it; nothing is shared across invocations.
type PipelineResult struct {
	Status    Status
	Summaries []models.ImpactSummary
	Labels    models.Labels

	RowsRead    int // data rows the parser yielded
	ParseErrors int // row-level syntax errors, tolerated
	RowsDropped int // rows rejected for missing diet group
	Records     int // canonical records that reached aggregation

	Duration time.Duration
	Err      error
}

// ErrorMessage returns the human-readable terminal error, or "".
func (r *PipelineResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// PipelineService runs the load → reconcile → aggregate pipeline as one
// synchronous unit of work. The only suspension point is the initial
// fetch; everything after is CPU-bound.
type PipelineService struct {
	reconciler *schema.Reconciler
	aggregator *AggregationService
	client     *http.Client
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewPipelineService creates a new pipeline service.
func NewPipelineService(aggregator *AggregationService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *PipelineService {
	return &PipelineService{
		reconciler: schema.NewReconciler(),
		aggregator: aggregator,
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// Run executes the full pipeline against a source (file path or http(s)
// URL). Transport failures are terminal and reported once through the
// result's Err; row-level problems degrade silently per the tolerance
// policy. The returned result supersedes any previous run's output in
// full.
func (s *PipelineService) Run(ctx context.Context, source string) *PipelineResult {
	startTime := time.Now()
	result := &PipelineResult{Status: StatusLoading}

	s.logger.Info(ctx, "[PIPELINE_START] Starting impact pipeline", logging.Fields{
		"source": source,
		"stage":  "FETCH",
	})

	body, err := s.fetch(ctx, source)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		result.Duration = time.Since(startTime)
		s.metrics.RecordPipelineRun(result.Status.String())
		s.logger.Error(ctx, "[PIPELINE_FETCH_ERROR] Source fetch failed", logging.Fields{
			"source": source,
		}, err)
		return result
	}
	defer body.Close()

	records := s.parseRecords(ctx, body, result)

	result.Summaries, result.Labels = s.aggregator.Aggregate(ctx, records)
	result.Records = len(records)
	result.Status = StatusReady
	result.Duration = time.Since(startTime)

	s.metrics.RecordPipelineRun(result.Status.String())
	s.metrics.PipelineDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[PIPELINE_COMPLETE] Pipeline completed", logging.Fields{
		"source":       source,
		"rows_read":    result.RowsRead,
		"parse_errors": result.ParseErrors,
		"rows_dropped": result.RowsDropped,
		"records":      result.Records,
		"summaries":    len(result.Summaries),
		"duration_ms":  result.Duration.Milliseconds(),
		"stage":        "COMPLETE",
	})

	return result
}

// fetch opens the source data. URLs go over HTTP with non-2xx treated
// as a terminal transport failure; anything else is a local file path.
func (s *PipelineService) fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch source: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to fetch source: unexpected status %s", resp.Status)
		}

		return resp.Body, nil
	}

	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	return file, nil
}

// parseRecords tokenizes the CSV and converts rows into canonical
// records. Column reconciliation runs once against the header row.
// Malformed rows and rows without a diet group are counted and skipped,
// never fatal.
func (s *PipelineService) parseRecords(ctx context.Context, body io.Reader, result *PipelineResult) []*models.ImpactRecord {
	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		// An empty or headerless source degrades to zero records.
		s.logger.Warn(ctx, "[PIPELINE_HEADER_WARN] Could not read header row", logging.Fields{
			"error": err.Error(),
		})
		return nil
	}

	mapping := s.reconciler.Reconcile(headers)
	s.logger.Debug(ctx, "[PIPELINE_RECONCILE] Columns reconciled", logging.Fields{
		"headers": len(headers),
		"mapped":  len(mapping),
	})

	var records []*models.ImpactRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.ParseErrors++
			s.metrics.RecordRowDropped("parse_error")
			continue
		}

		result.RowsRead++

		raw := make(models.RawSurveyRow, len(headers))
		for i, val := range row {
			if i >= len(headers) {
				break
			}
			raw[headers[i]] = val
		}

		rec, err := mapping.ToImpactRecord(raw)
		if err != nil {
			result.RowsDropped++
			s.metrics.RecordRowDropped("no_diet_group")
			continue
		}

		records = append(records, rec)
	}

	s.metrics.RowsParsedTotal.Add(float64(result.RowsRead))

	return records
}
