package repository

import (
	"context"
	"fmt"
	"time"

	"impact-platform/internal/models"
	"impact-platform/pkg/database"
	"impact-platform/pkg/logging"
	"impact-platform/pkg/metrics"
)

// SummaryRepository provides data access for aggregated impact summaries.
type SummaryRepository interface {
	// ReplaceSummaries atomically replaces the stored summary collection
	// with the output of a new pipeline run.
	ReplaceSummaries(ctx context.Context, summaries []models.ImpactSummary) error

	GetSummaries(ctx context.Context, filter SummaryFilter) ([]*models.ImpactSummary, int, error)
	GetLabels(ctx context.Context) (*models.Labels, error)

	HealthCheck(ctx context.Context) error
}

// SummaryFilter defines filters for querying summaries.
type SummaryFilter struct {
	Grouping  *string
	DietGroup *string
	Gender    *string
	AgeGroup  *string
	Limit     int
	Offset    int
}

// summaryRepository implements SummaryRepository.
type summaryRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewSummaryRepository creates a new summary repository.
func NewSummaryRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) SummaryRepository {
	return &summaryRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ReplaceSummaries deletes the previous collection and inserts the new
// one in a single transaction. Summaries have no incremental lifetime:
// each load supersedes the previous one in full.
func (r *summaryRepository) ReplaceSummaries(ctx context.Context, summaries []models.ImpactSummary) error {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.ReplaceBatchSize.Observe(float64(len(summaries)))
		r.logger.Debug(ctx, "[REPO_REPLACE] Summary replace completed", logging.Fields{
			"count":       len(summaries),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM impact_summaries`); err != nil {
		return fmt.Errorf("failed to clear summaries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO impact_summaries (
			grouping_kind, diet_group, gender, age_group,
			ghgs, land_use, water_scarcity, eutrophication, acidification, biodiversity,
			record_count,
			valid_ghgs_count, valid_land_use_count, valid_water_count,
			valid_eutro_count, valid_acid_count, valid_biodiv_count,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range summaries {
		_, err := stmt.ExecContext(ctx,
			s.Grouping,
			s.DietGroup,
			s.Gender,
			s.AgeGroup,
			s.GHGs,
			s.LandUse,
			s.WaterScarcity,
			s.Eutrophication,
			s.Acidification,
			s.Biodiversity,
			s.RecordCount,
			s.ValidGHGsCount,
			s.ValidLandUseCount,
			s.ValidWaterCount,
			s.ValidEutroCount,
			s.ValidAcidCount,
			s.ValidBiodivCount,
			s.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert summary: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetSummaries retrieves summaries with filtering and pagination.
// Ordering by id preserves the engine's emission order.
func (r *summaryRepository) GetSummaries(ctx context.Context, filter SummaryFilter) ([]*models.ImpactSummary, int, error) {
	query := `
		SELECT id, grouping_kind, diet_group, gender, age_group,
		       ghgs, land_use, water_scarcity, eutrophication, acidification, biodiversity,
		       record_count,
		       valid_ghgs_count, valid_land_use_count, valid_water_count,
		       valid_eutro_count, valid_acid_count, valid_biodiv_count,
		       created_at
		FROM impact_summaries
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.Grouping != nil {
		query += fmt.Sprintf(" AND grouping_kind = $%d", argNum)
		args = append(args, *filter.Grouping)
		argNum++
	}

	if filter.DietGroup != nil {
		query += fmt.Sprintf(" AND diet_group = $%d", argNum)
		args = append(args, *filter.DietGroup)
		argNum++
	}

	if filter.Gender != nil {
		query += fmt.Sprintf(" AND gender = $%d", argNum)
		args = append(args, *filter.Gender)
		argNum++
	}

	if filter.AgeGroup != nil {
		query += fmt.Sprintf(" AND age_group = $%d", argNum)
		args = append(args, *filter.AgeGroup)
		argNum++
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_summaries", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count summaries: %w", err)
	}

	query += " ORDER BY id"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var summaries []*models.ImpactSummary
	err = r.db.SelectContext(ctx, "get_summaries", &summaries, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get summaries: %w", err)
	}

	return summaries, totalCount, nil
}

// GetLabels retrieves the distinct category labels per dimension in
// first-seen order over the stored summary sequence, excluding the
// "All" placeholder.
func (r *summaryRepository) GetLabels(ctx context.Context) (*models.Labels, error) {
	labels := &models.Labels{
		DietGroups: make([]string, 0),
		Genders:    make([]string, 0),
		AgeGroups:  make([]string, 0),
	}

	queries := []struct {
		column string
		dest   *[]string
	}{
		{"diet_group", &labels.DietGroups},
		{"gender", &labels.Genders},
		{"age_group", &labels.AgeGroups},
	}

	for _, q := range queries {
		query := fmt.Sprintf(`
			SELECT %s
			FROM impact_summaries
			WHERE %s <> $1
			GROUP BY %s
			ORDER BY MIN(id)
		`, q.column, q.column, q.column)

		if err := r.db.SelectContext(ctx, "get_labels_"+q.column, q.dest, query, models.AllLabel); err != nil {
			return nil, fmt.Errorf("failed to get %s labels: %w", q.column, err)
		}
	}

	return labels, nil
}

// HealthCheck performs a repository health check.
func (r *summaryRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
