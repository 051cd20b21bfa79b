package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"impact-platform/internal/config"
	"impact-platform/internal/models"
	"impact-platform/internal/repository"
	"impact-platform/internal/services"
	"impact-platform/internal/storage"
	"impact-platform/pkg/database"
	"impact-platform/pkg/logging"
	"impact-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	source := flag.String("source", "", "Survey CSV source: local path or http(s) URL (overrides PIPELINE_SOURCE)")
	store := flag.Bool("store", true, "Replace the summaries stored in Postgres with this run's output")
	csvOut := flag.String("csv-out", "", "Optional path for a CSV export of the summaries")
	sqliteOut := flag.String("sqlite-out", "", "Optional path for a SQLite export of the summaries")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *source == "" {
		*source = cfg.Pipeline.Source
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("impact-loader", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[LOADER_START] Starting survey impact load", logging.Fields{
		"version": "1.0.0",
		"source":  *source,
		"store":   *store,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("impact_loader")

	// Initialize services
	aggregator := services.NewAggregationService(logger, metricsCollector)
	pipeline := services.NewPipelineService(aggregator, logger, metricsCollector)

	// Run the pipeline
	result := pipeline.Run(ctx, *source)
	if result.Status == services.StatusFailed {
		logger.Fatal(ctx, "[LOADER_ERROR] Pipeline failed", logging.Fields{
			"source": *source,
		}, result.Err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("PIPELINE COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Source:          %s\n", *source)
	fmt.Printf("Rows Read:       %d\n", result.RowsRead)
	fmt.Printf("Parse Errors:    %d\n", result.ParseErrors)
	fmt.Printf("Rows Dropped:    %d\n", result.RowsDropped)
	fmt.Printf("Records:         %d\n", result.Records)
	fmt.Printf("Summaries:       %d\n", len(result.Summaries))
	fmt.Printf("Diet Groups:     %s\n", strings.Join(result.Labels.DietGroups, ", "))
	fmt.Printf("Genders:         %s\n", strings.Join(result.Labels.Genders, ", "))
	fmt.Printf("Age Groups:      %s\n", strings.Join(result.Labels.AgeGroups, ", "))
	fmt.Printf("Duration:        %v\n", result.Duration)

	// Persist to Postgres
	if *store {
		dbConfig := &database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}

		db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[LOADER_ERROR] Failed to connect to database", logging.Fields{}, err)
		}
		defer db.Close()

		summaryRepo := repository.NewSummaryRepository(db, logger, metricsCollector)
		if err := summaryRepo.ReplaceSummaries(ctx, result.Summaries); err != nil {
			logger.Fatal(ctx, "[LOADER_ERROR] Failed to store summaries", logging.Fields{
				"summaries": len(result.Summaries),
			}, err)
		}

		fmt.Printf("\nStored %d summaries in Postgres\n", len(result.Summaries))
	}

	// Optional file exports
	if *csvOut != "" {
		export(ctx, logger, "csv", *csvOut, result.Summaries, func() (storage.SummaryWriter, error) {
			return storage.NewCSVWriter(*csvOut)
		})
	}

	if *sqliteOut != "" {
		export(ctx, logger, "sqlite", *sqliteOut, result.Summaries, func() (storage.SummaryWriter, error) {
			return storage.NewSQLiteWriter(*sqliteOut)
		})
	}

	logger.Info(ctx, "[LOADER_COMPLETE] Survey impact load finished", logging.Fields{
		"summaries": len(result.Summaries),
		"duration":  result.Duration.String(),
	})
}

func export(ctx context.Context, logger *logging.StructuredLogger, format, path string, summaries []models.ImpactSummary, open func() (storage.SummaryWriter, error)) {
	writer, err := open()
	if err != nil {
		logger.Fatal(ctx, "[EXPORT_ERROR] Failed to open export writer", logging.Fields{
			"format": format,
			"path":   path,
		}, err)
	}

	if err := writer.Write(summaries); err != nil {
		writer.Close()
		logger.Fatal(ctx, "[EXPORT_ERROR] Failed to write export", logging.Fields{
			"format": format,
			"path":   path,
		}, err)
	}

	if err := writer.Close(); err != nil {
		logger.Fatal(ctx, "[EXPORT_ERROR] Failed to finalize export", logging.Fields{
			"format": format,
			"path":   path,
		}, err)
	}

	fmt.Printf("Exported %d summaries to %s (%s)\n", len(summaries), path, format)
}
