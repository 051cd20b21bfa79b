package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"impact-platform/internal/models"
)

// CSVWriter exports aggregated summaries to a CSV file for offline
// chart tooling.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created
// automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	header := []string{"grouping", "diet_group", "gender", "age_group"}
	for i := 0; i < models.NumIndicators; i++ {
		header = append(header, models.Indicator(i).Key())
	}
	header = append(header, "record_count")

	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends summary rows to the CSV file.
func (c *CSVWriter) Write(summaries []models.ImpactSummary) error {
	for _, s := range summaries {
		row := []string{s.Grouping, s.DietGroup, s.Gender, s.AgeGroup}
		for i := 0; i < models.NumIndicators; i++ {
			row = append(row, strconv.FormatFloat(s.MeanValue(models.Indicator(i)), 'f', -1, 64))
		}
		row = append(row, strconv.Itoa(s.RecordCount))

		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
