package storage

import "impact-platform/internal/models"

// SummaryWriter is the interface any summary export backend must satisfy.
type SummaryWriter interface {
	Write(summaries []models.ImpactSummary) error
	Close() error
}
