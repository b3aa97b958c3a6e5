package storage

import (
	"context"
	"errors"

	"cro-audit/models"
)

// ErrNoCrawl is returned when a crawl id has no stored evaluations.
var ErrNoCrawl = errors.New("storage: crawl not found")

// FindingWriter exports findings for downstream recommendation tooling.
type FindingWriter interface {
	WriteFindings(pages []*models.Page) error
	Close() error
}

// EvaluationStore persists scored crawls so site scores can be recomputed
// from stored outcomes.
type EvaluationStore interface {
	SaveEvaluations(ctx context.Context, report *models.CrawlReport) error
	LoadEvaluations(ctx context.Context, crawlID string) ([]models.PageEvaluation, error)
	LoadPages(ctx context.Context, crawlID string) ([]*models.Page, error)
	Close() error
}

var (
	_ FindingWriter   = (*CSVWriter)(nil)
	_ EvaluationStore = (*PostgresStore)(nil)
)
