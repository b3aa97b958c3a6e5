package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"cro-audit/heuristics"
	"cro-audit/models"
	"cro-audit/utils"
)

// ScoringEngine evaluates every page of a crawl and aggregates the result.
// Pages are evaluated in parallel; aggregation waits for all of them.
type ScoringEngine struct {
	registry    *heuristics.Registry
	aggregator  *SiteAggregator
	concurrency int
	logger      *utils.Logger
	now         func() time.Time
}

func NewScoringEngine(registry *heuristics.Registry, aggregator *SiteAggregator, concurrency int, logger *utils.Logger) *ScoringEngine {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ScoringEngine{
		registry:    registry,
		aggregator:  aggregator,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// EvaluatePages runs the registry over pages. The result is index-aligned
// with pages regardless of completion order; a nil entry gets an empty
// evaluation that contributes nothing to aggregation.
func (e *ScoringEngine) EvaluatePages(ctx context.Context, pages []*models.Page) ([]models.PageEvaluation, error) {
	evals := make([]models.PageEvaluation, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			evals[i] = e.registry.Evaluate(page)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scorer: evaluate pages: %w", err)
	}
	return evals, nil
}

// ScoreCrawl evaluates pages, attaches findings to each page and returns
// the crawl report. Nil pages are dropped before evaluation.
func (e *ScoringEngine) ScoreCrawl(ctx context.Context, crawlID string, pages []*models.Page) (*models.CrawlReport, error) {
	valid := make([]*models.Page, 0, len(pages))
	for _, p := range pages {
		if p == nil {
			e.logger.Warn("[scorer] Skipping nil page in crawl %s", crawlID)
			continue
		}
		valid = append(valid, p)
	}

	start := time.Now()
	evals, err := e.EvaluatePages(ctx, valid)
	if err != nil {
		return nil, err
	}

	report := BuildReport(crawlID, valid, evals, e.aggregator, e.now())

	e.logger.Info("[scorer] Crawl %s: %d pages, %d findings in %v",
		crawlID, len(valid), len(report.Findings), time.Since(start).Round(time.Millisecond))
	return report, nil
}

// BuildReport assembles a crawl report from evaluated pages. Findings are
// attached to the page with the matching id; evaluations without a page
// still count towards the score.
func BuildReport(crawlID string, pages []*models.Page, evals []models.PageEvaluation, agg *SiteAggregator, generatedAt time.Time) *models.CrawlReport {
	report := &models.CrawlReport{
		CrawlID:     crawlID,
		Pages:       pages,
		Evaluations: evals,
		Findings:    []models.Finding{},
		GeneratedAt: generatedAt,
	}

	byID := make(map[string]*models.Page, len(pages))
	for _, p := range pages {
		if p != nil {
			byID[p.ID] = p
		}
	}
	for _, e := range evals {
		if p, ok := byID[e.PageID]; ok {
			p.Findings = e.Findings
		}
		report.Findings = append(report.Findings, e.Findings...)
	}
	report.Score = agg.Aggregate(evals)
	return report
}
