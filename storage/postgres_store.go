package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"cro-audit/models"
	"cro-audit/utils"
)

const batchSize = 50

// PostgresStore persists crawls, pages, rule outcomes and findings.
type PostgresStore struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it to
// accept pings, runs schema migrations and returns a ready store.
func NewPostgresStore(ctx context.Context, dsn string, retry utils.RetryConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.DoContext(ctx, "postgres ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	logger := retry.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	ps := &PostgresStore{db: db, logger: logger}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS crawls (
			id           TEXT        PRIMARY KEY,
			generated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS pages (
			id         TEXT        PRIMARY KEY,
			crawl_id   TEXT        NOT NULL REFERENCES crawls(id) ON DELETE CASCADE,
			position   INTEGER     NOT NULL,
			url        TEXT        NOT NULL,
			type       VARCHAR(20) NOT NULL,
			metrics    JSONB       NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (crawl_id, url)
		);

		CREATE TABLE IF NOT EXISTS rule_outcomes (
			page_id   TEXT        NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
			rule_id   VARCHAR(50) NOT NULL,
			ordinal   INTEGER     NOT NULL,
			category  VARCHAR(20) NOT NULL,
			max_score INTEGER     NOT NULL,
			score     INTEGER     NOT NULL,
			passed    BOOLEAN     NOT NULL,
			skipped   BOOLEAN     NOT NULL,
			degraded  BOOLEAN     NOT NULL,
			PRIMARY KEY (page_id, rule_id)
		);

		CREATE TABLE IF NOT EXISTS findings (
			id       TEXT        PRIMARY KEY,
			page_id  TEXT        NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
			rule_id  VARCHAR(50) NOT NULL,
			ordinal  INTEGER     NOT NULL,
			severity VARCHAR(10) NOT NULL,
			evidence JSONB       NOT NULL,
			degraded BOOLEAN     NOT NULL DEFAULT FALSE,
			UNIQUE (page_id, rule_id)
		);

		CREATE INDEX IF NOT EXISTS idx_pages_crawl       ON pages(crawl_id);
		CREATE INDEX IF NOT EXISTS idx_findings_rule     ON findings(rule_id);
		CREATE INDEX IF NOT EXISTS idx_findings_severity ON findings(severity);
	`)
	return err
}

// SaveEvaluations stores a scored crawl in one transaction. Re-saving the
// same crawl replaces its outcomes and findings.
func (ps *PostgresStore) SaveEvaluations(ctx context.Context, report *models.CrawlReport) error {
	if len(report.Pages) != len(report.Evaluations) {
		return fmt.Errorf("postgres: save: %d pages but %d evaluations",
			len(report.Pages), len(report.Evaluations))
	}

	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO crawls (id, generated_at) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET generated_at = EXCLUDED.generated_at
	`, report.CrawlID, report.GeneratedAt); err != nil {
		return fmt.Errorf("postgres: upsert crawl: %w", err)
	}

	pageRows, outcomeRows, findingRows, err := evaluationRows(report)
	if err != nil {
		return err
	}

	steps := []struct {
		table    string
		cols     []string
		conflict string
		rows     [][]any
	}{
		{"pages", []string{"id", "crawl_id", "position", "url", "type", "metrics", "created_at"},
			`ON CONFLICT (id) DO UPDATE SET position = EXCLUDED.position, metrics = EXCLUDED.metrics`, pageRows},
		{"rule_outcomes", []string{"page_id", "rule_id", "ordinal", "category", "max_score", "score", "passed", "skipped", "degraded"},
			`ON CONFLICT (page_id, rule_id) DO UPDATE SET ordinal = EXCLUDED.ordinal, score = EXCLUDED.score,
				max_score = EXCLUDED.max_score, passed = EXCLUDED.passed, skipped = EXCLUDED.skipped, degraded = EXCLUDED.degraded`, outcomeRows},
		{"findings", []string{"id", "page_id", "rule_id", "ordinal", "severity", "evidence", "degraded"},
			`ON CONFLICT (page_id, rule_id) DO UPDATE SET id = EXCLUDED.id, ordinal = EXCLUDED.ordinal,
				severity = EXCLUDED.severity, evidence = EXCLUDED.evidence, degraded = EXCLUDED.degraded`, findingRows},
	}

	pageIDs := make([]string, 0, len(report.Pages))
	for _, p := range report.Pages {
		pageIDs = append(pageIDs, p.ID)
	}
	if err := ps.deleteFindings(ctx, tx, pageIDs); err != nil {
		return err
	}

	for _, s := range steps {
		for i := 0; i < len(s.rows); i += batchSize {
			end := i + batchSize
			if end > len(s.rows) {
				end = len(s.rows)
			}
			if err := insertBatch(ctx, tx, s.table, s.cols, s.conflict, s.rows[i:end]); err != nil {
				return fmt.Errorf("postgres: insert %s: %w", s.table, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	ps.logger.Info("[postgres] Saved crawl %s: %d pages, %d outcomes, %d findings",
		report.CrawlID, len(pageRows), len(outcomeRows), len(findingRows))
	return nil
}

// deleteFindings clears findings of pages about to be re-saved, so a rule
// that now passes leaves no stale finding behind.
func (ps *PostgresStore) deleteFindings(ctx context.Context, tx *sql.Tx, pageIDs []string) error {
	if len(pageIDs) == 0 {
		return nil
	}
	placeholders := make([]string, len(pageIDs))
	args := make([]any, len(pageIDs))
	for i, id := range pageIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("DELETE FROM findings WHERE page_id IN (%s)", strings.Join(placeholders, ","))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("postgres: clear findings: %w", err)
	}
	return nil
}

func evaluationRows(report *models.CrawlReport) (pages, outcomes, findings [][]any, err error) {
	for i, p := range report.Pages {
		metrics, err := json.Marshal(p.Metrics)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("postgres: encode metrics for %s: %w", p.ID, err)
		}
		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		pages = append(pages, []any{p.ID, report.CrawlID, i, p.URL, string(p.Type), string(metrics), createdAt})

		eval := report.Evaluations[i]
		if eval.PageID != p.ID {
			return nil, nil, nil, fmt.Errorf("postgres: evaluation %d is for page %s, not %s", i, eval.PageID, p.ID)
		}
		ordinal := make(map[string]int, len(eval.Outcomes))
		for j, o := range eval.Outcomes {
			ordinal[o.RuleID] = j
			outcomes = append(outcomes, []any{
				p.ID, o.RuleID, j, string(o.Category), o.MaxScore, o.Score, o.Passed, o.Skipped, o.Degraded,
			})
		}
		for _, f := range eval.Findings {
			evidence, err := json.Marshal(f.Evidence)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("postgres: encode evidence for %s: %w", f.ID, err)
			}
			findings = append(findings, []any{
				f.ID, p.ID, f.RuleID, ordinal[f.RuleID], string(f.Severity), string(evidence), f.Degraded,
			})
		}
	}
	return pages, outcomes, findings, nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, table string, cols []string, conflict string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	query, args := buildInsert(table, cols, conflict, rows)
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// buildInsert renders a multi-row INSERT with numbered placeholders.
func buildInsert(table string, cols []string, conflict string, rows [][]any) (string, []any) {
	valueStrings := make([]string, 0, len(rows))
	valueArgs := make([]any, 0, len(rows)*len(cols))

	for idx, row := range rows {
		base := idx * len(cols)
		ph := make([]string, len(cols))
		for k := range cols {
			ph[k] = fmt.Sprintf("$%d", base+k+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs, row...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s %s",
		table, strings.Join(cols, ", "), strings.Join(valueStrings, ","), conflict)
	return query, valueArgs
}

// LoadEvaluations rebuilds the evaluations of a stored crawl in page and
// rule order. It returns ErrNoCrawl if the crawl was never saved.
func (ps *PostgresStore) LoadEvaluations(ctx context.Context, crawlID string) ([]models.PageEvaluation, error) {
	var exists bool
	if err := ps.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM crawls WHERE id = $1)`, crawlID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("postgres: lookup crawl: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNoCrawl, crawlID)
	}

	rows, err := ps.db.QueryContext(ctx, `
		SELECT p.id, p.type, o.rule_id, o.category, o.max_score, o.score, o.passed, o.skipped, o.degraded
		FROM pages p
		JOIN rule_outcomes o ON o.page_id = p.id
		WHERE p.crawl_id = $1
		ORDER BY p.position, o.ordinal
	`, crawlID)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch outcomes: %w", err)
	}
	defer rows.Close()

	var evals []models.PageEvaluation
	index := make(map[string]int)
	for rows.Next() {
		var (
			pageID, pageType string
			o                models.RuleOutcome
			category         string
		)
		if err := rows.Scan(&pageID, &pageType, &o.RuleID, &category,
			&o.MaxScore, &o.Score, &o.Passed, &o.Skipped, &o.Degraded); err != nil {
			return nil, fmt.Errorf("postgres: scan outcome: %w", err)
		}
		o.Category = models.Category(category)

		i, ok := index[pageID]
		if !ok {
			i = len(evals)
			index[pageID] = i
			evals = append(evals, models.PageEvaluation{
				PageID:   pageID,
				PageType: models.PageType(pageType),
				Findings: []models.Finding{},
			})
		}
		e := &evals[i]
		e.Outcomes = append(e.Outcomes, o)
		if o.Counted() {
			e.PageScore += o.Score
			e.MaxScore += o.MaxScore
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: fetch outcomes: %w", err)
	}

	if err := ps.attachFindings(ctx, crawlID, evals, index); err != nil {
		return nil, err
	}
	return evals, nil
}

// LoadPages returns the stored pages of a crawl in crawl order. Findings
// are not attached; they come with LoadEvaluations.
func (ps *PostgresStore) LoadPages(ctx context.Context, crawlID string) ([]*models.Page, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT id, crawl_id, url, type, metrics, created_at
		FROM pages
		WHERE crawl_id = $1
		ORDER BY position
	`, crawlID)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch pages: %w", err)
	}
	defer rows.Close()

	var pages []*models.Page
	for rows.Next() {
		var (
			p        models.Page
			pageType string
			metrics  []byte
		)
		if err := rows.Scan(&p.ID, &p.CrawlID, &p.URL, &pageType, &metrics, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan page: %w", err)
		}
		p.Type = models.PageType(pageType)
		if err := json.Unmarshal(metrics, &p.Metrics); err != nil {
			return nil, fmt.Errorf("postgres: decode metrics for %s: %w", p.ID, err)
		}
		pages = append(pages, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: fetch pages: %w", err)
	}
	return pages, nil
}

func (ps *PostgresStore) attachFindings(ctx context.Context, crawlID string, evals []models.PageEvaluation, index map[string]int) error {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT f.id, f.page_id, f.rule_id, f.severity, f.evidence, f.degraded
		FROM findings f
		JOIN pages p ON p.id = f.page_id
		WHERE p.crawl_id = $1
		ORDER BY p.position, f.ordinal
	`, crawlID)
	if err != nil {
		return fmt.Errorf("postgres: fetch findings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			f        models.Finding
			severity string
			raw      []byte
		)
		if err := rows.Scan(&f.ID, &f.PageID, &f.RuleID, &severity, &raw, &f.Degraded); err != nil {
			return fmt.Errorf("postgres: scan finding: %w", err)
		}
		f.Severity = models.Severity(severity)
		f.Evidence, err = models.DecodeEvidence(f.RuleID, f.Degraded, raw)
		if err != nil {
			return fmt.Errorf("postgres: finding %s: %w", f.ID, err)
		}

		i, ok := index[f.PageID]
		if !ok {
			return fmt.Errorf("postgres: finding %s references page %s without outcomes", f.ID, f.PageID)
		}
		evals[i].Findings = append(evals[i].Findings, f)
	}
	return rows.Err()
}

// LatestCrawl returns the id of the most recently generated crawl.
func (ps *PostgresStore) LatestCrawl(ctx context.Context) (string, error) {
	var id string
	err := ps.db.QueryRowContext(ctx,
		`SELECT id FROM crawls ORDER BY generated_at DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoCrawl
	}
	if err != nil {
		return "", fmt.Errorf("postgres: latest crawl: %w", err)
	}
	return id, nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
