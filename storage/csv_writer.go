package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"cro-audit/models"
)

// CSVWriter writes one row per finding. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

var findingHeader = []string{
	"finding_id", "crawl_id", "page_id", "page_url", "page_type",
	"rule_id", "severity", "degraded", "evidence",
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(findingHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteFindings appends the findings attached to pages, in page order.
// Evidence is written as its JSON object.
func (c *CSVWriter) WriteFindings(pages []*models.Page) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range pages {
		if p == nil {
			continue
		}
		for _, f := range p.Findings {
			evidence, err := json.Marshal(f.Evidence)
			if err != nil {
				return fmt.Errorf("csv: encode evidence for %s: %w", f.ID, err)
			}
			row := []string{
				f.ID,
				p.CrawlID,
				p.ID,
				p.URL,
				string(p.Type),
				f.RuleID,
				f.Severity.String(),
				strconv.FormatBool(f.Degraded),
				string(evidence),
			}
			if err := c.writer.Write(row); err != nil {
				return fmt.Errorf("csv: write row: %w", err)
			}
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
