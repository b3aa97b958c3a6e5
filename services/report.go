package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"cro-audit/models"
)

// ReportPrinter renders a crawl report for the terminal.
type ReportPrinter struct {
	w     io.Writer
	color bool
}

func NewReportPrinter(w io.Writer, color bool) *ReportPrinter {
	return &ReportPrinter{w: w, color: color}
}

func (p *ReportPrinter) style(code, s string) string {
	if !p.color {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

func (p *ReportPrinter) Print(r *models.CrawlReport) {
	sep := strings.Repeat("═", 58)
	thin := strings.Repeat("─", 58)
	w := p.w

	fmt.Fprintf(w, "\n%s\n", p.style("1;35", sep))
	fmt.Fprintf(w, "%s\n", p.style("1;35", "  CRO AUDIT "+r.CrawlID))
	fmt.Fprintf(w, "%s\n\n", p.style("1;35", sep))

	fmt.Fprintf(w, "%s\n", p.style("1;33", "  Site Score"))
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Pages evaluated : %s\n", p.style("1", fmt.Sprint(len(r.Evaluations))))
	fmt.Fprintf(w, "  Overall         : %s\n", p.score(r.Score.Overall))
	for _, c := range models.AllCategories {
		v := r.Score.Breakdown.Get(c)
		fmt.Fprintf(w, "  %-15s : %s %s\n", titleCase(string(c)), p.score(v), bar(v))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s\n", p.style("1;33", "  Findings by Severity"))
	fmt.Fprintf(w, "  %s\n", thin)
	counts := severityCounts(r.Findings)
	for _, s := range []models.Severity{models.SeverityHigh, models.SeverityMed, models.SeverityLow, models.SeverityUnknown} {
		if counts[s] == 0 && s == models.SeverityUnknown {
			continue
		}
		fmt.Fprintf(w, "  %-8s %d\n", s.String(), counts[s])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s\n", p.style("1;33", "  Weakest Pages"))
	fmt.Fprintf(w, "  %s\n", thin)
	weakest := weakestPages(r, 5)
	if len(weakest) == 0 {
		fmt.Fprintf(w, "  No pages evaluated\n")
	}
	for i, pg := range weakest {
		fmt.Fprintf(w, "  %d. %-44s %s\n", i+1, truncate(pg.url, 42), p.style("1;31", fmt.Sprintf("%d/%d", pg.score, pg.max)))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s\n", p.style("1;33", "  Top Issues"))
	fmt.Fprintf(w, "  %s\n", thin)
	issues := topIssues(r.Findings)
	if len(issues) == 0 {
		fmt.Fprintf(w, "  No issues found\n")
	}
	for _, is := range issues {
		fmt.Fprintf(w, "  %-22s %-6s on %d page(s)\n", is.rule, is.severity.String(), is.pages)
	}

	fmt.Fprintf(w, "\n%s\n\n", p.style("1;35", sep))
}

func (p *ReportPrinter) score(v *int) string {
	if v == nil {
		return p.style("2", "not enough data")
	}
	code := "1;32"
	switch {
	case *v < 50:
		code = "1;31"
	case *v < 80:
		code = "1;33"
	}
	return p.style(code, fmt.Sprintf("%3d", *v))
}

func bar(v *int) string {
	if v == nil {
		return ""
	}
	return strings.Repeat("█", *v/5)
}

func severityCounts(findings []models.Finding) map[models.Severity]int {
	counts := make(map[models.Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}

type pageLine struct {
	url        string
	score, max int
}

// weakestPages orders pages by earned ratio ascending, then URL.
func weakestPages(r *models.CrawlReport, n int) []pageLine {
	urls := make(map[string]string, len(r.Pages))
	for _, p := range r.Pages {
		urls[p.ID] = p.URL
	}
	var lines []pageLine
	for _, e := range r.Evaluations {
		if e.MaxScore == 0 {
			continue
		}
		url, ok := urls[e.PageID]
		if !ok {
			url = e.PageID
		}
		lines = append(lines, pageLine{url: url, score: e.PageScore, max: e.MaxScore})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		ri := float64(lines[i].score) / float64(lines[i].max)
		rj := float64(lines[j].score) / float64(lines[j].max)
		if ri != rj {
			return ri < rj
		}
		return lines[i].url < lines[j].url
	})
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}

type issueLine struct {
	rule     string
	severity models.Severity
	pages    int
}

// topIssues groups findings by rule, worst severity first.
func topIssues(findings []models.Finding) []issueLine {
	byRule := make(map[string]*issueLine)
	var order []string
	for _, f := range findings {
		is, ok := byRule[f.RuleID]
		if !ok {
			is = &issueLine{rule: f.RuleID, severity: f.Severity}
			byRule[f.RuleID] = is
			order = append(order, f.RuleID)
		}
		is.pages++
		if f.Severity.Rank() < is.severity.Rank() {
			is.severity = f.Severity
		}
	}
	out := make([]issueLine, 0, len(order))
	for _, id := range order {
		out = append(out, *byRule[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].severity.Rank() != out[j].severity.Rank() {
			return out[i].severity.Rank() < out[j].severity.Rank()
		}
		return out[i].pages > out[j].pages
	})
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
