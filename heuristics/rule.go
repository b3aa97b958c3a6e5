// Package heuristics holds the deterministic CRO rules and the registry
// that applies them to crawled pages.
//
// Every rule follows the same ladder: skip when the page type is out of
// scope, fail hard when the inspected metric is absent, give partial
// credit when it is present but weak, and pass otherwise.
package heuristics

import (
	"math"
	"strings"

	"cro-audit/models"
)

// Rule is one deterministic check against a page's metrics. Analyze must
// depend only on page.Type and page.Metrics and must not modify either.
type Rule interface {
	ID() string
	Name() string
	Description() string
	Category() models.Category
	MaxScore() int
	Analyze(page *models.Page) models.HeuristicResult
}

// base carries the static metadata shared by all rules and the ladder
// helpers that build results.
type base struct {
	id          string
	name        string
	description string
	category    models.Category
	maxScore    int
	appliesTo   []models.PageType
}

func (b base) ID() string                { return b.id }
func (b base) Name() string              { return b.name }
func (b base) Description() string       { return b.description }
func (b base) Category() models.Category { return b.category }
func (b base) MaxScore() int             { return b.maxScore }

func (b base) applies(t models.PageType) bool {
	for _, a := range b.appliesTo {
		if a == t {
			return true
		}
	}
	return false
}

// skipReason renders a fixed message from the applicable page types,
// e.g. "Rule only applies to home and product pages".
func (b base) skipReason() string {
	names := make([]string, len(b.appliesTo))
	for i, t := range b.appliesTo {
		names[i] = string(t)
	}
	var list string
	switch len(names) {
	case 0:
		return "Rule does not apply to any page type"
	case 1:
		list = names[0]
	default:
		list = strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
	return "Rule only applies to " + list + " pages"
}

func (b base) skip() models.HeuristicResult {
	return models.HeuristicResult{Skipped: true, Reason: b.skipReason()}
}

func (b base) pass() models.HeuristicResult {
	return models.HeuristicResult{Passed: true, Score: b.maxScore}
}

// fail is the absence branch: zero score, high severity.
func (b base) fail(page *models.Page, ev models.Evidence) models.HeuristicResult {
	return models.HeuristicResult{
		Score:   0,
		Finding: b.finding(page, models.SeverityHigh, ev),
	}
}

// partial is the weak-signal branch: floor(maxScore * ratio), medium severity.
func (b base) partial(page *models.Page, ratio float64, ev models.Evidence) models.HeuristicResult {
	return models.HeuristicResult{
		Score:   partialScore(b.maxScore, ratio),
		Finding: b.finding(page, models.SeverityMed, ev),
	}
}

func (b base) finding(page *models.Page, sev models.Severity, ev models.Evidence) *models.Finding {
	return &models.Finding{
		ID:       ContentFindingID(b.id, page.ID),
		PageID:   page.ID,
		RuleID:   b.id,
		Severity: sev,
		Evidence: ev,
	}
}

// partialScore floors maxScore*ratio, clamped to [0,maxScore]. The epsilon
// absorbs float error such as 0.29*100 = 28.999999999999996.
func partialScore(maxScore int, ratio float64) int {
	s := int(math.Floor(float64(maxScore)*ratio + 1e-9))
	if s < 0 {
		return 0
	}
	if s > maxScore {
		return maxScore
	}
	return s
}

// finite reports whether a measured value can be compared at all. NaN and
// infinities are treated like a missing metric.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
