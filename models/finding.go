package models

// Severity ranks a finding. Degraded findings carry SeverityUnknown.
type Severity string

const (
	SeverityHigh    Severity = "high"
	SeverityMed     Severity = "med"
	SeverityLow     Severity = "low"
	SeverityUnknown Severity = ""
)

// Rank orders severities for display: high first, unknown last.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMed:
		return 1
	case SeverityLow:
		return 2
	}
	return 3
}

func (s Severity) String() string {
	if s == SeverityUnknown {
		return "unknown"
	}
	return string(s)
}

// Category groups rules for the site-level breakdown.
type Category string

const (
	CategoryPerformance Category = "performance"
	CategoryConversion  Category = "conversion"
	CategoryTrust       Category = "trust"
	CategoryMobile      Category = "mobile"
)

// AllCategories lists the breakdown categories in report order.
var AllCategories = []Category{CategoryPerformance, CategoryConversion, CategoryTrust, CategoryMobile}

// Finding is a recorded deviation from one rule on one page.
// At most one Finding exists per (PageID, RuleID).
type Finding struct {
	ID       string   `json:"id"`
	PageID   string   `json:"pageId"`
	RuleID   string   `json:"ruleId"`
	Severity Severity `json:"severity"`
	Evidence Evidence `json:"evidence"`
	Degraded bool     `json:"degraded,omitempty"`
}

// HeuristicResult is what a rule returns for one page.
//
// Skipped implies Finding == nil and Score == 0; Passed implies Finding == nil.
type HeuristicResult struct {
	Passed  bool     `json:"passed"`
	Score   int      `json:"score"`
	Finding *Finding `json:"finding"`
	Skipped bool     `json:"skipped,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// RuleOutcome records how a single rule scored on a single page. Passing
// rules produce no finding, so outcomes are what aggregation sums over.
type RuleOutcome struct {
	RuleID   string   `json:"ruleId"`
	Category Category `json:"category"`
	MaxScore int      `json:"maxScore"`
	Score    int      `json:"score"`
	Passed   bool     `json:"passed"`
	Skipped  bool     `json:"skipped"`
	Degraded bool     `json:"degraded"`
}

// Counted reports whether the outcome enters category scoring.
func (o RuleOutcome) Counted() bool {
	return !o.Skipped && !o.Degraded
}

// PageEvaluation is the registry's output for one page.
type PageEvaluation struct {
	PageID    string        `json:"pageId"`
	PageType  PageType      `json:"pageType"`
	Findings  []Finding     `json:"findings"`
	Outcomes  []RuleOutcome `json:"outcomes"`
	PageScore int           `json:"pageScore"`
	MaxScore  int           `json:"maxScore"`
}

// CategoryPoints is earned vs. possible points for one category.
type CategoryPoints struct {
	Earned   int `json:"earned"`
	Possible int `json:"possible"`
}

// CategoryTotals sums counted outcomes per category for this page.
func (e PageEvaluation) CategoryTotals() map[Category]CategoryPoints {
	totals := make(map[Category]CategoryPoints)
	for _, o := range e.Outcomes {
		if !o.Counted() {
			continue
		}
		p := totals[o.Category]
		p.Earned += o.Score
		p.Possible += o.MaxScore
		totals[o.Category] = p
	}
	return totals
}

// Breakdown holds per-category scores in [0,100]. A nil entry means no
// rule of that category could be evaluated on any page.
type Breakdown struct {
	Performance *int `json:"performance"`
	Conversion  *int `json:"conversion"`
	Trust       *int `json:"trust"`
	Mobile      *int `json:"mobile"`
}

// Get returns the score for c.
func (b Breakdown) Get(c Category) *int {
	switch c {
	case CategoryPerformance:
		return b.Performance
	case CategoryConversion:
		return b.Conversion
	case CategoryTrust:
		return b.Trust
	case CategoryMobile:
		return b.Mobile
	}
	return nil
}

// Set stores the score for c.
func (b *Breakdown) Set(c Category, v *int) {
	switch c {
	case CategoryPerformance:
		b.Performance = v
	case CategoryConversion:
		b.Conversion = v
	case CategoryTrust:
		b.Trust = v
	case CategoryMobile:
		b.Mobile = v
	}
}

// SiteScore summarises a crawl. It is always derived from evaluations and
// never stored as a source of truth. Overall is nil when no category is defined.
type SiteScore struct {
	Overall   *int      `json:"overall"`
	Breakdown Breakdown `json:"breakdown"`
}
