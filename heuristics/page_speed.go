package heuristics

import (
	"cro-audit/config"
	"cro-audit/models"
)

// PageSpeedRule grades full page load time. An unmeasured load time is
// scored like a critically slow one.
type PageSpeedRule struct {
	base
	th config.PageSpeedThresholds
}

func NewPageSpeedRule(th config.PageSpeedThresholds) *PageSpeedRule {
	return &PageSpeedRule{
		base: base{
			id:          models.RulePageSpeed,
			name:        "Page Speed",
			description: "Pages should finish loading within the target budget",
			category:    models.CategoryPerformance,
			maxScore:    15,
			appliesTo:   models.AllPageTypes,
		},
		th: th,
	}
}

func (r *PageSpeedRule) Analyze(page *models.Page) models.HeuristicResult {
	if !r.applies(page.Type) {
		return r.skip()
	}

	ev := models.PageSpeedEvidence{TargetMs: r.th.TargetMs, CriticalMs: r.th.CriticalMs}
	perf := page.Metrics.Performance
	if perf == nil || !finite(perf.LoadTime) || perf.LoadTime <= 0 {
		return r.fail(page, ev)
	}

	ev.Measured = true
	ev.LoadTimeMs = perf.LoadTime
	if finite(perf.LargestContentfulPaint) {
		ev.LCPMs = perf.LargestContentfulPaint
	}
	switch {
	case perf.LoadTime > r.th.CriticalMs:
		return r.fail(page, ev)
	case perf.LoadTime > r.th.TargetMs:
		return r.partial(page, r.th.PartialRatio, ev)
	}
	return r.pass()
}
