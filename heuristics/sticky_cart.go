package heuristics

import (
	"cro-audit/config"
	"cro-audit/models"
)

// StickyCartRule checks for an add-to-cart control that stays on screen
// while scrolling, especially on small viewports.
type StickyCartRule struct {
	base
	th config.RatioOnly
}

func NewStickyCartRule(th config.RatioOnly) *StickyCartRule {
	return &StickyCartRule{
		base: base{
			id:          models.RuleStickyCart,
			name:        "Sticky Add-to-Cart",
			description: "Product pages should keep add-to-cart reachable on mobile",
			category:    models.CategoryMobile,
			maxScore:    10,
			appliesTo:   []models.PageType{models.PageProduct},
		},
		th: th,
	}
}

func (r *StickyCartRule) Analyze(page *models.Page) models.HeuristicResult {
	if !r.applies(page.Type) {
		return r.skip()
	}

	sc := page.Metrics.StickyCart
	if sc == nil || !sc.Present {
		return r.fail(page, models.StickyCartEvidence{})
	}
	if !sc.VisibleOnMobile {
		return r.partial(page, r.th.PartialRatio, models.StickyCartEvidence{Present: true})
	}
	return r.pass()
}
