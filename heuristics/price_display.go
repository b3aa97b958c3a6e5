package heuristics

import (
	"cro-audit/config"
	"cro-audit/models"
)

// PriceDisplayRule checks that product pages show a price, ideally above the fold.
type PriceDisplayRule struct {
	base
	th config.RatioOnly
}

func NewPriceDisplayRule(th config.RatioOnly) *PriceDisplayRule {
	return &PriceDisplayRule{
		base: base{
			id:          models.RulePriceDisplay,
			name:        "Price Display",
			description: "The product price should be visible without scrolling",
			category:    models.CategoryConversion,
			maxScore:    10,
			appliesTo:   []models.PageType{models.PageProduct},
		},
		th: th,
	}
}

func (r *PriceDisplayRule) Analyze(page *models.Page) models.HeuristicResult {
	if !r.applies(page.Type) {
		return r.skip()
	}

	p := page.Metrics.Price
	if p == nil || !p.Visible || !finite(p.Amount) || p.Amount <= 0 {
		ev := models.PriceEvidence{}
		if p != nil {
			ev = models.PriceEvidence{Visible: p.Visible, AboveFold: p.AboveFold, Text: p.Text}
			if finite(p.Amount) {
				ev.Amount = p.Amount
			}
		}
		return r.fail(page, ev)
	}
	if !p.AboveFold {
		return r.partial(page, r.th.PartialRatio, models.PriceEvidence{
			Visible:   true,
			AboveFold: false,
			Text:      p.Text,
			Amount:    p.Amount,
		})
	}
	return r.pass()
}
