package heuristics

import (
	"cro-audit/config"
	"cro-audit/models"
)

// ShippingInfoRule checks that shipping terms are communicated before checkout.
type ShippingInfoRule struct {
	base
	th config.RatioOnly
}

func NewShippingInfoRule(th config.RatioOnly) *ShippingInfoRule {
	return &ShippingInfoRule{
		base: base{
			id:          models.RuleShippingInfo,
			name:        "Shipping Information",
			description: "Shipping costs or free-shipping thresholds should be stated up front",
			category:    models.CategoryTrust,
			maxScore:    10,
			appliesTo:   []models.PageType{models.PageProduct, models.PageCart},
		},
		th: th,
	}
}

func (r *ShippingInfoRule) Analyze(page *models.Page) models.HeuristicResult {
	if !r.applies(page.Type) {
		return r.skip()
	}

	s := page.Metrics.Shipping
	if s == nil || !s.Mentioned {
		return r.fail(page, models.ShippingEvidence{PageType: page.Type})
	}
	if !s.AboveFold {
		return r.partial(page, r.th.PartialRatio, models.ShippingEvidence{
			Mentioned: true,
			Text:      s.Text,
			PageType:  page.Type,
		})
	}
	return r.pass()
}
