package heuristics

import (
	"cro-audit/config"
	"cro-audit/models"
)

// AltTextRule measures alt-text coverage across the page's images. A page
// without images has nothing to describe and passes.
type AltTextRule struct {
	base
	th config.AltTextThresholds
}

func NewAltTextRule(th config.AltTextThresholds) *AltTextRule {
	return &AltTextRule{
		base: base{
			id:          models.RuleImageAltText,
			name:        "Image Alt Text",
			description: "Images should carry alt text for accessibility and assistive devices",
			category:    models.CategoryMobile,
			maxScore:    5,
			appliesTo:   models.AllPageTypes,
		},
		th: th,
	}
}

func (r *AltTextRule) Analyze(page *models.Page) models.HeuristicResult {
	if !r.applies(page.Type) {
		return r.skip()
	}

	img := page.Metrics.Images
	if img == nil || img.Total < 0 {
		return r.fail(page, models.AltTextEvidence{})
	}
	if img.Total == 0 {
		return r.pass()
	}

	withAlt := img.WithAlt
	if withAlt < 0 {
		withAlt = 0
	}
	if withAlt > img.Total {
		withAlt = img.Total
	}
	coverage := float64(withAlt) / float64(img.Total)
	ev := models.AltTextEvidence{
		Measured:    true,
		TotalImages: img.Total,
		WithAlt:     withAlt,
		Coverage:    coverage,
	}

	switch {
	case coverage >= r.th.TargetCoverage:
		return r.pass()
	case coverage >= r.th.MinCoverage:
		return r.partial(page, r.th.PartialRatio, ev)
	}
	return r.fail(page, ev)
}
