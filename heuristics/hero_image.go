package heuristics

import (
	"strings"

	"cro-audit/config"
	"cro-audit/models"
)

// HeroImageRule checks for a hero image that is wide enough without being
// too heavy. A zero byte size means the weight was not measured.
type HeroImageRule struct {
	base
	th config.HeroImageThresholds
}

func NewHeroImageRule(th config.HeroImageThresholds) *HeroImageRule {
	return &HeroImageRule{
		base: base{
			id:          models.RuleHeroImage,
			name:        "Hero Image",
			description: "Landing pages should open with a sharp, lightweight hero image",
			category:    models.CategoryConversion,
			maxScore:    10,
			appliesTo:   []models.PageType{models.PageHome, models.PageCollection},
		},
		th: th,
	}
}

func (r *HeroImageRule) Analyze(page *models.Page) models.HeuristicResult {
	if !r.applies(page.Type) {
		return r.skip()
	}

	img := page.Metrics.AboveFold.HeroImage
	if img == nil || strings.TrimSpace(img.Src) == "" {
		return r.fail(page, models.HeroImageEvidence{
			Present:  false,
			MinWidth: r.th.MinWidth,
			MaxBytes: r.th.MaxBytes,
		})
	}

	tooNarrow := img.Width < r.th.MinWidth
	tooHeavy := img.Bytes > 0 && img.Bytes > r.th.MaxBytes
	if tooNarrow || tooHeavy {
		return r.partial(page, r.th.PartialRatio, models.HeroImageEvidence{
			Present:  true,
			Width:    img.Width,
			Bytes:    img.Bytes,
			MinWidth: r.th.MinWidth,
			MaxBytes: r.th.MaxBytes,
		})
	}
	return r.pass()
}
