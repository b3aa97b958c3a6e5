package heuristics

import (
	"cro-audit/config"
	"cro-audit/models"
)

// HeroCTARule checks that a prominent call-to-action is visible above the
// fold on home and product pages.
type HeroCTARule struct {
	base
	th config.HeroCTAThresholds
}

// NewHeroCTARule builds the rule with its prominence and weak-signal settings.
func NewHeroCTARule(th config.HeroCTAThresholds) *HeroCTARule {
	return &HeroCTARule{
		base: base{
			id:          models.RuleHeroCTA,
			name:        "Hero CTA Detection",
			description: "A prominent call-to-action should be visible above the fold",
			category:    models.CategoryConversion,
			maxScore:    15,
			appliesTo:   []models.PageType{models.PageHome, models.PageProduct},
		},
		th: th,
	}
}

func (r *HeroCTARule) Analyze(page *models.Page) models.HeuristicResult {
	if !r.applies(page.Type) {
		return r.skip()
	}

	af := page.Metrics.AboveFold
	if len(af.CTAButtons) == 0 {
		return r.fail(page, models.HeroCTAEvidence{
			CTACount:        0,
			PageType:        page.Type,
			AboveFoldHeight: af.Height,
		})
	}

	for _, b := range af.CTAButtons {
		if r.IsProminent(b) {
			return r.pass()
		}
	}

	candidates := make([]models.CTACandidate, 0, len(af.CTAButtons))
	for _, b := range af.CTAButtons {
		candidates = append(candidates, models.CTACandidate{
			Text:      b.Text,
			Size:      b.Size,
			Prominent: b.Prominent,
		})
	}
	return r.partial(page, r.th.WeakSignalRatio, models.HeroCTAEvidence{
		CTACount:        len(af.CTAButtons),
		PageType:        page.Type,
		AboveFoldHeight: af.Height,
		Candidates:      candidates,
	})
}

// IsProminent requires both the extractor's flag and the minimum size.
func (r *HeroCTARule) IsProminent(b models.CTAButton) bool {
	return b.Prominent &&
		b.Size.Width >= r.th.MinWidth &&
		b.Size.Height >= r.th.MinHeight
}
