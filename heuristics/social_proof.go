package heuristics

import (
	"cro-audit/config"
	"cro-audit/models"
)

// SocialProofRule checks for a review widget with enough volume and rating.
type SocialProofRule struct {
	base
	th config.SocialProofThresholds
}

func NewSocialProofRule(th config.SocialProofThresholds) *SocialProofRule {
	return &SocialProofRule{
		base: base{
			id:          models.RuleSocialProof,
			name:        "Social Proof",
			description: "Reviews and ratings should be displayed to build confidence",
			category:    models.CategoryTrust,
			maxScore:    10,
			appliesTo:   []models.PageType{models.PageHome, models.PageProduct},
		},
		th: th,
	}
}

func (r *SocialProofRule) Analyze(page *models.Page) models.HeuristicResult {
	if !r.applies(page.Type) {
		return r.skip()
	}

	rv := page.Metrics.Reviews
	ev := models.SocialProofEvidence{MinReviews: r.th.MinReviews, MinRating: r.th.MinRating}
	if rv == nil || !rv.WidgetPresent {
		return r.fail(page, ev)
	}

	ev.WidgetPresent = true
	ev.ReviewCount = rv.Count
	if !finite(rv.Rating) {
		return r.fail(page, ev)
	}
	ev.Rating = rv.Rating
	if rv.Count < r.th.MinReviews || rv.Rating < r.th.MinRating {
		return r.partial(page, r.th.PartialRatio, ev)
	}
	return r.pass()
}
