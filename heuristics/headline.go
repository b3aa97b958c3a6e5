package heuristics

import (
	"strings"

	"cro-audit/config"
	"cro-audit/models"
)

// HeadlineRule checks that the main headline exists and is a readable length.
type HeadlineRule struct {
	base
	th config.HeadlineThresholds
}

func NewHeadlineRule(th config.HeadlineThresholds) *HeadlineRule {
	return &HeadlineRule{
		base: base{
			id:          models.RuleHeadline,
			name:        "Headline Length",
			description: "The primary headline should be present and concise",
			category:    models.CategoryConversion,
			maxScore:    10,
			appliesTo:   []models.PageType{models.PageHome, models.PageProduct, models.PageCollection},
		},
		th: th,
	}
}

func (r *HeadlineRule) Analyze(page *models.Page) models.HeuristicResult {
	if !r.applies(page.Type) {
		return r.skip()
	}

	var text string
	if h := page.Metrics.AboveFold.Headline; h != nil {
		text = strings.TrimSpace(h.Text)
	}
	words := len(strings.Fields(text))
	ev := models.HeadlineEvidence{
		Text:      text,
		WordCount: words,
		MinWords:  r.th.MinWords,
		MaxWords:  r.th.MaxWords,
	}

	if words == 0 {
		return r.fail(page, ev)
	}
	if words < r.th.MinWords || words > r.th.MaxWords {
		return r.partial(page, r.th.PartialRatio, ev)
	}
	return r.pass()
}
