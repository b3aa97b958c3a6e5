package services

import (
	"math"

	"cro-audit/config"
	"cro-audit/models"
	"cro-audit/utils"
)

// SiteAggregator folds page evaluations into a site score.
type SiteAggregator struct {
	weights map[models.Category]float64
	logger  *utils.Logger
}

func NewSiteAggregator(rubric config.Rubric, logger *utils.Logger) *SiteAggregator {
	weights := make(map[models.Category]float64, len(rubric.Weights))
	for c, w := range rubric.Weights {
		weights[c] = w
	}
	return &SiteAggregator{weights: weights, logger: logger}
}

// Totals sums counted outcomes per category across all evaluations.
func (a *SiteAggregator) Totals(evals []models.PageEvaluation) map[models.Category]models.CategoryPoints {
	totals := make(map[models.Category]models.CategoryPoints, len(models.AllCategories))
	for _, e := range evals {
		for c, p := range e.CategoryTotals() {
			t := totals[c]
			t.Earned += p.Earned
			t.Possible += p.Possible
			totals[c] = t
		}
	}
	return totals
}

// Aggregate computes category scores as round(100 × earned / possible)
// and the overall score as the weighted mean of the defined categories.
// A category with no evaluated rule stays nil and its weight is spread
// over the others. Aggregate is a pure function of evals.
func (a *SiteAggregator) Aggregate(evals []models.PageEvaluation) models.SiteScore {
	var score models.SiteScore
	totals := a.Totals(evals)

	var weighted, weightSum float64
	for _, c := range models.AllCategories {
		p := totals[c]
		if p.Possible <= 0 {
			a.logger.Debug("[aggregator] No evaluated rules in category %s", c)
			continue
		}
		v := percent(p.Earned, p.Possible)
		score.Breakdown.Set(c, &v)

		if w := a.weights[c]; w > 0 {
			weighted += w * float64(v)
			weightSum += w
		}
	}

	if weightSum > 0 {
		overall := int(math.Round(weighted / weightSum))
		score.Overall = &overall
	}
	return score
}

func percent(earned, possible int) int {
	v := int(math.Round(100 * float64(earned) / float64(possible)))
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
