package heuristics

import (
	"errors"
	"fmt"

	"cro-audit/config"
	"cro-audit/models"
	"cro-audit/utils"
)

// Registry applies an ordered set of rules to pages. Output order of
// findings follows rule order. A Registry is safe for concurrent use
// because rules are stateless and Evaluate holds no shared state.
type Registry struct {
	rules  []Rule
	ids    FindingIDFunc
	logger *utils.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithFindingIDs replaces the content-derived finding identity.
func WithFindingIDs(fn FindingIDFunc) Option {
	return func(r *Registry) { r.ids = fn }
}

// WithLogger attaches a logger for isolated rule failures.
func WithLogger(l *utils.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// DefaultRules returns the ten storefront rules in report order.
func DefaultRules(th config.Thresholds) []Rule {
	return []Rule{
		NewHeroCTARule(th.HeroCTA),
		NewHeadlineRule(th.Headline),
		NewHeroImageRule(th.HeroImage),
		NewPriceDisplayRule(th.Price),
		NewSocialProofRule(th.SocialProof),
		NewShippingInfoRule(th.Shipping),
		NewStickyCartRule(th.StickyCart),
		NewPageSpeedRule(th.PageSpeed),
		NewTrustSignalsRule(th.Trust),
		NewAltTextRule(th.AltText),
	}
}

// NewRegistry validates rule metadata: ids must be unique and non-empty,
// and every MaxScore positive.
func NewRegistry(rules []Rule, opts ...Option) (*Registry, error) {
	seen := make(map[string]struct{}, len(rules))
	for i, rule := range rules {
		if rule == nil {
			return nil, fmt.Errorf("registry: rule %d is nil", i)
		}
		id := rule.ID()
		if id == "" {
			return nil, fmt.Errorf("registry: rule %d has an empty id", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("registry: duplicate rule id %q", id)
		}
		if rule.MaxScore() <= 0 {
			return nil, fmt.Errorf("registry: rule %q has max score %d", id, rule.MaxScore())
		}
		seen[id] = struct{}{}
	}

	r := &Registry{
		rules:  append([]Rule(nil), rules...),
		ids:    ContentFindingID,
		logger: utils.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewDefaultRegistry builds a registry over DefaultRules.
func NewDefaultRegistry(th config.Thresholds, opts ...Option) *Registry {
	r, err := NewRegistry(DefaultRules(th), opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Rules returns the registered rules in order.
func (r *Registry) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// MaxScore is the sum of every rule's maximum.
func (r *Registry) MaxScore() int {
	total := 0
	for _, rule := range r.rules {
		total += rule.MaxScore()
	}
	return total
}

// Evaluate runs every rule exactly once against page. A rule that panics
// or breaks the result contract yields a degraded finding for that rule
// only; the remaining rules still run. A nil page yields an empty
// evaluation with no outcomes.
func (r *Registry) Evaluate(page *models.Page) models.PageEvaluation {
	if page == nil {
		r.logger.Warn("[registry] Evaluate called with a nil page")
		return models.PageEvaluation{
			Findings: []models.Finding{},
			Outcomes: []models.RuleOutcome{},
		}
	}

	eval := models.PageEvaluation{
		PageID:   page.ID,
		PageType: page.Type,
		Findings: []models.Finding{},
		Outcomes: make([]models.RuleOutcome, 0, len(r.rules)),
	}

	for _, rule := range r.rules {
		outcome := models.RuleOutcome{
			RuleID:   rule.ID(),
			Category: rule.Category(),
			MaxScore: rule.MaxScore(),
		}

		res, err := r.run(rule, page)
		if err != nil {
			r.logger.Warn("[registry] rule %s failed on page %s: %v", rule.ID(), page.ID, err)
			outcome.Degraded = true
			eval.Outcomes = append(eval.Outcomes, outcome)
			eval.Findings = append(eval.Findings, models.Finding{
				ID:       r.ids(rule.ID(), page.ID),
				PageID:   page.ID,
				RuleID:   rule.ID(),
				Severity: models.SeverityUnknown,
				Evidence: models.RuleErrorEvidence{Rule: rule.ID(), Error: err.Error()},
				Degraded: true,
			})
			continue
		}

		outcome.Score = res.Score
		outcome.Passed = res.Passed
		outcome.Skipped = res.Skipped
		eval.Outcomes = append(eval.Outcomes, outcome)

		if res.Skipped {
			continue
		}
		eval.PageScore += res.Score
		eval.MaxScore += rule.MaxScore()

		if res.Finding != nil {
			f := *res.Finding
			f.ID = r.ids(rule.ID(), page.ID)
			eval.Findings = append(eval.Findings, f)
		}
	}

	return eval
}

// Analyze runs a single rule with the same isolation as Evaluate.
func (r *Registry) Analyze(rule Rule, page *models.Page) (models.HeuristicResult, error) {
	return r.run(rule, page)
}

var errContract = errors.New("rule contract violated")

func (r *Registry) run(rule Rule, page *models.Page) (res models.HeuristicResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = models.HeuristicResult{}
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	res = rule.Analyze(page)
	if err := checkResult(rule, page, res); err != nil {
		return models.HeuristicResult{}, err
	}
	return res, nil
}

// checkResult enforces the HeuristicResult invariants.
func checkResult(rule Rule, page *models.Page, res models.HeuristicResult) error {
	switch {
	case res.Score < 0 || res.Score > rule.MaxScore():
		return fmt.Errorf("%w: score %d outside [0,%d]", errContract, res.Score, rule.MaxScore())
	case res.Skipped && (res.Finding != nil || res.Score != 0):
		return fmt.Errorf("%w: skipped result carries a score or finding", errContract)
	case res.Passed && res.Finding != nil:
		return fmt.Errorf("%w: passing result carries a finding", errContract)
	case !res.Passed && !res.Skipped && res.Finding == nil:
		return fmt.Errorf("%w: failing result has no finding", errContract)
	case res.Finding != nil && res.Finding.RuleID != rule.ID():
		return fmt.Errorf("%w: finding rule id %q", errContract, res.Finding.RuleID)
	case res.Finding != nil && res.Finding.PageID != page.ID:
		return fmt.Errorf("%w: finding page id %q", errContract, res.Finding.PageID)
	}
	return nil
}
