package heuristics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"cro-audit/config"
	"cro-audit/models"
)

func newTestRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	return NewDefaultRegistry(config.DefaultThresholds(), opts...)
}

// stubRule lets tests control what a rule returns.
type stubRule struct {
	base
	analyze func(page *models.Page) models.HeuristicResult
}

func (s *stubRule) Analyze(page *models.Page) models.HeuristicResult { return s.analyze(page) }

func newStub(id string, max int, fn func(page *models.Page) models.HeuristicResult) *stubRule {
	return &stubRule{
		base: base{
			id: id, name: id, category: models.CategoryConversion,
			maxScore: max, appliesTo: models.AllPageTypes,
		},
		analyze: fn,
	}
}

func fullPage(t models.PageType) *models.Page {
	return &models.Page{
		ID:   "full-" + string(t),
		Type: t,
		Metrics: models.PageMetrics{
			AboveFold: models.AboveFold{
				Height:     800,
				CTAButtons: []models.CTAButton{button(240, 48, true)},
				Headline:   &models.Headline{Text: "Everyday linen for warm days"},
				HeroImage:  &models.HeroImage{Src: "hero.jpg", Width: 1600, Bytes: 180_000},
			},
			Performance: &models.Performance{LoadTime: 1500},
			Price:       &models.Price{Visible: true, AboveFold: true, Text: "$48", Amount: 48},
			Reviews:     &models.Reviews{WidgetPresent: true, Count: 80, Rating: 4.6},
			Shipping:    &models.Shipping{Mentioned: true, AboveFold: true},
			StickyCart:  &models.StickyCart{Present: true, VisibleOnMobile: true},
			Trust:       &models.Trust{Badges: []string{"ssl"}, PaymentIcons: []string{"visa"}, SecureCheckout: true},
			Images:      &models.Images{Total: 8, WithAlt: 8},
		},
	}
}

func TestDefaultRegistryOrderAndMetadata(t *testing.T) {
	reg := newTestRegistry(t)

	var ids []string
	for _, r := range reg.Rules() {
		ids = append(ids, r.ID())
		if r.Name() == "" || r.Description() == "" {
			t.Errorf("%s: missing name or description", r.ID())
		}
	}
	want := []string{
		models.RuleHeroCTA, models.RuleHeadline, models.RuleHeroImage, models.RulePriceDisplay,
		models.RuleSocialProof, models.RuleShippingInfo, models.RuleStickyCart, models.RulePageSpeed,
		models.RuleTrustSignals, models.RuleImageAltText,
	}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("rule order mismatch (-want +got):\n%s", diff)
	}
	if reg.MaxScore() != 105 {
		t.Errorf("MaxScore: got %d, want 105", reg.MaxScore())
	}
}

func TestNewRegistryRejectsBadRules(t *testing.T) {
	ok := func(*models.Page) models.HeuristicResult { return models.HeuristicResult{} }
	tests := []struct {
		name  string
		rules []Rule
	}{
		{"nil rule", []Rule{nil}},
		{"empty id", []Rule{newStub("", 10, ok)}},
		{"duplicate id", []Rule{newStub("a", 10, ok), newStub("a", 5, ok)}},
		{"zero max", []Rule{newStub("a", 0, ok)}},
	}
	for _, tt := range tests {
		if _, err := NewRegistry(tt.rules); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}

func TestEvaluateMissingHeroCTAEndToEnd(t *testing.T) {
	page := &models.Page{
		ID:      "home-1",
		Type:    models.PageHome,
		Metrics: models.PageMetrics{AboveFold: models.AboveFold{Height: 800}},
	}
	reg, err := NewRegistry([]Rule{newHeroCTA()})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	eval := reg.Evaluate(page)
	want := []models.Finding{{
		ID:       ContentFindingID(models.RuleHeroCTA, "home-1"),
		PageID:   "home-1",
		RuleID:   models.RuleHeroCTA,
		Severity: models.SeverityHigh,
		Evidence: models.HeroCTAEvidence{CTACount: 0, PageType: models.PageHome, AboveFoldHeight: 800},
	}}
	if diff := cmp.Diff(want, eval.Findings); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
	if eval.PageScore != 0 || eval.MaxScore != 15 {
		t.Errorf("page score: got %d/%d, want 0/15", eval.PageScore, eval.MaxScore)
	}
}

func TestEvaluateFullMarks(t *testing.T) {
	reg := newTestRegistry(t)
	for _, pt := range models.AllPageTypes {
		eval := reg.Evaluate(fullPage(pt))
		if len(eval.Findings) != 0 {
			t.Errorf("%s: got %d findings, want 0: %+v", pt, len(eval.Findings), eval.Findings)
		}
		if eval.PageScore != eval.MaxScore {
			t.Errorf("%s: score %d/%d, want full marks", pt, eval.PageScore, eval.MaxScore)
		}
	}
}

func TestEvaluateInvariantsAcrossRules(t *testing.T) {
	reg := newTestRegistry(t)
	pages := []*models.Page{}
	for _, pt := range models.AllPageTypes {
		pages = append(pages, fullPage(pt), &models.Page{ID: "empty-" + string(pt), Type: pt})
	}

	for _, page := range pages {
		eval := reg.Evaluate(page)
		if len(eval.Outcomes) != len(reg.Rules()) {
			t.Fatalf("%s: got %d outcomes, want one per rule", page.ID, len(eval.Outcomes))
		}

		seen := map[string]bool{}
		for _, f := range eval.Findings {
			if seen[f.RuleID] {
				t.Errorf("%s: duplicate finding for %s", page.ID, f.RuleID)
			}
			seen[f.RuleID] = true
			if f.PageID != page.ID {
				t.Errorf("%s: finding for page %s", page.ID, f.PageID)
			}
		}

		for _, o := range eval.Outcomes {
			if o.Score < 0 || o.Score > o.MaxScore {
				t.Errorf("%s/%s: score %d outside [0,%d]", page.ID, o.RuleID, o.Score, o.MaxScore)
			}
			if o.Skipped && (o.Score != 0 || seen[o.RuleID]) {
				t.Errorf("%s/%s: skipped rule left a score or finding", page.ID, o.RuleID)
			}
			if o.Passed && seen[o.RuleID] {
				t.Errorf("%s/%s: passing rule left a finding", page.ID, o.RuleID)
			}
			if o.Degraded {
				t.Errorf("%s/%s: unexpected degraded outcome", page.ID, o.RuleID)
			}
		}
	}
}

func TestEvaluateIsolatesPanickingRule(t *testing.T) {
	boom := newStub("boom", 10, func(*models.Page) models.HeuristicResult { panic("nil map") })
	reg, err := NewRegistry([]Rule{boom, newHeroCTA()})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	eval := reg.Evaluate(ctaPage(models.PageHome, 800, button(200, 50, true)))
	if len(eval.Findings) != 1 {
		t.Fatalf("findings: got %d, want 1 degraded", len(eval.Findings))
	}
	f := eval.Findings[0]
	if !f.Degraded || f.Severity != models.SeverityUnknown || f.RuleID != "boom" {
		t.Errorf("degraded finding: got %+v", f)
	}
	ev, ok := f.Evidence.(models.RuleErrorEvidence)
	if !ok || !strings.Contains(ev.Error, "nil map") {
		t.Errorf("evidence: got %#v", f.Evidence)
	}

	if eval.PageScore != 15 || eval.MaxScore != 15 {
		t.Errorf("page score: got %d/%d, want 15/15 without the failed rule", eval.PageScore, eval.MaxScore)
	}
	if !eval.Outcomes[0].Degraded || eval.Outcomes[0].Counted() {
		t.Errorf("outcome: got %+v, want degraded and not counted", eval.Outcomes[0])
	}
}

func TestEvaluateRejectsContractViolations(t *testing.T) {
	tests := []struct {
		name string
		res  func(page *models.Page) models.HeuristicResult
	}{
		{"score above max", func(*models.Page) models.HeuristicResult {
			return models.HeuristicResult{Passed: true, Score: 11}
		}},
		{"negative score", func(*models.Page) models.HeuristicResult {
			return models.HeuristicResult{Passed: true, Score: -1}
		}},
		{"skipped with score", func(*models.Page) models.HeuristicResult {
			return models.HeuristicResult{Skipped: true, Score: 3}
		}},
		{"pass with finding", func(p *models.Page) models.HeuristicResult {
			return models.HeuristicResult{Passed: true, Score: 10,
				Finding: &models.Finding{PageID: p.ID, RuleID: "bad"}}
		}},
		{"fail without finding", func(*models.Page) models.HeuristicResult {
			return models.HeuristicResult{Score: 0}
		}},
		{"finding for another page", func(*models.Page) models.HeuristicResult {
			return models.HeuristicResult{Finding: &models.Finding{PageID: "other", RuleID: "bad"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := NewRegistry([]Rule{newStub("bad", 10, tt.res)})
			if err != nil {
				t.Fatalf("NewRegistry: %v", err)
			}
			_, err = reg.Analyze(reg.Rules()[0], &models.Page{ID: "p", Type: models.PageHome})
			if !errors.Is(err, errContract) {
				t.Errorf("error: got %v, want contract violation", err)
			}

			eval := reg.Evaluate(&models.Page{ID: "p", Type: models.PageHome})
			if len(eval.Findings) != 1 || !eval.Findings[0].Degraded {
				t.Errorf("findings: got %+v, want one degraded", eval.Findings)
			}
		})
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	reg := newTestRegistry(t)
	page := &models.Page{ID: "p", Type: models.PageProduct,
		Metrics: models.PageMetrics{AboveFold: models.AboveFold{CTAButtons: []models.CTAButton{button(80, 20, false)}}}}

	first := reg.Evaluate(page)
	for i := 0; i < 3; i++ {
		if diff := cmp.Diff(first, reg.Evaluate(page)); diff != "" {
			t.Fatalf("run %d differs (-first +got):\n%s", i, diff)
		}
	}
}

func TestWithFindingIDs(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	reg := newTestRegistry(t, WithFindingIDs(TimestampFindingIDs(func() time.Time { return at })))

	eval := reg.Evaluate(&models.Page{ID: "p1", Type: models.PageCart})
	if len(eval.Findings) == 0 {
		t.Fatal("expected findings for an empty cart page")
	}
	for _, f := range eval.Findings {
		want := f.RuleID + "-p1-1700000000123"
		if f.ID != want {
			t.Errorf("id: got %s, want %s", f.ID, want)
		}
	}
}

func TestContentFindingIDStable(t *testing.T) {
	a := ContentFindingID(models.RuleHeroCTA, "p1")
	if a != ContentFindingID(models.RuleHeroCTA, "p1") {
		t.Error("same rule and page should give the same id")
	}
	if a == ContentFindingID(models.RuleHeadline, "p1") || a == ContentFindingID(models.RuleHeroCTA, "p2") {
		t.Error("different rule or page should give a different id")
	}
}

func TestEvaluateNilPage(t *testing.T) {
	reg := NewDefaultRegistry(config.DefaultThresholds())

	got := reg.Evaluate(nil)
	want := models.PageEvaluation{Findings: []models.Finding{}, Outcomes: []models.RuleOutcome{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("evaluation mismatch (-want +got):\n%s", diff)
	}
}
