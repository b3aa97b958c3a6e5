package models

import "testing"

func TestSeverityRankAndString(t *testing.T) {
	if !(SeverityHigh.Rank() < SeverityMed.Rank() && SeverityMed.Rank() < SeverityLow.Rank() &&
		SeverityLow.Rank() < SeverityUnknown.Rank()) {
		t.Error("severity ranks out of order")
	}
	if SeverityUnknown.String() != "unknown" {
		t.Errorf("unknown severity: got %q", SeverityUnknown.String())
	}
}

func TestCategoryTotalsSkipsUncounted(t *testing.T) {
	e := PageEvaluation{Outcomes: []RuleOutcome{
		{Category: CategoryTrust, MaxScore: 10, Score: 5},
		{Category: CategoryTrust, MaxScore: 10, Skipped: true},
		{Category: CategoryTrust, MaxScore: 10, Degraded: true},
		{Category: CategoryMobile, MaxScore: 5, Score: 5, Passed: true},
	}}

	totals := e.CategoryTotals()
	if got := totals[CategoryTrust]; got != (CategoryPoints{Earned: 5, Possible: 10}) {
		t.Errorf("trust: got %+v, want 5/10", got)
	}
	if got := totals[CategoryMobile]; got != (CategoryPoints{Earned: 5, Possible: 5}) {
		t.Errorf("mobile: got %+v, want 5/5", got)
	}
	if _, ok := totals[CategoryConversion]; ok {
		t.Error("conversion should be absent")
	}
}

func TestBreakdownGetSet(t *testing.T) {
	var b Breakdown
	for i, c := range AllCategories {
		v := i * 10
		b.Set(c, &v)
	}
	for i, c := range AllCategories {
		if got := b.Get(c); got == nil || *got != i*10 {
			t.Errorf("%s: got %v, want %d", c, got, i*10)
		}
	}
	if b.Get("seo") != nil {
		t.Error("unknown category should read nil")
	}
}

func TestPageTypeValid(t *testing.T) {
	for _, pt := range AllPageTypes {
		if !pt.Valid() {
			t.Errorf("%s should be valid", pt)
		}
	}
	if PageType("blog").Valid() {
		t.Error("blog should not be valid")
	}
}
