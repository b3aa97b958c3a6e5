package models

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFindingJSONKeepsEvidenceType(t *testing.T) {
	in := []Finding{
		{ID: "1", PageID: "p", RuleID: RuleHeroCTA, Severity: SeverityMed,
			Evidence: HeroCTAEvidence{CTACount: 1, PageType: PageHome, AboveFoldHeight: 800,
				Candidates: []CTACandidate{{Text: "Shop", Size: Size{Width: 80, Height: 20}}}}},
		{ID: "2", PageID: "p", RuleID: RuleImageAltText, Severity: SeverityHigh,
			Evidence: AltTextEvidence{Measured: true, TotalImages: 10, WithAlt: 2, Coverage: 0.2}},
		{ID: "3", PageID: "p", RuleID: RuleSocialProof, Severity: SeverityUnknown, Degraded: true,
			Evidence: RuleErrorEvidence{Rule: RuleSocialProof, Error: "panic: boom"}},
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out []Finding
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
}

func TestHeroCTAEvidenceWireShape(t *testing.T) {
	data, err := json.Marshal(HeroCTAEvidence{CTACount: 0, PageType: PageHome, AboveFoldHeight: 800})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(data), `{"ctaCount":0,"pageType":"home","aboveFoldHeight":800}`; got != want {
		t.Errorf("json: got %s, want %s", got, want)
	}
}

func TestDecodeEvidenceUnknownRule(t *testing.T) {
	if _, err := DecodeEvidence("no_such_rule", false, []byte(`{}`)); err == nil {
		t.Error("expected an error for an unknown rule")
	}
	ev, err := DecodeEvidence(RuleHeadline, false, []byte("null"))
	if err != nil || ev != nil {
		t.Errorf("null evidence: got %v, %v", ev, err)
	}
}

func TestEvidenceRuleIDs(t *testing.T) {
	tests := []struct {
		ev   Evidence
		want string
	}{
		{HeroCTAEvidence{}, RuleHeroCTA},
		{HeadlineEvidence{}, RuleHeadline},
		{HeroImageEvidence{}, RuleHeroImage},
		{PriceEvidence{}, RulePriceDisplay},
		{SocialProofEvidence{}, RuleSocialProof},
		{ShippingEvidence{}, RuleShippingInfo},
		{StickyCartEvidence{}, RuleStickyCart},
		{PageSpeedEvidence{}, RulePageSpeed},
		{TrustEvidence{}, RuleTrustSignals},
		{AltTextEvidence{}, RuleImageAltText},
		{RuleErrorEvidence{Rule: "x"}, "x"},
	}
	for _, tt := range tests {
		if got := tt.ev.RuleID(); got != tt.want {
			t.Errorf("%T.RuleID() = %q; want %q", tt.ev, got, tt.want)
		}
	}
}
