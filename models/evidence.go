package models

import (
	"encoding/json"
	"fmt"
)

// Rule identifiers. Evidence payloads are keyed by these.
const (
	RuleHeroCTA      = "hero_cta_missing"
	RuleHeadline     = "headline_length"
	RuleHeroImage    = "hero_image"
	RulePriceDisplay = "price_display"
	RuleSocialProof  = "social_proof"
	RuleShippingInfo = "shipping_info"
	RuleStickyCart   = "sticky_add_to_cart"
	RulePageSpeed    = "page_speed"
	RuleTrustSignals = "trust_signals"
	RuleImageAltText = "image_alt_text"
)

// Evidence is the per-rule payload of a Finding. Each rule has its own
// concrete type; RuleID names the rule the payload belongs to.
type Evidence interface {
	RuleID() string
}

type CTACandidate struct {
	Text      string `json:"text"`
	Size      Size   `json:"size"`
	Prominent bool   `json:"prominent"`
}

type HeroCTAEvidence struct {
	CTACount        int            `json:"ctaCount"`
	PageType        PageType       `json:"pageType"`
	AboveFoldHeight int            `json:"aboveFoldHeight"`
	Candidates      []CTACandidate `json:"candidates,omitempty"`
}

func (HeroCTAEvidence) RuleID() string { return RuleHeroCTA }

type HeadlineEvidence struct {
	Text      string `json:"text"`
	WordCount int    `json:"wordCount"`
	MinWords  int    `json:"minWords"`
	MaxWords  int    `json:"maxWords"`
}

func (HeadlineEvidence) RuleID() string { return RuleHeadline }

type HeroImageEvidence struct {
	Present  bool  `json:"present"`
	Width    int   `json:"width,omitempty"`
	Bytes    int64 `json:"bytes,omitempty"`
	MinWidth int   `json:"minWidth"`
	MaxBytes int64 `json:"maxBytes"`
}

func (HeroImageEvidence) RuleID() string { return RuleHeroImage }

type PriceEvidence struct {
	Visible   bool    `json:"visible"`
	AboveFold bool    `json:"aboveFold"`
	Text      string  `json:"text,omitempty"`
	Amount    float64 `json:"amount"`
}

func (PriceEvidence) RuleID() string { return RulePriceDisplay }

type SocialProofEvidence struct {
	WidgetPresent bool    `json:"widgetPresent"`
	ReviewCount   int     `json:"reviewCount"`
	Rating        float64 `json:"rating"`
	MinReviews    int     `json:"minReviews"`
	MinRating     float64 `json:"minRating"`
}

func (SocialProofEvidence) RuleID() string { return RuleSocialProof }

type ShippingEvidence struct {
	Mentioned bool     `json:"mentioned"`
	AboveFold bool     `json:"aboveFold"`
	Text      string   `json:"text,omitempty"`
	PageType  PageType `json:"pageType"`
}

func (ShippingEvidence) RuleID() string { return RuleShippingInfo }

type StickyCartEvidence struct {
	Present         bool `json:"present"`
	VisibleOnMobile bool `json:"visibleOnMobile"`
}

func (StickyCartEvidence) RuleID() string { return RuleStickyCart }

type PageSpeedEvidence struct {
	LoadTimeMs float64 `json:"loadTimeMs"`
	LCPMs      float64 `json:"lcpMs,omitempty"`
	TargetMs   float64 `json:"targetMs"`
	CriticalMs float64 `json:"criticalMs"`
	Measured   bool    `json:"measured"`
}

func (PageSpeedEvidence) RuleID() string { return RulePageSpeed }

type TrustEvidence struct {
	Badges         []string `json:"badges"`
	PaymentIcons   []string `json:"paymentIcons"`
	SecureCheckout bool     `json:"secureCheckout"`
}

func (TrustEvidence) RuleID() string { return RuleTrustSignals }

type AltTextEvidence struct {
	Measured    bool    `json:"measured"`
	TotalImages int     `json:"totalImages"`
	WithAlt     int     `json:"withAlt"`
	Coverage    float64 `json:"coverage"`
}

func (AltTextEvidence) RuleID() string { return RuleImageAltText }

// RuleErrorEvidence is attached to degraded findings when a rule failed
// internally. Rule holds the failing rule's id.
type RuleErrorEvidence struct {
	Rule  string `json:"rule"`
	Error string `json:"error"`
}

func (e RuleErrorEvidence) RuleID() string { return e.Rule }

// DecodeEvidence restores the typed evidence for ruleID from its JSON form.
// Degraded payloads are recognised by degraded=true.
func DecodeEvidence(ruleID string, degraded bool, raw []byte) (Evidence, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if degraded {
		var ev RuleErrorEvidence
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("evidence: decode rule error for %s: %w", ruleID, err)
		}
		ev.Rule = ruleID
		return ev, nil
	}

	var target Evidence
	switch ruleID {
	case RuleHeroCTA:
		target = &HeroCTAEvidence{}
	case RuleHeadline:
		target = &HeadlineEvidence{}
	case RuleHeroImage:
		target = &HeroImageEvidence{}
	case RulePriceDisplay:
		target = &PriceEvidence{}
	case RuleSocialProof:
		target = &SocialProofEvidence{}
	case RuleShippingInfo:
		target = &ShippingEvidence{}
	case RuleStickyCart:
		target = &StickyCartEvidence{}
	case RulePageSpeed:
		target = &PageSpeedEvidence{}
	case RuleTrustSignals:
		target = &TrustEvidence{}
	case RuleImageAltText:
		target = &AltTextEvidence{}
	default:
		return nil, fmt.Errorf("evidence: unknown rule %q", ruleID)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("evidence: decode %s: %w", ruleID, err)
	}
	return deref(target), nil
}

func deref(e Evidence) Evidence {
	switch v := e.(type) {
	case *HeroCTAEvidence:
		return *v
	case *HeadlineEvidence:
		return *v
	case *HeroImageEvidence:
		return *v
	case *PriceEvidence:
		return *v
	case *SocialProofEvidence:
		return *v
	case *ShippingEvidence:
		return *v
	case *StickyCartEvidence:
		return *v
	case *PageSpeedEvidence:
		return *v
	case *TrustEvidence:
		return *v
	case *AltTextEvidence:
		return *v
	}
	return e
}

// UnmarshalJSON decodes a finding, resolving the evidence type from ruleId.
func (f *Finding) UnmarshalJSON(data []byte) error {
	type plain Finding
	var aux struct {
		plain
		Evidence json.RawMessage `json:"evidence"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ev, err := DecodeEvidence(aux.RuleID, aux.Degraded, aux.Evidence)
	if err != nil {
		return err
	}
	*f = Finding(aux.plain)
	f.Evidence = ev
	return nil
}
