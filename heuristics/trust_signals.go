package heuristics

import (
	"cro-audit/config"
	"cro-audit/models"
)

// TrustSignalsRule looks for security badges and accepted payment icons
// near the purchase path. Checkout pages must also be served securely.
type TrustSignalsRule struct {
	base
	th config.RatioOnly
}

func NewTrustSignalsRule(th config.RatioOnly) *TrustSignalsRule {
	return &TrustSignalsRule{
		base: base{
			id:          models.RuleTrustSignals,
			name:        "Trust Signals",
			description: "Security badges and payment icons should accompany the purchase path",
			category:    models.CategoryTrust,
			maxScore:    10,
			appliesTo:   []models.PageType{models.PageProduct, models.PageCart, models.PageCheckout},
		},
		th: th,
	}
}

func (r *TrustSignalsRule) Analyze(page *models.Page) models.HeuristicResult {
	if !r.applies(page.Type) {
		return r.skip()
	}

	t := page.Metrics.Trust
	if t == nil || (len(t.Badges) == 0 && len(t.PaymentIcons) == 0) {
		ev := models.TrustEvidence{Badges: []string{}, PaymentIcons: []string{}}
		if t != nil {
			ev.SecureCheckout = t.SecureCheckout
		}
		return r.fail(page, ev)
	}

	insecureCheckout := page.Type == models.PageCheckout && !t.SecureCheckout
	if len(t.Badges) == 0 || len(t.PaymentIcons) == 0 || insecureCheckout {
		return r.partial(page, r.th.PartialRatio, models.TrustEvidence{
			Badges:         nonNil(t.Badges),
			PaymentIcons:   nonNil(t.PaymentIcons),
			SecureCheckout: t.SecureCheckout,
		})
	}
	return r.pass()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
