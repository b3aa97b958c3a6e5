package services

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"cro-audit/models"
	"cro-audit/utils"
)

var (
	// priceRegexp captures the first numeric amount, thousands separators included
	priceRegexp = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	// ratingRegexp captures a numeric rating in the 0.0–5.0 range
	ratingRegexp = regexp.MustCompile(`\b([0-5](?:\.\d{1,2})?)\b`)
	// reviewCountRegexp captures "120 reviews" or "1,204 ratings"
	reviewCountRegexp = regexp.MustCompile(`(?i)(\d[\d,]*)\s*(?:reviews?|ratings?)`)
	// parenCountRegexp captures "(120)" as used by most review widgets
	parenCountRegexp = regexp.MustCompile(`\((\d[\d,]*)\)`)
	// shippingRegexp detects any shipping or delivery wording
	shippingRegexp = regexp.MustCompile(`(?i)\b(shipping|delivery|ships)\b`)
	// freeThresholdRegexp captures the amount in "free shipping on orders over $50"
	freeThresholdRegexp = regexp.MustCompile(`(?i)free\s+(?:shipping|delivery).*?(?:over|above|from|of)\s*[$€£]?\s*(\d[\d,]*(?:\.\d+)?)`)
)

var pageNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("cro-audit:page"))

// Normalizer turns raw extractor output into validated Pages.
type Normalizer struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger, now: time.Now}
}

// Normalize processes raw pages of one crawl. Pages without a URL, with a
// duplicate canonical URL, or with a path that is not a storefront page
// type are dropped.
func (n *Normalizer) Normalize(crawlID string, raw []*models.RawPage) []*models.Page {
	seen := utils.NewURLSet()
	result := make([]*models.Page, 0, len(raw))

	for _, r := range raw {
		if r == nil {
			continue
		}
		canonical, err := CanonicalURL(r.URL)
		if err != nil || canonical == "" {
			n.logger.Warn("[normalizer] Dropping page with unusable URL %q: %v", r.URL, err)
			continue
		}

		pageType, ok := ClassifyURL(canonical)
		if !ok {
			n.logger.Warn("[normalizer] Dropping %s: not a home, product, collection, cart or checkout page", canonical)
			continue
		}

		if !seen.Add(canonical) {
			n.logger.Debug("[normalizer] Duplicate URL skipped: %s", canonical)
			continue
		}

		result = append(result, &models.Page{
			ID:        PageID(crawlID, canonical),
			CrawlID:   crawlID,
			URL:       canonical,
			Type:      pageType,
			Metrics:   n.metrics(r),
			CreatedAt: n.now(),
		})
	}

	n.logger.Info("[normalizer] Normalized %d → %d pages (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

func (n *Normalizer) metrics(r *models.RawPage) models.PageMetrics {
	m := models.PageMetrics{
		AboveFold: models.AboveFold{
			CTAButtons: cleanButtons(r.CTAButtons),
			Height:     r.AboveFoldHeight,
		},
		StickyCart: copyPtr(r.StickyCart),
	}

	if text := normaliseText(r.Headline); text != "" {
		m.AboveFold.Headline = &models.Headline{Text: text}
	}
	if r.HeroImage != nil {
		img := *r.HeroImage
		img.Src = strings.TrimSpace(img.Src)
		img.Alt = normaliseText(img.Alt)
		m.AboveFold.HeroImage = &img
	}
	if r.LoadTimeMs > 0 || r.LCPMs > 0 {
		m.Performance = &models.Performance{LoadTime: r.LoadTimeMs, LargestContentfulPaint: r.LCPMs}
	}

	priceText := normaliseText(r.PriceText)
	if priceText != "" || r.PriceVisible {
		m.Price = &models.Price{
			Visible:   r.PriceVisible,
			AboveFold: r.PriceAboveFold,
			Text:      priceText,
			Amount:    n.parsePrice(priceText),
			CompareAt: n.parsePrice(r.CompareAtText),
		}
	}

	reviewText := normaliseText(r.ReviewText)
	m.Reviews = &models.Reviews{
		WidgetPresent: r.ReviewWidget,
		Count:         n.parseReviewCount(reviewText),
		Rating:        n.parseRating(reviewText),
	}

	shippingText := normaliseText(r.ShippingText)
	mentioned := shippingRegexp.MatchString(shippingText)
	m.Shipping = &models.Shipping{
		Mentioned:     mentioned,
		AboveFold:     mentioned && r.ShippingAbove,
		Text:          shippingText,
		FreeThreshold: n.parseFreeThreshold(shippingText),
	}

	m.Trust = &models.Trust{
		Badges:         normaliseLabels(r.TrustBadges),
		PaymentIcons:   normaliseLabels(r.PaymentIcons),
		SecureCheckout: r.SecureCheckout,
	}

	if r.ImageCount != nil && *r.ImageCount >= 0 {
		m.Images = &models.Images{Total: *r.ImageCount}
		if r.ImagesWithAlt != nil {
			m.Images.WithAlt = *r.ImagesWithAlt
		}
	}
	return m
}

// parsePrice extracts the first amount from price text.
// Examples:
//
//	"$1,299.00"           → 1299
//	"From €24.95 EUR"     → 24.95
//	"Sold out"            → 0
func (n *Normalizer) parsePrice(raw string) float64 {
	match := priceRegexp.FindString(raw)
	if match == "" {
		return 0
	}
	val, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0
	}
	return val
}

// parseRating extracts a 0.0–5.0 numeric rating from a raw string.
func (n *Normalizer) parseRating(raw string) float64 {
	match := ratingRegexp.FindStringSubmatch(raw)
	if len(match) < 2 {
		return 0
	}
	val, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	if val < 0 || val > 5 {
		return 0
	}
	return val
}

// parseReviewCount reads "120 reviews" or "(120)".
func (n *Normalizer) parseReviewCount(raw string) int {
	match := reviewCountRegexp.FindStringSubmatch(raw)
	if len(match) < 2 {
		match = parenCountRegexp.FindStringSubmatch(raw)
	}
	if len(match) < 2 {
		return 0
	}
	count, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
	if err != nil {
		return 0
	}
	return count
}

func (n *Normalizer) parseFreeThreshold(raw string) float64 {
	match := freeThresholdRegexp.FindStringSubmatch(raw)
	if len(match) < 2 {
		return 0
	}
	val, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	return val
}

// CanonicalURL lowercases the host and drops query, fragment and trailing
// slash so that variant links collapse onto one page.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", nil
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String(), nil
}

// ClassifyURL maps a Shopify storefront path onto a page type.
func ClassifyURL(rawURL string) (models.PageType, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	path := strings.ToLower(strings.TrimRight(u.Path, "/"))

	switch {
	case path == "":
		return models.PageHome, true
	case strings.Contains(path, "/products/"):
		return models.PageProduct, true
	case strings.HasPrefix(path, "/collections"):
		return models.PageCollection, true
	case path == "/cart":
		return models.PageCart, true
	case strings.Contains(path, "/checkouts/") || strings.HasSuffix(path, "/checkout"):
		return models.PageCheckout, true
	}
	return "", false
}

// PageID derives a stable page identity from the crawl and canonical URL.
func PageID(crawlID, canonicalURL string) string {
	return uuid.NewSHA1(pageNamespace, []byte(crawlID+"|"+canonicalURL)).String()
}

func cleanButtons(in []models.CTAButton) []models.CTAButton {
	out := make([]models.CTAButton, 0, len(in))
	for _, b := range in {
		b.Text = normaliseText(b.Text)
		if b.Size.Width < 0 {
			b.Size.Width = 0
		}
		if b.Size.Height < 0 {
			b.Size.Height = 0
		}
		out = append(out, b)
	}
	return out
}

func normaliseLabels(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(normaliseText(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
