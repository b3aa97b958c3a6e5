package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"cro-audit/config"
	"cro-audit/heuristics"
	"cro-audit/models"
	"cro-audit/utils"
)

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

func TestNormalizerParsePrice(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	tests := []struct {
		raw  string
		want float64
	}{
		{"$120.00", 120},
		{"From €24.95 EUR", 24.95},
		{"$1,299.00", 1299},
		{"", 0},
		{"Sold out", 0},
		{"Rs. 3,500", 3500},
	}

	for _, tt := range tests {
		got := n.parsePrice(tt.raw)
		if got != tt.want {
			t.Errorf("parsePrice(%q) = %.2f; want %.2f", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizerParseRating(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	tests := []struct {
		raw  string
		want float64
	}{
		{"4.85", 4.85},
		{"5.0", 5.0},
		{"3.5 (120 reviews)", 3.5},
		{"", 0},
		{"No reviews yet", 0},
		{"6.0", 0},
	}

	for _, tt := range tests {
		got := n.parseRating(tt.raw)
		if got != tt.want {
			t.Errorf("parseRating(%q) = %.2f; want %.2f", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizerParseReviewCount(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	tests := []struct {
		raw  string
		want int
	}{
		{"4.8 (120 reviews)", 120},
		{"1,204 ratings", 1204},
		{"★★★★★ (37)", 37},
		{"Be the first to review", 0},
	}

	for _, tt := range tests {
		got := n.parseReviewCount(tt.raw)
		if got != tt.want {
			t.Errorf("parseReviewCount(%q) = %d; want %d", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizerParseFreeThreshold(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	if got := n.parseFreeThreshold("Free shipping on orders over $50"); got != 50 {
		t.Errorf("threshold: got %.2f, want 50", got)
	}
	if got := n.parseFreeThreshold("Ships in 2-3 business days"); got != 0 {
		t.Errorf("threshold: got %.2f, want 0", got)
	}
}

func TestClassifyURL(t *testing.T) {
	tests := []struct {
		url    string
		want   models.PageType
		wantOK bool
	}{
		{"https://shop.example.com", models.PageHome, true},
		{"https://shop.example.com/", models.PageHome, true},
		{"https://shop.example.com/products/tee", models.PageProduct, true},
		{"https://shop.example.com/collections/summer/products/tee", models.PageProduct, true},
		{"https://shop.example.com/collections/all", models.PageCollection, true},
		{"https://shop.example.com/cart", models.PageCart, true},
		{"https://shop.example.com/checkouts/cn/abc123", models.PageCheckout, true},
		{"https://shop.example.com/pages/about-us", "", false},
		{"https://shop.example.com/blogs/news", "", false},
	}

	for _, tt := range tests {
		got, ok := ClassifyURL(tt.url)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ClassifyURL(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCanonicalURL(t *testing.T) {
	got, err := CanonicalURL("  https://Shop.Example.com/products/tee/?variant=123#reviews ")
	if err != nil {
		t.Fatalf("CanonicalURL: %v", err)
	}
	if want := "https://shop.example.com/products/tee"; got != want {
		t.Errorf("CanonicalURL: got %q, want %q", got, want)
	}
}

func TestNormalizerDropsEmptyURL(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	raw := []*models.RawPage{
		{URL: "", ScrapedAt: time.Now()},
		{URL: "https://shop.example.com/products/a", ScrapedAt: time.Now()},
		nil,
	}

	pages := n.Normalize("crawl-1", raw)
	if len(pages) != 1 {
		t.Errorf("expected 1 page after dropping empty URL, got %d", len(pages))
	}
}

func TestNormalizerDeduplicatesVariants(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	raw := []*models.RawPage{
		{URL: "https://shop.example.com/products/a?variant=1"},
		{URL: "https://shop.example.com/products/a?variant=2"},
		{URL: "https://shop.example.com/products/b"},
	}

	pages := n.Normalize("crawl-1", raw)
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages after dedup, got %d", len(pages))
	}
	if pages[0].URL != "https://shop.example.com/products/a" {
		t.Errorf("first page: got %q", pages[0].URL)
	}
}

func TestNormalizerPageIDsAreStable(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	raw := []*models.RawPage{{URL: "https://shop.example.com/cart"}}

	a := n.Normalize("crawl-1", raw)[0].ID
	b := n.Normalize("crawl-1", raw)[0].ID
	c := n.Normalize("crawl-2", raw)[0].ID
	if a != b {
		t.Errorf("same crawl and URL gave different ids: %s vs %s", a, b)
	}
	if a == c {
		t.Errorf("different crawls share page id %s", a)
	}
}

func TestNormalizerBuildsMetrics(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	raw := []*models.RawPage{{
		URL:             "https://shop.example.com/products/tee",
		AboveFoldHeight: 800,
		CTAButtons: []models.CTAButton{{
			Text: "  Add to\n cart ", Size: models.Size{Width: 200, Height: 48}, Prominent: true,
		}},
		Headline:       "  Organic   Cotton Tee ",
		LoadTimeMs:     2100,
		PriceText:      "$29.00",
		PriceVisible:   true,
		PriceAboveFold: true,
		ReviewWidget:   true,
		ReviewText:     "4.7 (212 reviews)",
		ShippingText:   "Free shipping on orders over $75",
		ShippingAbove:  true,
		TrustBadges:    []string{"Money-back guarantee", "money-back guarantee", " "},
		PaymentIcons:   []string{"Visa", "PayPal"},
		ImageCount:     intPtr(6),
		ImagesWithAlt:  intPtr(5),
	}}

	pages := n.Normalize("crawl-1", raw)
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}

	want := models.PageMetrics{
		AboveFold: models.AboveFold{
			CTAButtons: []models.CTAButton{{
				Text: "Add to cart", Size: models.Size{Width: 200, Height: 48}, Prominent: true,
			}},
			Height:   800,
			Headline: &models.Headline{Text: "Organic Cotton Tee"},
		},
		Performance: &models.Performance{LoadTime: 2100},
		Price:       &models.Price{Visible: true, AboveFold: true, Text: "$29.00", Amount: 29},
		Reviews:     &models.Reviews{WidgetPresent: true, Count: 212, Rating: 4.7},
		Shipping: &models.Shipping{
			Mentioned: true, AboveFold: true,
			Text: "Free shipping on orders over $75", FreeThreshold: 75,
		},
		Trust:  &models.Trust{Badges: []string{"money-back guarantee"}, PaymentIcons: []string{"visa", "paypal"}},
		Images: &models.Images{Total: 6, WithAlt: 5},
	}
	if diff := cmp.Diff(want, pages[0].Metrics); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
	if pages[0].Type != models.PageProduct {
		t.Errorf("type: got %s, want product", pages[0].Type)
	}
	if !pages[0].CreatedAt.Equal(fixed) {
		t.Errorf("createdAt: got %v, want %v", pages[0].CreatedAt, fixed)
	}
}

func TestNormalizerLeavesUncountedImagesUnmeasured(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	tests := []struct {
		name string
		raw  *models.RawPage
		want *models.Images
	}{
		{"no count", &models.RawPage{URL: "https://shop.example.com/"}, nil},
		{"negative count", &models.RawPage{URL: "https://shop.example.com/", ImageCount: intPtr(-1)}, nil},
		{"counted zero", &models.RawPage{URL: "https://shop.example.com/", ImageCount: intPtr(0), ImagesWithAlt: intPtr(0)}, &models.Images{}},
		{"count without alt", &models.RawPage{URL: "https://shop.example.com/", ImageCount: intPtr(4)}, &models.Images{Total: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := n.Normalize("crawl-1", []*models.RawPage{tt.raw})
			if len(pages) != 1 {
				t.Fatalf("expected 1 page, got %d", len(pages))
			}
			if diff := cmp.Diff(tt.want, pages[0].Metrics.Images); diff != "" {
				t.Errorf("images mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUncountedImagesFailAltText(t *testing.T) {
	var raw []*models.RawPage
	if err := json.Unmarshal([]byte(`[{"url":"https://shop.example/"}]`), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	pages := NewNormalizer(newTestLogger()).Normalize("crawl-1", raw)
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}

	eval := heuristics.NewDefaultRegistry(config.DefaultThresholds()).Evaluate(pages[0])
	for _, o := range eval.Outcomes {
		if o.RuleID != models.RuleImageAltText {
			continue
		}
		if o.Passed || o.Score != 0 {
			t.Errorf("alt text outcome: got passed=%v score=%d, want a failure scoring 0", o.Passed, o.Score)
		}
		return
	}
	t.Fatal("no alt text outcome recorded")
}
