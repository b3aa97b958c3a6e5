package models

import "time"

// PageType classifies a storefront URL.
type PageType string

const (
	PageHome       PageType = "home"
	PageProduct    PageType = "product"
	PageCollection PageType = "collection"
	PageCart       PageType = "cart"
	PageCheckout   PageType = "checkout"
)

// AllPageTypes lists every page type in display order.
var AllPageTypes = []PageType{PageHome, PageProduct, PageCollection, PageCart, PageCheckout}

// Valid reports whether t is a known page type.
func (t PageType) Valid() bool {
	switch t {
	case PageHome, PageProduct, PageCollection, PageCart, PageCheckout:
		return true
	}
	return false
}

// RawPage holds unprocessed extractor output for one URL.
// Text fields are kept verbatim; the normalizer parses them. A nil
// ImageCount means the images were never counted.
type RawPage struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	ScrapedAt time.Time `json:"scrapedAt"`

	AboveFoldHeight int         `json:"aboveFoldHeight"`
	CTAButtons      []CTAButton `json:"ctaButtons"`
	Headline        string      `json:"headline"`
	HeroImage       *HeroImage  `json:"heroImage,omitempty"`
	LoadTimeMs      float64     `json:"loadTimeMs"`
	LCPMs           float64     `json:"lcpMs"`
	PriceText       string      `json:"priceText"`
	CompareAtText   string      `json:"compareAtText"`
	PriceVisible    bool        `json:"priceVisible"`
	PriceAboveFold  bool        `json:"priceAboveFold"`
	ReviewWidget    bool        `json:"reviewWidget"`
	ReviewText      string      `json:"reviewText"`
	ShippingText    string      `json:"shippingText"`
	ShippingAbove   bool        `json:"shippingAboveFold"`
	StickyCart      *StickyCart `json:"stickyCart,omitempty"`
	TrustBadges     []string    `json:"trustBadges"`
	PaymentIcons    []string    `json:"paymentIcons"`
	SecureCheckout  bool        `json:"secureCheckout"`
	ImageCount      *int        `json:"imageCount,omitempty"`
	ImagesWithAlt   *int        `json:"imagesWithAlt,omitempty"`
}

// Position is the top-left corner of an element in CSS pixels.
type Position struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// Size is an element's rendered box in CSS pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CTAButton is one call-to-action found above the fold. Prominent is the
// extractor's own judgement.
type CTAButton struct {
	Text      string   `json:"text"`
	Selector  string   `json:"selector"`
	Position  Position `json:"position"`
	Size      Size     `json:"size"`
	Prominent bool     `json:"prominent"`
}

// AboveFold describes what is visible without scrolling.
type AboveFold struct {
	CTAButtons []CTAButton `json:"ctaButtons"`
	Height     int         `json:"height"`
	Headline   *Headline   `json:"headline,omitempty"`
	HeroImage  *HeroImage  `json:"heroImage,omitempty"`
}

type Headline struct {
	Text string `json:"text"`
}

type HeroImage struct {
	Src    string `json:"src"`
	Alt    string `json:"alt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bytes  int64  `json:"bytes"`
}

// Performance timings in milliseconds. Zero means not measured.
type Performance struct {
	LoadTime               float64 `json:"loadTime"`
	LargestContentfulPaint float64 `json:"largestContentfulPaint,omitempty"`
}

type Price struct {
	Visible   bool    `json:"visible"`
	AboveFold bool    `json:"aboveFold"`
	Text      string  `json:"text"`
	Amount    float64 `json:"amount"`
	CompareAt float64 `json:"compareAt,omitempty"`
}

type Reviews struct {
	WidgetPresent bool    `json:"widgetPresent"`
	Count         int     `json:"count"`
	Rating        float64 `json:"rating"`
}

type Shipping struct {
	Mentioned     bool    `json:"mentioned"`
	AboveFold     bool    `json:"aboveFold"`
	Text          string  `json:"text"`
	FreeThreshold float64 `json:"freeThreshold,omitempty"`
}

type StickyCart struct {
	Present         bool `json:"present"`
	VisibleOnMobile bool `json:"visibleOnMobile"`
}

type Trust struct {
	Badges         []string `json:"badges"`
	PaymentIcons   []string `json:"paymentIcons"`
	SecureCheckout bool     `json:"secureCheckout"`
}

type Images struct {
	Total   int `json:"total"`
	WithAlt int `json:"withAlt"`
}

// PageMetrics is everything observed on one crawled page. A nil
// sub-object means the extractor could not measure that concern.
// Rules read PageMetrics and never modify it.
type PageMetrics struct {
	AboveFold   AboveFold    `json:"aboveFold"`
	Performance *Performance `json:"performance,omitempty"`
	Price       *Price       `json:"price,omitempty"`
	Reviews     *Reviews     `json:"reviews,omitempty"`
	Shipping    *Shipping    `json:"shipping,omitempty"`
	StickyCart  *StickyCart  `json:"stickyCart,omitempty"`
	Trust       *Trust       `json:"trust,omitempty"`
	Images      *Images      `json:"images,omitempty"`
}

// Page is one crawled URL of a crawl. Findings are attached after
// evaluation; nothing else changes once the page is created.
type Page struct {
	ID        string      `json:"id"`
	CrawlID   string      `json:"crawlId"`
	URL       string      `json:"url"`
	Type      PageType    `json:"type"`
	Metrics   PageMetrics `json:"metrics"`
	Findings  []Finding   `json:"findings,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// CrawlReport is the output of scoring one crawl.
type CrawlReport struct {
	CrawlID     string           `json:"crawlId"`
	Pages       []*Page          `json:"pages"`
	Evaluations []PageEvaluation `json:"evaluations"`
	Findings    []Finding        `json:"findings"`
	Score       SiteScore        `json:"score"`
	GeneratedAt time.Time        `json:"generatedAt"`
}
