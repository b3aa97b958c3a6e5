package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"cro-audit/models"
)

// ErrInvalidRubric is returned when a rubric file holds unusable values.
var ErrInvalidRubric = errors.New("invalid rubric")

type HeroCTAThresholds struct {
	MinWidth        float64 `yaml:"min_width"`
	MinHeight       float64 `yaml:"min_height"`
	WeakSignalRatio float64 `yaml:"weak_signal_ratio"`
}

type HeadlineThresholds struct {
	MinWords     int     `yaml:"min_words"`
	MaxWords     int     `yaml:"max_words"`
	PartialRatio float64 `yaml:"partial_ratio"`
}

type HeroImageThresholds struct {
	MinWidth     int     `yaml:"min_width"`
	MaxBytes     int64   `yaml:"max_bytes"`
	PartialRatio float64 `yaml:"partial_ratio"`
}

type SocialProofThresholds struct {
	MinReviews   int     `yaml:"min_reviews"`
	MinRating    float64 `yaml:"min_rating"`
	PartialRatio float64 `yaml:"partial_ratio"`
}

type AltTextThresholds struct {
	TargetCoverage float64 `yaml:"target_coverage"`
	MinCoverage    float64 `yaml:"min_coverage"`
	PartialRatio   float64 `yaml:"partial_ratio"`
}

type PageSpeedThresholds struct {
	TargetMs     float64 `yaml:"target_ms"`
	CriticalMs   float64 `yaml:"critical_ms"`
	PartialRatio float64 `yaml:"partial_ratio"`
}

// RatioOnly is used by rules whose only tunable is the partial-credit ratio.
type RatioOnly struct {
	PartialRatio float64 `yaml:"partial_ratio"`
}

// Thresholds carries every constant the heuristic rules depend on. Each rule
// receives it at construction time.
type Thresholds struct {
	HeroCTA     HeroCTAThresholds     `yaml:"hero_cta"`
	Headline    HeadlineThresholds    `yaml:"headline"`
	HeroImage   HeroImageThresholds   `yaml:"hero_image"`
	Price       RatioOnly             `yaml:"price"`
	SocialProof SocialProofThresholds `yaml:"social_proof"`
	Shipping    RatioOnly             `yaml:"shipping"`
	Trust       RatioOnly             `yaml:"trust"`
	StickyCart  RatioOnly             `yaml:"sticky_cart"`
	AltText     AltTextThresholds     `yaml:"alt_text"`
	PageSpeed   PageSpeedThresholds   `yaml:"page_speed"`
}

// DefaultThresholds returns the stock rule constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HeroCTA:     HeroCTAThresholds{MinWidth: 120, MinHeight: 35, WeakSignalRatio: 0.47},
		Headline:    HeadlineThresholds{MinWords: 3, MaxWords: 12, PartialRatio: 0.5},
		HeroImage:   HeroImageThresholds{MinWidth: 600, MaxBytes: 500 * 1024, PartialRatio: 0.5},
		Price:       RatioOnly{PartialRatio: 0.5},
		SocialProof: SocialProofThresholds{MinReviews: 5, MinRating: 4.0, PartialRatio: 0.5},
		Shipping:    RatioOnly{PartialRatio: 0.6},
		Trust:       RatioOnly{PartialRatio: 0.5},
		StickyCart:  RatioOnly{PartialRatio: 0.5},
		AltText:     AltTextThresholds{TargetCoverage: 0.9, MinCoverage: 0.5, PartialRatio: 0.6},
		PageSpeed:   PageSpeedThresholds{TargetMs: 3000, CriticalMs: 5000, PartialRatio: 0.5},
	}
}

// Rubric weights categories for the overall site score.
type Rubric struct {
	Weights    map[models.Category]float64 `yaml:"weights"`
	Thresholds Thresholds                  `yaml:"thresholds"`
}

// DefaultRubric weights conversion highest and mobile lowest.
func DefaultRubric() Rubric {
	return Rubric{
		Weights: map[models.Category]float64{
			models.CategoryConversion:  0.40,
			models.CategoryTrust:       0.25,
			models.CategoryPerformance: 0.20,
			models.CategoryMobile:      0.15,
		},
		Thresholds: DefaultThresholds(),
	}
}

// LoadRubric reads a YAML rubric file on top of DefaultRubric. An empty
// path returns the defaults.
func LoadRubric(path string) (Rubric, error) {
	r := DefaultRubric()
	if path == "" {
		return r, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rubric{}, fmt.Errorf("rubric: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rubric{}, fmt.Errorf("rubric: parse %q: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return Rubric{}, err
	}
	return r, nil
}

// Validate rejects unknown categories, negative or all-zero weights, and
// out-of-range thresholds.
func (r Rubric) Validate() error {
	var total float64
	for cat, w := range r.Weights {
		if !knownCategory(cat) {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidRubric, cat)
		}
		if w < 0 {
			return fmt.Errorf("%w: weight for %s is negative", ErrInvalidRubric, cat)
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("%w: all category weights are zero", ErrInvalidRubric)
	}
	return r.Thresholds.Validate()
}

// Validate checks that ratios are in [0,1] and bounds are ordered.
func (t Thresholds) Validate() error {
	ratios := map[string]float64{
		"hero_cta.weak_signal_ratio": t.HeroCTA.WeakSignalRatio,
		"headline.partial_ratio":     t.Headline.PartialRatio,
		"hero_image.partial_ratio":   t.HeroImage.PartialRatio,
		"price.partial_ratio":        t.Price.PartialRatio,
		"social_proof.partial_ratio": t.SocialProof.PartialRatio,
		"shipping.partial_ratio":     t.Shipping.PartialRatio,
		"trust.partial_ratio":        t.Trust.PartialRatio,
		"sticky_cart.partial_ratio":  t.StickyCart.PartialRatio,
		"alt_text.partial_ratio":     t.AltText.PartialRatio,
		"alt_text.target_coverage":   t.AltText.TargetCoverage,
		"alt_text.min_coverage":      t.AltText.MinCoverage,
		"page_speed.partial_ratio":   t.PageSpeed.PartialRatio,
	}
	for name, v := range ratios {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be within [0,1], got %v", ErrInvalidRubric, name, v)
		}
	}
	if t.Headline.MinWords > t.Headline.MaxWords {
		return fmt.Errorf("%w: headline.min_words exceeds max_words", ErrInvalidRubric)
	}
	if t.AltText.MinCoverage > t.AltText.TargetCoverage {
		return fmt.Errorf("%w: alt_text.min_coverage exceeds target_coverage", ErrInvalidRubric)
	}
	if t.PageSpeed.TargetMs <= 0 || t.PageSpeed.TargetMs > t.PageSpeed.CriticalMs {
		return fmt.Errorf("%w: page_speed.target_ms must be positive and <= critical_ms", ErrInvalidRubric)
	}
	return nil
}

func knownCategory(c models.Category) bool {
	for _, known := range models.AllCategories {
		if c == known {
			return true
		}
	}
	return false
}
