package worker

import "eventweave.app/planner/internal/model"

// ScoreWeights is the multi-factor scoring breakdown of spec §4.4: how
// much of a candidate's final score comes from optional-field coverage,
// inferred/enriched completeness, alignment with the retrieval layer's
// style recommendation, and a flat premium-signal bonus.
type ScoreWeights struct {
	OptionalField  float64
	Inference      float64
	StyleAlignment float64
	PremiumBonus   float64
}

var defaultWeights = ScoreWeights{
	OptionalField:  0.30,
	Inference:      0.20,
	StyleAlignment: 0.40,
	PremiumBonus:   0.10,
}

// CategoryConfig parameterizes the one Worker implementation per
// category: which optional fields count toward the coverage factor,
// which vocabulary counts as a premium signal, and how large a candidate
// pool must be before the coverage-check-then-crawl step skips crawling.
type CategoryConfig struct {
	Category          model.Category
	OptionalFields     []string
	PremiumSignals     []string
	CoverageThreshold int
	Weights           ScoreWeights
	TopN              int
}

func VenueConfig() CategoryConfig {
	return CategoryConfig{
		Category:          model.CategoryVenue,
		OptionalFields:     []string{"atmosphere", "venue_type", "services", "restrictions", "supported_events"},
		PremiumSignals:     []string{"luxury", "premium", "exclusive", "bridal_suite", "concierge"},
		CoverageThreshold: 10,
		Weights:           defaultWeights,
		TopN:              50,
	}
}

func CateringConfig() CategoryConfig {
	return CategoryConfig{
		Category:          model.CategoryCatering,
		OptionalFields:     []string{"meal_types", "dietary_options", "services"},
		PremiumSignals:     []string{"premium", "gourmet", "chef-curated", "plated"},
		CoverageThreshold: 10,
		Weights:           defaultWeights,
		TopN:              50,
	}
}

func DecorConfig() CategoryConfig {
	return CategoryConfig{
		Category:          model.CategoryDecor,
		OptionalFields:     []string{"service_levels", "floral_arrangements"},
		PremiumSignals:     []string{"luxury", "full-service", "bespoke", "premium"},
		CoverageThreshold: 10,
		Weights:           defaultWeights,
		TopN:              50,
	}
}
