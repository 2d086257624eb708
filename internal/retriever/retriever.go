// Package retriever implements the small in-process knowledge stores of
// spec §4.6: per-category pattern stores that recommend style-conditioned
// suggestions and log success/failure, plus the Planner's substring-keyed
// error-correction strategy catalogue.
package retriever

import (
	"strings"
	"sync"

	"eventweave.app/planner/internal/model"
)

// Suggestion is the structured recommendation a Store produces: curated
// defaults conditioned on style (and, for catering, dietary needs).
type Suggestion struct {
	Services           []string `json:"services,omitempty"`
	MealTypes          []string `json:"meal_types,omitempty"`
	DietaryNormalized  []string `json:"dietary_normalized,omitempty"`
	ServiceLevels      []string `json:"service_levels,omitempty"`
	FloralArrangements []string `json:"floral_arrangements,omitempty"`
	Rentals            []string `json:"rentals,omitempty"`
}

// Store holds one category's curated style table plus a running
// success-pattern log, updated by the worker after each search.
type Store struct {
	mu         sync.Mutex
	category   model.Category
	styleTable map[string]Suggestion
	defaults   Suggestion
	successes  map[string]int
	attempts   map[string]int
}

// NewStore builds a Store preloaded with the category's curated style
// table (spec §4.4's "illustrative" recommendation table — data, not
// code). Synonym normalization (e.g. "plated" -> "seated meal") for
// catering/decor vocabularies, pulled from original_source/Agents'
// *_manager.py files, lives in categorySynonyms (read through Synonyms).
func NewStore(category model.Category) *Store {
	return &Store{
		category:   category,
		styleTable: defaultStyleTables[category],
		defaults:   defaultSuggestion[category],
		successes:  make(map[string]int),
		attempts:   make(map[string]int),
	}
}

// Recommend returns the curated suggestion for style, falling back to
// the category's default when the style is unrecognized.
func (s *Store) Recommend(style string) Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sug, ok := s.styleTable[strings.ToLower(strings.TrimSpace(style))]; ok {
		return sug
	}
	return s.defaults
}

// Update records the outcome of applying a recommendation pattern.
func (s *Store) Update(pattern string, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[pattern]++
	if success {
		s.successes[pattern]++
	}
}

// SuccessRate reports the observed success ratio for a pattern, 0 if unseen.
func (s *Store) SuccessRate(pattern string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.attempts[pattern]
	if a == 0 {
		return 0
	}
	return float64(s.successes[pattern]) / float64(a)
}

var defaultSuggestion = map[model.Category]Suggestion{
	model.CategoryVenue: {Services: []string{"parking", "catering_kitchen"}},
	model.CategoryCatering: {
		Services: []string{"buffet"}, MealTypes: []string{"buffet"},
	},
	model.CategoryDecor: {
		ServiceLevels:      []string{"Standard Floral Design"},
		FloralArrangements: []string{"Centerpieces"},
	},
}

// defaultStyleTables is the curated style -> suggestion data, one table
// per category. Kept intentionally small; illustrative per spec §4.4.
var defaultStyleTables = map[model.Category]map[string]Suggestion{
	model.CategoryVenue: {
		"classic": {Services: []string{"valet", "in_house_catering"}},
		"modern":  {Services: []string{"av_equipment", "flexible_layout"}},
		"rustic":  {Services: []string{"outdoor_space", "string_lights"}},
		"luxury":  {Services: []string{"valet", "bridal_suite", "concierge"}},
	},
	model.CategoryCatering: {
		"standard": {MealTypes: []string{"plated"}, DietaryNormalized: []string{"vegetarian"}},
		"premium":  {MealTypes: []string{"plated", "seated meal"}, DietaryNormalized: []string{"vegan", "gluten-free"}},
		"buffet":   {MealTypes: []string{"buffet"}, DietaryNormalized: []string{"vegetarian", "vegan"}},
		"formal":   {MealTypes: []string{"seated meal"}, DietaryNormalized: []string{"vegan", "gluten-free", "kosher"}},
	},
	model.CategoryDecor: {
		"classic": {ServiceLevels: []string{"Full-Service Floral Design"}, FloralArrangements: []string{"Centerpieces", "Ceremony decor"}},
		"modern":  {ServiceLevels: []string{"Minimalist Design"}, FloralArrangements: []string{"Centerpieces"}},
		"rustic":  {ServiceLevels: []string{"Standard Floral Design"}, Rentals: []string{"wooden arches", "mason jars"}},
		"luxury":  {ServiceLevels: []string{"Full-Service Floral Design"}, FloralArrangements: []string{"Bouquets", "Centerpieces", "Ceremony decor"}, Rentals: []string{"chandeliers", "draping"}},
	},
}

// categorySynonyms maps a vocabulary term to its accepted aliases,
// e.g. "plated" <-> "seated meal" for catering meal types.
var categorySynonyms = map[model.Category]map[string][]string{
	model.CategoryCatering: {
		"plated":     {"seated meal"},
		"seated meal": {"plated"},
	},
	model.CategoryDecor: {
		"full-service floral design": {"premium floral design"},
	},
}

// Synonyms returns the alias list for value within a category's
// vocabulary, nil if none defined.
func Synonyms(category model.Category, value string) []string {
	table, ok := categorySynonyms[category]
	if !ok {
		return nil
	}
	return table[strings.ToLower(value)]
}

// BudgetPattern is a style's curated fractional split of a total budget
// across venue/catering/decor.
type BudgetPattern map[model.Category]float64

// budgetPatterns mirrors the planner retrieval layer's literal
// style -> distribution table (_examples/original_source/src/agents/
// planner/planner_rag.py's knowledge_base["budget_patterns"]): data, not
// code, the same way defaultStyleTables is. The original also reserves a
// share for "music"/"other" categories this module doesn't model; those
// shares are dropped and the remainder renormalized by
// RecommendBudgetDistribution.
var budgetPatterns = map[string]BudgetPattern{
	"standard": {model.CategoryVenue: 0.40, model.CategoryCatering: 0.30, model.CategoryDecor: 0.15},
	"premium":  {model.CategoryVenue: 0.35, model.CategoryCatering: 0.35, model.CategoryDecor: 0.20},
	"budget":   {model.CategoryVenue: 0.45, model.CategoryCatering: 0.25, model.CategoryDecor: 0.15},
}

// RecommendBudgetDistribution is the planner retrieval layer's
// get_budget_distribution: the curated fractional split for style,
// falling back to "standard" for an unrecognized one, renormalized to
// sum to 1.0 over the categories this module tracks. The simulated
// annealer seeds its initial state from this (spec §4.3).
func RecommendBudgetDistribution(style string) BudgetPattern {
	pattern, ok := budgetPatterns[strings.ToLower(strings.TrimSpace(style))]
	if !ok {
		pattern = budgetPatterns["standard"]
	}
	var sum float64
	for _, c := range model.Categories {
		sum += pattern[c]
	}
	out := make(BudgetPattern, len(model.Categories))
	for _, c := range model.Categories {
		if sum > 0 {
			out[c] = pattern[c] / sum
		}
	}
	return out
}
