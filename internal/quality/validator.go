// Package quality implements the validator and enrichment engine of
// spec §4.5: completeness/freshness/accuracy scoring, enrichment
// priority assignment, the four-step enrichment procedure, and the
// retroactive batch sweep.
package quality

import (
	"strconv"
	"strings"
	"time"

	"eventweave.app/planner/internal/model"
)

// fieldGroup names one critical field and its aliases; a field is
// present iff any alias resolves to a non-empty value (spec §4.5).
type fieldGroup struct {
	name    string
	aliases []string
}

var criticalFields = map[model.Category][]fieldGroup{
	model.CategoryVenue: {
		{name: "name"},
		{name: "capacity"},
		{name: "price"},
	},
	model.CategoryCatering: {
		{name: "name"},
		{name: "services"},
		{name: "location", aliases: []string{"ubication", "address"}},
		{name: "price"},
	},
	model.CategoryDecor: {
		{name: "name"},
		{name: "price"},
		{name: "service_levels"},
		{name: "floral_arrangements"},
	},
}

const (
	completenessThreshold = 0.5
	freshnessMaxAge        = 90 * 24 * time.Hour
	accuracyThreshold      = 0.6
)

// Validator scores a node's quality against its category's critical
// field table.
type Validator struct{}

func NewValidator() *Validator { return &Validator{} }

// Validate produces a QualityReport for record, whose timestamp is the
// node's last-updated time.
func (v *Validator) Validate(category model.Category, record map[string]any, timestamp time.Time) model.QualityReport {
	groups := criticalFields[category]

	present := 0
	var missing []string
	for _, g := range groups {
		if valuePresent(record, g) {
			present++
		} else {
			missing = append(missing, g.name)
		}
	}
	completeness := 0.0
	if len(groups) > 0 {
		completeness = float64(present) / float64(len(groups))
	}

	age := time.Since(timestamp)
	fresh := age <= freshnessMaxAge
	freshness := 1.0
	if !fresh {
		freshness = clamp01(1.0 - float64(age-freshnessMaxAge)/float64(365*24*time.Hour))
	}

	accuracy, invalid := accuracyOf(category, record)

	overall := 0.4*completeness + 0.3*freshness + 0.3*accuracy

	report := model.QualityReport{
		Complete:          completeness >= completenessThreshold,
		Fresh:             fresh,
		Accurate:          accuracy >= accuracyThreshold,
		CompletenessScore: completeness,
		FreshnessScore:    freshness,
		AccuracyScore:     accuracy,
		OverallScore:      overall,
		MissingFields:     missing,
		InvalidFields:     invalid,
	}
	report.NeedsEnrichment = !report.Complete || !report.Fresh || overall < 0.7
	report.EnrichmentPriority = enrichmentPriority(overall, len(missing), fresh)
	return report
}

func valuePresent(record map[string]any, g fieldGroup) bool {
	if v, ok := record[g.name]; ok && !isEmpty(v) {
		return true
	}
	for _, alias := range g.aliases {
		if v, ok := record[alias]; ok && !isEmpty(v) {
			return true
		}
	}
	return false
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return t == 0
	case int:
		return t == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// accuracyOf runs per-field pattern checks: length bounds for
// title/location, numeric bounds for capacity/price, non-empty lists
// for list-valued fields. Returns the fraction of checks passed and the
// names of fields that failed.
func accuracyOf(category model.Category, record map[string]any) (float64, []string) {
	type check struct {
		field string
		ok    bool
	}
	var checks []check

	if name, ok := record["name"].(string); ok {
		checks = append(checks, check{"name", len(name) >= 2 && len(name) <= 200})
	}
	if loc, ok := record["location"].(string); ok {
		checks = append(checks, check{"location", len(loc) >= 2 && len(loc) <= 300})
	}
	if cap, ok := record["capacity"]; ok {
		n, isNum := asNumber(cap)
		checks = append(checks, check{"capacity", isNum && n > 0 && n < 1_000_000})
	}
	if price, ok := record["price"]; ok {
		checks = append(checks, check{"price", priceLooksValid(price)})
	}
	for _, listField := range []string{"services", "meal_types", "dietary_options", "service_levels", "floral_arrangements"} {
		if v, ok := record[listField].([]any); ok {
			checks = append(checks, check{listField, len(v) > 0})
		}
	}

	if len(checks) == 0 {
		return 1.0, nil
	}

	passed := 0
	var invalid []string
	for _, c := range checks {
		if c.ok {
			passed++
		} else {
			invalid = append(invalid, c.field)
		}
	}
	return float64(passed) / float64(len(checks)), invalid
}

func priceLooksValid(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		n, ok := asNumber(v)
		return ok && n >= 0
	}
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func enrichmentPriority(overall float64, missingCount int, fresh bool) int {
	priority := 1
	if overall < 0.5 {
		priority += 3
	} else if overall < 0.7 {
		priority += 1
	}
	priority += missingCount
	if !fresh {
		priority += 2
	}
	if priority < 1 {
		priority = 1
	}
	if priority > 10 {
		priority = 10
	}
	return priority
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// ParseTimestamp parses an ISO-8601 timestamp, accepting a trailing "Z"
// or "UTC" and normalizing a missing timezone to UTC, per spec §6.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "UTC")
	s = strings.TrimSpace(s)
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &time.ParseError{Layout: time.RFC3339, Value: s}
}
