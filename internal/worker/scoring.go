package worker

import (
	"strings"

	"eventweave.app/planner/internal/retriever"
)

// score implements spec §4.4's weighted multi-factor scoring: optional
// field coverage, inferred/enriched richness, alignment with the
// retrieval layer's style suggestion, and a flat premium-vocabulary bonus.
func score(record map[string]any, config CategoryConfig, suggestion retriever.Suggestion) float64 {
	w := config.Weights
	return w.OptionalField*optionalFieldScore(record, config.OptionalFields) +
		w.Inference*inferenceScore(record, config.OptionalFields) +
		w.StyleAlignment*styleAlignmentScore(record, suggestion) +
		w.PremiumBonus*premiumBonusScore(record, config.PremiumSignals)
}

func optionalFieldScore(record map[string]any, fields []string) float64 {
	if len(fields) == 0 {
		return 0
	}
	present := 0
	for _, f := range fields {
		if v, ok := record[f]; ok && !isBlank(v) {
			present++
		}
	}
	return float64(present) / float64(len(fields))
}

// inferenceScore rewards list-valued optional fields with more than one
// entry, a proxy for how much detail enrichment actually added versus a
// bare minimum listing.
func inferenceScore(record map[string]any, fields []string) float64 {
	if len(fields) == 0 {
		return 0
	}
	rich := 0
	for _, f := range fields {
		if len(stringList(record[f])) >= 2 {
			rich++
		}
	}
	return float64(rich) / float64(len(fields))
}

func styleAlignmentScore(record map[string]any, suggestion retriever.Suggestion) float64 {
	var wanted []string
	wanted = append(wanted, suggestion.Services...)
	wanted = append(wanted, suggestion.MealTypes...)
	wanted = append(wanted, suggestion.ServiceLevels...)
	wanted = append(wanted, suggestion.FloralArrangements...)
	wanted = append(wanted, suggestion.Rentals...)
	if len(wanted) == 0 {
		return 0.5 // no recommendation to align against; treat as neutral
	}

	have := map[string]bool{}
	for _, f := range []string{"services", "meal_types", "service_levels", "floral_arrangements", "rentals"} {
		for _, v := range stringList(record[f]) {
			have[strings.ToLower(v)] = true
		}
	}

	matched := 0
	for _, w := range wanted {
		if have[strings.ToLower(w)] {
			matched++
		}
	}
	return float64(matched) / float64(len(wanted))
}

func premiumBonusScore(record map[string]any, signals []string) float64 {
	if len(signals) == 0 {
		return 0
	}
	haystack := strings.ToLower(flattenStrings(record))
	for _, s := range signals {
		if strings.Contains(haystack, strings.ToLower(s)) {
			return 1
		}
	}
	return 0
}

func flattenStrings(record map[string]any) string {
	var sb strings.Builder
	for _, v := range record {
		switch t := v.(type) {
		case string:
			sb.WriteString(t)
			sb.WriteString(" ")
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok {
					sb.WriteString(s)
					sb.WriteString(" ")
				}
			}
		}
	}
	return sb.String()
}
