package model

import "strconv"

// NormalizePrice collapses the several shapes a vendor's "price" field can
// take on the wire — a bare number, a digit string, or a nested map/list of
// line items (e.g. {"space_rental": 3500, "cleaning_fee": 200}) — into a
// min/max/count summary. Shared by the budget distributor and the category
// workers, both of which need a single comparable number from whatever
// shape a given vendor happened to report.
func NormalizePrice(v any) (min, max float64, count int, ok bool) {
	min, max = 0, 0
	collect(v, &min, &max, &count)
	return min, max, count, count > 0
}

func collect(v any, min, max *float64, count *int) {
	switch t := v.(type) {
	case nil:
		return
	case float64:
		note(t, min, max, count)
	case int:
		note(float64(t), min, max, count)
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			note(f, min, max, count)
		}
	case map[string]any:
		for _, sub := range t {
			collect(sub, min, max, count)
		}
	case []any:
		for _, sub := range t {
			collect(sub, min, max, count)
		}
	}
}

func note(f float64, min, max *float64, count *int) {
	if *count == 0 {
		*min, *max = f, f
	} else {
		if f < *min {
			*min = f
		}
		if f > *max {
			*max = f
		}
	}
	*count++
}

// RepresentativePrice returns a single number for a price value: for a
// bare number, that number; for a multi-leaf shape, the sum of its leaves
// (a venue's total quoted cost is rental + fees, not just the cheapest line
// item).
func RepresentativePrice(v any) (float64, bool) {
	switch t := v.(type) {
	case map[string]any, []any:
		var sum float64
		var count int
		sumLeaves(t, &sum, &count)
		return sum, count > 0
	default:
		min, _, count, ok := NormalizePrice(v)
		return min, ok && count > 0
	}
}

func sumLeaves(v any, sum *float64, count *int) {
	switch t := v.(type) {
	case float64:
		*sum += t
		*count++
	case int:
		*sum += float64(t)
		*count++
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			*sum += f
			*count++
		}
	case map[string]any:
		for _, sub := range t {
			sumLeaves(sub, sum, count)
		}
	case []any:
		for _, sub := range t {
			sumLeaves(sub, sum, count)
		}
	}
}
