package quality

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"eventweave.app/planner/common/llm"
	"eventweave.app/planner/internal/graph"
	"eventweave.app/planner/internal/model"
	"eventweave.app/planner/internal/search"
)

// extraction is the LLM's structured response to an enrichment prompt:
// a superset of every field any category might be missing. Only the
// fields the prompt actually asked for are expected to be non-nil.
type extraction struct {
	Location    *string  `json:"location,omitempty" jsonschema_description:"Physical address or location, if present"`
	Price       *float64 `json:"price,omitempty" jsonschema_description:"A single representative price, if present"`
	Capacity    *float64 `json:"capacity,omitempty"`
	VenueType   *string  `json:"venue_type,omitempty"`
	Atmosphere  *string  `json:"atmosphere,omitempty"`
	Services    []string `json:"services,omitempty"`
	MealTypes   []string `json:"meal_types,omitempty"`
	DietaryOpts []string `json:"dietary_options,omitempty"`
	ServiceLvls []string `json:"service_levels,omitempty"`
	FloralArr   []string `json:"floral_arrangements,omitempty"`
}

// Enricher implements the four-step procedure of spec §4.5.
type Enricher struct {
	validator *Validator
	fetcher   *search.Fetcher
	secondary *search.GeneralSearchProvider
	llmClient llm.Client
}

func NewEnricher(validator *Validator, fetcher *search.Fetcher, secondary *search.GeneralSearchProvider, client llm.Client) *Enricher {
	return &Enricher{validator: validator, fetcher: fetcher, secondary: secondary, llmClient: client}
}

// Enrich mutates node in place. It returns whether the node actually
// changed (enrichment_applied) and the re-validated report.
func (e *Enricher) Enrich(ctx context.Context, node *graph.Node, category model.Category) (applied bool, report model.QualityReport, err error) {
	report = e.validator.Validate(category, node.OriginalData, node.Timestamp)
	if report.Complete && report.Fresh {
		return false, report, nil
	}

	before := fmt.Sprintf("%v", node.OriginalData)
	url, _ := node.OriginalData["url"].(string)
	if url == "" {
		url = node.ID
	}

	missing := report.MissingFields

	if len(missing) > 0 && url != "" {
		if body, ferr := e.fetcher.Fetch(ctx, url); ferr == nil {
			if ext, eerr := e.extract(ctx, body, missing); eerr == nil {
				mergeExtraction(node.OriginalData, ext)
				node.Timestamp = time.Now().UTC()
			} else {
				slog.DebugContext(ctx, "enrichment: llm extraction failed", "error", eerr)
			}
		} else {
			slog.DebugContext(ctx, "enrichment: primary fetch failed", "url", url, "error", ferr)
		}
	}

	report = e.validator.Validate(category, node.OriginalData, node.Timestamp)
	missing = report.MissingFields

	if len(missing) > 0 && usableName(node.Name) && e.secondary != nil {
		results, serr := e.secondary.Search(ctx, node.Name, missing)
		if serr == nil && len(results) > 0 {
			mergeSearchResult(node.OriginalData, results[0])
			node.Timestamp = time.Now().UTC()
		}
	}

	if len(report.MissingFields) == 0 && !report.Fresh {
		node.Timestamp = time.Now().UTC()
	}

	report = e.validator.Validate(category, node.OriginalData, node.Timestamp)
	applied = fmt.Sprintf("%v", node.OriginalData) != before
	return applied, report, nil
}

func (e *Enricher) extract(ctx context.Context, html string, missingFields []string) (extraction, error) {
	var result extraction
	if e.llmClient == nil {
		return result, fmt.Errorf("enrichment: no llm client configured")
	}

	prompt := fmt.Sprintf(
		"Extract the following fields if present in this page content: %s.\n\nContent:\n%s",
		strings.Join(missingFields, ", "), truncate(html, 6000),
	)

	_, err := e.llmClient.Chat(ctx, llm.Request{
		SystemPrompt: "You extract structured vendor data from raw web page text. Only fill fields you are confident about.",
		UserPrompt:   prompt,
		SchemaName:   "vendor_extraction",
		Schema:       llm.GenerateSchema[extraction](),
		MaxTokens:    500,
		Temperature:  llm.Temp(0),
	}, &result)
	return result, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func mergeExtraction(record map[string]any, ext extraction) {
	if ext.Location != nil && *ext.Location != "" {
		record["location"] = *ext.Location
	}
	if ext.Price != nil {
		record["price"] = *ext.Price
	}
	if ext.Capacity != nil {
		record["capacity"] = *ext.Capacity
	}
	if ext.VenueType != nil && *ext.VenueType != "" {
		record["venue_type"] = *ext.VenueType
	}
	if ext.Atmosphere != nil && *ext.Atmosphere != "" {
		record["atmosphere"] = *ext.Atmosphere
	}
	if len(ext.Services) > 0 {
		record["services"] = toAnySlice(ext.Services)
	}
	if len(ext.MealTypes) > 0 {
		record["meal_types"] = toAnySlice(ext.MealTypes)
	}
	if len(ext.DietaryOpts) > 0 {
		record["dietary_options"] = toAnySlice(ext.DietaryOpts)
	}
	if len(ext.ServiceLvls) > 0 {
		record["service_levels"] = toAnySlice(ext.ServiceLvls)
	}
	if len(ext.FloralArr) > 0 {
		record["floral_arrangements"] = toAnySlice(ext.FloralArr)
	}
}

func mergeSearchResult(record map[string]any, r search.Result) {
	for k, v := range r.Fields {
		if _, exists := record[k]; !exists {
			record[k] = v
		}
	}
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// usableName implements spec §4.5's secondary-source gate: not blank,
// not "Unknown", at least 3 characters, and not purely numeric.
func usableName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "unknown") || len(name) < 3 {
		return false
	}
	if _, err := strconv.ParseFloat(name, 64); err == nil {
		return false
	}
	return true
}

// RetroactiveSweep enriches every node of typ whose score is below 0.5
// with at least one missing field and a usable title+URL, keeping the
// update only if the score improves by >= 0.10.
func RetroactiveSweep(ctx context.Context, g *graph.Graph, category model.Category, enricher *Enricher) (swept int, err error) {
	for _, node := range g.Query() {
		before := enricher.validator.Validate(category, node.OriginalData, node.Timestamp)
		if before.OverallScore >= 0.5 || len(before.MissingFields) == 0 {
			continue
		}
		url, _ := node.OriginalData["url"].(string)
		if !usableName(node.Name) || url == "" {
			continue
		}

		snapshot := cloneRecord(node.OriginalData)
		snapshotTS := node.Timestamp

		_, after, eerr := enricher.Enrich(ctx, node, category)
		if eerr != nil {
			continue
		}
		if after.OverallScore-before.OverallScore < 0.10 {
			node.OriginalData = snapshot
			node.Timestamp = snapshotTS
			continue
		}
		swept++
	}
	return swept, nil
}

func cloneRecord(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = v
	}
	return out
}
