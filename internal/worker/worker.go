// Package worker implements the category worker contract of spec §4.4:
// one generic Worker, parameterized per category, that compiles mandatory
// constraints into predicates, checks existing graph coverage before
// crawling, filters, scores, and returns the top candidates.
package worker

import (
	"context"
	"log/slog"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"eventweave.app/planner/internal/crawler"
	"eventweave.app/planner/internal/graph"
	"eventweave.app/planner/internal/model"
	"eventweave.app/planner/internal/retriever"
)

// Worker searches one category's knowledge graph for candidates matching
// a request's mandatory constraints, enriching the graph via the crawler's Ingest only
// when existing coverage falls short.
type Worker struct {
	config  CategoryConfig
	store   *retriever.Store
	crawler crawler.Crawler
}

func New(config CategoryConfig, store *retriever.Store, c crawler.Crawler) *Worker {
	if c == nil {
		c = crawler.NoopCrawler{}
	}
	return &Worker{config: config, store: store, crawler: c}
}

// Search implements the coverage-check-then-crawl-then-filter-then-score
// pipeline. seedURLs are passed to the crawler only if coverage is short.
func (w *Worker) Search(ctx context.Context, g *graph.Graph, criteria model.CategoryCriteria, style string, seedURLs []string) ([]model.VendorRecord, error) {
	predicates, err := w.compilePredicates(criteria)
	if err != nil {
		return nil, err
	}

	candidates := w.filter(g, predicates)
	if len(candidates) < w.config.CoverageThreshold && len(seedURLs) > 0 {
		ingested, cerr := w.crawler.Ingest(ctx, seedURLs, w.config.CoverageThreshold-len(candidates))
		if cerr != nil {
			slog.WarnContext(ctx, "worker: crawl failed, proceeding with existing coverage",
				"category", w.config.Category, "error", cerr)
		} else if ingested > 0 {
			candidates = w.filter(g, predicates)
		}
	}

	suggestion := retriever.Suggestion{}
	if w.store != nil {
		suggestion = w.store.Recommend(style)
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for _, node := range candidates {
		s := score(node.OriginalData, w.config, suggestion)
		scored = append(scored, scoredCandidate{node: node, score: s})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	top := w.config.TopN
	if top <= 0 || top > len(scored) {
		top = len(scored)
	}

	out := make([]model.VendorRecord, 0, top)
	for _, c := range scored[:top] {
		out = append(out, toVendorRecord(w.config.Category, c.node, c.score))
	}
	return out, nil
}

type scoredCandidate struct {
	node  *graph.Node
	score float64
}

func (w *Worker) compilePredicates(criteria model.CategoryCriteria) ([]*vm.Program, error) {
	predicates := make([]*vm.Program, 0, len(criteria.Mandatory))
	for _, field := range criteria.Mandatory {
		expected, ok := criteria.Attr(field)
		prog, err := compileMandatory(w.config.Category, field, expected, ok)
		if err != nil {
			return nil, err
		}
		predicates = append(predicates, prog)
	}
	return predicates, nil
}

func (w *Worker) filter(g *graph.Graph, predicates []*vm.Program) []*graph.Node {
	var out []*graph.Node
	for _, node := range g.Query() {
		if matchesAll(node.OriginalData, predicates) {
			out = append(out, node)
		}
	}
	return out
}

func matchesAll(record map[string]any, predicates []*vm.Program) bool {
	env := predicateEnv{Record: record}
	for _, p := range predicates {
		result, err := expr.Run(p, env)
		if err != nil {
			return false
		}
		ok, _ := result.(bool)
		if !ok {
			return false
		}
	}
	return true
}

func toVendorRecord(category model.Category, node *graph.Node, score float64) model.VendorRecord {
	record := node.OriginalData
	price, _ := model.RepresentativePrice(record["price"])

	var capacity *float64
	if n, ok := asNumber(record["capacity"]); ok {
		capacity = &n
	}
	var location *string
	if loc := stringify(firstNonNil(record["location"], record["ubication"], record["address"])); loc != "" {
		location = &loc
	}

	return model.VendorRecord{
		Type:     category,
		Name:     node.Name,
		URL:      node.ID,
		Price:    price,
		Capacity: capacity,
		Location: location,
		Score:    score,
		Raw:      record,
	}
}

func firstNonNil(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
