package worker_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"eventweave.app/planner/internal/crawler"
	"eventweave.app/planner/internal/graph"
	"eventweave.app/planner/internal/model"
	"eventweave.app/planner/internal/retriever"
	"eventweave.app/planner/internal/worker"
)

var _ = Describe("Worker", func() {
	var g *graph.Graph

	BeforeEach(func() {
		g = graph.New(model.CategoryVenue)
		g.Insert(map[string]any{
			"name": "Grand Mansion", "capacity": 200.0, "price": 4000.0,
			"venue_type": "ballroom", "services": []any{"valet", "bridal_suite"},
		}, "https://venues.test/grand-mansion", "Grand Mansion")
		g.Insert(map[string]any{
			"name": "Tiny Loft", "capacity": 40.0, "price": 900.0,
			"venue_type": "loft", "services": []any{"parking"},
		}, "https://venues.test/tiny-loft", "Tiny Loft")
	})

	It("filters out candidates failing a numeric mandatory constraint", func() {
		w := worker.New(worker.VenueConfig(), retriever.NewStore(model.CategoryVenue), crawler.NoopCrawler{})
		criteria := model.CategoryCriteria{
			Mandatory:  []string{"capacity"},
			Attributes: map[string]any{"capacity": 100.0},
		}
		results, err := w.Search(context.Background(), g, criteria, "luxury", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Name).To(Equal("Grand Mansion"))
	})

	It("scores a premium-signal candidate above a plain one", func() {
		w := worker.New(worker.VenueConfig(), retriever.NewStore(model.CategoryVenue), crawler.NoopCrawler{})
		criteria := model.CategoryCriteria{Mandatory: []string{"name"}}
		results, err := w.Search(context.Background(), g, criteria, "luxury", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0].Name).To(Equal("Grand Mansion"))
		Expect(results[0].Score).To(BeNumerically(">", results[1].Score))
	})

	It("triggers a crawl when existing coverage is below threshold", func() {
		cfg := worker.VenueConfig()
		cfg.CoverageThreshold = 10
		w := worker.New(cfg, retriever.NewStore(model.CategoryVenue), crawler.NoopCrawler{})
		criteria := model.CategoryCriteria{Mandatory: []string{"name"}}
		results, err := w.Search(context.Background(), g, criteria, "classic", []string{"https://venues.test/seed"})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2)) // NoopCrawler ingests nothing, existing coverage stands
	})

	It("requires presence only when a mandatory field has no matching attribute", func() {
		w := worker.New(worker.VenueConfig(), retriever.NewStore(model.CategoryVenue), crawler.NoopCrawler{})
		criteria := model.CategoryCriteria{Mandatory: []string{"venue_type"}}
		results, err := w.Search(context.Background(), g, criteria, "classic", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
	})
})
