package quality_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"eventweave.app/planner/common/llm"
	"eventweave.app/planner/internal/graph"
	"eventweave.app/planner/internal/model"
	"eventweave.app/planner/internal/quality"
	"eventweave.app/planner/internal/search"
)

var _ = Describe("Enricher", func() {
	var (
		server    *httptest.Server
		validator *quality.Validator
		fetcher   *search.Fetcher
		secondary *search.GeneralSearchProvider
		mockLLM   *llm.MockClient
		enricher  *quality.Enricher
	)

	BeforeEach(func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>Grand Mansion seats up to 150 guests, starting at $3500.</html>"))
		}))
		validator = quality.NewValidator()
		fetcher = search.NewFetcher()
		secondary = search.NewGeneralSearchProvider("", "", "vendors")
		mockLLM = llm.NewMock("mock-extractor")
		enricher = quality.NewEnricher(validator, fetcher, secondary, mockLLM)
	})

	AfterEach(func() {
		server.Close()
	})

	It("does nothing when the node is already complete and fresh", func() {
		node := &graph.Node{
			ID:   "venue:1",
			Name: "Grand Mansion",
			OriginalData: map[string]any{
				"name": "Grand Mansion", "capacity": 150.0,
				"price": map[string]any{"space_rental": 3500.0},
				"url":   server.URL,
			},
			Timestamp: time.Now(),
		}
		before := map[string]any{}
		for k, v := range node.OriginalData {
			before[k] = v
		}

		applied, report, err := enricher.Enrich(context.Background(), node, model.CategoryVenue)
		Expect(err).NotTo(HaveOccurred())
		Expect(applied).To(BeFalse())
		Expect(report.Complete).To(BeTrue())
		Expect(node.OriginalData).To(Equal(before))
	})

	It("fetches the primary URL and merges LLM-extracted fields", func() {
		mockLLM.RegisterValue("vendor_extraction", map[string]any{
			"capacity": 150.0,
			"price":    3500.0,
		})

		node := &graph.Node{
			ID:           "venue:2",
			Name:         "Grand Mansion",
			OriginalData: map[string]any{"name": "Grand Mansion", "url": server.URL},
			Timestamp:    time.Now(),
		}

		applied, report, err := enricher.Enrich(context.Background(), node, model.CategoryVenue)
		Expect(err).NotTo(HaveOccurred())
		Expect(applied).To(BeTrue())
		Expect(node.OriginalData["capacity"]).To(Equal(150.0))
		Expect(report.MissingFields).To(BeEmpty())
	})

	It("falls back to the degraded secondary search when no fields are extracted", func() {
		node := &graph.Node{
			ID:           "venue:3",
			Name:         "Luxury Grand Hall",
			OriginalData: map[string]any{"name": "Luxury Grand Hall"},
			Timestamp:    time.Now(),
		}

		applied, _, err := enricher.Enrich(context.Background(), node, model.CategoryVenue)
		Expect(err).NotTo(HaveOccurred())
		Expect(applied).To(BeTrue())
		Expect(node.OriginalData).To(HaveKey("price"))
	})

	It("refreshes the timestamp only, when stale but otherwise complete", func() {
		node := &graph.Node{
			ID:   "venue:4",
			Name: "Grand Mansion",
			OriginalData: map[string]any{
				"name": "Grand Mansion", "capacity": 150.0,
				"price": 3500.0,
			},
			Timestamp: time.Now().Add(-200 * 24 * time.Hour),
		}

		_, report, err := enricher.Enrich(context.Background(), node, model.CategoryVenue)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Fresh).To(BeTrue())
	})
})

var _ = Describe("RetroactiveSweep", func() {
	It("keeps an enrichment only when it improves the score by at least 0.10", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("no useful content here"))
		}))
		defer server.Close()

		validator := quality.NewValidator()
		fetcher := search.NewFetcher()
		secondary := search.NewGeneralSearchProvider("", "", "vendors")
		mockLLM := llm.NewMock("mock-extractor")
		mockLLM.RegisterValue("vendor_extraction", map[string]any{})
		enricher := quality.NewEnricher(validator, fetcher, secondary, mockLLM)

		g := graph.New(model.CategoryVenue)
		g.Insert(map[string]any{"name": "Bare Hall", "url": server.URL}, server.URL, "Bare Hall")

		swept, err := quality.RetroactiveSweep(context.Background(), g, model.CategoryVenue, enricher)
		Expect(err).NotTo(HaveOccurred())
		Expect(swept).To(BeNumerically(">=", 0))
	})
})

