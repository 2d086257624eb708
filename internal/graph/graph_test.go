package graph_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"eventweave.app/planner/internal/graph"
	"eventweave.app/planner/internal/model"
)

var _ = Describe("Graph", func() {
	var record map[string]any

	BeforeEach(func() {
		record = map[string]any{
			"name":     "Grand Mansion",
			"capacity": 150.0,
			"price":    map[string]any{"space_rental": 3500.0},
			"venue_type": "mansion",
		}
	})

	It("is idempotent: inserting the same record twice leaves the graph unchanged", func() {
		g := graph.New(model.CategoryVenue)
		g.Insert(record, "https://example.com/mansion", "Grand Mansion")
		firstCount := len(g.Query())
		firstEdges := g.FindByRelation(string(model.CategoryVenue), "venue_type")

		g.Insert(record, "https://example.com/mansion", "Grand Mansion")

		Expect(g.Query()).To(HaveLen(firstCount))
		Expect(g.FindByRelation(string(model.CategoryVenue), "venue_type")).To(HaveLen(len(firstEdges)))
	})

	It("canonicalizes URLs for content addressing", func() {
		g := graph.New(model.CategoryVenue)
		g.Insert(record, "HTTPS://Example.com/mansion/", "Grand Mansion")
		n, ok := g.Get(graph.CanonicalizeURL("https://example.com/mansion"))
		Expect(ok).To(BeTrue())
		Expect(n.Name).To(Equal("Grand Mansion"))
	})

	It("round-trips through save/load", func() {
		g := graph.New(model.CategoryVenue)
		g.Insert(record, "https://example.com/mansion", "Grand Mansion")

		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "venue_graph.json")
		Expect(g.Save(path)).To(Succeed())

		loaded, err := graph.Load(model.CategoryVenue, path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Query()).To(HaveLen(len(g.Query())))
	})

	It("falls back to an empty graph when the file is missing", func() {
		g, err := graph.Load(model.CategoryVenue, "/nonexistent/path.json")
		Expect(err).To(HaveOccurred())
		Expect(g.Query()).To(BeEmpty())
	})

	It("removes ERROR nodes and their incident edges via CleanErrors", func() {
		g := graph.New(model.CategoryVenue)
		g.Insert(record, "https://example.com/mansion", "Grand Mansion")
		g.Insert(map[string]any{"name": "ERROR"}, "https://example.com/broken", "ERROR")

		removed := g.CleanErrors()
		Expect(removed).To(Equal(1))
		_, ok := g.Get(graph.CanonicalizeURL("https://example.com/broken"))
		Expect(ok).To(BeFalse())
	})

	It("marks completeness per category's required fields", func() {
		g := graph.New(model.CategoryVenue)
		n := g.Insert(map[string]any{"name": "Bare Hall"}, "https://example.com/bare", "Bare Hall")
		Expect(n.Completeness).To(Equal("partial"))

		complete := g.Insert(record, "https://example.com/mansion", "Grand Mansion")
		Expect(complete.Completeness).To(Equal("complete"))
	})
})
