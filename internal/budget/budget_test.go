package budget_test

import (
	"context"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"eventweave.app/planner/internal/budget"
	"eventweave.app/planner/internal/graph"
	"eventweave.app/planner/internal/model"
)

var _ = Describe("Weights", func() {
	It("falls back to defaults with no LLM client", func() {
		w, err := budget.InferPriorities(context.Background(), model.Criteria{TotalBudget: 20000, GuestCount: 100}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(w[model.CategoryVenue]).To(BeNumerically("~", 0.40))
	})

	It("merges history and current with a higher learning rate when they agree", func() {
		history := budget.Weights{model.CategoryVenue: 0.5, model.CategoryCatering: 0.3, model.CategoryDecor: 0.2}
		current := budget.Weights{model.CategoryVenue: 0.5, model.CategoryCatering: 0.3, model.CategoryDecor: 0.2}
		merged := budget.MergeWithHistory(history, current)
		Expect(merged[model.CategoryVenue]).To(BeNumerically("~", 0.5, 0.01))
	})

	It("leans on history more when current sharply disagrees", func() {
		history := budget.Weights{model.CategoryVenue: 0.6, model.CategoryCatering: 0.3, model.CategoryDecor: 0.1}
		current := budget.Weights{model.CategoryVenue: 0.1, model.CategoryCatering: 0.2, model.CategoryDecor: 0.7}
		merged := budget.MergeWithHistory(history, current)
		// alpha is only 0.7 even at minimum, so current still dominates somewhat,
		// but less than it would if the rankings agreed.
		agreeing := budget.MergeWithHistory(history, history)
		Expect(agreeing[model.CategoryVenue]).To(BeNumerically("~", 0.6, 0.01))
		Expect(merged[model.CategoryVenue]).To(BeNumerically("<", agreeing[model.CategoryVenue]))
	})
})

var _ = Describe("ScanPriceBounds", func() {
	It("finds the min and max representative price in a category graph", func() {
		g := graph.New(model.CategoryVenue)
		g.Insert(map[string]any{"name": "Cheap Hall", "price": 500.0}, "https://v.test/cheap", "Cheap Hall")
		g.Insert(map[string]any{"name": "Grand Mansion", "price": 4000.0}, "https://v.test/grand", "Grand Mansion")

		bounds := budget.ScanPriceBounds(map[model.Category]*graph.Graph{model.CategoryVenue: g})
		b := bounds[model.CategoryVenue]
		Expect(b.Min).To(BeNumerically("==", 500.0))
		Expect(b.Max).To(BeNumerically("==", 4000.0))
		Expect(b.Count).To(Equal(2))
	})
})

var _ = Describe("Distribute", func() {
	It("allocates the full budget across all three categories", func() {
		criteria := model.Criteria{TotalBudget: 30000, GuestCount: 150}
		weights := budget.DefaultWeights()
		bounds := map[model.Category]budget.PriceBounds{
			model.CategoryVenue:    {Min: 3000, Max: 15000, Count: 5},
			model.CategoryCatering: {Min: 2000, Max: 12000, Count: 5},
			model.CategoryDecor:    {Min: 500, Max: 8000, Count: 5},
		}
		rng := rand.New(rand.NewSource(42))

		alloc, finalCost := budget.Distribute(criteria, weights, bounds, rng)

		sum := 0
		for _, c := range model.Categories {
			sum += alloc[c]
			Expect(alloc[c]).To(BeNumerically(">=", 0))
		}
		Expect(sum).To(Equal(30000))
		Expect(finalCost).To(BeNumerically("<", 0)) // satisfaction term dominates with no penalties triggered
	})

	It("penalizes an allocation that can't afford a category's cheapest known option", func() {
		criteria := model.Criteria{TotalBudget: 5000, GuestCount: 150}
		weights := budget.Weights{model.CategoryVenue: 0.05, model.CategoryCatering: 0.05, model.CategoryDecor: 0.90}
		bounds := map[model.Category]budget.PriceBounds{
			model.CategoryVenue:    {Min: 4000, Max: 8000, Count: 3},
			model.CategoryCatering: {Min: 3000, Max: 6000, Count: 3},
			model.CategoryDecor:    {Min: 200, Max: 1000, Count: 3},
		}
		rng := rand.New(rand.NewSource(7))

		alloc, _ := budget.Distribute(criteria, weights, bounds, rng)
		sum := 0
		for _, c := range model.Categories {
			sum += alloc[c]
		}
		Expect(sum).To(Equal(5000))
	})
})

var _ = Describe("Explain", func() {
	It("renders a line per category", func() {
		text := budget.Explain(budget.DefaultWeights(), budget.Allocation{
			model.CategoryVenue: 8000, model.CategoryCatering: 7000, model.CategoryDecor: 5000,
		}, 20000)
		Expect(text).To(ContainSubstring("venue"))
		Expect(text).To(ContainSubstring("catering"))
		Expect(text).To(ContainSubstring("decor"))
	})
})
