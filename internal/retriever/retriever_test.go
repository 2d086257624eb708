package retriever_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"eventweave.app/planner/internal/model"
	"eventweave.app/planner/internal/retriever"
)

var _ = Describe("Store", func() {
	It("returns the curated suggestion for a known style", func() {
		s := retriever.NewStore(model.CategoryDecor)
		sug := s.Recommend("Luxury")
		Expect(sug.ServiceLevels).To(ContainElement("Full-Service Floral Design"))
	})

	It("falls back to the category default for an unknown style", func() {
		s := retriever.NewStore(model.CategoryVenue)
		sug := s.Recommend("steampunk-industrial")
		Expect(sug).To(Equal(s.Recommend("")))
	})

	It("tracks success rate across updates", func() {
		s := retriever.NewStore(model.CategoryCatering)
		s.Update("premium_meal_types", true)
		s.Update("premium_meal_types", false)
		Expect(s.SuccessRate("premium_meal_types")).To(BeNumerically("~", 0.5))
		Expect(s.SuccessRate("never_seen")).To(BeZero())
	})

	It("resolves catering synonyms in both directions", func() {
		Expect(retriever.Synonyms(model.CategoryCatering, "plated")).To(ContainElement("seated meal"))
		Expect(retriever.Synonyms(model.CategoryCatering, "seated meal")).To(ContainElement("plated"))
	})
})

var _ = Describe("SuggestErrorCorrection", func() {
	It("recommends relaxing constraints on the first empty-result failure", func() {
		strategies := retriever.SuggestErrorCorrection("no results found for criteria", 0)
		Expect(strategies).To(HaveLen(1))
		Expect(strategies[0].Name).To(Equal("relax_constraints"))
	})

	It("escalates to a budget increase on the second empty-result failure", func() {
		strategies := retriever.SuggestErrorCorrection("no results found for criteria", 1)
		Expect(strategies[0].Name).To(Equal("budget_increase"))
	})

	It("returns nil once the bucket is exhausted", func() {
		strategies := retriever.SuggestErrorCorrection("no results found for criteria", 99)
		Expect(strategies).To(BeNil())
	})

	It("falls back to use_alternatives for unrecognized errors", func() {
		strategies := retriever.SuggestErrorCorrection("vendor API returned 500", 0)
		Expect(strategies[0].Name).To(Equal("use_alternatives"))
	})
})
