package quality_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"eventweave.app/planner/internal/model"
	"eventweave.app/planner/internal/quality"
)

var _ = Describe("Validator", func() {
	v := quality.NewValidator()

	It("scores a complete, fresh venue record highly", func() {
		record := map[string]any{
			"name":     "Grand Mansion",
			"capacity": 150.0,
			"price":    map[string]any{"space_rental": 3500.0},
		}
		report := v.Validate(model.CategoryVenue, record, time.Now())
		Expect(report.Complete).To(BeTrue())
		Expect(report.Fresh).To(BeTrue())
		Expect(report.MissingFields).To(BeEmpty())
		Expect(report.OverallScore).To(BeNumerically(">", 0.7))
	})

	It("flags missing critical fields", func() {
		record := map[string]any{"name": "Bare Hall"}
		report := v.Validate(model.CategoryVenue, record, time.Now())
		Expect(report.Complete).To(BeFalse())
		Expect(report.MissingFields).To(ContainElements("capacity", "price"))
	})

	It("resolves location aliases for catering", func() {
		record := map[string]any{
			"name":     "Banquet Co",
			"services": []any{"buffet"},
			"ubication": "Downtown",
			"price":    1200.0,
		}
		report := v.Validate(model.CategoryCatering, record, time.Now())
		Expect(report.MissingFields).NotTo(ContainElement("location"))
	})

	It("treats a node older than 90 days as stale", func() {
		record := map[string]any{
			"name": "Grand Mansion", "capacity": 150.0, "price": 3500.0,
		}
		report := v.Validate(model.CategoryVenue, record, time.Now().Add(-120*24*time.Hour))
		Expect(report.Fresh).To(BeFalse())
	})

	DescribeTable("ParseTimestamp normalizes trailing Z/UTC",
		func(input string) {
			_, err := quality.ParseTimestamp(input)
			Expect(err).NotTo(HaveOccurred())
		},
		Entry("RFC3339 with Z", "2024-01-02T15:04:05Z"),
		Entry("space-separated with UTC suffix", "2024-01-02 15:04:05 UTC"),
		Entry("date only", "2024-01-02"),
	)
})
