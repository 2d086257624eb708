package validation_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"eventweave.app/planner/internal/validation"
)

var _ = Describe("CriteriaValidator", func() {
	It("accepts a well-formed criteria body", func() {
		v, err := validation.NewCriteriaValidator()
		Expect(err).NotTo(HaveOccurred())

		errs := v.Validate([]byte(`{"total_budget": 20000, "guest_count": 100, "style": "classic"}`))
		Expect(errs).To(BeEmpty())
	})

	It("rejects a body missing guest_count", func() {
		v, err := validation.NewCriteriaValidator()
		Expect(err).NotTo(HaveOccurred())

		errs := v.Validate([]byte(`{"total_budget": 20000}`))
		Expect(errs).NotTo(BeEmpty())
	})

	It("rejects malformed JSON", func() {
		v, err := validation.NewCriteriaValidator()
		Expect(err).NotTo(HaveOccurred())

		errs := v.Validate([]byte(`not json`))
		Expect(errs).NotTo(BeEmpty())
	})

	It("rejects a negative total_budget", func() {
		v, err := validation.NewCriteriaValidator()
		Expect(err).NotTo(HaveOccurred())

		errs := v.Validate([]byte(`{"total_budget": -5, "guest_count": 10}`))
		Expect(errs).NotTo(BeEmpty())
	})
})
