package store_test

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"eventweave.app/planner/internal/model"
	"eventweave.app/planner/internal/store"
)

var _ = Describe("SessionMemory", func() {
	It("persists and reloads a session round-trip", func() {
		path := filepath.Join(GinkgoT().TempDir(), "session_memory.json")

		m, err := store.NewSessionMemory(path)
		Expect(err).NotTo(HaveOccurred())

		rec := store.SessionRecord{
			UserID:       "user-1",
			Beliefs:      *model.NewBeliefState(),
			CreatedAt:    time.Now().UTC(),
			LastActivity: time.Now().UTC(),
			Status:       store.SessionActive,
		}
		Expect(m.Put("session-1", rec)).To(Succeed())

		reloaded, err := store.NewSessionMemory(path)
		Expect(err).NotTo(HaveOccurred())
		got, ok := reloaded.Get("session-1")
		Expect(ok).To(BeTrue())
		Expect(got.UserID).To(Equal("user-1"))
		Expect(got.Status).To(Equal(store.SessionActive))
	})

	It("stamps archived_at on archival", func() {
		path := filepath.Join(GinkgoT().TempDir(), "session_memory.json")
		m, err := store.NewSessionMemory(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Put("session-2", store.SessionRecord{Status: store.SessionActive})).To(Succeed())

		Expect(m.SetStatus("session-2", store.SessionArchived)).To(Succeed())
		got, _ := m.Get("session-2")
		Expect(got.Status).To(Equal(store.SessionArchived))
		Expect(got.ArchivedAt).NotTo(BeNil())
	})

	It("errors when touching an unknown session", func() {
		path := filepath.Join(GinkgoT().TempDir(), "session_memory.json")
		m, _ := store.NewSessionMemory(path)
		err := m.Touch("missing", *model.NewBeliefState())
		Expect(err).To(HaveOccurred())
	})

	It("starts empty when no file exists yet", func() {
		path := filepath.Join(GinkgoT().TempDir(), "nonexistent.json")
		m, err := store.NewSessionMemory(path)
		Expect(err).NotTo(HaveOccurred())
		_, ok := m.Get("anything")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("UserPrefMemory", func() {
	It("persists and reloads preference weights", func() {
		path := filepath.Join(GinkgoT().TempDir(), "user_pref_memory.json")
		m, err := store.NewUserPrefMemory(path)
		Expect(err).NotTo(HaveOccurred())

		weights := map[model.Category]float64{
			model.CategoryVenue: 0.5, model.CategoryCatering: 0.3, model.CategoryDecor: 0.2,
		}
		Expect(m.Put("user-1", weights)).To(Succeed())

		reloaded, err := store.NewUserPrefMemory(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(reloaded.Get("user-1")[model.CategoryVenue]).To(BeNumerically("~", 0.5))
		Expect(reloaded.Get("unknown-user")).To(BeNil())
	})
})
