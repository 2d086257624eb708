package planner_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"eventweave.app/planner/common/llm"
	"eventweave.app/planner/core/config"
	"eventweave.app/planner/internal/bus"
	"eventweave.app/planner/internal/graph"
	"eventweave.app/planner/internal/model"
	"eventweave.app/planner/internal/planner"
	"eventweave.app/planner/internal/retriever"
	"eventweave.app/planner/internal/store"
	"eventweave.app/planner/internal/worker"
)

func newDeps(dir string) planner.Dependencies {
	b := bus.New(nil)
	b.Run(context.Background())

	graphs := map[model.Category]*graph.Graph{}
	retrievers := map[model.Category]*retriever.Store{}
	workers := map[model.Category]*worker.Worker{}

	configs := map[model.Category]worker.CategoryConfig{
		model.CategoryVenue:    worker.VenueConfig(),
		model.CategoryCatering: worker.CateringConfig(),
		model.CategoryDecor:    worker.DecorConfig(),
	}

	for _, c := range model.Categories {
		g := graph.New(c)
		graphs[c] = g
		r := retriever.NewStore(c)
		retrievers[c] = r
		workers[c] = worker.New(configs[c], r, nil)
	}

	sessions, err := store.NewSessionMemory(filepath.Join(dir, "sessions.json"))
	Expect(err).NotTo(HaveOccurred())
	prefs, err := store.NewUserPrefMemory(filepath.Join(dir, "prefs.json"))
	Expect(err).NotTo(HaveOccurred())

	return planner.Dependencies{
		Bus:        b,
		Sessions:   sessions,
		Prefs:      prefs,
		Graphs:     graphs,
		Workers:    workers,
		Retrievers: retrievers,
		LLM:        llm.NewMock("mock-planner"),
		Config:     config.PlannerConfig{MaxRetries: 2},
	}
}

func seedVenue(g *graph.Graph, name string, capacity float64, price float64) {
	g.Insert(map[string]any{
		"name":     name,
		"capacity": capacity,
		"price":    price,
		"services": []any{"bridal_suite"},
	}, "https://example.com/venues/"+name, name)
}

var _ = Describe("Planner", func() {
	var (
		deps     planner.Dependencies
		p        *planner.Planner
		criteria model.Criteria
	)

	BeforeEach(func() {
		deps = newDeps(GinkgoT().TempDir())

		seedVenue(deps.Graphs[model.CategoryVenue], "Grand Hall", 200, 4000)
		seedVenue(deps.Graphs[model.CategoryCatering], "Seaside Catering", 200, 3000)
		seedVenue(deps.Graphs[model.CategoryDecor], "Bloom Decor", 200, 1500)

		p = planner.New(deps)

		criteria = model.Criteria{
			TotalBudget: 20000,
			GuestCount:  150,
			Style:       "classic",
			Categories: map[model.Category]model.CategoryCriteria{
				model.CategoryVenue:    {Attributes: map[string]any{}},
				model.CategoryCatering: {Attributes: map[string]any{}},
				model.CategoryDecor:    {Attributes: map[string]any{}},
			},
		}
	})

	It("runs a full request cycle and completes every category", func() {
		sessionID, err := p.CreateSession(context.Background(), "user-1")
		Expect(err).NotTo(HaveOccurred())

		resp, err := p.HandleRequest(context.Background(), sessionID, criteria)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.SessionID).To(Equal(sessionID))
		Expect(resp.Summary.Completed[model.CategoryVenue]).To(BeTrue())
		Expect(resp.Summary.Completed[model.CategoryCatering]).To(BeTrue())
		Expect(resp.Summary.Completed[model.CategoryDecor]).To(BeTrue())
		Expect(resp.Summary.State).To(Equal(model.StateCompleted))
		Expect(resp.Results[model.CategoryVenue]).NotTo(BeNil())
	})

	It("leaves a category incomplete without crashing when its graph is empty", func() {
		deps2 := newDeps(GinkgoT().TempDir())
		seedVenue(deps2.Graphs[model.CategoryVenue], "Grand Hall", 200, 4000)
		seedVenue(deps2.Graphs[model.CategoryDecor], "Bloom Decor", 200, 1500)
		// catering graph stays empty: no candidates will ever be found.

		p2 := planner.New(deps2)
		sessionID, err := p2.CreateSession(context.Background(), "user-2")
		Expect(err).NotTo(HaveOccurred())
		resp, err := p2.HandleRequest(context.Background(), sessionID, criteria)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Summary.Completed[model.CategoryCatering]).To(BeFalse())
		Expect(resp.Summary.Conflicts).To(BeNumerically(">", 0))
		Expect(resp.Summary.State).To(Equal(model.StateErrorRecovery))
	})

	It("forks a new session and re-runs only the corrected category on HandleCorrection", func() {
		sessionID, err := p.CreateSession(context.Background(), "user-3")
		Expect(err).NotTo(HaveOccurred())
		resp, err := p.HandleRequest(context.Background(), sessionID, criteria)
		Expect(err).NotTo(HaveOccurred())

		seedVenue(deps.Graphs[model.CategoryVenue], "Budget Barn", 80, 1200)
		updates := model.Criteria{
			Categories: map[model.Category]model.CategoryCriteria{
				model.CategoryVenue: {Mandatory: []string{"capacity"}, Attributes: map[string]any{"capacity": 50.0}},
			},
		}
		corrected, err := p.HandleCorrection(context.Background(), resp.SessionID, "user-3", updates)
		Expect(err).NotTo(HaveOccurred())
		Expect(corrected.IsCorrection).To(BeTrue())
		Expect(corrected.SessionID).NotTo(Equal(resp.SessionID))
		Expect(corrected.Summary.Completed[model.CategoryVenue]).To(BeTrue())
		Expect(corrected.Summary.Completed[model.CategoryCatering]).To(BeTrue())
	})

	It("rejects a correction against an unknown session", func() {
		_, err := p.HandleCorrection(context.Background(), "no-such-session", "user-x", model.Criteria{})
		Expect(err).To(HaveOccurred())
	})
})
