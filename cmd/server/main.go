package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"eventweave.app/planner/common/llm"
	"eventweave.app/planner/common/logger"
	"eventweave.app/planner/common/otel"
	"eventweave.app/planner/core/config"
	"eventweave.app/planner/internal/bus"
	"eventweave.app/planner/internal/graph"
	"eventweave.app/planner/internal/httpapi/handler"
	"eventweave.app/planner/internal/httpapi/middleware"
	httprouter "eventweave.app/planner/internal/httpapi/router"
	"eventweave.app/planner/internal/model"
	"eventweave.app/planner/internal/planner"
	"eventweave.app/planner/internal/quality"
	"eventweave.app/planner/internal/retriever"
	"eventweave.app/planner/internal/search"
	"eventweave.app/planner/internal/store"
	"eventweave.app/planner/internal/validation"
	"eventweave.app/planner/internal/worker"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg := config.Load()

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "eventweave planner starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		slog.ErrorContext(ctx, "failed to create data directory", "error", err)
		os.Exit(1)
	}

	graphs, err := loadGraphs(cfg.DataDir)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load knowledge graphs", "error", err)
		os.Exit(1)
	}

	sessions, err := store.NewSessionMemory(filepath.Join(cfg.DataDir, "session_memory.json"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to load session memory", "error", err)
		os.Exit(1)
	}
	prefs, err := store.NewUserPrefMemory(filepath.Join(cfg.DataDir, "user_pref_memory.json"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to load user preference memory", "error", err)
		os.Exit(1)
	}

	llmClient, err := newLLMClient(cfg.LLM)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize llm client, falling back to mock", "error", err)
		llmClient = llm.NewMock(cfg.LLM.Model)
	}

	var mirror bus.Mirror
	if cfg.Redis.Enabled {
		mirror = bus.NewRedisMirror(cfg.Redis.Addr, "eventweave.broadcast")
		slog.InfoContext(ctx, "redis broadcast mirror enabled", "addr", cfg.Redis.Addr)
	}
	messageBus := bus.New(mirror)
	for category, g := range graphs {
		messageBus.SetSharedData(string(category)+"_graph", g.Query())
	}
	messageBus.Run(ctx)

	retrievers := map[model.Category]*retriever.Store{}
	workers := map[model.Category]*worker.Worker{}
	for _, c := range model.Categories {
		retrievers[c] = retriever.NewStore(c)
		workers[c] = worker.New(workerConfigFor(c), retrievers[c], nil)
	}

	p := planner.New(planner.Dependencies{
		Bus:        messageBus,
		Sessions:   sessions,
		Prefs:      prefs,
		Graphs:     graphs,
		Workers:    workers,
		Retrievers: retrievers,
		LLM:        llmClient,
		Config:     cfg.Planner,
	})

	criteriaValidator, err := validation.NewCriteriaValidator()
	if err != nil {
		slog.ErrorContext(ctx, "failed to compile criteria schema", "error", err)
		os.Exit(1)
	}

	startEnrichmentSweep(ctx, cfg, graphs, llmClient)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, p, messageBus, criteriaValidator)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	for category, g := range graphs {
		if err := g.SaveRetry(graphPath(cfg.DataDir, category)); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to save graph on shutdown", "category", category, "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, p *planner.Planner, b *bus.Bus, v *validation.CriteriaValidator) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span -> Recovery catches panics -> Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, handler.New(p, b, v))

	return router
}

func graphPath(dataDir string, category model.Category) string {
	return filepath.Join(dataDir, string(category)+"_graph.json")
}

func loadGraphs(dataDir string) (map[model.Category]*graph.Graph, error) {
	graphs := make(map[model.Category]*graph.Graph, len(model.Categories))
	for _, c := range model.Categories {
		g, err := graph.Load(c, graphPath(dataDir, c))
		if err != nil {
			slog.Warn("starting with empty graph", "category", c, "error", err)
		}
		graphs[c] = g
	}
	return graphs, nil
}

func newLLMClient(cfg config.LLMConfig) (llm.Client, error) {
	if cfg.MockMode || cfg.Provider == "mock" {
		return llm.NewMock(cfg.Model), nil
	}
	switch cfg.Provider {
	case "anthropic":
		return llm.NewAnthropic(llm.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model})
	default:
		return llm.New(llm.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model})
	}
}

// startEnrichmentSweep runs the retroactive quality sweep (spec §4.5)
// once at startup and every hour thereafter, one category at a time so
// the single-writer-per-graph rule holds without extra locking.
func startEnrichmentSweep(ctx context.Context, cfg config.Config, graphs map[model.Category]*graph.Graph, client llm.Client) {
	validator := quality.NewValidator()
	fetcher := search.NewFetcher()
	secondary := search.NewGeneralSearchProvider(cfg.Search.TypesenseURL, cfg.Search.TypesenseAPIKey, cfg.Search.Collection)
	enricher := quality.NewEnricher(validator, fetcher, secondary, client)

	sweep := func() {
		for category, g := range graphs {
			swept, err := quality.RetroactiveSweep(ctx, g, category, enricher)
			if err != nil {
				slog.WarnContext(ctx, "retroactive sweep failed", "category", category, "error", err)
				continue
			}
			if swept > 0 {
				slog.InfoContext(ctx, "retroactive sweep enriched nodes", "category", category, "count", swept)
			}
		}
	}

	go func() {
		sweep()
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweep()
			}
		}
	}()
}

func workerConfigFor(c model.Category) worker.CategoryConfig {
	switch c {
	case model.CategoryVenue:
		return worker.VenueConfig()
	case model.CategoryCatering:
		return worker.CateringConfig()
	case model.CategoryDecor:
		return worker.DecorConfig()
	default:
		return worker.VenueConfig()
	}
}

const banner = `
███████╗██╗   ██╗███████╗███╗   ██╗████████╗██╗    ██╗███████╗ █████╗ ██╗   ██╗███████╗
██╔════╝██║   ██║██╔════╝████╗  ██║╚══██╔══╝██║    ██║██╔════╝██╔══██╗██║   ██║██╔════╝
█████╗  ██║   ██║█████╗  ██╔██╗ ██║   ██║   ██║ █╗ ██║█████╗  ███████║██║   ██║█████╗
██╔══╝  ╚██╗ ██╔╝██╔══╝  ██║╚██╗██║   ██║   ██║███╗██║██╔══╝  ██╔══██║╚██╗ ██╔╝██╔══╝
███████╗ ╚████╔╝ ███████╗██║ ╚████║   ██║   ╚███╔███╔╝███████╗██║  ██║ ╚████╔╝ ███████╗
╚══════╝  ╚═══╝  ╚══════╝╚═╝  ╚═══╝   ╚═╝    ╚══╝╚══╝ ╚══════╝╚═╝  ╚═╝  ╚═══╝  ╚══════╝
`
