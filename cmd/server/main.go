package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jokari/knowledgehub"
	"github.com/jokari/knowledgehub/review"
	"github.com/jokari/knowledgehub/schema"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := knowledgehub.LoadConfigFromEnv(knowledgehub.DefaultConfig())
	if cfg.LLMProvider == "llm" && cfg.AnthropicAPIKey == "" {
		slog.Error("KH_LLM_PROVIDER=llm requires KH_ANTHROPIC_API_KEY")
		os.Exit(1)
	}

	engine, err := knowledgehub.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	reviewCtl := review.New(engine.Store(), schema.Default())

	h := newHandler(engine, reviewCtl, cfg)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /upload", h.handleUpload)
	mux.HandleFunc("GET /upload/doc-types", h.handleDocTypes)

	mux.HandleFunc("GET /documents", h.handleListDocuments)
	mux.HandleFunc("GET /documents/{id}", h.handleGetDocument)
	mux.HandleFunc("GET /documents/{id}/status", h.handleDocumentStatus)
	mux.HandleFunc("GET /documents/{id}/chunks", h.handleDocumentChunks)
	mux.HandleFunc("GET /documents/{id}/records", h.handleDocumentRecords)
	mux.HandleFunc("DELETE /documents/{id}", h.handleDeleteDocument)

	mux.HandleFunc("GET /review", h.handleListReview)
	mux.HandleFunc("GET /review/{id}", h.handleGetReviewRecord)
	mux.HandleFunc("POST /review/{id}/approve", h.handleApproveRecord)
	mux.HandleFunc("POST /review/{id}/reject", h.handleRejectRecord)
	mux.HandleFunc("PUT /review/{id}", h.handleEditRecord)
	mux.HandleFunc("GET /review/updates/pending", h.handleListPendingUpdates)
	mux.HandleFunc("GET /review/updates/{id}", h.handleGetUpdate)
	mux.HandleFunc("POST /review/updates/{id}/approve", h.handleApproveUpdate)
	mux.HandleFunc("POST /review/updates/{id}/reject", h.handleRejectUpdate)

	mux.HandleFunc("GET /knowledge/search", h.handleKnowledgeSearch)
	mux.HandleFunc("GET /knowledge/schemas", h.handleKnowledgeSchemas)
	mux.HandleFunc("GET /knowledge/stats", h.handleKnowledgeStats)

	mux.HandleFunc("GET /dashboard/stats", h.handleDashboardStats)
	mux.HandleFunc("GET /dashboard/activity", h.handleDashboardActivity)

	mux.HandleFunc("GET /health", h.handleHealth)

	// Middleware chain: recovery -> cors -> auth -> logging -> mux
	var handler http.Handler = mux
	handler = logMiddleware(handler)
	handler = authMiddleware(cfg.APIKey, handler)
	handler = corsMiddleware(cfg.CORSOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // ingestion requests can run long
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
