package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/bookchat/api"
	"github.com/xiaot623/bookchat/config"
	"github.com/xiaot623/bookchat/dispatch"
	"github.com/xiaot623/bookchat/eventlog"
	"github.com/xiaot623/bookchat/llm"
	"github.com/xiaot623/bookchat/policy"
	"github.com/xiaot623/bookchat/session"
	"github.com/xiaot623/bookchat/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting bookchat...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("LLM URL: %s", cfg.LLMURL)
	log.Printf("Debounce: %s, max queue: %d", cfg.Debounce, cfg.MaxQueueSize)

	// Initialize catalog
	catalog, err := store.NewSQLiteCatalog(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize catalog: %v", err)
	}
	defer catalog.Close()

	ctx := context.Background()
	if err := catalog.Seed(ctx); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	// Initialize event log
	events, err := eventlog.New(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize event log: %v", err)
	}

	// Initialize language service
	lang := llm.NewLanguageService(cfg.LLMURL, cfg.LLMAPIKey, cfg.LLMTimeout)

	// Initialize order policy engine
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize registry and dispatcher
	registry := session.NewRegistry(events)
	dispatcher := dispatch.New(cfg, registry, catalog, lang, events, policyEngine)

	// Initialize handler
	h := api.NewHandler(dispatcher, registry, events)

	// Create Echo server
	server := echo.New()
	server.HideBanner = true

	// Middleware
	server.Use(middleware.Logger())
	server.Use(middleware.Recover())
	server.Use(middleware.CORS())

	// Register routes
	h.RegisterRoutes(server)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down bookchat...")

	// Graceful shutdown: stop accepting requests, then drain the pipeline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}
	dispatcher.Stop()

	log.Println("Bookchat stopped")
}
