package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/cosminimum/theregistry/api"
	registrydb "github.com/cosminimum/theregistry/db"
	"github.com/cosminimum/theregistry/internal/config"
	"github.com/cosminimum/theregistry/internal/council"
	"github.com/cosminimum/theregistry/internal/db"
	"github.com/cosminimum/theregistry/internal/interview"
	"github.com/cosminimum/theregistry/internal/jobs"
	"github.com/cosminimum/theregistry/internal/repository/sqlite"
	"github.com/cosminimum/theregistry/pkg/genai"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting registry server version %s (built at %s)", version, buildTime)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	api.SetLogger(logger)
	genai.SetLogger(logger)

	ctx := context.Background()

	// Open database connection and apply migrations
	conn, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Migrate(ctx, conn, registrydb.Migrations); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	repo := sqlite.Aggregate(sqlite.New(conn, logger))

	// Model providers: the local provider always runs; the hosted one only
	// when a key is configured, with its judges falling back to local.
	ollamaProvider, err := genai.NewDefaultOllamaProvider(cfg.Ollama)
	if err != nil {
		log.Fatalf("Failed to create ollama provider: %v", err)
	}
	providers := map[string]genai.Provider{
		genai.ProviderOllama: ollamaProvider,
	}
	routes := genai.DefaultRoutes(cfg.Ollama.Model, cfg.OpenAI.Model)
	if cfg.OpenAI.APIKey != "" {
		openaiProvider, err := genai.NewOpenAIProvider(cfg.OpenAI)
		if err != nil {
			log.Fatalf("Failed to create openai provider: %v", err)
		}
		providers[genai.ProviderOpenAI] = openaiProvider
	} else {
		log.Println("No OpenAI key configured, routing all judges to ollama")
		for judge, route := range routes {
			if route.Provider == genai.ProviderOpenAI {
				routes[judge] = genai.Route{Provider: genai.ProviderOllama, Model: cfg.Ollama.Model}
			}
		}
	}
	gw := genai.NewRouter(providers, routes)

	// shared between the ticker goroutine and the manual tick endpoint
	rng := council.NewLockedRand(rand.New(rand.NewSource(time.Now().UnixNano())))
	orch := interview.NewOrchestrator(repo, gw, rng, cfg.Council, logger)
	ticker := jobs.NewTicker(repo, orch, rng, cfg.Council, logger)
	ticker.Start(ctx)

	handler := api.SetupRoutes(cfg, version, buildTime, repo, orch, ticker)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ticker.Stop()

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	ollamaProvider.Close()

	// Close database connection
	if err := conn.Close(); err != nil {
		log.Printf("Error closing DB: %v", err)
	}

	log.Println("Server exited")
}
