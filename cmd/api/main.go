// Package main implements the TrendDesk API server.
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

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/TrendDeskAI/trenddesk/engine/memo"
	"github.com/TrendDeskAI/trenddesk/engine/scrape"
	"github.com/TrendDeskAI/trenddesk/engine/trends"
	"github.com/TrendDeskAI/trenddesk/pkg/metrics"
	"github.com/TrendDeskAI/trenddesk/pkg/mid"
)

// Config holds all environment-based configuration.
type Config struct {
	Port         string
	Neo4jURL     string
	Neo4jUser    string
	Neo4jPass    string
	DataDir      string
	ClaudeAPIKey string
	ClaudeModel  string
	NATSURL      string
	CORSOrigin   string
}

func loadConfig() Config {
	return Config{
		Port:         envOr("PORT", "8080"),
		Neo4jURL:     os.Getenv("NEO4J_URL"), // empty selects the flat-file store
		Neo4jUser:    envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:    envOr("NEO4J_PASS", "password"),
		DataDir:      envOr("DATA_DIR", "data"),
		ClaudeAPIKey: os.Getenv("CLAUDE_API_KEY"),
		ClaudeModel:  os.Getenv("CLAUDE_MODEL"),
		NATSURL:      os.Getenv("NATS_URL"),
		CORSOrigin:   envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Pick the store, once, at startup ---
	store, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// --- Optional NATS for lifecycle events ---
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Warn("nats unavailable, events disabled", "url", cfg.NATSURL, "err", err)
			nc = nil
		} else {
			defer nc.Close()
			logger.Info("nats connected", "url", cfg.NATSURL)
		}
	}

	// --- Build the service ---
	extractor := scrape.New(nil)
	claude := memo.NewClaude(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	if !claude.Configured() {
		logger.Warn("claude API key not configured, memo endpoints will fail")
	}
	svc := trends.NewService(store, extractor, claude, nc, logger)

	registry := metrics.New()
	srvHandlers := &server{
		svc:       svc,
		extractor: extractor,
		keyCheck:  claude.Configured,
		registry:  registry,
		logger:    logger,
	}

	handler := mid.Chain(srvHandlers.routes(),
		mid.Recover(logger),
		mid.Logger(logger),
		mid.Metrics(registry),
		mid.SecurityHeaders(),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("trenddesk-api"),
	)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No write timeout: memo generation holds the response open for
		// as long as the model takes.
		IdleTimeout: 120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// openStore connects to Neo4j when configured and reachable, falling
// back to the CSV file store. The choice is logged, never surfaced to
// API clients, and never revisited while the process runs.
func openStore(ctx context.Context, cfg Config, logger *slog.Logger) (trends.Store, func(), error) {
	if cfg.Neo4jURL != "" {
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
		if err == nil {
			if err = driver.VerifyConnectivity(ctx); err == nil {
				logger.Info("using neo4j store", "url", cfg.Neo4jURL)
				return trends.NewNeo4jStore(driver), func() { driver.Close(context.Background()) }, nil
			}
			driver.Close(ctx)
		}
		logger.Warn("neo4j unavailable, falling back to flat file", "url", cfg.Neo4jURL, "err", err)
	}

	path := filepath.Join(cfg.DataDir, "trends.csv")
	store, err := trends.NewCSVStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv store: %w", err)
	}
	logger.Info("using csv store", "path", path)
	return store, func() {}, nil
}
