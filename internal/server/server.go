// Package server orchestrates all components: COMMS client, prompt store,
// dispatcher, and the HTTP endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sitequery/mcp-gateway/internal/config"
	"github.com/sitequery/mcp-gateway/pkg/capability"
	"github.com/sitequery/mcp-gateway/pkg/commsutil"
	"github.com/sitequery/mcp-gateway/pkg/db"
	"github.com/sitequery/mcp-gateway/pkg/dispatcher"
	"github.com/sitequery/mcp-gateway/pkg/events"
	"github.com/sitequery/mcp-gateway/pkg/promptstore"
	"github.com/sitequery/mcp-gateway/pkg/retrieval"
)

const logPrefix = "server:server"

// Server is the mcp-gateway orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	pool       *pgxpool.Pool
	httpServer *http.Server
}

// Run starts the gateway, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info(fmt.Sprintf("%s - Starting mcp-gateway", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Server{cfg: cfg}

	// Step 1: Connect to COMMS (retrieval backend transport).
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}
	s.nc = nc

	retriever := retrieval.NewCommsRetriever(nc, &retrieval.CommsRetrieverOpts{
		SubjectPrefix:  cfg.RetrievalPrefix,
		RequestTimeout: cfg.RetrievalTimeout,
	})

	// Step 2: Prompt store. Postgres when DATABASE_URL is set, else the
	// YAML file store.
	var prompts promptstore.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			nc.Close()
			return fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
		}
		s.pool = pool

		if cfg.RunMigrations {
			migrationSQL, err := db.LoadMigrationFiles(cfg.MigrationPath)
			if err != nil {
				pool.Close()
				nc.Close()
				return fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
			}
			if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
				pool.Close()
				nc.Close()
				return fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
			}
			if cfg.PromptsFile != "" {
				if err := db.SeedPrompts(ctx, pool, cfg.PromptsFile); err != nil {
					pool.Close()
					nc.Close()
					return fmt.Errorf("%s - failed to seed prompts: %w", logPrefix, err)
				}
			}
		}
		prompts = promptstore.NewPostgresStore(pool)
		slog.Info(fmt.Sprintf("%s - Using Postgres prompt store", logPrefix))
	} else {
		yamlStore, err := promptstore.LoadYAMLStore(cfg.PromptsFile)
		if err != nil {
			nc.Close()
			return fmt.Errorf("%s - failed to load prompt store: %w", logPrefix, err)
		}
		prompts = yamlStore
		slog.Info(fmt.Sprintf("%s - Using YAML prompt store from %s", logPrefix, cfg.PromptsFile))
	}

	// Step 3: Capability registry, dispatcher, telemetry.
	caps := capability.New(cfg.SchemaTypes)
	disp := dispatcher.NewDispatcher(dispatcher.NewDispatcherParams{
		Caps:      caps,
		Retriever: retriever,
		Prompts:   prompts,
	})

	var publisher events.Publisher = &events.NoOpPublisher{}
	if cfg.TelemetrySubject != "" {
		publisher = events.NewCommsPublisher(nc, &events.CommsPublisherOpts{Subject: cfg.TelemetrySubject})
		slog.Info(fmt.Sprintf("%s - Telemetry on %s", logPrefix, cfg.TelemetrySubject))
	}

	handler := NewHandler(NewHandlerParams{Caps: caps, Disp: disp, Publisher: publisher})

	// Step 4: HTTP endpoints. /ask and /mcp are aliases.
	mux := http.NewServeMux()
	mux.HandleFunc("/", handleHome(caps))
	mux.Handle("/ask", handler)
	mux.Handle("/mcp", handler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := "healthy"
		if s.nc.Status() != comms.CONNECTED {
			status = "unhealthy"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	s.httpServer = &http.Server{Addr: httpAddr, Handler: mux}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, httpAddr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - mcp-gateway is ready", logPrefix))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	// Graceful shutdown
	s.httpServer.Shutdown(ctx)
	nc.Drain()
	if s.pool != nil {
		s.pool.Close()
	}

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}
