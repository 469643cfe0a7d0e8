package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/integrations-service/internal/config"
	"github.com/your-org/integrations-service/internal/service/credentials"
	"github.com/your-org/integrations-service/internal/service/hubspot"
	"github.com/your-org/integrations-service/internal/service/oauth"
	"github.com/your-org/integrations-service/internal/service/session"
	httpTransport "github.com/your-org/integrations-service/internal/transport/http"
	"github.com/your-org/integrations-service/pkg/logger"
	"github.com/your-org/integrations-service/pkg/resilience/circuitbreaker"
	"github.com/your-org/integrations-service/pkg/resilience/ratelimit"
)

var (
	// Version is set during build
	Version = "dev"
	// BuildTime is set during build
	BuildTime = "unknown"
	// GitCommit is set during build
	GitCommit = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("integrations-service %s\n", Version)
		fmt.Printf("Build time: %s\n", BuildTime)
		fmt.Printf("Git commit: %s\n", GitCommit)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting integrations-service",
		logger.String("version", Version),
		logger.String("commit", GitCommit),
	)

	// Initialize services
	app, err := initializeApp(cfg)
	if err != nil {
		logger.Fatal("failed to initialize application", logger.Err(err))
	}

	// Start the application
	app.Start()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", logger.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during shutdown", logger.Err(err))
	}

	logger.Info("integrations-service stopped")
}

// App represents the application.
type App struct {
	httpServer   *httpTransport.Server
	sessionStore session.Store
}

// initializeApp creates and initializes all application components.
func initializeApp(cfg *config.Config) (*App, error) {
	// Session store backs both the OAuth state and the credential handoff.
	store, err := session.NewStore(cfg.SessionStore, logger.L())
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	// Circuit breakers guard every outbound provider call.
	breakers := circuitbreaker.NewManager(cfg.CircuitBreaker)

	stateManager := oauth.NewManager(store, cfg.HubSpot, cfg.SessionStore.StateTTL, logger.L())
	oauthClient := hubspot.NewOAuthClient(cfg.HubSpot, breakers, logger.L())
	contactsClient := hubspot.NewContactsClient(cfg.HubSpot, breakers, logger.L())
	credStore := credentials.NewStore(store, cfg.SessionStore.CredentialsTTL, logger.L())

	handler := httpTransport.NewHandler(
		stateManager,
		oauthClient,
		credStore,
		contactsClient,
		store,
		Version,
	)

	serverOpts := []httpTransport.ServerOption{}
	if cfg.RateLimit.Enabled {
		limiter, err := ratelimit.NewLimiter(cfg.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		serverOpts = append(serverOpts, httpTransport.WithRateLimiter(limiter))
	}

	httpServer, err := httpTransport.NewServer(
		httpTransport.ServerConfig{
			HTTP:      cfg.Server,
			Endpoints: cfg.Endpoints,
		},
		handler,
		serverOpts...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP server: %w", err)
	}

	return &App{
		httpServer:   httpServer,
		sessionStore: store,
	}, nil
}

// Start starts all application components.
func (a *App) Start() {
	go func() {
		if err := a.httpServer.Start(); err != nil {
			logger.Error("HTTP server error", logger.Err(err))
		}
	}()

	logger.Info("application started")
}

// Shutdown gracefully shuts down all application components.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown HTTP server", logger.Err(err))
	}

	if err := a.sessionStore.Close(); err != nil {
		logger.Error("failed to close session store", logger.Err(err))
	}

	return nil
}
