package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Conceptual-Machines/singalong-genie/internal/api"
	"github.com/Conceptual-Machines/singalong-genie/internal/config"
	"github.com/Conceptual-Machines/singalong-genie/internal/metrics"
	"github.com/Conceptual-Machines/singalong-genie/internal/observability"
	"github.com/Conceptual-Machines/singalong-genie/internal/session"
	"github.com/Conceptual-Machines/singalong-genie/internal/songwriter"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	shutdownTimeout       = 15 * time.Second
	readHeaderTimeout     = 10 * time.Second
	environmentProduction = "production"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "singalong-genie@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			EnableLogs:       true,
			Debug:            cfg.Environment != environmentProduction,
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			// Flush on shutdown
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	if err := run(cfg); err != nil {
		sentry.CaptureException(err)
		log.Printf("Server stopped with error: %v", err)
		sentry.Flush(sentryFlushTimeout)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set Gin mode
	if cfg.Environment == environmentProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	tracer := observability.InitializeLangfuse(ctx, cfg)
	recorder := metrics.NewRecorder(metrics.NewClient(ctx, cfg.Environment))

	writer, err := songwriter.NewFromConfig(ctx, cfg,
		songwriter.WithTracer(tracer),
		songwriter.WithRecorder(recorder),
	)
	if err != nil {
		return err
	}

	router := api.SetupRouter(api.Dependencies{
		Config:   cfg,
		Writer:   writer,
		Store:    session.NewStore(cfg.SessionTTL),
		Recorder: recorder,
		Provider: writer.ProviderName(),
		Model:    writer.Model(),
		Version:  GetVersion(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("🚀 Starting server on port %s (llm: %s/%s)", cfg.Port, writer.ProviderName(), writer.Model())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("🛑 Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
		"x-session-id":  true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
