package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/andrewotz/portfolio/internal/analytics"
	"github.com/andrewotz/portfolio/internal/config"
	"github.com/andrewotz/portfolio/internal/contact"
	"github.com/andrewotz/portfolio/internal/content"
	"github.com/andrewotz/portfolio/internal/logging"
	"github.com/andrewotz/portfolio/internal/session"
)

// Set at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "portfolio",
		Short:         "Serve the portfolio site",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.AddCommand(newServeCmd(), newCleanupCmd(), newVersionCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete page views older than ANALYTICS_RETENTION",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			tracker, err := analytics.Open(ctx, analytics.Options{Path: cfg.DatabasePath, Logger: log})
			if err != nil {
				return err
			}
			defer tracker.Close()

			n, err := tracker.Cleanup(ctx, cfg.AnalyticsRetention)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d page views\n", n)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "portfolio %s (%s)\n", version, commit)
		},
	}
}

func bootstrap() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log, err := logging.New(logging.Options{Level: cfg.LogLevel, HumanReadable: cfg.LogHuman})
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("configure logging: %w", err)
	}
	return cfg, log, nil
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	portfolio, err := content.Load(cfg.ContentPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker, err := analytics.Open(ctx, analytics.Options{
		Path:   cfg.DatabasePath,
		Logger: logging.Component(log, "analytics"),
	})
	if err != nil {
		return err
	}
	defer tracker.Close()

	// Clean up old page views for privacy compliance (run in background)
	tracker.CleanupInBackground(ctx, cfg.AnalyticsRetention)

	contactLog := logging.Component(log, "contact")
	sessions := session.NewStore(session.Options{
		TTL:           cfg.SessionTTL,
		Logger:        logging.Component(log, "session"),
		SecureCookies: cfg.SecureCookies,
		Factory: func() *contact.Controller {
			return contact.NewController(contact.Options{
				Transport: contact.LogTransport{Log: contactLog},
				Logger:    contactLog,
			})
		},
	})
	defer sessions.Close()
	go sessions.Run(ctx.Done(), time.Minute)

	admin, err := newAdminAuth(cfg, tracker, logging.Component(log, "admin"))
	if err != nil {
		return err
	}

	router, err := newRouter(&Server{
		cfg:      cfg,
		log:      log,
		content:  portfolio,
		sessions: sessions,
		tracker:  tracker,
		gtag:     analytics.GoogleTag{MeasurementID: cfg.GAMeasurementID},
		admin:    admin,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("portfolio listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
