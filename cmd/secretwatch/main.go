package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	sqliteadapter "github.com/ericfisherdev/secretwatch/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/secretwatch/internal/adapter/driving/http"
	"github.com/ericfisherdev/secretwatch/internal/application"
	"github.com/ericfisherdev/secretwatch/internal/config"
)

func main() {
	once := flag.Bool("once", false, "run the pipeline once and exit")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(*once); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(once bool) error {
	// 1. Load configuration (fail fast on missing required env vars).
	// A missing .env file is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"secret_store", cfg.SecretStore,
		"mail_transport", cfg.MailTransport,
		"schedule", cfg.Schedule,
		"timezone", cfg.Timezone,
		"listen_addr", cfg.ListenAddr,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the local secret store when selected. Key Vault clients are
	// built per run inside the session factory.
	var db *sqliteadapter.DB
	if cfg.SecretStore == config.SecretStoreSQLite {
		db, err = sqliteadapter.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		slog.Info("secret store opened", "path", db.Path())
	}

	// 4. Wire the pipeline.
	sessions := newSessionFactory(cfg, db)
	expirySvc := application.NewExpiryService(sessions, application.RunConfig{
		Recipients: application.ParseRecipients(cfg.RecipientAddress),
		Subject:    cfg.MailSubject,
		Note:       cfg.ReportNote,
	})

	if once {
		if _, err := expirySvc.Run(ctx); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		return nil
	}

	// 5. Create and start the schedule service.
	scheduleSvc, err := application.NewScheduleService(expirySvc, cfg.Schedule, cfg.Location)
	if err != nil {
		return err
	}
	go scheduleSvc.Start(ctx)

	// 6. Create HTTP handler.
	apiHandler := httphandler.NewHandler(scheduleSvc, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// A manual run includes token grants, every directory page and
		// Key Vault retries.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("secretwatch started",
		"listen_addr", cfg.ListenAddr,
		"next_run", scheduleSvc.Next(time.Now()),
	)

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
