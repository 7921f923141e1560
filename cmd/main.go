// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/event-reservations/internal/auth"
	"github.com/Shivanand-hulikatti/event-reservations/internal/config"
	"github.com/Shivanand-hulikatti/event-reservations/internal/database"
	"github.com/Shivanand-hulikatti/event-reservations/internal/handler"
	"github.com/Shivanand-hulikatti/event-reservations/internal/notify"
	"github.com/Shivanand-hulikatti/event-reservations/internal/repository"
	"github.com/Shivanand-hulikatti/event-reservations/internal/service"
	"github.com/Shivanand-hulikatti/event-reservations/internal/ticket"
)

// stores bundles the persistence layer chosen by STORAGE.
type stores struct {
	events       service.EventStore
	reservations service.ReservationStore
	users        service.UserStore
	close        func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server_exit", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	// ── 1. Open storage ──────────────────────────────────────────────────
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	// ── 2. Wire up layers ────────────────────────────────────────────────
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL, cfg.TokenRenewWindow)
	authSvc := service.NewAuthService(st.users, tokens, logger)
	if err := authSvc.SeedAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	var sender notify.Sender = notify.NewLogSender(logger)
	if cfg.ResendAPIKey != "" {
		sender = notify.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom, logger)
	}
	notifier := notify.NewReservationNotifier(sender)

	if err := os.MkdirAll(cfg.TicketDir, 0o755); err != nil {
		return fmt.Errorf("create ticket dir: %w", err)
	}
	tickets := ticket.NewService(st.reservations, st.events, ticket.NewSigner(cfg.TicketSigningKey), cfg.TicketDir, logger)

	// ── 3. Build the router ───────────────────────────────────────────────
	router := handler.NewRouter(handler.Deps{
		Auth:         authSvc,
		Events:       service.NewEventService(st.events, st.reservations, logger),
		Reservations: service.NewReservationService(st.events, st.reservations, notifier, logger),
		Tickets:      tickets,
		CORSOrigins:  cfg.CORSOrigins,
		Logger:       logger,
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listening", "port", cfg.Port, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Block until SIGINT, SIGTERM or a listener failure.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server_stopped")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.Storage == config.StorageMemory {
		mem := repository.NewMemoryStore()
		logger.Warn("storage_in_memory", "detail", "data is lost on restart")
		return &stores{
			events:       mem.Events(),
			reservations: mem.Reservations(),
			users:        mem.Users(),
			close:        func() {},
		}, nil
	}

	pool, err := database.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database: %w", err)
	}
	logger.Info("postgres_connected", "max_conns", pool.Config().MaxConns)

	return &stores{
		events:       repository.NewEventRepository(pool),
		reservations: repository.NewReservationRepository(pool),
		users:        repository.NewUserRepository(pool),
		close:        pool.Close,
	}, nil
}
