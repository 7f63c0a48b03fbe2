package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/silab/internal/application"
	"github.com/example/silab/internal/config"
	silabhttp "github.com/example/silab/internal/http"
	"github.com/example/silab/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("silab terminated", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// A .env file is a local convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return uuid.NewString()
		}
		return hex.EncodeToString(buf)
	}

	calendarService := application.NewCalendarService(storage, storage, time.Now, cfg.CalendarCacheTTL, logger)
	bookingService := application.NewBookingService(storage, storage, storage, idGenerator, time.Now, calendarService.InvalidateGrid, logger)
	roomService := application.NewRoomService(storage, idGenerator, time.Now, calendarService.InvalidateGrid, logger)
	equipmentService := application.NewEquipmentService(storage, idGenerator, time.Now, logger)
	userService := application.NewUserService(storage, idGenerator, time.Now, cfg.StudentEmailDomain, logger)
	authService := application.NewAuthService(storage, storage, nil, tokenGenerator, time.Now, cfg.SessionTTL, logger)

	if expired, err := bookingService.ExpireOverdue(ctx); err != nil {
		logger.Error("startup expiry sweep failed", "error", err)
	} else if expired > 0 {
		logger.Info("expired overdue pending bookings", "count", expired)
	}
	go expiryLoop(ctx, bookingService, cfg.ExpirySweepEvery, logger)

	router := silabhttp.NewRouter(silabhttp.RouterConfig{
		Auth:           silabhttp.NewAuthHandler(authService, logger),
		Users:          silabhttp.NewUserHandler(userService, logger),
		Rooms:          silabhttp.NewRoomHandler(roomService, logger),
		Equipment:      silabhttp.NewEquipmentHandler(equipmentService, logger),
		Bookings:       silabhttp.NewBookingHandler(bookingService, logger),
		Calendar:       silabhttp.NewCalendarHandler(calendarService, logger),
		RequireSession: silabhttp.RequireSession(authService, logger),
		Middleware: []func(http.Handler) http.Handler{
			silabhttp.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("silab listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return <-errCh
}

// expiryLoop periodically marks overdue pending bookings as expired so the
// ledger does not accumulate stale requests.
func expiryLoop(ctx context.Context, bookings *application.BookingService, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if expired, err := bookings.ExpireOverdue(ctx); err != nil {
				logger.Error("expiry sweep failed", "error", err)
			} else if expired > 0 {
				logger.Info("expired overdue pending bookings", "count", expired)
			}
		}
	}
}
