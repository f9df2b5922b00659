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

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/cobranca/internal/billing"
	billingStore "github.com/MrJamesThe3rd/cobranca/internal/billing/store"
	"github.com/MrJamesThe3rd/cobranca/internal/config"
	"github.com/MrJamesThe3rd/cobranca/internal/customer"
	customerStore "github.com/MrJamesThe3rd/cobranca/internal/customer/store"
	"github.com/MrJamesThe3rd/cobranca/internal/database"
	cobrancaHttp "github.com/MrJamesThe3rd/cobranca/internal/http"
	billingHandler "github.com/MrJamesThe3rd/cobranca/internal/http/billing"
	customerHandler "github.com/MrJamesThe3rd/cobranca/internal/http/customer"
	dashboardHandler "github.com/MrJamesThe3rd/cobranca/internal/http/dashboard"
	importHandler "github.com/MrJamesThe3rd/cobranca/internal/http/importcsv"
	notificationHandler "github.com/MrJamesThe3rd/cobranca/internal/http/notification"
	"github.com/MrJamesThe3rd/cobranca/internal/mail"
	"github.com/MrJamesThe3rd/cobranca/internal/notification"
	notificationStore "github.com/MrJamesThe3rd/cobranca/internal/notification/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	sender := mail.NewSender(mail.Config{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Secure:    cfg.SMTP.Secure,
		User:      cfg.SMTP.User,
		Password:  cfg.SMTP.Password,
		FromEmail: cfg.SMTP.FromEmail,
		FromName:  cfg.SMTP.FromName,
	})

	var (
		billingService  = billing.NewService(billingStore.New(db))
		customerService = customer.NewService(customerStore.New(db))
	)

	notifStore := notificationStore.New(db)
	notificationService := notification.NewService(billingService, notifStore, notifStore, sender)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := notificationService.EnsureDefaultRules(ctx); err != nil {
		slog.Error("failed to seed default rules", "error", err)
		os.Exit(1)
	}

	scheduler := notification.NewScheduler(notificationService, cfg.Notifier.Interval)
	go scheduler.Run(ctx)

	var (
		billingH      = billingHandler.NewHandler(billingService, notificationService)
		customerH     = customerHandler.NewHandler(customerService)
		notificationH = notificationHandler.NewHandler(notificationService)
		dashboardH    = dashboardHandler.NewHandler(billingService, customerService)
		importH       = importHandler.NewHandler(billingService)
	)

	router := cobrancaHttp.New(billingH, customerH, notificationH, dashboardH, importH)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "port", cfg.App.Port, "notifier_interval", cfg.Notifier.Interval)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
