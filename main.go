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

	"bankly/config"
	"bankly/controllers"
	"bankly/database"
	"bankly/services"
	"bankly/utils"
)

func main() {
	// Инициализируем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	logger := utils.InitLogger(cfg.Log.Level, cfg.Log.Format)

	// Инициализируем подключение к базе данных
	db, err := database.NewDatabase(cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing database failed", "error", err)
		}
	}()

	// Уведомления о блокировках уходят по почте, только если SMTP включен
	var notifier services.Notifier = services.NopNotifier{}
	if cfg.SMTP.Enabled {
		notifier = services.NewEmailService(cfg.SMTP)
	}

	tokens := services.NewTokenIssuer(cfg.JWT.SecretKey, cfg.JWT.ExpiresIn)
	scorer := services.NewHTTPFraudScorer(cfg.Fraud)
	if cfg.Fraud.FailOpen {
		logger.Warn("fraud checks are fail-open: operations proceed when the scorer is unavailable")
	}

	router := controllers.NewRouter(controllers.RouterDeps{
		Users:       services.NewUserService(db, tokens),
		Accounts:    services.NewAccountService(db),
		Ledger:      services.NewLedgerService(db, scorer, services.NewFraudPolicy(cfg.Fraud), notifier),
		Tokens:      tokens,
		AuthLimiter: utils.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
	})

	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}

	servers := []*http.Server{apiServer}
	if cfg.Ops.Enabled {
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Ops.Port),
			Handler:           controllers.NewOpsRouter(db),
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	// Запускаем серверы
	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info("starting http server", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(srv)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		logger.Error("server stopped unexpectedly", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "addr", srv.Addr, "error", err)
		}
	}
}
