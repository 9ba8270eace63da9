// Package main запускает HTTP-сервер сервиса SigeCafé.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/sigecafe-server/internal/cepea"
	"github.com/mmeshcher/sigecafe-server/internal/config"
	"github.com/mmeshcher/sigecafe-server/internal/handler"
	"github.com/mmeshcher/sigecafe-server/internal/middleware"
	"github.com/mmeshcher/sigecafe-server/internal/permission"
	"github.com/mmeshcher/sigecafe-server/internal/repository"
	"github.com/mmeshcher/sigecafe-server/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	svc := service.NewService(repo, newPriceChain(cfg, logger), logger, cfg.PriceFreshness)
	defer svc.Close()

	permissions := permission.NewCache(repo, cfg.PermissionCacheTTL)
	if cfg.SessionSecret == "" {
		sugar.Warn("SESSION_SECRET is not set, sessions will not survive a restart")
	}
	authMiddleware := middleware.NewAuthMiddleware(cfg.SessionSecret)
	h := handler.NewHandler(svc, permissions, logger, authMiddleware)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Прогрев кэша котировок по расписанию
	g.Go(func() error {
		return svc.StartPriceRefresh(ctx, cfg.PriceRefreshSchedule)
	})

	g.Go(func() error {
		sugar.Infow("starting sigecafe server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

// newPriceChain собирает стратегии получения цен: браузер, HTTP и статический запасной вариант.
func newPriceChain(cfg *config.Config, logger *zap.Logger) *cepea.Chain {
	strategies := make([]cepea.Strategy, 0, 3)

	if !cfg.BrowserDisabled {
		strategies = append(strategies, cepea.NewBrowserStrategy(cepea.BrowserConfig{
			URL:      cfg.PriceSourceURL,
			ExecPath: cfg.ChromePath,
		}))
	}

	strategies = append(strategies,
		cepea.NewHTTPStrategy(cepea.HTTPConfig{URL: cfg.PriceSourceURL}, logger),
		cepea.StaticStrategy{},
	)

	return cepea.NewChain(logger.Named("cepea"), strategies...)
}
