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

	"fitlog/fitness-api/app"
	"fitlog/fitness-api/config"
	"fitlog/fitness-api/internal/mail"
	"fitlog/fitness-api/internal/service"
	"fitlog/fitness-api/pkg/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	gin.SetMode(gin.ReleaseMode)

	warnings, err := config.Setup(os.Args[1:])
	if err != nil {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := app.MakeLogger(cfg.App.LogLevel); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	for _, w := range warnings {
		zap.L().Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := app.NewDeps(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize dependencies", zap.Error(err))
	}

	go service.TokenCleanup(ctx, cfg.Storage.CleanupInterval, d.Stores.Tokens)

	router, err := app.NewRouter(ctx, d, cfg)
	if err != nil {
		zap.L().Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Host.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("Server starting",
			zap.Int("port", cfg.Host.Port),
			zap.String("storage", cfg.Storage.Driver),
			zap.Bool("in_docker", util.InDocker()),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("Shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		zap.L().Error("Failed to shut down server", zap.Error(err))
	}

	if s, ok := d.Mailer.(*mail.SMTP); ok {
		s.Wait()
	}

	if err := d.Stores.Close(sctx); err != nil {
		zap.L().Error("Failed to close storage", zap.Error(err))
	}
}
