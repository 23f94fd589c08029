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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	_ "waitline/docs"
	"waitline/internal/app"
	"waitline/internal/auth"
	"waitline/internal/config"
	"waitline/internal/handlers"
	"waitline/internal/log"
	"waitline/internal/tasks"
)

// @Title						Waitline: виртуальные очереди
// @Version					1.0
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	var configPath string
	cmd := &cobra.Command{
		Use:           "waitline",
		Short:         "Virtual waiting-line server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path (TOML)")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := log.NewLogger(cfg.Log.Development, cfg.Log.Debug, cfg.Log.Outputs...)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate %s store: %w", cfg.StoreBackend, err)
	}
	if err := a.Start(ctx); err != nil {
		return err
	}

	scheduler, err := tasks.InitScheduler(a.Engine, cfg.Audit.Schedule, logger.Named("cron"))
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	authenticator := auth.New(cfg.Auth.JWTSecret)
	if !authenticator.Enabled() {
		logger.Warn("JWT_ACCESS_SECRET is not set, authentication is disabled")
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	handlers.RegisterRoutes(r, handlers.New(a.Engine, a.Hub, logger.Named("http")), a.Hub, authenticator)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		logger.Infow("http server listening", "addr", cfg.HTTPAddr, "store", cfg.StoreBackend, "notify", cfg.Notify.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
