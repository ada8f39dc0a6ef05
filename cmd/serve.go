package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"neosure-anc-server/internal/config"
	"neosure-anc-server/internal/logger"
	"neosure-anc-server/internal/middleware"
	"neosure-anc-server/internal/models"
	"neosure-anc-server/internal/realtime"
	"neosure-anc-server/internal/routes"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			skipMigrate, _ := cmd.Flags().GetBool("skip-migrate")
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, !skipMigrate)
		},
	}
	cmd.Flags().Bool("skip-migrate", false, "do not run AutoMigrate on startup")
	return cmd
}

func runServer(ctx context.Context, migrate bool) error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	if migrate {
		if err := models.Migrate(db); err != nil {
			return err
		}
	}

	hub := realtime.NewHub(log)
	bus, err := realtime.NewBus(ctx, cfg.Redis, hub, log)
	if err != nil {
		return err
	}
	defer bus.Close()

	router := NewRouter(cfg, log, routes.Deps{
		DB:     db,
		Cfg:    cfg,
		Log:    log,
		Hub:    hub,
		Events: bus,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bus.StartForwarder(gctx, hub.Broadcast)
	})
	g.Go(func() error {
		log.Info("server listening", "port", cfg.Port, "env", cfg.Environment, "redis", cfg.Redis.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// NewRouter builds the gin engine with the middleware stack and route table.
func NewRouter(cfg *config.Config, log *logger.Logger, deps routes.Deps) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, deps)
	return router
}
