package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"dashboard_backend/internal/database"
	"dashboard_backend/internal/events"
	"dashboard_backend/internal/router"
	"dashboard_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	gin.SetMode(cfg.Server.GinMode)

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, database.Up); err != nil {
			return err
		}
	}

	var publisher events.Publisher
	if cfg.Events.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.Events.NATSURL)
		if err != nil {
			return err
		}
		publisher = pub
		utils.LogInfo("Events enabled", map[string]interface{}{"nats_url": cfg.Events.NATSURL})
	} else {
		publisher = &events.NoopPublisher{}
		utils.LogInfo("Events disabled (NATS_URL not set)")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			utils.LogError(err, "Error closing publisher")
		}
	}()

	engine := router.NewEngine(cfg)
	router.Setup(engine, db, publisher, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{
			"port": cfg.Server.Port, "auth_mode": cfg.Auth.Mode,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-serveErr:
		if err != nil {
			utils.LogError(err, "Failed to start server")
			return err
		}
		return nil
	case sig := <-sigCh:
		utils.LogInfo("Received signal, shutting down", map[string]interface{}{"signal": sig.String()})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "HTTP server shutdown error")
		return err
	}
	utils.LogInfo("Shutdown complete")
	return nil
}
