package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"autoparts/internal/cache"
	"autoparts/internal/config"
	"autoparts/internal/database"
	"autoparts/internal/logger"
	"autoparts/internal/metrics"
	"autoparts/internal/server"

	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	// in-flight requests get 30 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}

func main() {
	migrateStatus := flag.Bool("migrate-status", false, "print the migration status and exit")
	flag.Parse()

	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		log = logger.NewWithDefaults()
		log.Warn("Falling back to default logger", zap.Error(err))
	}
	defer log.Sync()

	log.Info("Starting AutoParts API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	log.Info("Database health check", zap.Any("health", db.Health(context.Background())))

	if *migrateStatus {
		if err := database.GetMigrationStatus(db, log); err != nil {
			log.Fatal("Failed to read migration status", zap.Error(err))
		}
		db.Close()
		return
	}

	if err := database.RunMigrations(db, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully")

	deps := server.Deps{Metrics: metrics.New()}
	if cfg.Redis.Enabled {
		client, err := cache.New(context.Background(), cfg.Redis)
		if err != nil {
			// rate limiting and idempotent replay are optional
			log.Warn("Redis unavailable, continuing without rate limiting", zap.Error(err))
		} else {
			deps.Cache = client
		}
	}

	srv, err := server.NewServer(cfg, log, db, deps)
	if err != nil {
		log.Fatal("Failed to build server", zap.Error(err))
	}

	if err := srv.EnsureAdmin(context.Background()); err != nil {
		log.Fatal("Failed to bootstrap admin account", zap.Error(err))
	}

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
