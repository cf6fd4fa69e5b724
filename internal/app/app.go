// Package app wires configuration, storage, the ledger and the HTTP server.
package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perkhive/loyalty-server/internal/config"
	"github.com/perkhive/loyalty-server/internal/db"
	adminapi "github.com/perkhive/loyalty-server/internal/http/api/admin"
	"github.com/perkhive/loyalty-server/internal/http/api/front"
	"github.com/perkhive/loyalty-server/internal/ledger"
	"github.com/perkhive/loyalty-server/internal/logging"
	"github.com/perkhive/loyalty-server/internal/notify"
	"github.com/perkhive/loyalty-server/internal/sweeper"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	conn, errOpen := db.Open(cfg.Database)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// Run boots the loyalty server and blocks until ctx is cancelled.
func Run(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	logging.Setup(cfg.Logging)

	conn, errOpen := db.Open(cfg.Database)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	var rdb *redis.Client
	if addr := strings.TrimSpace(cfg.Redis.Addr); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if errPing := rdb.Ping(pingCtx).Err(); errPing != nil {
			log.WithError(errPing).Warn("redis unreachable, notifications persist-only")
			rdb = nil
		}
		cancel()
	}

	notifier := notify.NewPublisher(conn, rdb)
	pointsLedger := ledger.New(conn, notifier)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	adminapi.RegisterAdminRoutes(engine, conn, cfg.JWT, pointsLedger)
	front.RegisterFrontRoutes(engine, conn, cfg.JWT, pointsLedger)

	sweeper.New(pointsLedger, cfg.Sweep.Interval.Std()).Start(ctx)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("loyalty server listening on %s", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}
