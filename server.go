package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/whisky_backend/config"
	"bitbucket.org/mmdatafocus/whisky_backend/gateway"
	"bitbucket.org/mmdatafocus/whisky_backend/middlewares"
	"bitbucket.org/mmdatafocus/whisky_backend/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// readinessHandler reports dependency state. It never fails: the API keeps serving
// from the in-memory store while the database is down.
func readinessHandler(g *gateway.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		redisStatus := "disabled"
		if rdb := config.GetRedisDB(); rdb != nil {
			redisStatus = "reachable"
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisStatus = "unreachable"
			}
		}
		database := g.Probe(ctx)
		c.JSON(http.StatusOK, gin.H{
			"database":      database.String(),
			"redis":         redisStatus,
			"usingFallback": database != gateway.Reachable,
		})
	}
}

func corsConfig(s *config.Settings) cors.Config {
	corsConfig := cors.DefaultConfig()
	// production requires an explicit allowlist; an empty list denies all origins
	if s.IsProduction() {
		corsConfig.AllowOrigins = s.CorsAllowedOrigins
		if len(corsConfig.AllowOrigins) == 0 {
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", middlewares.CorrelationIdHeader)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", "X-Total-Count", "X-Using-Fallback", middlewares.CorrelationIdHeader)
	return corsConfig
}

func newRouter(s *config.Settings, g *gateway.Gateway, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationIdMiddleware())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.Use(cors.New(corsConfig(s)))

	if s.RateLimitEnabled {
		rateLimiter := middlewares.NewRateLimiter(config.GetRedisDB, s.RateLimitMaxRequests, s.RateLimitWindow)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.ErrorLogger(logger))
	r.Use(gin.Recovery())
	r.GET("/readyz", readinessHandler(g))
	gateway.RegisterRoutes(r, g)
	r.NoRoute(customNotFoundHandler)
	return r
}

func main() {
	logger := config.GetLogger()

	s, err := config.LoadSettings()
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "settings"}).Fatal(err.Error())
	}
	config.ConfigureLogger(s)
	if s.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	g := gateway.New(
		models.NewSQLWhiskyStore(config.GetDB),
		models.NewMemoryWhiskyStore(models.DemoWhiskies()...),
		gateway.Options{
			DefaultPageSize: s.DefaultPageSize,
			MaxPageSize:     s.MaxPageSize,
			ExportMaxRows:   s.ExportMaxRows,
		},
		logger,
	)

	srv := &http.Server{
		Addr:              ":" + s.Port,
		Handler:           newRouter(s, g, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Dependencies connect in the background; until then requests use the in-memory store.
	depCtx, cancelDeps := context.WithCancel(context.Background())
	defer cancelDeps()
	go config.ConnectRedisWithRetry(depCtx, s.RedisAddress)
	go config.ConnectDatabaseWithRetry(depCtx, s, func(db *gorm.DB) {
		if s.SkipMigrations {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
			return
		}
		if err := models.MigrateTable(depCtx, db, config.GetRedisLock(), logger); err != nil {
			config.LogError(logger, "server.go", "main", "MigrateTable", nil, err)
		}
	})

	logger.WithFields(logrus.Fields{
		"info": "Server Started",
		"env":  s.Env,
	}).Info("listening on :", s.Port)

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	cancelDeps()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	config.CloseDatabase()
	config.CloseRedis()
}
