package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/LhacenMed/admin-dashboard/api"
	"github.com/LhacenMed/admin-dashboard/config"
	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/LhacenMed/admin-dashboard/internal/service/account"
	"github.com/LhacenMed/admin-dashboard/internal/service/seats"
	"github.com/LhacenMed/admin-dashboard/internal/service/trips"
	"github.com/LhacenMed/admin-dashboard/pkg/logger"
	"github.com/LhacenMed/admin-dashboard/pkg/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Services struct {
	Accounts account.AccountUseCase
	Trips    trips.TripUseCase
	Seats    seats.SeatUseCase
	Tokens   api.TokenParser
	Uploader api.Uploader
	Checks   map[string]HealthCheck
}

type Observability struct {
	Log      logger.Logger
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
}

// Run serves the HTTP API and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services, obs Observability) error {
	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      NewRouter(cfg, svc, obs),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		obs.Log.Info("http server listening", "address", cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		obs.Log.Info("http server stopped")
		return nil
	}
}

func NewRouter(cfg *config.Config, svc Services, obs Observability) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(obs.Log, obs.Metrics))
	if len(cfg.HTTP.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.HTTP.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders:     []string{"Authorization", "Content-Type", "X-Device-ID"},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", health(svc.Checks))
	if obs.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{})))
	}
	if cfg.HTTP.DocsDir != "" {
		router.Static("/docs", cfg.HTTP.DocsDir)
		router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/docs/openapi.json"))))
	}

	root := router.Group("/api")
	api.NewAuthHandler(svc.Accounts).Register(root.Group("/auth"))
	api.NewDeviceHandler(svc.Accounts).Register(root.Group("/devices"))
	api.NewUploadHandler(svc.Uploader).Register(root.Group("/uploads"))

	authed := root.Group("", api.RequireAuth(svc.Tokens))
	api.NewMeHandler(svc.Accounts, cfg.HTTP.StatusFallbackPath).Register(authed.Group("/me"))
	api.NewCompanyHandler(svc.Accounts).Register(authed.Group("/admin", api.RequireRoles(domain.RoleAdmin)))

	tripGroup := authed.Group("/trips", api.RequireStatus(svc.Accounts, domain.StatusApproved, cfg.HTTP.StatusFallbackPath))
	api.NewTripHandler(svc.Trips).Register(tripGroup)
	api.NewSeatHandler(svc.Seats).Register(tripGroup)

	return router
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				report[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			report[name] = "ok"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": report})
	}
}
