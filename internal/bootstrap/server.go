package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/tutorbooking/api"
	"github.com/Domenick1991/tutorbooking/config"
	"github.com/Domenick1991/tutorbooking/internal/service/booking"
	"github.com/Domenick1991/tutorbooking/internal/service/programs"
	"github.com/Domenick1991/tutorbooking/internal/service/refund"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

type Services struct {
	Programs programs.ProgramUseCase
	Bookings booking.BookingUseCase
	Refunds  refund.RefundUseCase
}

// HealthCheck reports whether one dependency is reachable for /readyz.
type HealthCheck func(ctx context.Context) error

// Run serves the REST API and blocks until ctx is canceled or the server
// fails.
func Run(ctx context.Context, cfg *config.Config, svc Services, checks map[string]HealthCheck, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg, svc, checks, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.Info("http server stopped")
		return nil
	}
}

func NewRouter(cfg *config.Config, svc Services, checks map[string]HealthCheck, logger *zap.Logger) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	api.UseJSONFieldNames()

	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery(), corsMiddleware(cfg.HTTP.AllowedOrigins))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", readiness(checks))

	if cfg.HTTP.SwaggerDir != "" {
		router.Static("/swagger", cfg.HTTP.SwaggerDir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/openapi.json"))))
	}

	v1 := router.Group("/api/v1")
	bookingGroup := v1.Group("/bookings")
	api.NewProgramHandler(svc.Programs, svc.Bookings).Register(v1.Group("/programs"))
	api.NewBookingHandler(svc.Bookings).Register(bookingGroup)
	api.NewRefundHandler(svc.Refunds).Register(bookingGroup, v1.Group("/refunds"))

	return router
}

func readiness(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		c.JSON(status, result)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	cc := cors.DefaultConfig()
	cc.AllowOrigins = origins
	cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PUT")
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization")
	return cors.New(cc)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}
