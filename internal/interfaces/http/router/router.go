// Package router assembles the gin engine and HTTP server.
package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/urbanyield/riskengine/internal/config"
	"github.com/urbanyield/riskengine/internal/interfaces/http/handlers"
	"github.com/urbanyield/riskengine/pkg/constants"
	"github.com/urbanyield/riskengine/pkg/logger"
)

// Router owns the gin engine and the HTTP server lifecycle.
type Router struct {
	engine        *gin.Engine
	cfg           *config.Config
	log           logger.Logger
	tracer        trace.Tracer
	healthHandler *handlers.HealthHandler
	riskHandler   *handlers.RiskHandler
	server        *http.Server
}

// NewRouter creates the router.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	tracer trace.Tracer,
	healthHandler *handlers.HealthHandler,
	riskHandler *handlers.RiskHandler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	return &Router{
		engine:        gin.New(),
		cfg:           cfg,
		log:           log.WithComponent("Router"),
		tracer:        tracer,
		healthHandler: healthHandler,
		riskHandler:   riskHandler,
	}
}

// SetupRoutes registers middleware and the /risk surface.
func (r *Router) SetupRoutes() {
	r.engine.Use(gin.Recovery())
	r.engine.Use(r.observability())

	r.engine.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Disposition", "X-Row-Count"},
		MaxAge:        12 * time.Hour,
	}))

	r.engine.GET("/health/live", r.healthHandler.LivenessCheck)
	r.engine.GET("/health/ready", r.healthHandler.ReadinessCheck)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if r.cfg.Server.PprofEnabled {
		pprof.Register(r.engine)
	}

	v1 := r.engine.Group("/api/v1")
	{
		risk := v1.Group("/risk")
		{
			// Static segments before the :property_id wildcard.
			risk.GET("/distribution", r.riskHandler.GetGradeDistribution)
			risk.GET("/grade/:grade", r.riskHandler.ListPropertiesAtGrade)
			risk.POST("/run-batch", r.riskHandler.RunBatchSimulation)

			risk.GET("/:property_id", r.riskHandler.GetRiskResult)
			risk.GET("/:property_id/export", r.riskHandler.ExportSimulationResults)
			risk.GET("/:property_id/history", r.riskHandler.GetGradeHistory)
			risk.POST("/:property_id/run-simulation", r.riskHandler.RunSimulation)
		}
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_found",
			"error_description": "The requested resource was not found",
		})
	})
}

// observability opens a span per request and threads the trace id into the
// request context for the logger.
func (r *Router) observability() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := r.tracer.Start(c.Request.Context(), c.Request.Method+" "+c.FullPath())
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		ctx = context.WithValue(ctx, constants.ContextKeyTraceID, traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", traceID)

		c.Next()

		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
	}
}

// Engine exposes the gin engine for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Start runs the HTTP server until Stop is called.
func (r *Router) Start() error {
	addr := fmt.Sprintf("%s:%d", r.cfg.Server.Host, r.cfg.Server.Port)
	r.server = &http.Server{
		Addr:         addr,
		Handler:      r.engine,
		ReadTimeout:  time.Duration(r.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(r.cfg.Server.WriteTimeout) * time.Second,
	}
	r.log.Info(context.Background(), "http server listening", logger.Fields{"addr": addr})
	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}
