package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cybershield/notifier/pkg/apiresponses"
	"github.com/cybershield/notifier/pkg/config"
	"github.com/cybershield/notifier/pkg/metrics"
	"github.com/cybershield/notifier/pkg/system"
	"github.com/cybershield/notifier/pkg/version"
)

const (
	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"

	serviceName     = "CyberShield Pro Notification Service"
	shutdownTimeout = 10 * time.Second
)

type APIController interface {
	BasePath() string
	Register(rg *gin.RouterGroup) error
	Handlers() []gin.HandlerFunc
}

type Server struct {
	gin    *gin.Engine
	config config.Config
	log    *zap.Logger
}

// Banner is the payload served at GET /.
type Banner struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func NewServer(log *zap.Logger, cfg config.Config, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		requestLogger(log.Sugar()),
		ginzap.Ginzap(log, time.RFC3339, true),
		ginzap.CustomRecoveryWithZap(log, true, func(c *gin.Context, _ any) {
			apiresponses.RespondError(c, http.StatusInternalServerError, apiresponses.CodeInternalError, "Internal server error")
			c.Abort()
		}),
	)

	origins := cfg.Server.AllowedOrigins
	if debug && len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://127.0.0.1:5500"}
	}
	if len(origins) > 0 {
		engine.Use(
			cors.New(cors.Config{
				AllowOrigins:  origins,
				AllowMethods:  []string{"GET", "POST", "OPTIONS"},
				AllowHeaders:  []string{"Origin", "Content-Type", RequestIDHeader},
				ExposeHeaders: []string{RequestIDHeader},
				MaxAge:        12 * time.Hour,
			}),
		)
	}

	engine.NoRoute(func(c *gin.Context) {
		apiresponses.RespondNotFound(c, fmt.Sprintf("route not found: %s %s", c.Request.Method, c.Request.URL.Path))
	})

	s := &Server{
		gin:    engine,
		config: cfg,
		log:    log,
	}

	engine.GET("/", s.getBanner)
	engine.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	return s
}

func (s *Server) RegisterAll(controllers []APIController) error {
	r := s.gin.Group("api")
	for _, c := range controllers {
		if err := c.Register(r.Group(c.BasePath(), c.Handlers()...)); err != nil {
			return err
		}
	}
	return nil
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Listen serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.ListenAddress(),
		Handler:           s.gin,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Sugar().Infow("Notification service listening", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("Shutting down notification service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) getBanner(c *gin.Context) {
	apiresponses.RespondOK(c, Banner{
		Service: serviceName,
		Version: version.Version,
		Endpoints: map[string]string{
			"POST /api/send-notification": "Send a templated email notification",
			"GET /api/health":             "Check mail transport connectivity",
			"GET /metrics":                "Prometheus metrics",
		},
	})
}

// requestLogger assigns a request ID and stores a request-scoped logger in the context.
func requestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(system.RequestIDKey, id)
		c.Set(system.ReqLoggerKey, log.With("requestID", id))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
