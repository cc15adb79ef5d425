package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	handlers "github.com/GriffinCanCode/durationtrace/internal/api/http"
	"github.com/GriffinCanCode/durationtrace/internal/api/middleware"
	"github.com/GriffinCanCode/durationtrace/internal/downstream"
	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/config"
	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/logging"
	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/durationtrace/internal/relay"
	"github.com/GriffinCanCode/durationtrace/internal/trace"
)

// Server wraps the HTTP and gRPC servers and their dependencies
type Server struct {
	router      *gin.Engine
	http        *http.Server
	grpc        *grpc.Server
	grpcAddr    string
	health      *health.Server
	client      *downstream.Client
	coordinator *tracing.Coordinator
	logger      *logging.Logger
	config      *config.Config
	metrics     *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return newServer(cfg, logger, prometheus.NewRegistry())
}

func newServer(cfg *config.Config, logger *logging.Logger, registry *prometheus.Registry) (*Server, error) {
	variant, err := cfg.Duration.ParseVariant()
	if err != nil {
		return nil, err
	}

	logger.Info("Initializing hop service",
		zap.String("port", cfg.Server.Port),
		zap.String("duration_header", cfg.Duration.HeaderName),
		zap.Bool("duration_active", cfg.Duration.Active),
		zap.String("variant", variant.String()),
	)

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	coordinator := tracing.New(tracing.Settings{
		HeaderName: cfg.Duration.HeaderName,
		Active:     cfg.Duration.Active,
		MaxBytes:   cfg.Duration.MaxLength,
		Merger: trace.Settings{
			Variant:          variant,
			LockOnTruncation: cfg.Duration.LockOnTruncation,
		},
	}, logger, metrics)

	routes := &relay.File{}
	if cfg.Relay.RoutesFile != "" {
		if routes, err = relay.LoadFile(cfg.Relay.RoutesFile); err != nil {
			return nil, err
		}
		logger.Info("Loaded relay routes",
			zap.String("file", cfg.Relay.RoutesFile),
			zap.Int("routes", len(routes.Routes)),
		)
	}

	clientCfg := downstream.DefaultConfig()
	clientCfg.Timeout = cfg.Relay.Timeout
	client := downstream.NewClient(clientCfg, coordinator, logger, metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(coordinator, "/health", "/metrics"))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Duration.HeaderName)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers.NewHandlers(metrics, registry, coordinator, len(routes.Routes)).Register(router)
	relay.NewHandler(routes, client, logger.Logger).Register(router)

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(tracing.UnaryServerInterceptor(coordinator)),
		grpc.ChainStreamInterceptor(tracing.StreamServerInterceptor(coordinator)),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	var grpcAddr string
	if cfg.Server.GRPCPort != "" {
		grpcAddr = net.JoinHostPort(cfg.Server.Host, cfg.Server.GRPCPort)
	}

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		grpc:        grpcServer,
		grpcAddr:    grpcAddr,
		health:      healthServer,
		client:      client,
		coordinator: coordinator,
		logger:      logger,
		config:      cfg,
		metrics:     metrics,
	}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until Shutdown is called. The gRPC health service runs beside
// the HTTP server when a gRPC port is configured.
func (s *Server) Run() error {
	if s.grpcAddr != "" {
		lis, err := net.Listen("tcp", s.grpcAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		go s.serveGRPC(lis)
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) serveGRPC(lis net.Listener) {
	s.logger.Info("Starting gRPC server", zap.String("addr", lis.Addr().String()))
	if err := s.grpc.Serve(lis); err != nil {
		s.logger.Error("gRPC server stopped", zap.Error(err))
	}
}

// Shutdown stops accepting requests and waits for in-flight hops.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	defer func() { _ = s.logger.Sync() }()

	s.health.Shutdown()
	s.grpc.GracefulStop()
	if err := s.client.Close(); err != nil {
		s.logger.Warn("Failed to close downstream connections", zap.Error(err))
	}

	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
