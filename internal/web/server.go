package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vitos/crypto_trade_zones/internal/domain"
	"github.com/vitos/crypto_trade_zones/internal/usecase"
	"go.uber.org/zap"
)

// ZoneService is the part of usecase.ZoneService the HTTP layer needs.
type ZoneService interface {
	Analyze(ctx context.Context, req usecase.AnalyzeRequest) (*domain.ZoneRun, error)
	Latest(ctx context.Context, symbol, interval string) (*domain.ZoneRun, error)
	ListRuns(ctx context.Context, symbol string, limit int) ([]*domain.RunSummary, error)
}

type Server struct {
	router          *http.ServeMux
	server          *http.Server
	service         ZoneService
	defaultInterval string
	defaultLimit    int
	wsPoll          time.Duration
	startedAt       time.Time
	logger          *zap.Logger
}

func NewServer(
	port int,
	service ZoneService,
	defaultInterval string,
	defaultLimit int,
	wsPoll time.Duration,
	logger *zap.Logger,
) *Server {
	if wsPoll <= 0 {
		wsPoll = 2 * time.Second
	}
	s := &Server{
		router:          http.NewServeMux(),
		service:         service,
		defaultInterval: defaultInterval,
		defaultLimit:    defaultLimit,
		wsPoll:          wsPoll,
		startedAt:       time.Now(),
		logger:          logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	// Status
	s.router.HandleFunc("GET /status", s.handleStatus)

	// Zones
	s.router.HandleFunc("GET /api/zones", s.handleLatestZones)
	s.router.HandleFunc("POST /api/zones/analyze", s.handleAnalyze)

	// Runs
	s.router.HandleFunc("GET /api/runs", s.handleListRuns)

	// Push
	s.router.HandleFunc("GET /ws/zones", s.handleZonesWS)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
