package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jaxxstorm/rollovermon/internal/metrics"
	"github.com/jaxxstorm/rollovermon/internal/monitor"
	"go.uber.org/zap"
)

const (
	PathVisibility = "/api/v1/visibility"
	PathTrustChain = "/api/v1/trustchain"
	PathDenylist   = "/api/v1/denylist"
	PathMetrics    = "/metrics"
)

// Analyzer produces the reports served by the API.
type Analyzer interface {
	Visibility(req monitor.Request) (monitor.Analysis, error)
	TrustChain(req monitor.Request) (monitor.Analysis, error)
	Denylist() ([]string, error)
}

type Server struct {
	router *chi.Mux
	logger *zap.Logger
	inner  http.Server
}

func New(analyzer Analyzer, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}).Handler)

	registerEndpoints(router, &endpoints{analyzer: analyzer, logger: logger})
	if m != nil {
		router.Handle(PathMetrics, m.Handler())
	}

	const (
		readHeaderTimeout = 20 * time.Second
		readTimeout       = 20 * time.Second
		writeTimeout      = 60 * time.Second
	)
	s := &Server{router: router, logger: logger}
	s.inner = http.Server{
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		Handler:           router,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve answers requests on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.inner.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("http shutdown", zap.Error(err))
		}
	}()

	s.logger.Info("http server listening", zap.String("addr", l.Addr().String()))
	err := s.inner.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}
