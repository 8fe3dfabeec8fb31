package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	xlog "github.com/Project-Sylos/Sitemap/internal/log"
	"github.com/Project-Sylos/Sitemap/internal/types"
	"github.com/Project-Sylos/Sitemap/sdk"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds how long in-flight requests may take to finish
const ShutdownTimeout = 30 * time.Second

// Server represents the HTTP API server
type Server struct {
	router *chi.Mux
	sm     *sdk.Sitemap
	config types.APIConfig
	http   *http.Server
	logger zerolog.Logger
}

// NewServer creates a new API server
func NewServer(sm *sdk.Sitemap, config types.APIConfig, version string) *Server {
	router := NewRouter(sm, config, version).SetupRoutes()

	return &Server{
		router: router,
		sm:     sm,
		config: config,
		http: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       config.ReadTimeout.Std(),
			WriteTimeout:      config.WriteTimeout.Std(),
			IdleTimeout:       config.IdleTimeout.Std(),
		},
		logger: xlog.WithComponent("api"),
	}
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. In-flight
// requests get ShutdownTimeout to complete.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("sitemap API listening")
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.logger.Info().Msg("server shutdown complete")
	return err
}

// GetRouter returns the configured router
func (s *Server) GetRouter() *chi.Mux {
	return s.router
}

// Stop closes the sitemap backing the server
func (s *Server) Stop() error {
	return s.sm.Close()
}
