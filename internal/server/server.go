package server

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/ragdemo/docchat/internal/adapter/utils"
	"github.com/ragdemo/docchat/internal/config"
	"github.com/ragdemo/docchat/internal/handlers"
	"github.com/ragdemo/docchat/internal/middleware"
	"github.com/ragdemo/docchat/pkg/logger_i"
)

var _logger = logger_i.NewLogger("Server")

type Server struct {
	httpServer *http.Server
}

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	CloseServices    context.CancelFunc
}

// NewRouter mounts the API routes behind the middleware chain on top of the
// shared router (CORS, swagger, metrics, healthz).
func NewRouter(h *handlers.RequestHandler, chain *middleware.Chain, allowedOrigin string) *chi.Mux {
	r := utils.NewRouter(allowedOrigin)
	r.Route("/api", func(api chi.Router) {
		api.Get("/check_documents", chain.Wrap(h.CheckDocumentsHandler))
		api.Post("/chat", chain.Wrap(h.ChatHandler))
	})
	return r
}

// New builds the http server. There is no WriteTimeout since a chat answer
// streams for as long as the model keeps generating.
func New(listenAddr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:        listenAddr,
			Handler:     handler,
			ReadTimeout: config.ReadTimeout,
			IdleTimeout: config.IdleTimeout,
		},
	}
}

func (s *Server) Start() {
	_logger.Info("Server is listening at", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err, "addr", s.httpServer.Addr)
		os.Exit(1)
	}
}

func (s *Server) ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		s.httpServer.SetKeepAlivesEnabled(false)

		if err := s.httpServer.Shutdown(ctx); err != nil {
			_logger.Error("Could not shutdown gracefully", "error", err)
		}

		shutdownParams.CloseServices()
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully shut down")
		close(shutdownParams.StopExecution)
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}
