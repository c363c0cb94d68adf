// Package server exposes a Resolver over HTTP: JSON endpoints for pillars,
// document lists and compiled documents, plus a sitemap.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	nostress "github.com/PietroNarcisi/NostressAI"
)

// Defaults.
const (
	DefaultAddr            = ":8080"
	DefaultBaseURL         = "https://www.nostress.ai"
	DefaultShutdownTimeout = 5 * time.Second
	readHeaderTimeout      = 10 * time.Second
)

// Resolver is the subset of *nostress.Resolver the server needs.
type Resolver interface {
	Pillars() []nostress.Pillar
	ListDocuments(ctx context.Context, kind nostress.Kind) ([]nostress.Summary, error)
	ResolveDocument(ctx context.Context, kind nostress.Kind, slug string) (*nostress.CompiledPost, error)
}

// Server routes HTTP requests to a Resolver.
type Server struct {
	resolver        Resolver
	logger          *zap.Logger
	baseURL         string
	shutdownTimeout time.Duration
	handler         http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBaseURL sets the public site URL used in the sitemap.
func WithBaseURL(u string) Option {
	return func(s *Server) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// New builds a Server over r.
func New(r Resolver, opts ...Option) *Server {
	s := &Server{
		resolver:        r,
		logger:          zap.NewNop(),
		baseURL:         DefaultBaseURL,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/pillars", s.handlePillars)
	mux.HandleFunc("GET /api/{kind}", s.handleList)
	mux.HandleFunc("GET /api/{kind}/{slug}", s.handleDocument)
	mux.HandleFunc("GET /sitemap.xml", s.handleSitemap)
	s.handler = s.logRequests(mux)
	return s
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is done. ln is closed on return.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          zap.NewStdLog(s.logger),
	}

	s.logger.Info("serving", zap.String("addr", ln.Addr().String()))
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-serveErr
		s.logger.Info("server stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	}
}

func (s *Server) handlePillars(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.resolver.Pillars())
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	kind, err := nostress.ParseKind(r.PathValue("kind"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.resolver.ListDocuments(r.Context(), kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	kind, err := nostress.ParseKind(r.PathValue("kind"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	post, err := s.resolver.ResolveDocument(r.Context(), kind, r.PathValue("slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, post)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string `json:"error"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// statusFor maps resolver errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, nostress.ErrInvalidKind):
		return http.StatusBadRequest
	case errors.Is(err, nostress.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, nostress.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		// Client went away; nobody reads the response.
		s.logger.Debug("request cancelled", zap.String("path", r.URL.Path))
		return
	}

	status := statusFor(err)
	body := errorBody{Error: http.StatusText(status)}
	var ce *nostress.CompileError
	switch {
	case errors.As(err, &ce):
		body.Error = "document failed to compile: " + ce.Msg
		body.Line, body.Column = ce.Line, ce.Column
	case status == http.StatusBadRequest:
		body.Error = err.Error()
	case status == http.StatusInternalServerError:
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	s.writeJSON(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encoding response", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
