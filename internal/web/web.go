package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medcalc/internal/clock"
	"medcalc/internal/config"
	appLog "medcalc/internal/log"
	"medcalc/internal/model"
)

// DefaultShutdownGrace bounds how long Run waits for in-flight requests.
const DefaultShutdownGrace = 5 * time.Second

// Server renders the calculator pages and serves the JSON and iCalendar APIs.
type Server struct {
	cfg   *config.Config
	clock clock.Clock
	mux   *http.ServeMux
	pages map[string]*pageTemplate
}

//go:embed templates/*.html
var embeddedTemplates embed.FS

//go:embed static
var embeddedStatic embed.FS

// NewServer constructs a new Server. clk defines "today" for every request.
func NewServer(cfg *config.Config, clk clock.Clock) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("web: config is nil")
	}
	if clk == nil {
		return nil, errors.New("web: clock is nil")
	}
	pages, err := parseTemplates(embeddedTemplates)
	if err != nil {
		return nil, fmt.Errorf("web: %w", err)
	}
	s := &Server{
		cfg:   cfg,
		clock: clk,
		mux:   http.NewServeMux(),
		pages: pages,
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := logRequests(s.recoverPanics(s.mux))
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /{$}", s.handleHome)
	for _, p := range model.Pages {
		s.mux.HandleFunc("GET /"+p.Slug, s.handleCalculator(p))
	}
	s.mux.HandleFunc("GET /links", s.handleLinks)
	s.mux.HandleFunc("GET /card", s.handleCard)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)

	s.mux.HandleFunc("GET /api/calculate", s.handleCalculate)
	s.mux.HandleFunc("GET /api/transplant.ics", s.handleTransplantICS)
	s.mux.HandleFunc("GET /api/chemo.ics", s.handleChemoICS)

	s.mux.Handle("GET /static/", s.staticFileServer())
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. Empty
// credentials disable it.
func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="MedCalc", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		appLog.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", time.Since(start))
	})
}

// recoverPanics turns a handler panic into a logged error and a 500 response:
// the error page for HTML routes, a JSON error under /api/.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			appLog.Error("handler panicked", fmt.Errorf("panic: %v", v), "method", r.Method, "path", r.URL.Path)
			if strings.HasPrefix(r.URL.Path, "/api/") {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			s.renderError(w)
		}()
		next.ServeHTTP(w, r)
	})
}

// Run listens on cfg.Listen and serves until ctx is canceled, then shuts
// the server down, waiting up to grace for in-flight requests.
func (s *Server) Run(ctx context.Context, grace time.Duration) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("web: listen %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln, grace)
}

// Serve is like Run but uses an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, grace time.Duration) error {
	if grace <= 0 {
		grace = DefaultShutdownGrace
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serveErr <- err
	}()
	appLog.Info("HTTP server listening", "addr", "http://"+ln.Addr().String())

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("web: serve %s: %w", ln.Addr(), err)
		}
		return nil
	case <-ctx.Done():
		appLog.Info("HTTP server shutting down", "addr", ln.Addr().String(), "grace", grace)
	}

	// The serving context is already canceled; shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web: shutdown within %s: %w", grace, err)
	}
	return <-serveErr
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview serves the last captured card PNG from cfg.Card.Output.
// http.ServeFile maps a missing file to 404.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, s.cfg.Card.Output)
}

func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static assets not available", http.StatusServiceUnavailable)
		})
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// parseIntParam returns def for an empty value and an error for anything
// that is not an integer.
func parseIntParam(name, s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", name, s)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
