// Package devserver is a local admin backend for developing and testing the
// console. It serves the same REST surface as production over a document
// repository.
package devserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/doroshop/dsadmin/internal/database/repository"
)

// Options configures a Server.
type Options struct {
	// Secret signs admin tokens. Empty disables authentication.
	Secret string
	// FailProcess makes every refund disbursement fail with 502.
	FailProcess bool
	Now         func() time.Time
}

// Server handles /api requests.
type Server struct {
	repo    repository.Documents
	log     zerolog.Logger
	opts    Options
	metrics *metrics
}

func New(repo repository.Documents, log zerolog.Logger, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{repo: repo, log: log, opts: opts, metrics: newMetrics()}
}

// Registry exposes the server's metrics registry.
func (s *Server) Registry() *prometheus.Registry { return s.metrics.registry }

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)
		for _, c := range collections {
			s.mountCollection(r, c)
		}
	})
	return r
}

func (s *Server) mountCollection(r chi.Router, c collection) {
	r.Route("/"+c.name, func(r chi.Router) {
		r.Get("/", s.list(c))
		if c.creatable {
			r.Post("/", s.create(c))
		}
		r.Put("/{id}", s.update(c))
		r.Delete("/{id}", s.remove(c))
		if c.name == colRefunds {
			r.Post("/{id}/{verb}", s.refundAction)
		}
	})
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.observe(r.Method, route, status, time.Since(start))
		s.log.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Secret == "" {
			next.ServeHTTP(w, r)
			return
		}
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		claims, err := VerifyToken(s.opts.Secret, raw, s.opts.Now())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		if claims.Role != "admin" {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}
