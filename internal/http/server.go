// Package http exposes the savings-group API as JSON over net/http.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ajo/internal/log"
	"ajo/internal/metrics"
	"ajo/internal/middleware/ratelimit"
	"ajo/internal/middleware/security"
	"ajo/internal/middleware/trace"
	"ajo/internal/services"
)

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Groups  *services.GroupService
	Reports *services.ReportService

	// Ready reports whether backing stores are reachable; nil means always ready.
	Ready func(ctx context.Context) error

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // nil serves the default registry
	Logger   *log.Logger

	RateLimitPerMinute int
}

type Server struct {
	http.Server
	groups   *services.GroupService
	reports  *services.ReportService
	ready    func(ctx context.Context) error
	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		groups:   deps.Groups,
		reports:  deps.Reports,
		ready:    deps.Ready,
		detector: security.NewDetector(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimitPerMinute,
			ExemptSafeMethods: true,
		}),
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /api/groups", s.handleCreateGroup)
	mux.HandleFunc("GET /api/groups", s.handleListGroups)
	mux.HandleFunc("GET /api/groups/{id}", s.handleGetGroup)
	mux.HandleFunc("PUT /api/groups/{id}", s.handleUpdateGroup)
	mux.HandleFunc("DELETE /api/groups/{id}", s.handleDeleteGroup)

	mux.HandleFunc("POST /api/groups/{id}/members", s.handleAddMember)
	mux.HandleFunc("GET /api/groups/{id}/members/{memberId}", s.handleMemberSummary)
	mux.HandleFunc("DELETE /api/groups/{id}/members/{memberId}", s.handleRemoveMember)
	mux.HandleFunc("PUT /api/groups/{id}/members/{memberId}/order", s.handleReorderMember)

	mux.HandleFunc("GET /api/groups/{id}/schedule", s.handleSchedule)
	mux.HandleFunc("POST /api/groups/{id}/payments", s.handleRecordPayment)
	mux.HandleFunc("GET /api/groups/{id}/payments", s.handleListPayments)
	mux.HandleFunc("PUT /api/groups/{id}/payments/{recordId}", s.handleUpdatePayment)

	mux.HandleFunc("GET /api/groups/{id}/progress", s.handleProgress)
	mux.HandleFunc("GET /api/groups/{id}/cycles/{cycle}/report", s.handleCycleReport)
	mux.HandleFunc("GET /api/groups/{id}/report", s.handleGroupReport)
	mux.HandleFunc("POST /api/groups/{id}/reminders", s.handleSendReminders)
	mux.HandleFunc("POST /api/groups/{id}/export", s.handleExport)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, onRateLimit)(handler)
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(logger.WithComponent(log.ComponentHTTP), s.detector.ExtractClientIP, deps.Metrics.ObserveHTTP).Middleware(handler)
	s.Handler = handler

	return s
}

func onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		"method", r.Method, "path", r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: errorDetail{
		Code:    "rate_limited",
		Message: "Rate limit exceeded. Please try again later.",
	}})
}

// Shutdown stops background helpers and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
