package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/online/internal/domain"
	apimw "github.com/hamed0406/online/internal/httpapi/middleware"
	"github.com/hamed0406/online/internal/metrics"
	"github.com/hamed0406/online/internal/monitor"
	"github.com/hamed0406/online/internal/repo"
	"github.com/hamed0406/online/probe"
)

const (
	defaultHistory = 50
	maxHistory     = 1000
)

type Server struct {
	Logger  *zap.Logger
	Checker monitor.Checker
	Results repo.ResultStore
	Timeout *time.Duration // bound for live checks without ?timeout=
}

func NewServer(l *zap.Logger, c monitor.Checker, rs repo.ResultStore, timeout *time.Duration) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Checker: c, Results: rs, Timeout: timeout}
}

// Router wires the API. Keys gate /api (any key) and /metrics (admin key);
// an empty key set leaves that group open.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, publicRPM, publicBurst int) http.Handler {
	r := chi.NewRouter()
	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(keys))
		r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.RateLimit(publicRPM, publicBurst))
		r.Use(apimw.RequireAny(keys))
		r.Get("/online", s.handleOnline)
		r.Get("/status", s.handleStatus)
		r.Get("/history", s.handleHistory)
	})

	return r
}

// handleOnline runs a live check. The response is 200 when online and 503
// when offline so it can back a load balancer health check directly.
func (s *Server) handleOnline(w http.ResponseWriter, r *http.Request) {
	timeout := s.Timeout
	if raw := r.URL.Query().Get("timeout"); raw != "" {
		t, err := probe.ParseTimeout(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		timeout = t
	}

	rep := s.Checker.Probe(r.Context(), timeout)
	if errors.Is(rep.Err, probe.ErrInvalidTimeout) {
		writeError(w, http.StatusBadRequest, rep.Err.Error())
		return
	}
	if r.Context().Err() != nil {
		return
	}

	cr := domain.FromReport(rep, time.Now())
	if s.Results != nil {
		if err := s.Results.Append(r.Context(), &cr); err != nil {
			s.Logger.Warn("append_result_error", zap.Error(err))
		}
	}
	metrics.ObserveCheck(cr.Online)

	s.Logger.Info("live_check",
		zap.Bool("online", cr.Online),
		zap.String("target", cr.Target),
		zap.String("kind", cr.Kind),
		zap.Float64("latency_ms", cr.LatencyMS),
	)

	status := http.StatusOK
	if !cr.Online {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, cr)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cr, err := s.Results.Latest(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "status error")
		return
	}
	if cr == nil {
		writeError(w, http.StatusNotFound, "no checks yet")
		return
	}
	writeJSON(w, http.StatusOK, cr)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistory
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistory)
	}
	out, err := s.Results.History(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history error")
		return
	}
	if out == nil {
		out = []domain.CheckResult{}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
