package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/funvibe/concepts/internal/concepts"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID returns the ID assigned by the request ID middleware.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// EvalRequest is the body of POST /v1/eval.
type EvalRequest struct {
	Queries []string `json:"queries"`
}

type EvalResponse struct {
	Verdicts []concepts.Verdict `json:"verdicts"`
}

// InstantiateRequest is the body of POST /v1/algorithms/{name}/instantiate.
type InstantiateRequest struct {
	Args []string `json:"args"`
}

// NewRouter mounts the query API. A non-nil gatherer is served on /metrics.
func NewRouter(s *Service, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(s.accessLog)

	r.Get("/healthz", s.handleHealth)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/concepts", s.handleConcepts)
		r.Get("/concepts/{name}", s.handleConcept)
		r.Get("/concepts/{name}/eval", s.handleEvaluate)
		r.Post("/eval", s.handleEvaluateBatch)
		r.Get("/algorithms", s.handleAlgorithms)
		r.Post("/algorithms/{name}/instantiate", s.handleInstantiate)
	})
	return r
}

// NewHTTPServer builds an HTTP server with the project defaults.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (s *Service) accessLog(next http.Handler) http.Handler {
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
		s.metrics.Served("http", route, strconv.Itoa(status))
		s.logger.InfoContext(r.Context(), "request served",
			"request_id", RequestID(r.Context()),
			"method", r.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if failed := s.Health(r.Context()); len(failed) > 0 {
		s.logger.Warn("health check failed", "failed", failed)
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "unavailable", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleConcepts(w http.ResponseWriter, r *http.Request) {
	hidden, _ := strconv.ParseBool(r.URL.Query().Get("hidden"))
	writeJSON(w, http.StatusOK, s.Concepts(hidden))
}

func (s *Service) handleConcept(w http.ResponseWriter, r *http.Request) {
	info, err := s.Concept(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleEvaluate answers GET /v1/concepts/{name}/eval?arg=int&arg=float.
func (s *Service) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	v, err := s.Evaluate(r.Context(), chi.URLParam(r, "name"), r.URL.Query()["arg"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Service) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var req EvalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "invalid request body: " + err.Error()})
		return
	}
	verdicts, err := s.EvaluateQueries(r.Context(), req.Queries)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EvalResponse{Verdicts: verdicts})
}

func (s *Service) handleAlgorithms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Algorithms())
}

func (s *Service) handleInstantiate(w http.ResponseWriter, r *http.Request) {
	var req InstantiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "invalid request body: " + err.Error()})
		return
	}
	inst, err := s.Instantiate(r.Context(), chi.URLParam(r, "name"), req.Args)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"request_id", RequestID(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, status, errorBody(err))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
