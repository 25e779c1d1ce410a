package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/engine"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
)

// Snapshots exposes the refresher state.
type Snapshots interface {
	Snapshot() *domain.Snapshot
	LastError() (string, time.Time)
}

// HealthChecker proxies the upstream liveness endpoint. The payload is opaque and
// is served with the content type the upstream reported.
type HealthChecker interface {
	Health(ctx context.Context) (body []byte, contentType string, err error)
}

// Views sizes the per-request upstream fetches.
type Views struct {
	HistoryPageSize int
	VisualizeLimit  int
	TimelineWindow  int
}

type Deps struct {
	Snapshots  Snapshots
	Source     ports.TelemetrySource
	Predictor  ports.Predictor
	Health     HealthChecker
	Classifier ports.Classifier
	Obs        ports.Observability
	Views      Views
	Location   *time.Location
	Now        func() time.Time
}

type Server struct {
	d Deps
}

func New(d Deps) *Server {
	if d.Classifier == nil {
		d.Classifier = engine.ThresholdClassifier{}
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Views.HistoryPageSize <= 0 {
		d.Views.HistoryPageSize = 20
	}
	if d.Views.VisualizeLimit <= 0 {
		d.Views.VisualizeLimit = 200
	}
	if d.Views.TimelineWindow <= 0 {
		d.Views.TimelineWindow = engine.DefaultTimelineWindow
	}
	return &Server{d: d}
}

// Router builds the HTTP surface.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/alerts", s.handleAlerts).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/history/export.csv", s.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/timeseries", s.handleTimeseries).Methods(http.MethodGet)
	api.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost)
	api.HandleFunc("/upstream/health", s.handleUpstreamHealth).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if s.d.Obs == nil {
			return
		}
		s.d.Obs.LogInfo("http_request",
			ports.Field{Key: "method", Value: r.Method},
			ports.Field{Key: "path", Value: r.URL.Path},
			ports.Field{Key: "status", Value: rec.status},
			ports.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
