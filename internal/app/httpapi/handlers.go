package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/adapters/export"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/adapters/sensorapi"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/engine"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
)

const maxPredictBody = 1 << 16

type dashboardResponse struct {
	SnapshotID  string                    `json:"snapshot_id,omitempty"`
	FetchedAt   *time.Time                `json:"fetched_at,omitempty"`
	Summary     domain.FleetSummary       `json:"summary"`
	Share       domain.HealthShare        `json:"share"`
	Recent      []domain.RecentPrediction `json:"recent"`
	Rejected    int                       `json:"rejected"`
	LastError   string                    `json:"last_error,omitempty"`
	LastErrorAt *time.Time                `json:"last_error_at,omitempty"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	snap := s.d.Snapshots.Snapshot()
	lastErr, lastErrAt := s.d.Snapshots.LastError()
	if snap == nil {
		if lastErr != "" {
			writeError(w, http.StatusBadGateway, lastErr)
			return
		}
		writeError(w, http.StatusServiceUnavailable, "no data fetched yet")
		return
	}

	resp := dashboardResponse{
		SnapshotID: snap.ID,
		FetchedAt:  &snap.FetchedAt,
		Summary:    snap.Summary,
		Share:      snap.Share,
		Recent:     snap.Recent,
		Rejected:   snap.Rejected,
		LastError:  lastErr,
	}
	if lastErr != "" {
		resp.LastErrorAt = &lastErrAt
	}
	writeJSON(w, http.StatusOK, resp)
}

type alertsResponse struct {
	SnapshotID string `json:"snapshot_id"`
	domain.AlertReport
}

// handleAlerts re-derives ages against the current clock.
func (s *Server) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	snap := s.d.Snapshots.Snapshot()
	if snap == nil {
		if msg, _ := s.d.Snapshots.LastError(); msg != "" {
			writeError(w, http.StatusBadGateway, msg)
			return
		}
		writeError(w, http.StatusServiceUnavailable, "no data fetched yet")
		return
	}
	report := engine.BuildAlerts(snap.Batch.Records, s.d.Classifier, s.d.Now())
	writeJSON(w, http.StatusOK, alertsResponse{SnapshotID: snap.ID, AlertReport: report})
}

type historyResponse struct {
	Records   []domain.Record `json:"records"`
	Page      int             `json:"page"`
	PageCount int             `json:"page_count"`
	Total     int             `json:"total"`
	Rejected  int             `json:"rejected"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	batch, rows, ok := s.history(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{
		Records:   rows,
		Page:      batch.Page,
		PageCount: engine.PageCount(batch.Total, batch.Limit),
		Total:     batch.Total,
		Rejected:  batch.Rejected,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	_, rows, ok := s.history(w, r)
	if !ok {
		return
	}
	name := fmt.Sprintf("sensor-data-%s.csv", s.d.Now().UTC().Format("2006-01-02T15-04-05Z"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := export.WriteCSV(w, rows); err != nil && s.d.Obs != nil {
		s.d.Obs.LogError("export_write_failed", err)
	}
}

// history fetches the requested page and applies the query. It writes the error
// response itself and reports ok=false when the request cannot be served.
func (s *Server) history(w http.ResponseWriter, r *http.Request) (domain.Batch, []domain.Record, bool) {
	page, q, err := parseHistoryParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.Batch{}, nil, false
	}

	batch, err := s.d.Source.FetchPage(r.Context(), page, s.d.Views.HistoryPageSize)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return domain.Batch{}, nil, false
	}

	rows, err := engine.Query(batch.Records, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.Batch{}, nil, false
	}
	return batch, rows, true
}

func parseHistoryParams(r *http.Request) (int, engine.HistoryQuery, error) {
	v := r.URL.Query()
	page := 1
	if raw := strings.TrimSpace(v.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return 0, engine.HistoryQuery{}, fmt.Errorf("page must be a positive integer, got %q", raw)
		}
		page = n
	}
	q := engine.HistoryQuery{
		Status:    engine.StatusFilter(strings.ToLower(v.Get("status"))),
		SortField: v.Get("sort"),
		Direction: engine.SortDirection(strings.ToLower(v.Get("dir"))),
	}
	if err := q.Validate(); err != nil {
		return 0, engine.HistoryQuery{}, err
	}
	return page, q, nil
}

type timeseriesResponse struct {
	Machine     string                    `json:"machine"`
	Machines    []string                  `json:"machines"`
	Points      int                       `json:"points"`
	PointRadius int                       `json:"point_radius"`
	Charts      map[string][]engine.Point `json:"charts"`
	Timeline    []domain.Record           `json:"timeline"`
}

func (s *Server) handleTimeseries(w http.ResponseWriter, r *http.Request) {
	machine := strings.TrimSpace(r.URL.Query().Get("machine"))
	if machine == "" {
		machine = engine.MachineAll
	}

	batch, err := s.d.Source.FetchPage(r.Context(), 1, s.d.Views.VisualizeLimit)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	series := engine.Select(batch.Records, machine, s.d.Location)
	writeJSON(w, http.StatusOK, timeseriesResponse{
		Machine:     machine,
		Machines:    series.Machines(),
		Points:      series.Len(),
		PointRadius: series.PointRadius(),
		Charts:      series.Charts(),
		Timeline:    series.Timeline(s.d.Views.TimelineWindow),
	})
}

type predictResponse struct {
	ports.PredictResult
	Status string `json:"status"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	form, err := decodePredictForm(io.LimitReader(r.Body, maxPredictBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := form.Parse()
	if err != nil {
		var verr *sensorapi.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Error(), Fields: verr.Fields})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.d.Predictor.Predict(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	status := domain.Record{Prediction: res.Prediction}.Status()
	writeJSON(w, http.StatusOK, predictResponse{PredictResult: res, Status: status})
}

// decodePredictForm accepts JSON numbers or strings for each field so the form
// validation sees exactly what the client typed.
func decodePredictForm(body io.Reader) (sensorapi.PredictForm, error) {
	var raw map[string]any
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return sensorapi.PredictForm{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	text := func(key string) string {
		switch v := raw[key].(type) {
		case string:
			return v
		case json.Number:
			return v.String()
		case nil:
			return ""
		default:
			return fmt.Sprint(v)
		}
	}
	return sensorapi.PredictForm{
		Temperature:  text(domain.FieldTemperature),
		Vibration:    text(domain.FieldVibration),
		RPMDev:       text(domain.FieldRPMDev),
		CurrentDelta: text(domain.FieldCurrentDelta),
	}, nil
}

func (s *Server) handleUpstreamHealth(w http.ResponseWriter, r *http.Request) {
	if s.d.Health == nil {
		writeError(w, http.StatusNotImplemented, "upstream health check not configured")
		return
	}
	body, ctype, err := s.d.Health.Health(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
