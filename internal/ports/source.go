package ports

import (
	"context"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
)

// TelemetrySource fetches one page of telemetry from the upstream service.
type TelemetrySource interface {
	FetchPage(ctx context.Context, page, limit int) (domain.Batch, error)
}

// PredictRequest is the sensor tuple submitted for a one-off prediction.
type PredictRequest struct {
	Temperature  float64 `json:"temperature"`
	Vibration    float64 `json:"vibration"`
	RPMDev       float64 `json:"rpm_dev"`
	CurrentDelta float64 `json:"current_delta"`
}

// PredictResult is the upstream model verdict.
type PredictResult struct {
	Prediction int      `json:"prediction"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Predictor submits sensor tuples to the upstream model.
type Predictor interface {
	Predict(ctx context.Context, req PredictRequest) (PredictResult, error)
}
