package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/engine"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
)

// BuildSnapshot runs the dashboard views over one fetched batch.
func BuildSnapshot(batch domain.Batch, cls ports.Classifier, now time.Time, recent int) *domain.Snapshot {
	summary := engine.Aggregate(batch.Records)
	return &domain.Snapshot{
		ID:        uuid.NewString(),
		FetchedAt: now,
		Batch:     batch,
		Rejected:  batch.Rejected,
		Summary:   summary,
		Share:     engine.Share(summary),
		Alerts:    engine.BuildAlerts(batch.Records, cls, now),
		Recent:    engine.Recent(batch.Records, recent),
	}
}
