package ports

import "github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"

// JournalSink records alerts outside the process.
type JournalSink interface {
	WriteBatch(alerts []domain.Alert) error
	Name() string
}
