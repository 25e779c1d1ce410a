package ports

import "github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"

type AlertQueue interface {
	Enqueue(a domain.Alert) bool
	DequeueBatch(max int) []domain.Alert
	Len() int
}
