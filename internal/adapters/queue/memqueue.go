package queue

import (
	"sync"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
)

// MemQueue is a bounded in-memory alert queue that preserves FIFO ordering.
type MemQueue struct {
	mu   sync.Mutex
	data []domain.Alert
	cap  int
}

func NewMemQueue(capacity int) *MemQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemQueue{
		data: make([]domain.Alert, 0, min(capacity, 1024)),
		cap:  capacity,
	}
}

func (q *MemQueue) Enqueue(a domain.Alert) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) >= q.cap {
		return false
	}
	q.data = append(q.data, a)
	return true
}

func (q *MemQueue) DequeueBatch(max int) []domain.Alert {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return nil
	}
	if max <= 0 || max > len(q.data) {
		max = len(q.data)
	}
	out := make([]domain.Alert, max)
	copy(out, q.data[:max])
	q.data = append(q.data[:0], q.data[max:]...)
	return out
}

func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

var _ ports.AlertQueue = (*MemQueue)(nil)
