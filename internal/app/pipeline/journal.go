package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
)

var ErrQueueFull = errors.New("journal queue full")

// Journal buffers alerts in a bounded queue and drains them into a sink in batches.
type Journal struct {
	q    ports.AlertQueue
	sink ports.JournalSink
	pol  ports.Policy
	obs  ports.Observability
}

func NewJournal(q ports.AlertQueue, sink ports.JournalSink, pol ports.Policy, obs ports.Observability) *Journal {
	return &Journal{q: q, sink: sink, pol: pol, obs: obs}
}

// Submit enqueues alerts using the queue-full policy. It returns how many were accepted.
func (j *Journal) Submit(ctx context.Context, alerts []domain.Alert) int {
	accepted := 0
	for i := range alerts {
		if enqueueWithPolicy(ctx, j.q, alerts[i], j.pol, j.obs) {
			accepted++
			continue
		}
		j.obs.RecordDrop(&alerts[i], ErrQueueFull)
	}
	j.obs.SetGauge(ports.MetricJournalQueueLength, float64(j.q.Len()))
	return accepted
}

// Run drains the queue until ctx is cancelled, then flushes what is left.
func (j *Journal) Run(ctx context.Context) error {
	sleep := idleSleep(j.pol)
	for {
		if ctx.Err() != nil {
			j.flush()
			return nil
		}

		if j.drainOnce() == 0 {
			select {
			case <-ctx.Done():
			case <-time.After(sleep):
			}
		}
	}
}

func (j *Journal) flush() {
	for j.drainOnce() > 0 {
	}
}

// drainOnce writes at most one batch and returns its size.
func (j *Journal) drainOnce() int {
	batch := j.q.DequeueBatch(j.pol.MaxBatchSize)
	if len(batch) == 0 {
		return 0
	}
	j.obs.SetGauge(ports.MetricJournalQueueLength, float64(j.q.Len()))

	start := time.Now()
	if err := j.sink.WriteBatch(batch); err != nil {
		j.obs.LogError("journal_write_failed", err,
			ports.Field{Key: "sink", Value: j.sink.Name()},
			ports.Field{Key: "alerts", Value: len(batch)})
		for i := range batch {
			j.obs.RecordDrop(&batch[i], err)
		}
		return len(batch)
	}
	j.obs.ObserveLatency(ports.MetricJournalWriteSeconds, time.Since(start).Seconds())
	j.obs.IncCounter(ports.MetricJournalWritten, float64(len(batch)))
	return len(batch)
}

func enqueueWithPolicy(ctx context.Context, q ports.AlertQueue, a domain.Alert, pol ports.Policy, obs ports.Observability) bool {
	sleep := idleSleep(pol)

	for {
		if ok := q.Enqueue(a); ok {
			return true
		}

		switch pol.OnQueueFull {
		case "block":
			select {
			case <-ctx.Done():
				return false
			case <-time.After(sleep):
			}
		case "drop", "reject":
			obs.LogError("queue_full_drop", fmt.Errorf("queue length exceeded capacity %d", pol.MaxQueueLen))
			return false
		default:
			obs.LogError("queue_policy_invalid", fmt.Errorf("policy=%s", pol.OnQueueFull))
			return false
		}
	}
}

func idleSleep(pol ports.Policy) time.Duration {
	if pol.IdleSleep <= 0 {
		return 5 * time.Millisecond
	}
	return pol.IdleSleep
}
