package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/adapters/queue"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
)

var t0 = time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC)

func rec(machine string, offset time.Duration, prediction int) domain.Record {
	return domain.Record{MachineID: machine, Timestamp: t0.Add(offset), Prediction: prediction, Temperature: 85}
}

func TestRefreshOncePublishesSnapshot(t *testing.T) {
	src := &stubSource{batches: []domain.Batch{{
		Records: []domain.Record{
			rec("1", 2*time.Minute, 1),
			rec("2", time.Minute, 0),
			rec("3", 0, 1),
		},
		Total:    3,
		Rejected: 2,
	}}}
	obs := newMockObs()
	r := NewRefresher(src, nil, obs, RefreshConfig{Limit: 100, RecentCount: 2})
	r.SetClock(func() time.Time { return t0.Add(time.Hour) })

	var handed []domain.Alert
	r.OnAlerts(func(_ context.Context, alerts []domain.Alert) { handed = alerts })

	if r.Snapshot() != nil {
		t.Fatalf("expected no snapshot before first refresh")
	}
	if err := r.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	snap := r.Snapshot()
	if snap == nil || snap.ID == "" {
		t.Fatalf("expected snapshot with id, got %+v", snap)
	}
	if snap.Summary.TotalMachines != 3 || snap.Summary.ActiveAlerts != 2 || snap.Rejected != 2 {
		t.Fatalf("unexpected summary %+v rejected=%d", snap.Summary, snap.Rejected)
	}
	if len(snap.Recent) != 2 || len(snap.Alerts.Alerts) != 2 {
		t.Fatalf("unexpected recent/alerts: %d/%d", len(snap.Recent), len(snap.Alerts.Alerts))
	}
	if len(handed) != 2 {
		t.Fatalf("expected 2 alerts handed to journal, got %d", len(handed))
	}
	if src.lastLimit != 100 || src.lastPage != 1 {
		t.Fatalf("expected page 1 limit 100, got %d/%d", src.lastPage, src.lastLimit)
	}
	if obs.counter(ports.MetricRefreshTotal) != 1 || obs.counter(ports.MetricRecordsRejected) != 2 {
		t.Fatalf("unexpected counters %+v", obs.counters)
	}
	if obs.gauge(ports.MetricActiveAlerts) != 2 || obs.gauge(ports.MetricFleetMachines) != 3 {
		t.Fatalf("unexpected gauges %+v", obs.gauges)
	}
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	boom := errors.New("Failed to fetch sensor data")
	src := &stubSource{
		batches: []domain.Batch{{Records: []domain.Record{rec("1", 0, 0)}}, {}, {Records: []domain.Record{rec("2", 0, 0)}}},
		errs:    []error{nil, boom, nil},
	}
	obs := newMockObs()
	r := NewRefresher(src, nil, obs, RefreshConfig{})

	if err := r.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	first := r.Snapshot()

	if err := r.RefreshOnce(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if r.Snapshot() != first {
		t.Fatalf("failed refresh must keep the previous snapshot")
	}
	if msg, at := r.LastError(); msg != boom.Error() || at.IsZero() {
		t.Fatalf("expected recorded error, got %q at %v", msg, at)
	}
	if obs.counter(ports.MetricRefreshFailures) != 1 {
		t.Fatalf("expected one failure counted")
	}

	if err := r.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("third refresh: %v", err)
	}
	if r.Snapshot() == first {
		t.Fatalf("expected snapshot to be replaced")
	}
	if msg, _ := r.LastError(); msg != "" {
		t.Fatalf("expected error to clear after success, got %q", msg)
	}
}

func TestRefreshDiscardsResultAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &stubSource{
		batches: []domain.Batch{{Records: []domain.Record{rec("1", 0, 1)}}},
		during:  cancel,
	}
	r := NewRefresher(src, nil, newMockObs(), RefreshConfig{})

	if err := r.RefreshOnce(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if r.Snapshot() != nil {
		t.Fatalf("late result must be discarded")
	}
}

func TestRefreshHandsOutOnlyNewAlerts(t *testing.T) {
	src := &stubSource{batches: []domain.Batch{
		{Records: []domain.Record{rec("1", time.Minute, 1), rec("2", 0, 1)}},
		{Records: []domain.Record{rec("3", 2*time.Minute, 1), rec("1", time.Minute, 1), rec("2", 0, 1)}},
	}}
	r := NewRefresher(src, nil, newMockObs(), RefreshConfig{})

	var rounds [][]domain.Alert
	r.OnAlerts(func(_ context.Context, alerts []domain.Alert) { rounds = append(rounds, alerts) })

	for i := 0; i < 2; i++ {
		if err := r.RefreshOnce(context.Background()); err != nil {
			t.Fatalf("refresh %d: %v", i, err)
		}
	}
	if len(rounds) != 2 || len(rounds[0]) != 2 {
		t.Fatalf("unexpected rounds %+v", rounds)
	}
	// the alert at the previous watermark is repeated; older ones are not
	if len(rounds[1]) != 2 || rounds[1][0].Record.MachineID != "3" || rounds[1][1].Record.MachineID != "1" {
		t.Fatalf("unexpected second round %+v", rounds[1])
	}
}

func TestRunRefreshesOnTicker(t *testing.T) {
	src := &stubSource{batches: []domain.Batch{{Records: []domain.Record{rec("1", 0, 0)}}}}
	r := NewRefresher(src, nil, newMockObs(), RefreshConfig{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for src.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 fetches, got %d", src.calls.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run returned %v", err)
	}
}

func TestOverlappingRefreshesKeepNewestBatch(t *testing.T) {
	src := &gatedSource{
		release: make(chan struct{}),
		entered: make(chan struct{}),
	}
	r := NewRefresher(src, nil, newMockObs(), RefreshConfig{Interval: time.Second})

	first := make(chan error, 1)
	go func() { first <- r.RefreshOnce(context.Background()) }()
	<-src.entered

	second := make(chan error, 1)
	go func() { second <- r.RefreshOnce(context.Background()) }()

	time.Sleep(30 * time.Millisecond)
	close(src.release)

	if err := <-first; err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if err := <-second; err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	snap := r.Snapshot()
	if snap == nil || snap.Batch.Records[0].MachineID != "new" {
		t.Fatalf("older fetch replaced the newer snapshot: %+v", snap)
	}
}

func TestJournalSubmitDropsWhenFull(t *testing.T) {
	obs := newMockObs()
	j := NewJournal(queue.NewMemQueue(1), &stubSink{}, ports.Policy{MaxQueueLen: 1, OnQueueFull: "drop"}, obs)

	alerts := []domain.Alert{{Record: rec("1", 0, 1)}, {Record: rec("2", 0, 1)}}
	if n := j.Submit(context.Background(), alerts); n != 1 {
		t.Fatalf("expected 1 accepted, got %d", n)
	}
	if obs.dropCount() != 1 || !errors.Is(obs.lastDropErr(), ErrQueueFull) {
		t.Fatalf("expected one queue-full drop, got %d", obs.dropCount())
	}
	if obs.gauge(ports.MetricJournalQueueLength) != 1 {
		t.Fatalf("expected queue length gauge 1")
	}
}

func TestJournalRunDrainsAndFlushes(t *testing.T) {
	obs := newMockObs()
	snk := &stubSink{}
	q := queue.NewMemQueue(10)
	j := NewJournal(q, snk, ports.Policy{MaxBatchSize: 2, IdleSleep: time.Millisecond, OnQueueFull: "drop"}, obs)

	j.Submit(context.Background(), []domain.Alert{
		{Record: rec("1", 0, 1)}, {Record: rec("2", 0, 1)}, {Record: rec("3", 0, 1)},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for snk.total() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected 3 alerts written, got %d", snk.total())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run returned %v", err)
	}
	if snk.batches() < 2 {
		t.Fatalf("expected batches capped at 2, got %d batches", snk.batches())
	}
	if obs.counter(ports.MetricJournalWritten) != 3 {
		t.Fatalf("expected written counter 3, got %v", obs.counter(ports.MetricJournalWritten))
	}
}

func TestJournalFlushOnCancelledContext(t *testing.T) {
	snk := &stubSink{}
	q := queue.NewMemQueue(10)
	j := NewJournal(q, snk, ports.Policy{MaxBatchSize: 10, OnQueueFull: "drop"}, newMockObs())
	j.Submit(context.Background(), []domain.Alert{{Record: rec("1", 0, 1)}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := j.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if snk.total() != 1 || q.Len() != 0 {
		t.Fatalf("expected remaining alert flushed, wrote %d left %d", snk.total(), q.Len())
	}
}

func TestJournalSinkFailureRecordsDrops(t *testing.T) {
	obs := newMockObs()
	j := NewJournal(queue.NewMemQueue(10), &stubSink{err: errors.New("db down")}, ports.Policy{OnQueueFull: "drop"}, obs)
	j.Submit(context.Background(), []domain.Alert{{Record: rec("1", 0, 1)}, {Record: rec("2", 0, 1)}})

	if n := j.drainOnce(); n != 2 {
		t.Fatalf("expected batch of 2, got %d", n)
	}
	if obs.dropCount() != 2 || len(obs.errorsLogged()) == 0 {
		t.Fatalf("expected drops and an error log, got %d drops", obs.dropCount())
	}
}

func TestEnqueueWithPolicyBlock(t *testing.T) {
	q := &mockQueue{}
	q.failures = 1

	pol := ports.Policy{
		OnQueueFull: "block",
		IdleSleep:   time.Millisecond,
	}

	if ok := enqueueWithPolicy(context.Background(), q, domain.Alert{}, pol, newMockObs()); !ok {
		t.Fatalf("expected enqueue to eventually succeed")
	}
	if q.calls != 2 {
		t.Fatalf("expected two enqueue attempts, got %d", q.calls)
	}
}

func TestEnqueueWithPolicyBlockHonoursContext(t *testing.T) {
	q := &mockQueue{failAlways: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if ok := enqueueWithPolicy(ctx, q, domain.Alert{}, ports.Policy{OnQueueFull: "block"}, newMockObs()); ok {
		t.Fatalf("expected blocked enqueue to give up on cancelled context")
	}
}

func TestEnqueueWithPolicyDrop(t *testing.T) {
	q := &mockQueue{failAlways: true}
	obs := newMockObs()

	if ok := enqueueWithPolicy(context.Background(), q, domain.Alert{}, ports.Policy{OnQueueFull: "drop"}, obs); ok {
		t.Fatalf("expected enqueueWithPolicy to fail")
	}
	if len(obs.errorsLogged()) == 0 {
		t.Fatalf("expected drop to log an error")
	}
}

type stubSource struct {
	mu        sync.Mutex
	batches   []domain.Batch
	errs      []error
	during    func()
	idx       int
	lastPage  int
	lastLimit int
	calls     atomic.Int32
}

func (s *stubSource) FetchPage(_ context.Context, page, limit int) (domain.Batch, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPage, s.lastLimit = page, limit
	if s.during != nil {
		s.during()
	}
	i := min(s.idx, len(s.batches)-1)
	s.idx++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.batches[i], err
}

// gatedSource holds its first fetch until release is closed.
type gatedSource struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (s *gatedSource) FetchPage(context.Context, int, int) (domain.Batch, error) {
	if s.calls.Add(1) == 1 {
		close(s.entered)
		<-s.release
		return domain.Batch{Records: []domain.Record{rec("old", 0, 0)}}, nil
	}
	return domain.Batch{Records: []domain.Record{rec("new", time.Minute, 0)}}, nil
}

type stubSink struct {
	mu     sync.Mutex
	writes [][]domain.Alert
	err    error
}

func (s *stubSink) WriteBatch(alerts []domain.Alert) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, alerts)
	return nil
}

func (s *stubSink) Name() string { return "stub" }

func (s *stubSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.writes {
		n += len(w)
	}
	return n
}

func (s *stubSink) batches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

type mockQueue struct {
	failures   int32
	failAlways bool
	calls      int
}

func (m *mockQueue) Enqueue(domain.Alert) bool {
	m.calls++
	if m.failAlways {
		return false
	}
	if atomic.LoadInt32(&m.failures) > 0 {
		atomic.AddInt32(&m.failures, -1)
		return false
	}
	return true
}

func (m *mockQueue) DequeueBatch(int) []domain.Alert { return nil }
func (m *mockQueue) Len() int                        { return 0 }

type mockObs struct {
	mu       sync.Mutex
	errors   []error
	counters map[string]float64
	gauges   map[string]float64
	drops    []error
}

func newMockObs() *mockObs {
	return &mockObs{counters: map[string]float64{}, gauges: map[string]float64{}}
}

func (m *mockObs) LogInfo(string, ...ports.Field) {}
func (m *mockObs) LogError(_ string, err error, _ ...ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, err)
}
func (m *mockObs) LogCritical(string, error, ...ports.Field) {}
func (m *mockObs) IncCounter(name string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += v
}
func (m *mockObs) ObserveLatency(string, float64) {}
func (m *mockObs) SetGauge(name string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = v
}
func (m *mockObs) RecordDrop(_ *domain.Alert, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drops = append(m.drops, err)
}

func (m *mockObs) counter(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

func (m *mockObs) gauge(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gauges[name]
}

func (m *mockObs) dropCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.drops)
}

func (m *mockObs) lastDropErr() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.drops) == 0 {
		return nil
	}
	return m.drops[len(m.drops)-1]
}

func (m *mockObs) errorsLogged() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.errors...)
}
