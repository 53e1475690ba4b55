package playerstate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"civico/internal/adapter/repo/memory"
	"civico/internal/app/ports"
	"civico/internal/domain/settlement"
	"civico/internal/domain/worldmap"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type countingMetrics struct {
	mu         sync.Mutex
	reconciles int
	resolved   int
	battles    map[settlement.Outcome]int
	conflicts  int
	failures   int
}

func (m *countingMetrics) RecordReconcile(resolved int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconciles++
	m.resolved += resolved
}

func (m *countingMetrics) RecordBattle(outcome settlement.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.battles == nil {
		m.battles = map[settlement.Outcome]int{}
	}
	m.battles[outcome]++
}

func (m *countingMetrics) RecordConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}

func (m *countingMetrics) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

// flakySettlements fails the next n Apply calls with ErrConflict.
type flakySettlements struct {
	ports.SettlementRepository
	mu       sync.Mutex
	failures int
}

func (r *flakySettlements) Apply(ctx context.Context, s settlement.Snapshot, fields settlement.Field, expectedVersion int64) error {
	r.mu.Lock()
	fail := r.failures > 0
	if fail {
		r.failures--
	}
	r.mu.Unlock()
	if fail {
		return ports.ErrConflict
	}
	return r.SettlementRepository.Apply(ctx, s, fields, expectedVersion)
}

type fixture struct {
	store   *memory.Store
	repo    memory.SettlementRepo
	events  memory.EventRepo
	clock   *testClock
	metrics *countingMetrics
	uc      UseCase
}

func newFixture() *fixture {
	store := memory.NewStore()
	f := &fixture{
		store:   store,
		repo:    memory.NewSettlementRepo(store),
		events:  memory.NewEventRepo(store),
		clock:   &testClock{now: t0},
		metrics: &countingMetrics{},
	}
	ids := 0
	f.uc = UseCase{
		TxManager:   memory.NewTxManager(store),
		Settlements: f.repo,
		Events:      f.events,
		Metrics:     f.metrics,
		Bounds:      worldmap.DefaultBounds(),
		Now:         f.clock.Now,
		NewID: func() string {
			ids++
			return fmt.Sprintf("grp-%d", ids)
		},
	}
	return f
}

func (f *fixture) seed(id, username string, at worldmap.Point, edit func(*settlement.Snapshot)) settlement.Snapshot {
	s := settlement.NewSnapshot(id, username, at, t0)
	if edit != nil {
		edit(&s)
	}
	f.store.SeedSettlement(s)
	return s
}

func (f *fixture) load(id string) settlement.Snapshot {
	s, err := f.repo.GetByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return s
}

func (f *fixture) countEvents(id, typ string) int {
	events, _ := f.events.ListBySettlement(context.Background(), id, 0)
	n := 0
	for _, e := range events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

var (
	homeCell  = worldmap.Point{X: 0, Y: 0}
	enemyCell = worldmap.Point{X: 3, Y: 4}
)
