package inmemory

import (
	"sync"

	"civico/internal/domain/settlement"
)

type Snapshot struct {
	Reconciles      uint64            `json:"reconciles"`
	GroupsResolved  uint64            `json:"groups_resolved"`
	BattlesTotal    uint64            `json:"battles_total"`
	WriteConflicts  uint64            `json:"write_conflicts"`
	Failures        uint64            `json:"failures"`
	BattlesByResult map[string]uint64 `json:"battles_by_outcome"`
}

// Recorder counts settlement activity for the ops endpoint.
type Recorder struct {
	mu         sync.Mutex
	reconciles uint64
	resolved   uint64
	conflict   uint64
	failure    uint64
	byOutcome  map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byOutcome: map[string]uint64{},
	}
}

func (r *Recorder) RecordReconcile(resolved int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconciles++
	if resolved > 0 {
		r.resolved += uint64(resolved)
	}
}

func (r *Recorder) RecordBattle(outcome settlement.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byOutcome[string(outcome)]++
}

func (r *Recorder) RecordConflict() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflict++
}

func (r *Recorder) RecordFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		Reconciles:      r.reconciles,
		GroupsResolved:  r.resolved,
		WriteConflicts:  r.conflict,
		Failures:        r.failure,
		BattlesByResult: make(map[string]uint64, len(r.byOutcome)),
	}
	for k, v := range r.byOutcome {
		out.BattlesByResult[k] = v
		out.BattlesTotal += v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
