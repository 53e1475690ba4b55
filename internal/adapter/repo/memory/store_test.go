package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"civico/internal/app/ports"
	"civico/internal/domain/settlement"
	"civico/internal/domain/worldmap"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSettlementRepo_ApplyWritesOnlySelectedFields(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewSettlementRepo(store)
	snap := settlement.NewSnapshot("s1", "alice", worldmap.Point{X: 1, Y: 2}, t0)
	if err := repo.Create(ctx, snap); err != nil {
		t.Fatalf("create: %v", err)
	}

	changed := snap.Clone()
	changed.Population = 9
	changed.Troops[settlement.Spearman] = 4
	if err := repo.Apply(ctx, changed, settlement.FieldTroops, 1); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, err := repo.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Version != 2 || got.Troops[settlement.Spearman] != 4 {
		t.Fatalf("troops not applied: version=%d troops=%v", got.Version, got.Troops)
	}
	if got.Population != snap.Population {
		t.Fatalf("population should be untouched, got %d", got.Population)
	}

	if err := repo.Apply(ctx, changed, settlement.FieldTroops, 1); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("stale version: expected ErrConflict, got %v", err)
	}
}

func TestSettlementRepo_ReturnsClones(t *testing.T) {
	ctx := context.Background()
	repo := NewSettlementRepo(NewStore())
	_ = repo.Create(ctx, settlement.NewSnapshot("s1", "alice", worldmap.Point{}, t0))

	got, _ := repo.GetByUsername(ctx, "alice")
	got.Troops[settlement.KnifeBoy] = 100
	again, _ := repo.GetByID(ctx, "s1")
	if again.Troops[settlement.KnifeBoy] != 0 {
		t.Fatalf("caller mutation leaked into the store")
	}
}

func TestSettlementRepo_CreateRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewSettlementRepo(NewStore())
	_ = repo.Create(ctx, settlement.NewSnapshot("s1", "alice", worldmap.Point{X: 1}, t0))

	cases := map[string]settlement.Snapshot{
		"id":       settlement.NewSnapshot("s1", "bob", worldmap.Point{X: 2}, t0),
		"username": settlement.NewSnapshot("s2", "alice", worldmap.Point{X: 3}, t0),
		"cell":     settlement.NewSnapshot("s3", "carol", worldmap.Point{X: 1}, t0),
	}
	for name, snap := range cases {
		if err := repo.Create(ctx, snap); !errors.Is(err, ports.ErrConflict) {
			t.Fatalf("%s: expected ErrConflict, got %v", name, err)
		}
	}
	if _, err := repo.GetByCoordinates(ctx, worldmap.Point{X: 9}); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMapIndex_ClaimAndNextFree(t *testing.T) {
	ctx := context.Background()
	idx := NewMapIndex(NewStore())
	if err := idx.Claim(ctx, worldmap.Point{X: 0, Y: 0}, "s1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := idx.Claim(ctx, worldmap.Point{X: 0, Y: 0}, "s2"); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("double claim: expected ErrConflict, got %v", err)
	}
	taken, err := idx.IsOccupied(ctx, worldmap.Point{X: 0, Y: 0})
	if err != nil || !taken {
		t.Fatalf("expected occupied, got %v %v", taken, err)
	}

	free, ok, err := idx.NextFree(ctx, worldmap.Point{X: 0, Y: 0}, 2)
	if err != nil || !ok || free == (worldmap.Point{}) {
		t.Fatalf("expected another free cell, got %+v ok=%v err=%v", free, ok, err)
	}
	for _, p := range []worldmap.Point{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}} {
		_ = idx.Claim(ctx, p, "x")
	}
	if _, ok, _ := idx.NextFree(ctx, worldmap.Point{}, 2); ok {
		t.Fatalf("full map should report no free cell")
	}
}

func TestTxManager_NestedCallsShareTheLock(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tx := NewTxManager(store)
	repo := NewSettlementRepo(store)

	err := tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, settlement.NewSnapshot("s1", "alice", worldmap.Point{}, t0)); err != nil {
			return err
		}
		return tx.RunInTx(ctx, func(ctx context.Context) error {
			_, err := repo.LockByID(ctx, "s1")
			return err
		})
	})
	if err != nil {
		t.Fatalf("nested tx: %v", err)
	}
}

func TestTxManager_FailedTxLeavesNoWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tx := NewTxManager(store)
	repo := NewSettlementRepo(store)
	idx := NewMapIndex(store)
	events := NewEventRepo(store)
	_ = repo.Create(ctx, settlement.NewSnapshot("s1", "alice", worldmap.Point{X: 1}, t0))

	boom := errors.New("boom")
	err := tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := idx.Claim(ctx, worldmap.Point{X: 5, Y: 5}, "s2"); err != nil {
			return err
		}
		if err := repo.Create(ctx, settlement.NewSnapshot("s2", "bob", worldmap.Point{X: 5, Y: 5}, t0)); err != nil {
			return err
		}
		current, _ := repo.LockByID(ctx, "s1")
		current.Population = 42
		if err := repo.Apply(ctx, current, settlement.FieldPopulation, current.Version); err != nil {
			return err
		}
		if err := events.Append(ctx, "s1", []settlement.Event{{Type: "x", OccurredAt: t0}}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if taken, _ := idx.IsOccupied(ctx, worldmap.Point{X: 5, Y: 5}); taken {
		t.Fatalf("claim survived rollback")
	}
	if _, err := repo.GetByUsername(ctx, "bob"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("settlement survived rollback: %v", err)
	}
	s1, _ := repo.GetByID(ctx, "s1")
	if s1.Population == 42 || s1.Version != 1 {
		t.Fatalf("apply survived rollback: population=%d version=%d", s1.Population, s1.Version)
	}
	if list, _ := events.ListBySettlement(ctx, "s1", 0); len(list) != 0 {
		t.Fatalf("events survived rollback: %+v", list)
	}
}

func TestCredentialAndEventRepos(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	creds := NewCredentialRepo(store)
	events := NewEventRepo(store)

	if err := creds.Create(ctx, ports.CredentialRecord{SettlementID: "s1", Username: "alice", TokenHash: "h1"}); err != nil {
		t.Fatalf("create credential: %v", err)
	}
	if got, err := creds.GetByTokenHash(ctx, "h1"); err != nil || got.Username != "alice" {
		t.Fatalf("by token: %+v %v", got, err)
	}
	if err := creds.SetTokenHash(ctx, "s1", ""); err != nil {
		t.Fatalf("clear token: %v", err)
	}
	if _, err := creds.GetByTokenHash(ctx, "h1"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("old token should be gone, got %v", err)
	}

	if list, err := events.ListBySettlement(ctx, "s1", 10); err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v %v", list, err)
	}
	_ = events.Append(ctx, "s1", []settlement.Event{
		{Type: "a", OccurredAt: t0},
		{Type: "b", OccurredAt: t0.Add(time.Minute)},
	})
	list, err := events.ListBySettlement(ctx, "s1", 1)
	if err != nil || len(list) != 1 || list[0].Type != "b" {
		t.Fatalf("expected newest event first, got %+v %v", list, err)
	}
}
