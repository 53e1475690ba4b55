package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"civico/internal/domain/settlement"
)

func TestUseCase_SummarizesBattles(t *testing.T) {
	repo := fakeRepo{events: []settlement.Event{
		{Type: "battle_resolved", OccurredAt: time.Unix(3, 0), Payload: map[string]any{
			"outcome":         "victory",
			"loot":            map[string]any{"lumber": 40.0, "iron": 10.0, "clay": 0.0, "wheat": 5.0},
			"attacker_losses": map[string]any{"Swordsman": 2.0},
			"defender_losses": map[string]any{"Spearman": 4},
		}},
		{Type: "group_returned", OccurredAt: time.Unix(2, 0), Payload: map[string]any{}},
		{Type: "battle_resolved", OccurredAt: time.Unix(1, 0), Payload: map[string]any{
			"outcome":         "defeat",
			"attacker_losses": map[string]any{"Knife Boy": 3.0},
		}},
	}}

	out, err := UseCase{Events: repo}.Execute(context.Background(), Request{SettlementID: "s-1", Limit: 10})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(out.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(out.Events))
	}
	if out.Summary.Battles[settlement.OutcomeVictory] != 1 || out.Summary.Battles[settlement.OutcomeDefeat] != 1 {
		t.Fatalf("unexpected battle counts %+v", out.Summary.Battles)
	}
	if out.Summary.Loot != (settlement.Amounts{Lumber: 40, Iron: 10, Wheat: 5}) {
		t.Fatalf("unexpected loot %+v", out.Summary.Loot)
	}
	if out.Summary.TroopsLost != 5 || out.Summary.UnitsSlain != 4 {
		t.Fatalf("unexpected losses %+v", out.Summary)
	}
}

func TestUseCase_FiltersByOccurredTimeWindow(t *testing.T) {
	repo := fakeRepo{events: []settlement.Event{
		{Type: "group_dispatched", OccurredAt: time.Unix(100, 0)},
		{Type: "group_dispatched", OccurredAt: time.Unix(200, 0)},
		{Type: "group_dispatched", OccurredAt: time.Unix(300, 0)},
	}}
	out, err := UseCase{Events: repo}.Execute(context.Background(), Request{SettlementID: "s-1", OccurredFrom: 150, OccurredTo: 250})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(out.Events) != 1 || out.Events[0].OccurredAt.Unix() != 200 {
		t.Fatalf("unexpected window %+v", out.Events)
	}
}

func TestUseCase_RequiresSettlement(t *testing.T) {
	_, err := UseCase{Events: fakeRepo{}}.Execute(context.Background(), Request{})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

type fakeRepo struct {
	events []settlement.Event
}

func (r fakeRepo) Append(_ context.Context, _ string, _ []settlement.Event) error {
	return nil
}

func (r fakeRepo) ListBySettlement(_ context.Context, _ string, _ int) ([]settlement.Event, error) {
	return r.events, nil
}
