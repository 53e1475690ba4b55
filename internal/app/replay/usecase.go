package replay

import (
	"context"
	"errors"
	"strings"

	"civico/internal/app/ports"
	"civico/internal/domain/settlement"
)

var ErrInvalidRequest = errors.New("invalid replay request")

const defaultLimit = 50

type UseCase struct {
	Events ports.LedgerEventRepository
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.SettlementID) == "" || u.Events == nil {
		return Response{}, ErrInvalidRequest
	}
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}
	events, err := u.Events.ListBySettlement(ctx, req.SettlementID, req.Limit)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return Response{}, err
	}
	events = filterByTimeWindow(events, req.OccurredFrom, req.OccurredTo)
	if events == nil {
		events = []settlement.Event{}
	}
	return Response{Events: events, Summary: summarize(events)}, nil
}

func filterByTimeWindow(events []settlement.Event, from, to int64) []settlement.Event {
	if from <= 0 && to <= 0 {
		return events
	}
	out := make([]settlement.Event, 0, len(events))
	for _, evt := range events {
		ts := evt.OccurredAt.Unix()
		if from > 0 && ts < from {
			continue
		}
		if to > 0 && ts > to {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func summarize(events []settlement.Event) Summary {
	sum := Summary{Battles: map[settlement.Outcome]int{}}
	for _, evt := range events {
		if evt.Type != "battle_resolved" {
			continue
		}
		outcome, _ := evt.Payload["outcome"].(string)
		sum.Battles[settlement.Outcome(outcome)]++
		if loot, ok := evt.Payload["loot"].(map[string]any); ok {
			for _, kind := range settlement.ResourceKinds {
				sum.Loot.Set(kind, sum.Loot.Get(kind)+num(loot[string(kind)]))
			}
		}
		sum.TroopsLost += countUnits(evt.Payload["attacker_losses"])
		sum.UnitsSlain += countUnits(evt.Payload["defender_losses"])
	}
	return sum
}

func countUnits(v any) int {
	m, ok := v.(map[string]any)
	if !ok {
		return 0
	}
	total := 0
	for _, n := range m {
		total += int(num(n))
	}
	return total
}

// num reads numbers that were either stored in memory or decoded from JSON.
func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
