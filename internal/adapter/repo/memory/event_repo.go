package memory

import (
	"context"

	"civico/internal/domain/settlement"
)

type EventRepo struct {
	store *Store
}

func NewEventRepo(store *Store) EventRepo {
	return EventRepo{store: store}
}

func (r EventRepo) Append(ctx context.Context, settlementID string, events []settlement.Event) error {
	if len(events) == 0 {
		return nil
	}
	return r.store.write(ctx, func() error {
		r.store.events[settlementID] = append(r.store.events[settlementID], events...)
		return nil
	})
}

// ListBySettlement returns the newest events first.
func (r EventRepo) ListBySettlement(ctx context.Context, settlementID string, limit int) ([]settlement.Event, error) {
	out := []settlement.Event{}
	err := r.store.read(ctx, func() error {
		all := r.store.events[settlementID]
		for i := len(all) - 1; i >= 0; i-- {
			if limit > 0 && len(out) >= limit {
				break
			}
			out = append(out, all[i])
		}
		return nil
	})
	return out, err
}
