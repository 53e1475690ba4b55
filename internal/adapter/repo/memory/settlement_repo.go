package memory

import (
	"context"

	"civico/internal/app/ports"
	"civico/internal/domain/settlement"
	"civico/internal/domain/worldmap"
)

type SettlementRepo struct {
	store *Store
}

func NewSettlementRepo(store *Store) SettlementRepo {
	return SettlementRepo{store: store}
}

func (r SettlementRepo) GetByID(ctx context.Context, id string) (settlement.Snapshot, error) {
	var out settlement.Snapshot
	err := r.store.read(ctx, func() error {
		s, ok := r.store.settlements[id]
		if !ok {
			return ports.ErrNotFound
		}
		out = s.Clone()
		return nil
	})
	return out, err
}

func (r SettlementRepo) GetByUsername(ctx context.Context, username string) (settlement.Snapshot, error) {
	var out settlement.Snapshot
	err := r.store.read(ctx, func() error {
		id, ok := r.store.byUsername[username]
		if !ok {
			return ports.ErrNotFound
		}
		out = r.store.settlements[id].Clone()
		return nil
	})
	return out, err
}

func (r SettlementRepo) GetByCoordinates(ctx context.Context, p worldmap.Point) (settlement.Snapshot, error) {
	var out settlement.Snapshot
	err := r.store.read(ctx, func() error {
		id, ok := r.store.byCell[p]
		if !ok {
			return ports.ErrNotFound
		}
		out = r.store.settlements[id].Clone()
		return nil
	})
	return out, err
}

// LockByID is GetByID: the store lock held by RunInTx already excludes
// every other writer.
func (r SettlementRepo) LockByID(ctx context.Context, id string) (settlement.Snapshot, error) {
	return r.GetByID(ctx, id)
}

func (r SettlementRepo) LockByCoordinates(ctx context.Context, p worldmap.Point) (settlement.Snapshot, error) {
	return r.GetByCoordinates(ctx, p)
}

func (r SettlementRepo) Create(ctx context.Context, s settlement.Snapshot) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.settlements[s.ID]; ok {
			return ports.ErrConflict
		}
		if _, ok := r.store.byUsername[s.Username]; ok {
			return ports.ErrConflict
		}
		if _, ok := r.store.byCell[s.Coordinates]; ok {
			return ports.ErrConflict
		}
		r.store.settlements[s.ID] = s.Clone()
		r.store.byUsername[s.Username] = s.ID
		r.store.byCell[s.Coordinates] = s.ID
		return nil
	})
}

func (r SettlementRepo) Apply(ctx context.Context, s settlement.Snapshot, fields settlement.Field, expectedVersion int64) error {
	return r.store.write(ctx, func() error {
		current, ok := r.store.settlements[s.ID]
		if !ok {
			return ports.ErrNotFound
		}
		if current.Version != expectedVersion {
			return ports.ErrConflict
		}
		next := current.Clone()
		src := s.Clone()
		if fields.Has(settlement.FieldResources) {
			next.Resources = src.Resources
		}
		if fields.Has(settlement.FieldPopulation) {
			next.Population = src.Population
		}
		if fields.Has(settlement.FieldFields) {
			next.Fields = src.Fields
		}
		if fields.Has(settlement.FieldBuildings) {
			next.Buildings = src.Buildings
		}
		if fields.Has(settlement.FieldTroops) {
			next.Troops = src.Troops
		}
		if fields.Has(settlement.FieldGroups) {
			next.Groups = src.Groups
		}
		if fields.Has(settlement.FieldInbox) {
			next.Inbox = src.Inbox
		}
		if fields.Has(settlement.FieldPacifism) {
			next.Pacifist = src.Pacifist
			next.PacifismDisabledUntil = src.PacifismDisabledUntil
		}
		next.Version = expectedVersion + 1
		r.store.settlements[s.ID] = next
		return nil
	})
}
