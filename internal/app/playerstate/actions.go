package playerstate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"civico/internal/app/ports"
	"civico/internal/domain/settlement"
)

// LevelUpField develops a field slot by one level. Potential slots become
// active at level 1.
func (u UseCase) LevelUpField(ctx context.Context, settlementID string, req LevelUpRequest) (View, error) {
	if req.Row < 0 || req.Row >= settlement.FieldRows || req.Column < 0 || req.Column >= settlement.FieldCols {
		return View{}, fmt.Errorf("%w: slot %d,%d out of range", ErrInvalidField, req.Row, req.Column)
	}
	return u.mutate(ctx, "field_levelup", settlementID, func(_ context.Context, s *settlement.Snapshot, now time.Time) (settlement.Field, []settlement.Event, error) {
		slot := s.Fields[req.Row][req.Column]
		kind := strings.TrimPrefix(slot.Name, settlement.PotentialPrefix)
		next := slot.Level + 1
		if slot.Potential() {
			next = 1
		}
		if req.NewLevel != 0 && req.NewLevel != next {
			return 0, nil, fmt.Errorf("%w: level %d requested, next is %d", ErrInvalidField, req.NewLevel, next)
		}
		up, ok := settlement.LookupFieldUpgrade(kind, next)
		if !ok {
			return 0, nil, fmt.Errorf("%w: %s cannot reach level %d", ErrInvalidField, kind, next)
		}

		resources, ok := settlement.AddStock(settlement.Rebase(*s, now), up.Cost.Scale(-1))
		if !ok {
			return 0, nil, ErrInsufficientResources
		}
		for _, k := range settlement.ResourceKinds {
			resourceOf(&resources, k).Rate += up.RateGain.Get(k)
		}
		s.Resources = resources
		s.Population += up.PopulationGain
		s.Fields[req.Row][req.Column] = settlement.GridSlot{Name: kind, Level: next}

		evt := settlement.Event{
			Type:       "field_upgraded",
			OccurredAt: now,
			Payload: map[string]any{
				"row":    req.Row,
				"column": req.Column,
				"kind":   kind,
				"level":  next,
				"cost":   amountsPayload(up.Cost),
			},
		}
		return settlement.FieldResources | settlement.FieldPopulation | settlement.FieldFields, []settlement.Event{evt}, nil
	})
}

// Dispatch sends part of the garrison to another settlement. The troops
// leave the garrison immediately and the battle is settled on a later read.
func (u UseCase) Dispatch(ctx context.Context, settlementID string, req DispatchRequest) (View, error) {
	if !u.Bounds.Contains(req.Target) {
		return View{}, fmt.Errorf("%w: %d,%d outside the map", ErrInvalidTarget, req.Target.X, req.Target.Y)
	}
	sending := settlement.Troops{}
	for t, n := range req.Troops {
		if !settlement.IsTroopType(t) || n < 0 {
			return View{}, fmt.Errorf("%w: bad troop entry %q=%d", ErrInvalidRequest, t, n)
		}
		if n > 0 {
			sending[t] = n
		}
	}
	if sending.Total() == 0 {
		return View{}, fmt.Errorf("%w: no troops selected", ErrInvalidRequest)
	}

	return u.mutate(ctx, "dispatch", settlementID, func(ctx context.Context, s *settlement.Snapshot, now time.Time) (settlement.Field, []settlement.Event, error) {
		if req.Target == s.Coordinates {
			return 0, nil, fmt.Errorf("%w: own settlement", ErrInvalidTarget)
		}
		if s.IsProtected(now) {
			return 0, nil, ErrPacifist
		}
		if _, err := u.Settlements.GetByCoordinates(ctx, req.Target); err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return 0, nil, ErrInvalidTarget
			}
			return 0, nil, fmt.Errorf("look up target: %w", err)
		}
		remaining, ok := s.Troops.Minus(sending)
		if !ok {
			return 0, nil, ErrInsufficientTroops
		}

		g := settlement.DispatchedGroup{
			ID:          u.newID(),
			Origin:      s.Coordinates,
			Destination: req.Target,
			Troops:      sending,
			DepartedAt:  now,
			ArrivesAt:   now.Add(u.Resolver.Stats.TravelDuration(s.Coordinates, req.Target, sending)),
		}
		s.Troops = remaining
		s.Groups = append(s.Groups, g)

		evt := settlement.Event{
			Type:       "group_dispatched",
			OccurredAt: now,
			Payload: map[string]any{
				"group_id":   g.ID,
				"target_x":   g.Destination.X,
				"target_y":   g.Destination.Y,
				"troops":     troopsPayload(sending),
				"arrives_at": g.ArrivesAt.UnixMilli(),
			},
		}
		return settlement.FieldTroops | settlement.FieldGroups, []settlement.Event{evt}, nil
	})
}

// DisablePacifism starts the countdown after which the settlement can be
// attacked. Calling it again while the countdown runs changes nothing.
func (u UseCase) DisablePacifism(ctx context.Context, settlementID string) (View, error) {
	return u.mutate(ctx, "disable_pacifism", settlementID, func(_ context.Context, s *settlement.Snapshot, now time.Time) (settlement.Field, []settlement.Event, error) {
		if !s.Pacifist || !s.PacifismDisabledUntil.IsZero() {
			return 0, nil, nil
		}
		cooldown := u.PacifismCooldown
		if cooldown <= 0 {
			cooldown = DefaultPacifismCooldown
		}
		s.PacifismDisabledUntil = now.Add(cooldown)
		evt := settlement.Event{
			Type:       "pacifism_disabled",
			OccurredAt: now,
			Payload:    map[string]any{"until": s.PacifismDisabledUntil.UnixMilli()},
		}
		return settlement.FieldPacifism, []settlement.Event{evt}, nil
	})
}
