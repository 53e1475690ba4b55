package playerstate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"civico/internal/app/ports"
	"civico/internal/domain/settlement"
	"civico/internal/domain/worldmap"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts      = 3
	DefaultPacifismCooldown = 12 * time.Hour
)

// UseCase owns every read and write of a settlement snapshot. Each call
// settles the dispatch ledger first so callers always act on resolved state.
type UseCase struct {
	TxManager        ports.TxManager
	Settlements      ports.SettlementRepository
	Events           ports.LedgerEventRepository
	Metrics          ports.PlayerMetrics
	Resolver         settlement.BattleResolver
	Bounds           worldmap.Bounds
	PacifismCooldown time.Duration
	MaxAttempts      int
	Log              *zap.Logger
	Now              func() time.Time
	NewID            func() string
}

// GetReconciledState returns the display view of a settlement after every
// ready group has been resolved exactly once.
func (u UseCase) GetReconciledState(ctx context.Context, settlementID string) (View, error) {
	settlementID = strings.TrimSpace(settlementID)
	if settlementID == "" || u.Settlements == nil || u.TxManager == nil {
		return View{}, ErrInvalidRequest
	}
	now := u.now()

	current, err := u.Settlements.GetByID(ctx, settlementID)
	if err != nil {
		return View{}, u.fail("get_state", settlementID, fmt.Errorf("load settlement: %w", err))
	}
	if !needsReconcile(current, now) {
		return BuildView(current, now), nil
	}

	var (
		saved  settlement.Snapshot
		report reconcileReport
	)
	err = u.runWithRetry(ctx, "get_state", settlementID, func(txCtx context.Context) error {
		var err error
		saved, report, err = u.reconcile(txCtx, settlementID, now)
		return err
	})
	if err != nil {
		return View{}, err
	}
	u.record(report)
	return BuildView(saved, now), nil
}

// Commit applies an explicit signed change on top of reconciled state. The
// resource baseline is rebased at now before the change.
func (u UseCase) Commit(ctx context.Context, settlementID string, delta Delta) (View, error) {
	if err := validateDelta(delta); err != nil {
		return View{}, err
	}
	return u.mutate(ctx, "commit", settlementID, func(_ context.Context, s *settlement.Snapshot, now time.Time) (settlement.Field, []settlement.Event, error) {
		resources, ok := settlement.AddStock(settlement.Rebase(*s, now), delta.Resources)
		if !ok {
			return 0, nil, ErrInsufficientResources
		}
		for _, kind := range settlement.ResourceKinds {
			r := resourceOf(&resources, kind)
			r.Rate += delta.Rates.Get(kind)
			r.Max += delta.Capacity.Get(kind)
			if r.Max < 0 {
				return 0, nil, fmt.Errorf("%w: negative %s capacity", ErrInvalidRequest, kind)
			}
		}
		// Re-clamp after capacity changes.
		resources, _ = settlement.AddStock(resources, settlement.Amounts{})

		population := s.Population + delta.Population
		if population < 0 {
			return 0, nil, fmt.Errorf("%w: negative population", ErrInvalidRequest)
		}
		troops := s.Troops.Clone()
		if troops == nil {
			troops = settlement.EmptyTroops()
		}
		for t, n := range delta.Troops {
			if troops[t]+n < 0 {
				return 0, nil, ErrInsufficientTroops
			}
			troops[t] += n
		}

		s.Resources = resources
		s.Population = population
		s.Troops = troops
		evt := settlement.Event{
			Type:       "state_committed",
			OccurredAt: now,
			Payload: map[string]any{
				"reason":     delta.Reason,
				"resources":  amountsPayload(delta.Resources),
				"population": delta.Population,
				"troops":     troopsPayload(delta.Troops),
			},
		}
		return settlement.FieldResources | settlement.FieldPopulation | settlement.FieldTroops, []settlement.Event{evt}, nil
	})
}

type mutation func(ctx context.Context, s *settlement.Snapshot, now time.Time) (settlement.Field, []settlement.Event, error)

// mutate reconciles the settlement, then lets fn change it and persists the
// touched columns, all in one transaction.
func (u UseCase) mutate(ctx context.Context, op, settlementID string, fn mutation) (View, error) {
	settlementID = strings.TrimSpace(settlementID)
	if settlementID == "" || u.Settlements == nil || u.TxManager == nil {
		return View{}, ErrInvalidRequest
	}
	now := u.now()

	var (
		saved  settlement.Snapshot
		report reconcileReport
	)
	err := u.runWithRetry(ctx, op, settlementID, func(txCtx context.Context) error {
		s, rep, err := u.reconcile(txCtx, settlementID, now)
		if err != nil {
			return err
		}
		fields, events, err := fn(txCtx, &s, now)
		if err != nil {
			return err
		}
		if err := u.apply(txCtx, &s, fields); err != nil {
			return err
		}
		if err := u.appendEvents(txCtx, s.ID, events); err != nil {
			return err
		}
		saved, report = s, rep
		return nil
	})
	if err != nil {
		return View{}, err
	}
	u.record(report)
	return BuildView(saved, now), nil
}

func (u UseCase) runWithRetry(ctx context.Context, op, settlementID string, fn func(ctx context.Context) error) error {
	attempts := u.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = u.TxManager.RunInTx(ctx, fn)
		if !errors.Is(err, ports.ErrConflict) {
			break
		}
		if u.Metrics != nil {
			u.Metrics.RecordConflict()
		}
		u.logger().Debug("settlement write conflict",
			zap.String("op", op),
			zap.String("settlement_id", settlementID),
			zap.Int("attempt", i+1),
		)
	}
	if err != nil {
		return u.fail(op, settlementID, err)
	}
	return nil
}

// fail logs and counts errors that are not the player's fault.
func (u UseCase) fail(op, settlementID string, err error) error {
	if isRuleViolation(err) {
		return err
	}
	if u.Metrics != nil {
		u.Metrics.RecordFailure()
	}
	u.logger().Warn("settlement operation failed",
		zap.String("op", op),
		zap.String("settlement_id", settlementID),
		zap.Error(err),
	)
	return err
}

func isRuleViolation(err error) bool {
	for _, target := range []error{
		ErrInvalidRequest, ErrInsufficientResources, ErrInsufficientTroops,
		ErrInvalidField, ErrInvalidTarget, ErrPacifist, ports.ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (u UseCase) apply(ctx context.Context, s *settlement.Snapshot, fields settlement.Field) error {
	if fields == 0 {
		return nil
	}
	expected := s.Version
	if err := u.Settlements.Apply(ctx, *s, fields, expected); err != nil {
		return fmt.Errorf("save settlement %s: %w", s.ID, err)
	}
	s.Version = expected + 1
	return nil
}

func (u UseCase) appendEvents(ctx context.Context, settlementID string, events []settlement.Event) error {
	if u.Events == nil || len(events) == 0 {
		return nil
	}
	if err := u.Events.Append(ctx, settlementID, events); err != nil {
		return fmt.Errorf("append ledger events: %w", err)
	}
	return nil
}

func (u UseCase) record(report reconcileReport) {
	if u.Metrics == nil || report.resolved == 0 {
		return
	}
	u.Metrics.RecordReconcile(report.resolved)
	for _, o := range report.outcomes {
		u.Metrics.RecordBattle(o)
	}
}

func (u UseCase) now() time.Time {
	if u.Now == nil {
		return time.Now().UTC()
	}
	return u.Now().UTC()
}

func (u UseCase) newID() string {
	if u.NewID == nil {
		return uuid.NewString()
	}
	return u.NewID()
}

func (u UseCase) logger() *zap.Logger {
	if u.Log == nil {
		return zap.NewNop()
	}
	return u.Log
}

func validateDelta(d Delta) error {
	for t := range d.Troops {
		if !settlement.IsTroopType(t) {
			return fmt.Errorf("%w: unknown troop type %q", ErrInvalidRequest, t)
		}
	}
	return nil
}

func resourceOf(r *settlement.ResourceState, kind settlement.ResourceKind) *settlement.Resource {
	switch kind {
	case settlement.Lumber:
		return &r.Lumber
	case settlement.Iron:
		return &r.Iron
	case settlement.Clay:
		return &r.Clay
	default:
		return &r.Wheat
	}
}

func amountsPayload(a settlement.Amounts) map[string]any {
	return map[string]any{
		"lumber": a.Lumber,
		"iron":   a.Iron,
		"clay":   a.Clay,
		"wheat":  a.Wheat,
	}
}

func troopsPayload(t settlement.Troops) map[string]any {
	out := make(map[string]any, len(t))
	for k, v := range t {
		if v != 0 {
			out[string(k)] = v
		}
	}
	return out
}
