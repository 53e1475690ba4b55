package playerstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civico/internal/app/ports"
	"civico/internal/domain/settlement"
)

const reportSender = "War Office"

type reconcileReport struct {
	resolved int
	outcomes []settlement.Outcome
}

func needsReconcile(s settlement.Snapshot, now time.Time) bool {
	return pacifismExpired(s, now) || settlement.PartitionLedger(s.Groups, now).Ready() > 0
}

func pacifismExpired(s settlement.Snapshot, now time.Time) bool {
	return s.Pacifist && !s.PacifismDisabledUntil.IsZero() && !now.Before(s.PacifismDisabledUntil)
}

// reconcile locks the settlement, resolves every ready group and persists
// the settled ledger. It must run inside a transaction. A settlement with
// nothing ready is returned as loaded and not written.
func (u UseCase) reconcile(ctx context.Context, settlementID string, now time.Time) (settlement.Snapshot, reconcileReport, error) {
	var report reconcileReport
	s, err := u.Settlements.LockByID(ctx, settlementID)
	if err != nil {
		return settlement.Snapshot{}, report, fmt.Errorf("lock settlement: %w", err)
	}

	var changed settlement.Field
	if pacifismExpired(s, now) {
		s.Pacifist = false
		changed |= settlement.FieldPacifism
	}
	part := settlement.PartitionLedger(s.Groups, now)
	if part.Ready() == 0 && changed == 0 {
		return s, report, nil
	}

	var events []settlement.Event
	groups := make([]settlement.DispatchedGroup, 0, len(part.InFlight)+len(part.Outbound))
	groups = append(groups, part.InFlight...)
	for _, g := range part.Outbound {
		res, err := u.settleOutbound(ctx, &s, g, now)
		if err != nil {
			return settlement.Snapshot{}, report, err
		}
		if res.Returning != nil {
			groups = append(groups, *res.Returning)
		}
		events = append(events, battleEvent(g, res, now))
		report.outcomes = append(report.outcomes, res.Outcome)
		changed |= settlement.FieldInbox
	}

	if len(part.Returning) > 0 {
		troops, loot := settlement.ApplyReturns(s.Troops, part.Returning)
		s.Troops = troops
		changed |= settlement.FieldTroops
		if !loot.IsZero() {
			s.Resources, _ = settlement.AddStock(settlement.Rebase(s, now), loot)
			changed |= settlement.FieldResources
		}
		for _, g := range part.Returning {
			events = append(events, settlement.Event{
				Type:       "group_returned",
				OccurredAt: now,
				Payload: map[string]any{
					"group_id": g.ID,
					"troops":   troopsPayload(g.Troops),
					"loot":     amountsPayload(g.Loot),
				},
			})
		}
	}
	if part.Ready() > 0 {
		s.Groups = groups
		changed |= settlement.FieldGroups
	}
	if !s.Pacifist && changed.Has(settlement.FieldPacifism) {
		events = append(events, settlement.Event{Type: "pacifism_ended", OccurredAt: now, Payload: map[string]any{}})
	}

	if err := u.apply(ctx, &s, changed); err != nil {
		return settlement.Snapshot{}, report, err
	}
	if err := u.appendEvents(ctx, s.ID, events); err != nil {
		return settlement.Snapshot{}, report, err
	}
	report.resolved = part.Ready()
	return s, report, nil
}

// settleOutbound resolves one arrived group against the defender as stored
// right now, writes the defender side and files the attacker's report.
func (u UseCase) settleOutbound(ctx context.Context, s *settlement.Snapshot, g settlement.DispatchedGroup, now time.Time) (settlement.BattleResult, error) {
	var defender *settlement.Snapshot
	if g.Destination != s.Coordinates {
		d, err := u.Settlements.LockByCoordinates(ctx, g.Destination)
		switch {
		case err == nil:
			defender = &d
		case errors.Is(err, ports.ErrNotFound):
		default:
			return settlement.BattleResult{}, fmt.Errorf("lock defender at %d,%d: %w", g.Destination.X, g.Destination.Y, err)
		}
	}

	res := u.Resolver.Resolve(g, defender, now)
	s.Deliver(attackerReport(g, res, now))
	if defender == nil || !foughtBattle(res.Outcome) {
		return res, nil
	}

	d := res.Defender
	d.Deliver(defenderReport(s.Username, res, now))
	if err := u.apply(ctx, &d, res.DefenderChanged|settlement.FieldInbox); err != nil {
		return settlement.BattleResult{}, err
	}
	err := u.appendEvents(ctx, d.ID, []settlement.Event{{
		Type:       "settlement_attacked",
		OccurredAt: now,
		Payload: map[string]any{
			"attacker_id":     s.ID,
			"group_id":        g.ID,
			"outcome":         string(res.Outcome),
			"defender_losses": troopsPayload(res.DefenderLosses),
			"loot":            amountsPayload(res.Loot),
		},
	}})
	if err != nil {
		return settlement.BattleResult{}, err
	}
	return res, nil
}

func foughtBattle(o settlement.Outcome) bool {
	switch o {
	case settlement.OutcomeVictory, settlement.OutcomeDefeat:
		return true
	default:
		return false
	}
}

func battleEvent(g settlement.DispatchedGroup, res settlement.BattleResult, now time.Time) settlement.Event {
	payload := map[string]any{
		"group_id":        g.ID,
		"outcome":         string(res.Outcome),
		"target_x":        g.Destination.X,
		"target_y":        g.Destination.Y,
		"attack_power":    res.AttackPower,
		"defense_power":   res.DefensePower,
		"attacker_losses": troopsPayload(res.AttackerLosses),
		"defender_losses": troopsPayload(res.DefenderLosses),
		"loot":            amountsPayload(res.Loot),
	}
	if res.Defender.ID != "" {
		payload["defender_id"] = res.Defender.ID
	}
	return settlement.Event{Type: "battle_resolved", OccurredAt: now, Payload: payload}
}

func attackerReport(g settlement.DispatchedGroup, res settlement.BattleResult, now time.Time) settlement.InboxMessage {
	target := fmt.Sprintf("(%d, %d)", g.Destination.X, g.Destination.Y)
	msg := settlement.InboxMessage{Sender: reportSender, SentAt: now}
	switch res.Outcome {
	case settlement.OutcomeVictory:
		msg.Title = "Victory at " + target
		msg.Message = fmt.Sprintf("Our troops won. %d units lost, %s carried home.", res.AttackerLosses.Total(), describeLoot(res.Loot))
	case settlement.OutcomeDefeat:
		msg.Title = "Defeat at " + target
		msg.Message = fmt.Sprintf("All %d units were lost. The enemy lost %d.", res.AttackerLosses.Total(), res.DefenderLosses.Total())
	case settlement.OutcomeProtected:
		msg.Title = "Attack on " + target + " called off"
		msg.Message = "The settlement is under pacifist protection. Our troops are heading home."
	case settlement.OutcomeTargetMissing:
		msg.Title = "Nobody at " + target
		msg.Message = "Our troops found no settlement and are heading home."
	default:
		msg.Title = "Empty march to " + target
		msg.Message = "The group had no troops."
	}
	return msg
}

func defenderReport(attacker string, res settlement.BattleResult, now time.Time) settlement.InboxMessage {
	msg := settlement.InboxMessage{Sender: reportSender, SentAt: now, Title: "Attacked by " + attacker}
	switch res.Outcome {
	case settlement.OutcomeDefeat:
		msg.Message = fmt.Sprintf("We held. %d defenders fell.", res.DefenderLosses.Total())
	default:
		msg.Message = fmt.Sprintf("Our garrison fell (%d units). Raiders took %s.", res.DefenderLosses.Total(), describeLoot(res.Loot))
	}
	return msg
}

func describeLoot(a settlement.Amounts) string {
	if a.IsZero() {
		return "nothing"
	}
	return fmt.Sprintf("%.0f lumber, %.0f iron, %.0f clay and %.0f wheat", a.Lumber, a.Iron, a.Clay, a.Wheat)
}
