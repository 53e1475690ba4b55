package settlement

import (
	"math"
	"time"
)

type Outcome string

const (
	OutcomeVictory       Outcome = "victory"
	OutcomeDefeat        Outcome = "defeat"
	OutcomeProtected     Outcome = "protected"
	OutcomeTargetMissing Outcome = "target_missing"
	OutcomeEmpty         Outcome = "empty"
)

const (
	DefaultLootFraction = 0.5
	lossExponent        = 1.5
)

// BattleResolver settles an outbound group that reached its target.
type BattleResolver struct {
	Stats        TroopStatsTable
	LootFraction float64
}

type BattleResult struct {
	Outcome Outcome
	// Defender is the defender after the battle. Only DefenderChanged
	// columns differ from the input.
	Defender        Snapshot
	DefenderChanged Field
	// Returning is nil when the attacking group did not survive.
	Returning      *DispatchedGroup
	AttackerLosses Troops
	DefenderLosses Troops
	Loot           Amounts
	AttackPower    float64
	DefensePower   float64
}

// Resolve is total: every combination of inputs yields a result with no
// negative troop counts or stock.
func (r BattleResolver) Resolve(group DispatchedGroup, defender *Snapshot, now time.Time) BattleResult {
	if defender == nil {
		return BattleResult{Outcome: OutcomeTargetMissing, Returning: returnHome(group, group.Troops, Amounts{}, now)}
	}
	res := BattleResult{Defender: defender.Clone()}
	if defender.IsProtected(now) {
		res.Outcome = OutcomeProtected
		res.Returning = returnHome(group, group.Troops, Amounts{}, now)
		return res
	}
	if group.Troops.Total() == 0 {
		res.Outcome = OutcomeEmpty
		return res
	}

	stats := r.Stats
	if stats == nil {
		stats = DefaultTroopStats
	}
	attack := stats.AttackPower(group.Troops)
	defense := stats.DefensePower(defender.Troops)
	res.AttackPower = attack
	res.DefensePower = defense

	// The loser is wiped out. The winner loses (weaker/stronger)^1.5 of each
	// troop type, rounded down and never the last unit of a type. Ties go
	// to the defender.
	attackerWins := attack > defense
	var survivors, attackerLosses, defenders, defenderLosses Troops
	if attackerWins {
		survivors, attackerLosses = casualties(group.Troops, math.Pow(defense/attack, lossExponent), true)
		defenders, defenderLosses = casualties(defender.Troops, 1, false)
	} else {
		survivors, attackerLosses = casualties(group.Troops, 1, false)
		var frac float64
		if defense > 0 {
			frac = math.Pow(attack/defense, lossExponent)
		}
		defenders, defenderLosses = casualties(defender.Troops, frac, true)
	}
	res.AttackerLosses = attackerLosses
	res.DefenderLosses = defenderLosses
	res.Defender.Troops = defenders
	if defenderLosses.Total() > 0 {
		res.DefenderChanged |= FieldTroops
	}

	if !attackerWins {
		res.Outcome = OutcomeDefeat
		return res
	}

	loot := r.loot(Accrue(*defender, now), stats.CarryCapacity(survivors))
	if !loot.IsZero() {
		rebased, ok := AddStock(Rebase(*defender, now), loot.Scale(-1))
		if ok {
			res.Defender.Resources = rebased
			res.DefenderChanged |= FieldResources
		} else {
			loot = Amounts{}
		}
	}
	res.Loot = loot
	res.Outcome = OutcomeVictory
	res.Returning = returnHome(group, survivors, loot, now)
	return res
}

func (r BattleResolver) loot(stock ResourceState, capacity float64) Amounts {
	fraction := r.LootFraction
	if fraction <= 0 || fraction > 1 {
		fraction = DefaultLootFraction
	}
	var available Amounts
	for _, kind := range ResourceKinds {
		available.Set(kind, math.Floor(stock.Get(kind).Stock*fraction))
	}
	total := available.Total()
	if total <= 0 || capacity <= 0 {
		return Amounts{}
	}
	if total <= capacity {
		return available
	}
	scale := capacity / total
	var out Amounts
	for _, kind := range ResourceKinds {
		out.Set(kind, math.Floor(available.Get(kind)*scale))
	}
	return out
}

// casualties splits each count into survivors and losses so that
// survivors + losses always equals the original count. A winning side
// rounds its losses down and keeps at least one unit of every type it had.
func casualties(troops Troops, fraction float64, winner bool) (Troops, Troops) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	survivors := make(Troops, len(troops))
	losses := make(Troops, len(troops))
	for t, n := range troops {
		if n <= 0 {
			survivors[t] = 0
			continue
		}
		lost := n
		if winner {
			lost = int(math.Floor(float64(n) * fraction))
			if lost >= n {
				lost = n - 1
			}
		}
		if lost < 0 {
			lost = 0
		}
		survivors[t] = n - lost
		losses[t] = lost
	}
	return survivors, losses
}

func returnHome(group DispatchedGroup, troops Troops, loot Amounts, now time.Time) *DispatchedGroup {
	back := group.Clone()
	back.Troops = troops.Clone()
	back.Loot = loot
	back.HeadingBack = true
	back.DepartedAt = now
	back.ArrivesAt = now.Add(group.TravelDuration())
	return &back
}
