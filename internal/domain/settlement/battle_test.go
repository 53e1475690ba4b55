package settlement

import (
	"testing"
	"time"

	"civico/internal/domain/worldmap"
)

func defenderAt(troops Troops) *Snapshot {
	s := NewSnapshot("def", "defender", worldmap.Point{X: 3, Y: 4}, baseTime)
	s.Pacifist = false
	for k, v := range troops {
		s.Troops[k] = v
	}
	return &s
}

func arrivedGroup(troops Troops, now time.Time) DispatchedGroup {
	return DispatchedGroup{
		ID:          "g1",
		Origin:      worldmap.Point{X: 0, Y: 0},
		Destination: worldmap.Point{X: 3, Y: 4},
		Troops:      troops,
		DepartedAt:  now.Add(-10*time.Minute - time.Millisecond),
		ArrivesAt:   now.Add(-time.Millisecond),
	}
}

func TestResolve_ProtectedDefenderSendsGroupHome(t *testing.T) {
	now := baseTime
	def := defenderAt(nil)
	def.Pacifist = true
	def.PacifismDisabledUntil = now.Add(time.Second)
	before := def.Clone()

	res := BattleResolver{}.Resolve(arrivedGroup(Troops{KnifeBoy: 10}, now), def, now)
	if res.Outcome != OutcomeProtected {
		t.Fatalf("expected protected, got %s", res.Outcome)
	}
	if res.Returning == nil || res.Returning.Troops[KnifeBoy] != 10 || !res.Returning.HeadingBack {
		t.Fatalf("expected intact returning group, got %+v", res.Returning)
	}
	if want := now.Add(10 * time.Minute); !res.Returning.ArrivesAt.Equal(want) {
		t.Fatalf("expected return at %s, got %s", want, res.Returning.ArrivesAt)
	}
	if res.DefenderChanged != 0 {
		t.Fatalf("expected defender unchanged, got %b", res.DefenderChanged)
	}
	if def.Troops[Spearman] != before.Troops[Spearman] || def.Resources != before.Resources {
		t.Fatalf("expected input defender untouched")
	}
}

func TestIsProtected_UntilOwnerDisablesPacifism(t *testing.T) {
	s := NewSnapshot("s", "owner", worldmap.Point{}, baseTime)
	if !s.IsProtected(baseTime.Add(10 * 365 * 24 * time.Hour)) {
		t.Fatalf("pacifist that never disabled protection should stay protected")
	}
	s.PacifismDisabledUntil = baseTime.Add(time.Hour)
	if !s.IsProtected(baseTime.Add(59*time.Minute)) || s.IsProtected(baseTime.Add(time.Hour)) {
		t.Fatalf("protection should end exactly at the disable deadline")
	}
}

func TestResolve_ExpiredPacifismAllowsAttack(t *testing.T) {
	now := baseTime
	def := defenderAt(nil)
	def.Pacifist = true
	def.PacifismDisabledUntil = now.Add(-time.Second)

	res := BattleResolver{}.Resolve(arrivedGroup(Troops{Swordsman: 3}, now), def, now)
	if res.Outcome != OutcomeVictory {
		t.Fatalf("expected victory on undefended settlement, got %s", res.Outcome)
	}
}

func TestResolve_VictoryLootsAndKillsDefenders(t *testing.T) {
	now := baseTime
	def := defenderAt(Troops{Spearman: 4})

	res := BattleResolver{}.Resolve(arrivedGroup(Troops{DonkeyRider: 20}, now), def, now)
	if res.Outcome != OutcomeVictory {
		t.Fatalf("expected victory, got %s", res.Outcome)
	}
	if res.Returning == nil || res.Returning.Troops[DonkeyRider] != 18 {
		t.Fatalf("expected 18 survivors, got %+v", res.Returning)
	}
	if res.AttackerLosses[DonkeyRider] != 2 {
		t.Fatalf("expected 2 attacker losses, got %d", res.AttackerLosses[DonkeyRider])
	}
	if res.Defender.Troops[Spearman] != 0 || res.DefenderLosses[Spearman] != 4 {
		t.Fatalf("expected defenders wiped, got %+v", res.Defender.Troops)
	}
	want := Amounts{Lumber: 125, Iron: 125, Clay: 125, Wheat: 125}
	if res.Loot != want || res.Returning.Loot != want {
		t.Fatalf("unexpected loot: %+v", res.Loot)
	}
	if res.Defender.Resources.Lumber.Stock != 125 || !res.Defender.Resources.Timestamp.Equal(now) {
		t.Fatalf("expected rebased defender stock 125, got %+v", res.Defender.Resources.Lumber)
	}
	if !res.DefenderChanged.Has(FieldTroops) || !res.DefenderChanged.Has(FieldResources) {
		t.Fatalf("expected troops and resources changed, got %b", res.DefenderChanged)
	}
}

func TestResolve_LootLimitedByCarryCapacity(t *testing.T) {
	now := baseTime
	def := defenderAt(Troops{Spearman: 4})

	res := BattleResolver{}.Resolve(arrivedGroup(Troops{Swordsman: 10}, now), def, now)
	if res.Outcome != OutcomeVictory {
		t.Fatalf("expected victory, got %s", res.Outcome)
	}
	capacity := DefaultTroopStats.CarryCapacity(res.Returning.Troops)
	if res.Loot.Total() > capacity {
		t.Fatalf("loot %v exceeds capacity %v", res.Loot.Total(), capacity)
	}
	for _, kind := range ResourceKinds {
		if v := res.Loot.Get(kind); v < 0 || v > 125 {
			t.Fatalf("loot %s out of range: %v", kind, v)
		}
	}
}

func TestResolve_DefeatDestroysAttacker(t *testing.T) {
	now := baseTime
	def := defenderAt(Troops{Spearman: 10})

	res := BattleResolver{}.Resolve(arrivedGroup(Troops{KnifeBoy: 2}, now), def, now)
	if res.Outcome != OutcomeDefeat {
		t.Fatalf("expected defeat, got %s", res.Outcome)
	}
	if res.Returning != nil {
		t.Fatalf("expected no returning group")
	}
	if res.AttackerLosses[KnifeBoy] != 2 {
		t.Fatalf("expected both knife boys lost")
	}
	if res.Defender.Troops[Spearman] != 10 {
		t.Fatalf("expected garrison intact, got %d", res.Defender.Troops[Spearman])
	}
	if res.DefenderChanged.Has(FieldResources) {
		t.Fatalf("expected no loot on defeat")
	}
}

func TestResolve_WinnerKeepsAUnitOfEveryType(t *testing.T) {
	now := baseTime
	cases := []struct {
		name             string
		attack           Troops
		defend           Troops
		outcome          Outcome
		attackerLost     int
		defenderLost     int
		defenderStanding int
	}{
		{
			name:    "narrow attacker win",
			attack:  Troops{Jouster: 1},
			defend:  Troops{KnifeBoy: 1, Spearman: 1},
			outcome: OutcomeVictory, attackerLost: 0, defenderLost: 2, defenderStanding: 0,
		},
		{
			name:    "one on one attacker win",
			attack:  Troops{Swordsman: 1},
			defend:  Troops{Spearman: 1},
			outcome: OutcomeVictory, attackerLost: 0, defenderLost: 1, defenderStanding: 0,
		},
		{
			name:    "one on one defender win",
			attack:  Troops{KnifeBoy: 1},
			defend:  Troops{KnifeBoy: 1},
			outcome: OutcomeDefeat, attackerLost: 1, defenderLost: 0, defenderStanding: 1,
		},
		{
			name:    "tie goes to the defender",
			attack:  Troops{KnifeBoy: 3},
			defend:  Troops{KnifeBoy: 2},
			outcome: OutcomeDefeat, attackerLost: 3, defenderLost: 1, defenderStanding: 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := BattleResolver{}.Resolve(arrivedGroup(tc.attack, now), defenderAt(tc.defend), now)
			if res.Outcome != tc.outcome {
				t.Fatalf("outcome=%s want %s (A=%v D=%v)", res.Outcome, tc.outcome, res.AttackPower, res.DefensePower)
			}
			if got := res.AttackerLosses.Total(); got != tc.attackerLost {
				t.Fatalf("attacker lost %d want %d", got, tc.attackerLost)
			}
			if got := res.DefenderLosses.Total(); got != tc.defenderLost {
				t.Fatalf("defender lost %d want %d", got, tc.defenderLost)
			}
			if got := res.Defender.Troops.Total(); got != tc.defenderStanding {
				t.Fatalf("defender garrison %d want %d", got, tc.defenderStanding)
			}
			if tc.outcome == OutcomeVictory {
				if res.Returning == nil {
					t.Fatalf("winning attacker should head home")
				}
				for tt, n := range tc.attack {
					if n > 0 && res.Returning.Troops[tt] < 1 {
						t.Fatalf("winner lost every %s", tt)
					}
				}
			}
		})
	}
}

func TestResolve_EmptyGroupAndMissingTarget(t *testing.T) {
	now := baseTime

	res := BattleResolver{}.Resolve(arrivedGroup(Troops{}, now), defenderAt(nil), now)
	if res.Outcome != OutcomeEmpty || res.Returning != nil || res.DefenderChanged != 0 {
		t.Fatalf("unexpected empty group result: %+v", res)
	}

	res = BattleResolver{}.Resolve(arrivedGroup(Troops{Jouster: 2}, now), nil, now)
	if res.Outcome != OutcomeTargetMissing || res.Returning == nil || res.Returning.Troops[Jouster] != 2 {
		t.Fatalf("expected group sent home intact, got %+v", res)
	}
}

func TestResolve_ConservesTroops(t *testing.T) {
	now := baseTime
	cases := []struct {
		name   string
		attack Troops
		defend Troops
	}{
		{name: "even", attack: Troops{Swordsman: 7, KnifeBoy: 3}, defend: Troops{Spearman: 6}},
		{name: "overwhelming", attack: Troops{DarkKnight: 50}, defend: Troops{KnifeBoy: 1}},
		{name: "hopeless", attack: Troops{KnifeBoy: 1}, defend: Troops{DarkKnight: 30, Spearman: 9}},
		{name: "mixed", attack: Troops{Jouster: 4, DonkeyRider: 9, Spearman: 2}, defend: Troops{Swordsman: 8, Jouster: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := BattleResolver{}.Resolve(arrivedGroup(tc.attack, now), defenderAt(tc.defend), now)
			var survivors Troops
			if res.Returning != nil {
				survivors = res.Returning.Troops
			}
			for tt, n := range tc.attack {
				if got := survivors[tt] + res.AttackerLosses[tt]; got != n {
					t.Fatalf("attacker %s: survivors+losses=%d want %d", tt, got, n)
				}
				if survivors[tt] < 0 {
					t.Fatalf("negative survivors for %s", tt)
				}
			}
			for tt, n := range tc.defend {
				if got := res.Defender.Troops[tt] + res.DefenderLosses[tt]; got != n {
					t.Fatalf("defender %s: remaining+losses=%d want %d", tt, got, n)
				}
			}
		})
	}
}
