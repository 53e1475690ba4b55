package settlement

import "time"

// LedgerPartition splits a settlement's dispatched groups by what must
// happen to them at a given instant.
type LedgerPartition struct {
	InFlight  []DispatchedGroup
	Outbound  []DispatchedGroup
	Returning []DispatchedGroup
}

// Ready is the number of groups that need resolution.
func (p LedgerPartition) Ready() int {
	return len(p.Outbound) + len(p.Returning)
}

// PartitionLedger classifies groups against now. A group arriving exactly
// at now is ready.
func PartitionLedger(groups []DispatchedGroup, now time.Time) LedgerPartition {
	var p LedgerPartition
	for _, g := range groups {
		switch {
		case g.ArrivesAt.After(now):
			p.InFlight = append(p.InFlight, g)
		case g.HeadingBack:
			p.Returning = append(p.Returning, g)
		default:
			p.Outbound = append(p.Outbound, g)
		}
	}
	return p
}

// ApplyReturns folds returning groups back into a copy of the garrison and
// sums the loot they carry.
func ApplyReturns(garrison Troops, returning []DispatchedGroup) (Troops, Amounts) {
	out := garrison.Clone()
	if out == nil {
		out = EmptyTroops()
	}
	var loot Amounts
	for _, g := range returning {
		for t, n := range g.Troops {
			if n > 0 {
				out[t] += n
			}
		}
		loot = loot.Add(g.Loot)
	}
	return out, loot
}
