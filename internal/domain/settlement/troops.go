package settlement

// Troops maps troop type to unit count. Counts are never negative.
type Troops map[TroopType]int

// EmptyTroops returns a garrison with every known troop type at zero.
func EmptyTroops() Troops {
	out := make(Troops, len(TroopTypes))
	for _, t := range TroopTypes {
		out[t] = 0
	}
	return out
}

func (t Troops) Clone() Troops {
	if t == nil {
		return nil
	}
	out := make(Troops, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func (t Troops) Total() int {
	total := 0
	for _, n := range t {
		if n > 0 {
			total += n
		}
	}
	return total
}

// Plus returns a new map holding t + other.
func (t Troops) Plus(other Troops) Troops {
	out := t.Clone()
	if out == nil {
		out = Troops{}
	}
	for k, v := range other {
		out[k] += v
	}
	return out
}

// Minus returns t - other. ok is false when any count would go negative,
// in which case the result is nil.
func (t Troops) Minus(other Troops) (Troops, bool) {
	out := t.Clone()
	if out == nil {
		out = Troops{}
	}
	for k, v := range other {
		if out[k]-v < 0 {
			return nil, false
		}
		out[k] -= v
	}
	return out, true
}
