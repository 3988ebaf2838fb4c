package domain

import "time"

// EnergyConfig holds the regeneration parameters for the energy resource.
type EnergyConfig struct {
	Max           int           `json:"max"`            // default 6
	RegenInterval time.Duration `json:"regen_interval"` // default 4h
	RegenAmount   int           `json:"regen_amount"`   // units per interval, default 1
}

// DefaultEnergyConfig returns the default configuration.
func DefaultEnergyConfig() EnergyConfig {
	return EnergyConfig{
		Max:           6,
		RegenInterval: 4 * time.Hour,
		RegenAmount:   1,
	}
}

// EnergyState is the reconciled energy tuple derived from a stored
// (current, last_replenish_at) pair at a given instant.
type EnergyState struct {
	Current         int
	LastReplenishAt time.Time
	NextRegenAt     *time.Time // nil when at max
}

// ComputeEnergy derives the true current energy from the stored tuple
// without any background process. Pure; safe to call on every read.
//
// Regeneration grants RegenAmount units per full RegenInterval elapsed.
// When the cap is hit mid-way through the elapsed window the replenish
// anchor collapses to now (accrued drift is meaningless past the cap);
// otherwise the anchor advances by whole intervals only, so partial
// progress toward the next unit is preserved.
func ComputeEnergy(current, max int, lastReplenishAt, now time.Time, cfg EnergyConfig) EnergyState {
	if current >= max {
		return EnergyState{Current: current, LastReplenishAt: lastReplenishAt}
	}

	elapsed := now.Sub(lastReplenishAt)
	if elapsed < 0 {
		// Clock skew: never regenerate backwards.
		elapsed = 0
	}

	units := int(elapsed / cfg.RegenInterval)
	gained := units * cfg.RegenAmount

	state := EnergyState{LastReplenishAt: lastReplenishAt}
	if current+gained >= max {
		state.Current = max
		if current+gained > max {
			state.LastReplenishAt = now
		} else {
			state.LastReplenishAt = lastReplenishAt.Add(time.Duration(units) * cfg.RegenInterval)
		}
		return state
	}

	state.Current = current + gained
	state.LastReplenishAt = lastReplenishAt.Add(time.Duration(units) * cfg.RegenInterval)
	next := state.LastReplenishAt.Add(cfg.RegenInterval)
	state.NextRegenAt = &next
	return state
}

// EnergyStale reports whether the stored tuple is out of date by at least
// one full regen interval, i.e. a snapshot read should persist the
// reconciled value instead of recomputing it forever.
func EnergyStale(current, max int, lastReplenishAt, now time.Time, cfg EnergyConfig) bool {
	if current >= max {
		return false
	}
	return now.Sub(lastReplenishAt) >= cfg.RegenInterval
}
