package domain

// StreakTransition describes the outcome of recording activity for a day.
type StreakTransition struct {
	Count   int
	Counted bool // false when the day was already recorded (idempotent no-op)
}

// NextStreak applies the streak state machine for a recorded activity on
// today. The transition depends only on the delta between the last counted
// date and today:
//
//	same day    → hold (already counted)
//	yesterday   → increment
//	gap / first → reset to 1
func NextStreak(prev int, last *LocalDate, today LocalDate) StreakTransition {
	switch {
	case last != nil && *last == today:
		return StreakTransition{Count: prev, Counted: false}
	case last != nil && last.Next() == today:
		return StreakTransition{Count: prev + 1, Counted: true}
	default:
		return StreakTransition{Count: 1, Counted: true}
	}
}

// AppendActivity adds day to the log if absent and prunes entries older
// than windowDays (counted back from day). The log stays ordered oldest
// to newest.
func AppendActivity(log []LocalDate, day LocalDate, windowDays int) []LocalDate {
	cutoff := day.AddDays(-(windowDays - 1))

	out := make([]LocalDate, 0, len(log)+1)
	seen := false
	for _, d := range log {
		if d.Before(cutoff) {
			continue
		}
		if d == day {
			seen = true
		}
		out = append(out, d)
	}
	if !seen {
		out = append(out, day)
	}
	return out
}
