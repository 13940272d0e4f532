package domain

import "strconv"

// SnackCount returns the reward tier granted for clearing a challenge at difficulty.
func SnackCount(difficulty int) int {
	switch difficulty {
	case 1:
		return 3
	case 2:
		return 4
	case 3:
		return 5
	default:
		return 0
	}
}

// RequiredQuestions returns how many unused questions a challenge at difficulty needs.
// ok is false for unknown difficulties.
func RequiredQuestions(difficulty int) (n int, ok bool) {
	switch difficulty {
	case 1, 2:
		return 7, true
	case 3:
		return 6, true
	case 4, 5:
		return 1, true
	default:
		return 0, false
	}
}

// ApplyClear marks the group as cleared and grants snack rewards. Both fields only
// move away from FlagUnset; values that are already set are kept. It reports
// whether anything changed.
func (g *Group) ApplyClear(snackCount int) bool {
	changed := false
	if g.WasCleared == FlagUnset {
		g.WasCleared = FlagCleared
		changed = true
	}
	if g.SnackState == FlagUnset {
		next := strconv.Itoa(snackCount)
		if next != g.SnackState {
			g.SnackState = next
			changed = true
		}
	}
	return changed
}

// CounterFor picks the question counter bumped by an answer result.
func CounterFor(result string) Counter {
	if result == ResultCorrect {
		return CounterCollect
	}
	return CounterWrong
}
