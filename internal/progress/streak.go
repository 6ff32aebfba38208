package progress

import (
	"time"

	"github.com/example/gclearnbot/pkg/models"
)

// ComputeStreak derives streak figures from entry timestamps sorted newest
// first. It is a pure function: consecutive calendar days extend a run, a gap
// of more than one day breaks it. Current is the run touching the most recent
// entry, Longest is the best run anywhere in the history, and TotalActiveDays
// counts distinct calendar days regardless of contiguity.
func ComputeStreak(timestamps []time.Time) models.Streak {
	if len(timestamps) == 0 {
		return models.Streak{}
	}

	// Collapse to distinct calendar days, preserving the newest-first order.
	var days []time.Time
	for _, ts := range timestamps {
		day := ts.UTC().Truncate(24 * time.Hour)
		if len(days) == 0 || !days[len(days)-1].Equal(day) {
			days = append(days, day)
		}
	}

	streak := models.Streak{TotalActiveDays: len(days)}

	run := 1
	current := 1
	currentBroken := false
	longest := 1
	for i := 1; i < len(days); i++ {
		gap := int(days[i-1].Sub(days[i]).Hours() / 24)
		if gap == 1 {
			run++
			if !currentBroken {
				current++
			}
		} else {
			run = 1
			currentBroken = true
		}
		if run > longest {
			longest = run
		}
	}

	streak.Current = current
	streak.Longest = longest
	return streak
}
