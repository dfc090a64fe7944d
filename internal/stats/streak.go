package stats

import (
	"sort"
	"time"
)

// Streaks returns the current and longest run of consecutive calendar
// days found in dates. Days are taken in loc.
func Streaks(dates []time.Time, now time.Time, loc *time.Location) (current, longest int) {
	if loc == nil {
		loc = time.Local
	}
	days := distinctDays(dates, loc)
	if len(days) == 0 {
		return 0, 0
	}

	// days is sorted newest first; a run continues while each day is
	// exactly one before the previous one.
	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i-1]-days[i] == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	today := dayNumber(now, loc)
	if days[0] != today && days[0] != today-1 {
		return 0, longest
	}
	current = 1
	for i := 1; i < len(days) && days[i-1]-days[i] == 1; i++ {
		current++
	}
	return current, longest
}

// dayNumber maps t to a count of civil days in loc, so that consecutive
// calendar days differ by exactly one regardless of DST changes.
func dayNumber(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

func distinctDays(dates []time.Time, loc *time.Location) []int64 {
	seen := make(map[int64]bool, len(dates))
	days := make([]int64, 0, len(dates))
	for _, t := range dates {
		n := dayNumber(t, loc)
		if !seen[n] {
			seen[n] = true
			days = append(days, n)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] > days[j] })
	return days
}
