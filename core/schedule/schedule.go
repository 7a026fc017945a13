package schedule

import (
	"time"

	"github.com/tguellec/qcdispatch/core/model"
)

// ShouldFire reports whether the dispatch is eligible to fire at now.
//
// For SpecificDays schedules the weekday and the wall-clock hour:minute must
// match exactly; a one-minute tick granularity is assumed upstream. For
// Interval schedules the slot index is the executed counter, so eligibility
// survives scanner jitter: a late tick still fires the pending slot exactly
// once because the executor's counter advance moves the next slot forward.
func ShouldFire(d model.Dispatch, now time.Time) bool {
	switch s := d.Schedule.(type) {
	case model.SpecificDays:
		return specificDaysDue(s, now)
	case model.Interval:
		return intervalDue(s, d.ExecutedCount, now)
	default:
		// Nil or unknown schedule stored for this dispatch.
		return false
	}
}

func specificDaysDue(s model.SpecificDays, now time.Time) bool {
	if len(s.Days) == 0 {
		return false
	}
	ct, err := model.ParseClockTime(s.TimeOfDay)
	if err != nil {
		return false
	}
	for _, day := range s.Days {
		if day == now.Weekday() {
			return ct.Matches(now)
		}
	}
	return false
}

func intervalDue(s model.Interval, executed int, now time.Time) bool {
	if s.Start.IsZero() || s.IntervalMinutes <= 0 {
		return false
	}
	if s.RepeatCount > 0 && executed >= s.RepeatCount {
		return false
	}
	return !now.Before(NextFireTime(s, executed))
}

// NextFireTime returns the instant at which the slot identified by the
// executed counter becomes due. It is exposed so operators can diagnose a
// dispatch that never fires from its stored state alone.
func NextFireTime(s model.Interval, executed int) time.Time {
	return s.Start.Add(time.Duration(executed) * s.Every())
}
