package model

import (
	"fmt"
	"strings"
	"time"
)

// Dispatch is the stored configuration for one recurring QC test dispatch.
// The engine reads it, fires it and advances ExecutedCount; creation,
// deactivation and deletion belong to the owning application.
type Dispatch struct {
	ID string `json:"id"`
	// Schedule is nil when the stored configuration is malformed or carries
	// an unknown kind. A nil schedule never fires.
	Schedule      Schedule `json:"-"`
	ExecutedCount int      `json:"executed_count"`
	Active        bool     `json:"active"`
	PersonnelIDs  []string `json:"personnel_ids"`
	FormIDs       []string `json:"form_ids"`
}

// Clone returns a deep copy so stores can hand out descriptors without
// aliasing their internal state.
func (d Dispatch) Clone() Dispatch {
	c := d
	c.PersonnelIDs = append([]string(nil), d.PersonnelIDs...)
	c.FormIDs = append([]string(nil), d.FormIDs...)
	if s, ok := d.Schedule.(SpecificDays); ok {
		s.Days = append([]time.Weekday(nil), s.Days...)
		c.Schedule = s
	}
	return c
}

// Schedule is the closed set of schedule kinds a dispatch can carry.
type Schedule interface {
	Kind() string
}

// SpecificDays fires at a fixed wall-clock time on a set of weekdays.
// The engine compares against the caller's local clock verbatim.
type SpecificDays struct {
	Days      []time.Weekday
	TimeOfDay string // "15:04"
}

func (SpecificDays) Kind() string { return "specific_days" }

// Interval fires every IntervalMinutes starting from Start, at most
// RepeatCount times. RepeatCount zero means unbounded.
type Interval struct {
	Start           time.Time
	IntervalMinutes int
	RepeatCount     int
}

func (Interval) Kind() string { return "interval" }

// Every returns the interval as a duration.
func (s Interval) Every() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// ClockTime is a wall-clock hour and minute without date or zone.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM". Blank or malformed input is an error so
// callers can decide between fail-closed and fail-loud handling.
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ClockTime{}, fmt.Errorf("time of day is empty")
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Matches reports whether the given instant falls on this hour and minute.
// Seconds and sub-second precision are discarded.
func (c ClockTime) Matches(now time.Time) bool {
	return now.Hour() == c.Hour && now.Minute() == c.Minute
}

var weekdayNames = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

// ParseWeekday converts a stored weekday name such as "MONDAY" into a
// time.Weekday. Matching is case-insensitive.
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdayNames[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return d, nil
}

// WeekdayName returns the storage name for a weekday, e.g. "MONDAY".
func WeekdayName(d time.Weekday) string {
	return strings.ToUpper(d.String())
}
