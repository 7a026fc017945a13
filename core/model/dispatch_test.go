package model

import (
	"testing"
	"time"
)

func TestParseClockTime(t *testing.T) {
	ct, err := ParseClockTime("14:00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ct.Hour != 14 || ct.Minute != 0 {
		t.Fatalf("bad clock time %+v", ct)
	}
	for _, bad := range []string{"", "  ", "25:00", "14", "14:60", "2pm"} {
		if _, err := ParseClockTime(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestClockTimeMatches(t *testing.T) {
	ct := ClockTime{Hour: 14, Minute: 0}
	now := time.Date(2025, 3, 3, 14, 0, 42, 999, time.Local)
	if !ct.Matches(now) {
		t.Fatalf("expected match regardless of seconds")
	}
	if ct.Matches(now.Add(time.Minute)) {
		t.Fatalf("one minute off must not match")
	}
}

func TestParseWeekday(t *testing.T) {
	for s, want := range map[string]time.Weekday{
		"MONDAY": time.Monday,
		"sunday": time.Sunday,
		" Friday ": time.Friday,
	} {
		got, err := ParseWeekday(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if got != want {
			t.Fatalf("%q: got %v want %v", s, got, want)
		}
	}
	if _, err := ParseWeekday("SOMEDAY"); err == nil {
		t.Fatalf("expected error")
	}
	if WeekdayName(time.Wednesday) != "WEDNESDAY" {
		t.Fatalf("bad weekday name")
	}
}

func TestDispatchClone(t *testing.T) {
	d := Dispatch{
		ID:           "d1",
		Schedule:     SpecificDays{Days: []time.Weekday{time.Monday}, TimeOfDay: "08:00"},
		PersonnelIDs: []string{"p1"},
		FormIDs:      []string{"f1"},
	}
	c := d.Clone()
	c.PersonnelIDs[0] = "px"
	c.Schedule.(SpecificDays).Days[0] = time.Friday
	if d.PersonnelIDs[0] != "p1" {
		t.Fatalf("clone aliases personnel ids")
	}
	if d.Schedule.(SpecificDays).Days[0] != time.Monday {
		t.Fatalf("clone aliases schedule days")
	}
}
