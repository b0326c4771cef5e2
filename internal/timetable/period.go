package timetable

import (
	"fmt"
	"time"
)

// Period layout of the registration system: period 1 starts at 06:10 and each
// following period starts one hour after the previous one. A class lasts 50
// minutes, so the end of the last period in a block is start + 50m.
const (
	firstPeriodStart = 6*time.Hour + 10*time.Minute
	periodStep       = 60 * time.Minute
	PeriodDuration   = 50 * time.Minute

	// MaxPeriod is the last period that still ends before midnight.
	MaxPeriod = 17
)

// ClockTime is a wall-clock offset from midnight.
type ClockTime time.Duration

// TimeOf returns the start of period p. p must be in [1, MaxPeriod]; the
// token parser never produces anything else.
func TimeOf(p int) ClockTime {
	return ClockTime(firstPeriodStart + time.Duration(p-1)*periodStep)
}

// EndOf returns the instant period p ends.
func EndOf(p int) ClockTime {
	return TimeOf(p) + ClockTime(PeriodDuration)
}

func (c ClockTime) Hour() int   { return int(time.Duration(c) / time.Hour) }
func (c ClockTime) Minute() int { return int(time.Duration(c)%time.Hour) / int(time.Minute) }

// String formats as HH:MM.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On places the clock time on the calendar date of d in loc.
func (c ClockTime) On(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc)
}

// TimeRange is the wall-clock span of a block of consecutive periods.
type TimeRange struct {
	Start ClockTime
	End   ClockTime
}

// RangeOf spans from the start of the earliest period to the end of the latest.
func RangeOf(periods []int) TimeRange {
	lo, hi := periods[0], periods[0]
	for _, p := range periods[1:] {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	return TimeRange{Start: TimeOf(lo), End: EndOf(hi)}
}
