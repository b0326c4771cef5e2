package timetable

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	appLog "coursesync/internal/log"
	"coursesync/internal/model"
)

const dateLayout = "2006-01-02"

// ParseWindow builds a semester window from two YYYY-MM-DD dates in loc.
func ParseWindow(name, start, end string, loc *time.Location) (model.SemesterWindow, error) {
	if loc == nil {
		loc = time.Local
	}
	s, err := time.ParseInLocation(dateLayout, start, loc)
	if err != nil {
		return model.SemesterWindow{}, fmt.Errorf("semester start %q: %w", start, err)
	}
	e, err := time.ParseInLocation(dateLayout, end, loc)
	if err != nil {
		return model.SemesterWindow{}, fmt.Errorf("semester end %q: %w", end, err)
	}
	if e.Before(s) {
		return model.SemesterWindow{}, errors.New("semester end is before semester start")
	}
	return model.SemesterWindow{Name: name, Start: s, End: e}, nil
}

// Generate expands a weekly schedule into every dated occurrence inside the
// window. Unscheduled, malformed and unknown-weekday tokens yield nothing.
//
// The first occurrence is the first date on or after window.Start that falls
// on the token's weekday (window.Start itself counts); the last one is on or
// before window.End. Occurrence times are placed in the window's location.
func Generate(course *model.Course, token ParsedToken, window model.SemesterWindow) []model.Occurrence {
	sched, ok := token.(Scheduled)
	if !ok || sched.Weekday == WeekdayUnknown || len(sched.Periods) == 0 {
		return nil
	}
	if window.End.Before(window.Start) {
		return nil
	}

	loc := window.Start.Location()
	span := sched.Range()
	if span.End > EndOf(MaxPeriod) {
		appLog.Warn("schedule runs past midnight", "course", courseName(course), "periods", sched.Periods)
		return nil
	}

	firstStart := span.Start.On(window.Start, loc)
	// UNTIL is the last instant a meeting may start on the final date.
	until := time.Date(window.End.Year(), window.End.Month(), window.End.Day(), 23, 59, 59, 0, loc)

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   firstStart,
		Byweekday: []rrule.Weekday{sched.Weekday.rrule()},
		Until:     until,
	})
	if err != nil {
		appLog.Error("recurrence rule rejected", err, "course", courseName(course), "schedule", sched.Label())
		return nil
	}

	starts := r.All()
	out := make([]model.Occurrence, 0, len(starts))
	for i, st := range starts {
		day := st.In(loc)
		out = append(out, model.Occurrence{
			Course: course,
			Week:   i + 1,
			Start:  span.Start.On(day, loc),
			End:    span.End.On(day, loc),
		})
	}
	return out
}

func courseName(c *model.Course) string {
	if c == nil {
		return ""
	}
	return c.Name
}
