package ics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "coursesync/internal/log"
	"coursesync/internal/model"
)

const productID = "-//coursesync//course timetable//ZH"

// Options controls calendar metadata.
type Options struct {
	// Name is shown as the calendar title by most clients (X-WR-CALNAME).
	Name string
	// Timezone is the IANA zone of the timetable (X-WR-TIMEZONE).
	Timezone string
	// Stamp is written as DTSTAMP on every event. Zero means now.
	Stamp time.Time
}

// Encode renders occurrences as a VCALENDAR with one VEVENT per class.
// Event UIDs are derived from course code, week and start so re-exports
// of the same timetable update events in place instead of duplicating them.
func Encode(occs []model.Occurrence, opts Options) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	if opts.Timezone != "" {
		cal.SetXWRTimezone(opts.Timezone)
	}

	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for _, o := range occs {
		if o.Course == nil {
			continue
		}
		ev := cal.AddEvent(eventUID(o))
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(o.Start)
		ev.SetEndAt(o.End)
		ev.SetSummary(o.Course.Name)
		if o.Course.Room != "" {
			ev.SetLocation(o.Course.Room)
		}
		ev.SetDescription(describe(o))
	}
	return cal.Serialize()
}

// WriteFile encodes occurrences and saves them to path, creating the
// parent directory if needed.
func WriteFile(path string, occs []model.Occurrence, opts Options) error {
	if path == "" {
		return errors.New("ics: output path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	body := Encode(occs, opts)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("ics: write %s: %w", path, err)
	}
	appLog.Info("ics export written", "path", path, "event_count", len(occs))
	return nil
}

func eventUID(o model.Occurrence) string {
	key := o.Course.Code
	if key == "" {
		key = o.Course.Name
	}
	key = strings.Map(func(r rune) rune {
		if r == ' ' || r == '@' {
			return '-'
		}
		return r
	}, key)
	return fmt.Sprintf("%s-w%02d-%s@coursesync", key, o.Week, o.Start.UTC().Format("20060102T1504Z"))
}

func describe(o model.Occurrence) string {
	lines := []string{fmt.Sprintf("第 %d 週", o.Week)}
	if o.Course.Instructor != "" {
		lines = append(lines, "授課教師: "+o.Course.Instructor)
	}
	if o.Course.Code != "" {
		lines = append(lines, "課程代碼: "+o.Course.Code)
	}
	if o.Course.Credits != "" {
		lines = append(lines, "學分: "+o.Course.Credits)
	}
	return strings.Join(lines, "\n")
}
