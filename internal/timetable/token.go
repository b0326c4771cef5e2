package timetable

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/teambition/rrule-go"
)

// Weekday is a meeting day as encoded by the registration table.
type Weekday int

const (
	WeekdayUnknown Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

const (
	labelUnscheduled = "未排定"
	labelUnknown     = "未知"
	separator        = "/"
)

var weekdaySymbols = map[rune]Weekday{
	'一': Monday,
	'二': Tuesday,
	'三': Wednesday,
	'四': Thursday,
	'五': Friday,
	'六': Saturday,
	'日': Sunday,
}

var weekdayLabels = [...]string{
	WeekdayUnknown: labelUnknown,
	Monday:         "週一",
	Tuesday:        "週二",
	Wednesday:      "週三",
	Thursday:       "週四",
	Friday:         "週五",
	Saturday:       "週六",
	Sunday:         "週日",
}

// Label is the display name stored in the remote "星期" field.
func (w Weekday) Label() string {
	if w < WeekdayUnknown || w > Sunday {
		return labelUnknown
	}
	return weekdayLabels[w]
}

// Time converts to the standard library weekday. Only valid for Monday..Sunday.
func (w Weekday) Time() time.Weekday {
	if w == Sunday {
		return time.Sunday
	}
	return time.Weekday(w)
}

func (w Weekday) rrule() rrule.Weekday {
	return [...]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}[w-Monday]
}

// ParsedToken is the result of parsing a schedule cell. It is one of
// Scheduled, Unscheduled or Malformed.
type ParsedToken interface {
	// Label is what the course record shows in its weekday column.
	Label() string
	token()
}

// Scheduled is a weekly meeting on Weekday covering Periods. Weekday may be
// WeekdayUnknown when the day symbol is not recognised; such a token still
// carries its periods but never recurs.
type Scheduled struct {
	Weekday Weekday
	Periods []int
}

// Unscheduled is an empty schedule cell: the course has no fixed slot.
type Unscheduled struct{}

// Malformed keeps the original cell text when it could not be parsed.
type Malformed struct {
	Raw string
}

func (s Scheduled) Label() string { return s.Weekday.Label() }
func (Unscheduled) Label() string { return labelUnscheduled }
func (m Malformed) Label() string { return m.Raw }

func (Scheduled) token()   {}
func (Unscheduled) token() {}
func (Malformed) token()   {}

// Range is the wall-clock span of the meeting.
func (s Scheduled) Range() TimeRange { return RangeOf(s.Periods) }

// ParseToken parses a cell such as "一/3/4/5" or "一3/一4/一5".
//
// The first character selects the weekday. Every slash-separated part may
// repeat the weekday marker in front of its period number; the marker is
// dropped and the rest must be a period number in [1, MaxPeriod]. Any part
// that fails to parse turns the whole cell into Malformed so the row can
// still be kept.
func ParseToken(raw string) ParsedToken {
	text := strings.TrimSpace(raw)
	trimmed := strings.Trim(text, separator)
	if strings.TrimSpace(trimmed) == "" {
		return Unscheduled{}
	}

	parts := strings.Split(trimmed, separator)

	first, _ := utf8.DecodeRuneInString(parts[0])
	weekday, ok := weekdaySymbols[first]
	if !ok {
		weekday = WeekdayUnknown
	}

	periods := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return Malformed{Raw: text}
		}
		r, size := utf8.DecodeRuneInString(part)
		if r < '0' || r > '9' {
			part = part[size:]
			if part == "" {
				continue
			}
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > MaxPeriod {
			return Malformed{Raw: text}
		}
		periods = append(periods, n)
	}
	if len(periods) == 0 {
		return Malformed{Raw: text}
	}

	return Scheduled{Weekday: weekday, Periods: periods}
}
