package timetable

import (
	"regexp"
	"strings"

	"coursesync/internal/model"
)

// ColumnLayout gives the cell index of every field in a registration table
// row. Rows shorter than MinColumns are not normalized.
type ColumnLayout struct {
	Code       int `yaml:"code"`
	Name       int `yaml:"name"`
	Credits    int `yaml:"credits"`
	Instructor int `yaml:"instructor"`
	Schedule   int `yaml:"schedule"`
	Room       int `yaml:"room"`
	Elective   int `yaml:"elective"`
	MinColumns int `yaml:"min_columns"`
}

// DefaultLayout matches the portal's selected-courses grid.
func DefaultLayout() ColumnLayout {
	return ColumnLayout{
		Code:       1,
		Name:       2,
		Credits:    3,
		Instructor: 4,
		Schedule:   5,
		Room:       6,
		Elective:   7,
		MinColumns: 12,
	}
}

// Fits reports whether row has enough cells to be normalized.
func (l ColumnLayout) Fits(row []string) bool {
	return len(row) >= l.MinColumns && len(row) > l.maxIndex()
}

func (l ColumnLayout) maxIndex() int {
	m := 0
	for _, i := range []int{l.Code, l.Name, l.Credits, l.Instructor, l.Schedule, l.Room, l.Elective} {
		if i > m {
			m = i
		}
	}
	return m
}

const defaultElective = "選"

var parenthetical = regexp.MustCompile(`\(.*?\)|（.*?）`)

// StripParenthetical removes every "(...)" and "（...）" annotation.
func StripParenthetical(s string) string {
	return strings.TrimSpace(parenthetical.ReplaceAllString(s, ""))
}

// Entry is a normalized course together with its parsed schedule.
type Entry struct {
	Course *model.Course
	Token  ParsedToken
}

// Normalize maps a raw table row into a course record. The caller must
// check layout.Fits(row) first.
func Normalize(row []string, layout ColumnLayout) Entry {
	cell := func(i int) string { return strings.TrimSpace(row[i]) }

	raw := cell(layout.Schedule)
	token := ParseToken(raw)

	c := &model.Course{
		Code:        cell(layout.Code),
		Name:        StripParenthetical(row[layout.Name]),
		Instructor:  strings.Trim(cell(layout.Instructor), separator),
		Room:        strings.Trim(StripParenthetical(row[layout.Room]), separator),
		Credits:     cell(layout.Credits),
		Elective:    cell(layout.Elective),
		Weekday:     token.Label(),
		RawSchedule: raw,
	}
	if c.Elective == "" {
		c.Elective = defaultElective
	}
	if s, ok := token.(Scheduled); ok {
		span := s.Range()
		c.StartTime = span.Start.String()
		c.EndTime = span.End.String()
	}

	return Entry{Course: c, Token: token}
}

// NormalizeAll normalizes every row that fits the layout and returns the
// indexes of the rows that were skipped.
func NormalizeAll(rows [][]string, layout ColumnLayout) ([]Entry, []int) {
	entries := make([]Entry, 0, len(rows))
	var skipped []int
	for i, row := range rows {
		if !layout.Fits(row) {
			skipped = append(skipped, i)
			continue
		}
		entries = append(entries, Normalize(row, layout))
	}
	return entries, skipped
}
