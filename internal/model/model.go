package model

import "time"

// Course is one normalized row of the registration table. It is built once
// per scraped row and not modified afterwards; occurrences point back to it.
type Course struct {
	Code       string
	Name       string
	Instructor string
	Room       string
	Credits    string
	// Elective is the required/elective marker shown by the portal
	// (e.g. "選", "必", "學程").
	Elective string

	// Weekday is the display label of the meeting day ("週一"), "未排定"
	// for an empty schedule cell, or the raw cell text when it could not
	// be parsed. StartTime/EndTime are "HH:MM" or empty.
	Weekday   string
	StartTime string
	EndTime   string

	// RawSchedule is the schedule cell exactly as scraped.
	RawSchedule string
}

// Occurrence is a single dated meeting of a course within a semester.
type Occurrence struct {
	Course *Course

	// Week is the 1-based week number of this meeting in the semester.
	Week int

	// Start / End are in the configured civil timezone.
	Start time.Time
	End   time.Time
}

// SemesterWindow bounds recurrence generation. Start and End are calendar
// dates (midnight in the configured zone); both ends are inclusive.
type SemesterWindow struct {
	Name  string
	Start time.Time
	End   time.Time
}
