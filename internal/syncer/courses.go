package syncer

import (
	"context"
	"fmt"

	"coursesync/internal/ics"
	appLog "coursesync/internal/log"
	"coursesync/internal/model"
	"coursesync/internal/notion"
	"coursesync/internal/pace"
	"coursesync/internal/scrape"
	"coursesync/internal/timetable"
)

// notionDateTime is how class times are sent: wall clock without offset,
// paired with an explicit time_zone.
const notionDateTime = "2006-01-02T15:04:05"

var csvHeader = []string{
	PropCode, PropCourseName, PropCredits, PropInstructor, PropWeekday,
	PropStartTime, PropEndTime, PropRoom, PropElective, "原始時間",
}

// SyncCourses scrapes the registration page, expands every course over the
// semester and creates one course page per class meeting.
//
// Re-running it creates the pages again; the course database is expected
// to be cleared per semester.
func (s *Syncer) SyncCourses(ctx context.Context) (Report, error) {
	rep := s.begin(WorkflowCourses)

	loc, err := s.location()
	if err != nil {
		return s.finish(rep, err)
	}
	sem := s.cfg.Semester
	window, err := timetable.ParseWindow(sem.Name, sem.Start, sem.End, loc)
	if err != nil {
		return s.finish(rep, err)
	}

	html, err := scrape.FetchWithRetry(ctx, s.source, s.cfg.Source.Attempts, s.cfg.Source.Backoff)
	if err != nil {
		return s.finish(rep, err)
	}
	table, err := scrape.ExtractRows(html, s.cfg.Source.TableID)
	if err != nil {
		return s.finish(rep, err)
	}

	entries, skipped := timetable.NormalizeAll(table.Rows, s.cfg.Columns)
	for _, i := range skipped {
		appLog.Warn("row skipped", "row", i+1, "columns", len(table.Rows[i]), "want", s.cfg.Columns.MinColumns)
	}
	appLog.Info("courses normalized", "rows", len(table.Rows), "courses", len(entries), "skipped", len(skipped))

	var occs []model.Occurrence
	for _, e := range entries {
		got := timetable.Generate(e.Course, e.Token, window)
		if len(got) == 0 {
			appLog.Info("course has no meetings", "course", e.Course.Name, "schedule", e.Course.RawSchedule)
			continue
		}
		occs = append(occs, got...)
	}

	s.export(entries, occs)

	schema := CourseSchema(sem.Name)
	intents := make([]pace.Intent, 0, len(occs))
	for _, o := range occs {
		props := s.coursePage(o, sem.Name)
		intents = append(intents, pace.Intent{
			Label:  fmt.Sprintf("%s 第%d週", o.Course.Name, o.Week),
			Action: "create course page",
			Do: func(ctx context.Context) (string, error) {
				if err := schema.Validate(props); err != nil {
					return "", err
				}
				return s.remote.CreatePage(ctx, s.cfg.Notion.CourseDatabaseID, props)
			},
		})
	}
	rep.Tally = s.executor().Run(ctx, intents)
	return s.finish(rep, nil)
}

func (s *Syncer) coursePage(o model.Occurrence, semester string) notion.Properties {
	c := o.Course
	name := c.Name
	if name == "" {
		name = untitledCourse
	}
	return notion.Properties{
		PropCourseName: notion.Title(name),
		PropCourseDate: notion.Date{
			Start:    o.Start.Format(notionDateTime),
			End:      o.End.Format(notionDateTime),
			TimeZone: s.cfg.Timezone,
		},
		PropSemester:   notion.Select(semester),
		PropWeek:       notion.Number(o.Week),
		PropCode:       notion.RichText(c.Code),
		PropInstructor: notion.RichText(c.Instructor),
		PropRoom:       notion.RichText(c.Room),
		PropCredits:    notion.RichText(c.Credits),
		PropElective:   notion.Select(c.Elective),
		PropWeekday:    notion.RichText(c.Weekday),
		PropStartTime:  notion.RichText(c.StartTime),
		PropEndTime:    notion.RichText(c.EndTime),
	}
}

// export writes the optional review files. Failures are logged only, the
// upload does not depend on them.
func (s *Syncer) export(entries []timetable.Entry, occs []model.Occurrence) {
	if path := s.cfg.Export.CSVPath; path != "" {
		t := scrape.Table{Header: csvHeader}
		for _, e := range entries {
			c := e.Course
			t.Rows = append(t.Rows, []string{
				c.Code, c.Name, c.Credits, c.Instructor, c.Weekday,
				c.StartTime, c.EndTime, c.Room, c.Elective, c.RawSchedule,
			})
		}
		if err := scrape.WriteCSV(path, t); err != nil {
			appLog.Error("csv export failed", err, "path", path)
		} else {
			appLog.Info("csv export written", "path", path, "courses", len(entries))
		}
	}
	if path := s.cfg.Export.ICSPath; path != "" {
		opts := ics.Options{Name: s.cfg.Semester.Name, Timezone: s.cfg.Timezone, Stamp: s.now()}
		if err := ics.WriteFile(path, occs, opts); err != nil {
			appLog.Error("ics export failed", err, "path", path)
		}
	}
}
