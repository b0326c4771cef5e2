package syncer

import (
	"context"
	"time"

	appLog "coursesync/internal/log"
	"coursesync/internal/notion"
	"coursesync/internal/pace"
)

// BackfillReminders adds a reminder to every upcoming class in the course
// database that does not have one yet. Pages that already carry a reminder
// are left alone, so running it twice issues no writes the second time.
func (s *Syncer) BackfillReminders(ctx context.Context) (Report, error) {
	rep := s.begin(WorkflowReminders)

	loc, err := s.location()
	if err != nil {
		return s.finish(rep, err)
	}
	now := s.now().In(loc)
	until := now.AddDate(0, 0, s.cfg.Reminder.WindowDays)

	filter := &notion.Filter{And: []notion.Filter{
		{Property: PropCourseDate, Date: &notion.DateCondition{OnOrAfter: now.Format(time.RFC3339)}},
		{Property: PropCourseDate, Date: &notion.DateCondition{OnOrBefore: until.Format(time.RFC3339)}},
		{Property: PropCourseDate, Date: &notion.DateCondition{IsNotEmpty: true}},
	}}
	pages, err := s.remote.QueryAll(ctx, s.cfg.Notion.CourseDatabaseID, filter)
	if err != nil {
		return s.finish(rep, err)
	}
	appLog.Info("upcoming classes found", "pages", len(pages), "window_days", s.cfg.Reminder.WindowDays)

	reminder := &notion.Reminder{Unit: "minute", Value: s.cfg.Reminder.OffsetMinutes}
	schema := CourseSchema("")

	var skipped int
	var intents []pace.Intent
	for _, p := range pages {
		label := pageLabel(p)
		date := p.Date(PropCourseDate)
		if date == nil || date.Start == "" {
			appLog.Warn("page has no class date", "page_id", p.ID, "course", label)
			skipped++
			continue
		}
		if date.Reminder != nil {
			appLog.Debug("reminder already set", "page_id", p.ID, "course", label)
			skipped++
			continue
		}

		v := date.Value()
		v.Reminder = reminder
		props := notion.Properties{PropCourseDate: v}
		pageID := p.ID
		intents = append(intents, pace.Intent{
			Label:  label,
			Action: "set reminder",
			Do: func(ctx context.Context) (string, error) {
				if err := schema.ValidatePatch(props); err != nil {
					return "", err
				}
				return s.remote.UpdatePage(ctx, pageID, props)
			},
		})
	}

	rep.Tally = s.executor().Run(ctx, intents)
	rep.Tally.Skipped += skipped
	return s.finish(rep, nil)
}

// pageLabel names a course page in diagnostics: its title and start, or the
// page id when the title is missing.
func pageLabel(p notion.Page) string {
	name, ok := p.Title(PropCourseName)
	if !ok || name == "" {
		return p.ID
	}
	if d := p.Date(PropCourseDate); d != nil && d.Start != "" {
		return name + " @ " + d.Start
	}
	return name
}
