package syncer

import (
	"context"

	appLog "coursesync/internal/log"
	"coursesync/internal/notion"
	"coursesync/internal/pace"
)

// GenerateNotes creates one note page per class meeting of the configured
// semester, linked back to its course page. Course pages without a title or
// week number are skipped.
func (s *Syncer) GenerateNotes(ctx context.Context) (Report, error) {
	rep := s.begin(WorkflowNotes)

	semester := s.cfg.Semester.Name
	filter := &notion.Filter{Property: PropSemester, Select: &notion.SelectCondition{Equals: semester}}
	pages, err := s.remote.QueryAll(ctx, s.cfg.Notion.CourseDatabaseID, filter)
	if err != nil {
		return s.finish(rep, err)
	}
	appLog.Info("semester classes found", "semester", semester, "pages", len(pages))

	schema := NoteSchema(s.cfg.Notion.CourseDatabaseID, semester)

	var skipped int
	var intents []pace.Intent
	for _, p := range pages {
		name, ok := p.Title(PropCourseName)
		if !ok || name == "" {
			appLog.Warn("course page has no title", "page_id", p.ID)
			skipped++
			continue
		}
		week, ok := p.Number(PropWeek)
		if !ok {
			appLog.Warn("course page has no week", "page_id", p.ID, "course", name)
			skipped++
			continue
		}

		var classDate notion.Date
		if d := p.Date(PropCourseDate); d != nil {
			classDate.Start = d.Start
		}

		props := notion.Properties{
			PropNoteTitle:    notion.Title(name + noteSuffix),
			PropCourseLink:   notion.Relation{p.ID},
			PropSemester:     notion.Select(semester),
			PropWeek:         notion.Number(week),
			PropClassDate:    classDate,
			PropNoteCategory: notion.Select(categoryNotes),
		}
		intents = append(intents, pace.Intent{
			Label:  pageLabel(p),
			Action: "create note page",
			Do: func(ctx context.Context) (string, error) {
				if err := schema.Validate(props); err != nil {
					return "", err
				}
				return s.remote.CreatePage(ctx, s.cfg.Notion.NoteDatabaseID, props)
			},
		})
	}

	rep.Tally = s.executor().Run(ctx, intents)
	rep.Tally.Skipped += skipped
	return s.finish(rep, nil)
}
