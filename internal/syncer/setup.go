package syncer

import (
	"context"
	"errors"
	"fmt"

	appLog "coursesync/internal/log"
	"coursesync/internal/notion"
	"coursesync/internal/pace"
)

const workspaceTitle = "大學四年學習總部"

type databasePlan struct {
	title  string
	emoji  string
	schema func(courseDB, semester string) notion.Schema
	assign func(id string)
}

// Setup checks the token, creates the course, task and note databases under
// the configured parent page, links them from a small dashboard and
// retitles the page. Each created id is written to the config and, when
// configPath is set, saved right away so a failure halfway keeps what was
// already created.
func (s *Syncer) Setup(ctx context.Context, configPath string) (Report, error) {
	rep := s.begin(WorkflowSetup)

	ws, ok := s.remote.(Workspace)
	if !ok {
		return s.finish(rep, errors.New("syncer: remote cannot create databases"))
	}

	me, err := ws.Me(ctx)
	if err != nil {
		return s.finish(rep, fmt.Errorf("syncer: token check failed: %w", err))
	}
	appLog.Info("notion token ok", "bot", me.Name, "id", me.ID)

	nc := &s.cfg.Notion
	parentID := nc.ParentPageID
	semester := s.cfg.Semester.Name

	plans := []databasePlan{
		{
			title:  "📚 課程總資料庫",
			emoji:  "📚",
			schema: func(_, sem string) notion.Schema { return CourseSchema(sem) },
			assign: func(id string) { nc.CourseDatabaseID = id },
		},
		{
			title:  "✅ 任務總資料庫",
			emoji:  "✅",
			schema: TaskSchema,
			assign: func(id string) { nc.TaskDatabaseID = id },
		},
		{
			title:  "📝 學習筆記總資料庫",
			emoji:  "📝",
			schema: NoteSchema,
			assign: func(id string) { nc.NoteDatabaseID = id },
		},
	}

	links := []notion.Block{notion.Heading("資料庫")}
	for _, plan := range plans {
		if err := s.gate.Wait(ctx); err != nil {
			rep.Tally.Aborted = true
			return s.finish(rep, nil)
		}
		db, err := ws.CreateDatabase(ctx, parentID, plan.title, plan.emoji, plan.schema(nc.CourseDatabaseID, semester))
		if err != nil {
			rep.Tally.Failures = append(rep.Tally.Failures, pace.Failure{Label: plan.title, Action: "create database", Err: err})
			return s.finish(rep, fmt.Errorf("syncer: create %s: %w", plan.title, err))
		}
		appLog.Info("database created", "title", plan.title, "id", db.ID)
		plan.assign(db.ID)
		rep.Tally.Succeeded++
		rep.Tally.IDs = append(rep.Tally.IDs, db.ID)
		links = append(links, notion.LinkItem(plan.title, db.URL))

		if configPath != "" {
			if err := s.cfg.Save(configPath); err != nil {
				return s.finish(rep, fmt.Errorf("syncer: save config: %w", err))
			}
		}
	}

	tail := s.executor().Run(ctx, []pace.Intent{
		{
			Label:  parentID,
			Action: "append dashboard",
			Do: func(ctx context.Context) (string, error) {
				return parentID, ws.AppendBlocks(ctx, parentID, links)
			},
		},
		{
			Label:  parentID,
			Action: "rename page",
			Do: func(ctx context.Context) (string, error) {
				return parentID, ws.RenamePage(ctx, parentID, workspaceTitle)
			},
		},
	})
	rep.Tally.Succeeded += tail.Succeeded
	rep.Tally.Failures = append(rep.Tally.Failures, tail.Failures...)
	rep.Tally.Aborted = tail.Aborted
	return s.finish(rep, nil)
}
