package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Mode is a workflow the CLI can run.
type Mode string

const (
	ModeCourses   Mode = "courses"
	ModeReminders Mode = "reminders"
	ModeNotes     Mode = "notes"
	ModeSetup     Mode = "setup"
	ModeDaemon    Mode = "daemon"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeCourses, ModeReminders, ModeNotes, ModeSetup, ModeDaemon}

var commonFields = []string{
	"Timezone",
	"Notion.Token",
	"Notion.BaseURL",
	"Notion.Version",
	"Notion.PaceInterval",
	"Log.Level",
	"Log.Format",
}

var semesterFields = []string{"Semester.Name", "Semester.Start", "Semester.End"}

var modeFields = map[Mode][]string{
	ModeCourses: append([]string{
		"Notion.CourseDatabaseID",
		"Source.HTMLFile",
		"Source.LoginURL",
		"Source.Username",
		"Source.Password",
		"Source.TableID",
		"Source.Attempts",
		"Source.Backoff",
		"Source.Timeout",
	}, semesterFields...),
	ModeReminders: {
		"Notion.CourseDatabaseID",
		"Reminder.WindowDays",
		"Reminder.OffsetMinutes",
	},
	ModeNotes: append([]string{
		"Notion.CourseDatabaseID",
		"Notion.NoteDatabaseID",
	}, semesterFields...),
	ModeSetup: {"Notion.ParentPageID"},
	ModeDaemon: {
		"Notion.CourseDatabaseID",
		"Reminder.WindowDays",
		"Reminder.OffsetMinutes",
		"Reminder.Cron",
		"Listen",
	},
}

var (
	validate = validator.New(validator.WithRequiredStructEnabled())
	trans    ut.Translator
)

func init() {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, trans)
}

// Validate checks the fields the given mode depends on. Fields other modes
// need are ignored so e.g. setup can run before database ids exist.
func (c *Config) Validate(mode Mode) error {
	extra, ok := modeFields[mode]
	if !ok {
		return fmt.Errorf("config: unknown mode %q", mode)
	}
	fields := append(append([]string{}, commonFields...), extra...)

	if err := validate.StructPartial(c, fields...); err != nil {
		return describe(err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	if mode == ModeCourses || mode == ModeNotes {
		if c.Semester.End < c.Semester.Start {
			return errors.New("config: semester.end is before semester.start")
		}
	}
	return nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := strings.TrimPrefix(fe.StructNamespace(), "Config.")
		msgs = append(msgs, fmt.Sprintf("%s: %s", name, fe.Translate(trans)))
	}
	return errors.New("config: " + strings.Join(msgs, "; "))
}
