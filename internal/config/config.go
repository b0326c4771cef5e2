package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"coursesync/internal/notion"
	"coursesync/internal/pace"
	"coursesync/internal/timetable"
)

// NotionConfig holds the API credentials and the ids of the databases the
// workflows read and write.
type NotionConfig struct {
	Token   string `yaml:"token" validate:"required"`
	BaseURL string `yaml:"base_url" validate:"required,url"`
	Version string `yaml:"version" validate:"required"`

	// ParentPageID is where setup creates the databases.
	ParentPageID     string `yaml:"parent_page_id" validate:"required"`
	CourseDatabaseID string `yaml:"course_database_id" validate:"required"`
	TaskDatabaseID   string `yaml:"task_database_id"`
	NoteDatabaseID   string `yaml:"note_database_id" validate:"required"`

	// PaceInterval is the minimum gap between two writes.
	PaceInterval time.Duration `yaml:"pace_interval" validate:"min=0"`
}

// SemesterConfig is the semester the course and note workflows target.
type SemesterConfig struct {
	Name  string `yaml:"name" validate:"required"`
	Start string `yaml:"start" validate:"required,datetime=2006-01-02"`
	End   string `yaml:"end" validate:"required,datetime=2006-01-02"`
}

// ReminderConfig controls reminder backfill.
type ReminderConfig struct {
	// WindowDays is how far ahead of now pages are considered.
	WindowDays int `yaml:"window_days" validate:"min=1"`
	// OffsetMinutes is how long before the class the reminder fires.
	OffsetMinutes int `yaml:"offset_minutes" validate:"min=0"`
	// Cron schedules backfill in daemon mode (e.g. "0 7 * * *").
	Cron string `yaml:"cron" validate:"required"`
}

// SourceConfig describes where the registration page comes from. When
// HTMLFile is set it is read instead of logging in with a browser.
type SourceConfig struct {
	HTMLFile string `yaml:"html_file,omitempty"`

	LoginURL string `yaml:"login_url" validate:"required_without=HTMLFile"`
	Username string `yaml:"username" validate:"required_without=HTMLFile"`
	Password string `yaml:"password" validate:"required_without=HTMLFile"`

	// TableID is the element id of the selected-courses grid.
	TableID string `yaml:"table_id" validate:"required"`

	Attempts int           `yaml:"attempts" validate:"min=1"`
	Backoff  time.Duration `yaml:"backoff" validate:"min=0"`
	Timeout  time.Duration `yaml:"timeout" validate:"min=0"`
	// Headless can be turned off to watch the browser while debugging.
	Headless bool `yaml:"headless"`
}

// ExportConfig names the side outputs of course sync. Empty disables one.
type ExportConfig struct {
	CSVPath string `yaml:"csv_path"`
	ICSPath string `yaml:"ics_path"`
}

// LogConfig selects log verbosity and output format ("pretty" or "json").
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=pretty json"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the status server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA zone every class time is expressed in.
	Timezone string `yaml:"timezone" validate:"required"`

	Notion   NotionConfig           `yaml:"notion"`
	Semester SemesterConfig         `yaml:"semester"`
	Reminder ReminderConfig         `yaml:"reminder"`
	Source   SourceConfig           `yaml:"source"`
	Columns  timetable.ColumnLayout `yaml:"columns"`
	Export   ExportConfig           `yaml:"export"`
	Log      LogConfig              `yaml:"log"`

	// Listen is the status server address in daemon mode.
	Listen string `yaml:"listen" validate:"required"`

	// BasicAuth, if non-nil, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty"`

	// fileSecrets keeps the on-disk values of fields replaced by ApplyEnv
	// so that Save never writes environment secrets into the file.
	fileSecrets *secrets
}

const (
	defaultTimezone  = "Asia/Taipei"
	defaultListen    = "127.0.0.1:8080"
	defaultTableID   = "ContentPlaceHolder1_grd_selects"
	defaultCron      = "0 7 * * *"
	defaultWindow    = 30
	defaultOffset    = 20
	defaultAttempts  = 3
	defaultBackoff   = 5 * time.Second
	defaultTimeout   = 90 * time.Second
	defaultCSVExport = "course_schedule.csv"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone: defaultTimezone,
		Notion: NotionConfig{
			BaseURL:      notion.DefaultBaseURL,
			Version:      notion.DefaultVersion,
			PaceInterval: pace.DefaultInterval,
		},
		Reminder: ReminderConfig{
			WindowDays:    defaultWindow,
			OffsetMinutes: defaultOffset,
			Cron:          defaultCron,
		},
		Source: SourceConfig{
			TableID:  defaultTableID,
			Attempts: defaultAttempts,
			Backoff:  defaultBackoff,
			Timeout:  defaultTimeout,
			Headless: true,
		},
		Columns: timetable.DefaultLayout(),
		Export:  ExportConfig{CSVPath: defaultCSVExport},
		Log:     LogConfig{Level: "info", Format: "pretty"},
		Listen:  defaultListen,
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.Notion.BaseURL == "" {
		c.Notion.BaseURL = notion.DefaultBaseURL
	}
	if c.Notion.Version == "" {
		c.Notion.Version = notion.DefaultVersion
	}
	if c.Notion.PaceInterval <= 0 {
		c.Notion.PaceInterval = pace.DefaultInterval
	}
	if c.Reminder.WindowDays <= 0 {
		c.Reminder.WindowDays = defaultWindow
	}
	if c.Reminder.OffsetMinutes < 0 {
		c.Reminder.OffsetMinutes = defaultOffset
	}
	if c.Reminder.Cron == "" {
		c.Reminder.Cron = defaultCron
	}
	if c.Source.TableID == "" {
		c.Source.TableID = defaultTableID
	}
	if c.Source.Attempts <= 0 {
		c.Source.Attempts = defaultAttempts
	}
	if c.Source.Backoff < 0 {
		c.Source.Backoff = defaultBackoff
	}
	if c.Source.Timeout <= 0 {
		c.Source.Timeout = defaultTimeout
	}
	if c.Columns == (timetable.ColumnLayout{}) {
		c.Columns = timetable.DefaultLayout()
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		c.Log.Level = "info"
	}
	if c.Log.Format != "json" {
		c.Log.Format = "pretty"
	}
	if c.Listen == "" {
		c.Listen = defaultListen
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is read and normalized.
//   - Environment overrides (see ApplyEnv) are applied last in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.ApplyEnv()

	return cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg.persistable())
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".coursesync-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
