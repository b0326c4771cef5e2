package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"golang.org/x/term"

	"coursesync/internal/config"
	appLog "coursesync/internal/log"
	"coursesync/internal/notion"
	"coursesync/internal/syncer"
	"coursesync/internal/web"
)

const version = "0.3.0"

// flagConfig holds CLI flag values; non-empty ones override the config file.
type flagConfig struct {
	configPath string
	envFile    string
	mode       string
	semester   string
	start      string
	end        string
	htmlFile   string
	listen     string
	logLevel   string
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := parseFlags()

	if err := config.LoadDotEnv(flags.envFile); err != nil {
		appLog.Warn("dotenv file ignored", "error", err.Error(), "env_file", flags.envFile)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		return 1
	}
	applyFlags(conf, flags)
	appLog.Setup(os.Stderr, conf.Log.Level, conf.Log.Format)

	mode := config.Mode(flags.mode)
	if mode == config.ModeCourses && conf.Source.HTMLFile == "" && conf.Source.Password == "" {
		if err := promptPassword(conf); err != nil {
			appLog.Error("portal password unavailable", err)
			return 1
		}
	}
	if err := conf.Validate(mode); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath, "mode", string(mode))
		return 1
	}

	appLog.Info("coursesync starting",
		"version", version,
		"mode", string(mode),
		"timezone", conf.Timezone,
		"semester", conf.Semester.Name,
		"semester_start", conf.Semester.Start,
		"semester_end", conf.Semester.End,
		"pace_interval", conf.Notion.PaceInterval.String(),
		"html_file", conf.Source.HTMLFile,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	client := notion.NewClient(notion.Options{
		BaseURL: conf.Notion.BaseURL,
		Token:   conf.Notion.Token,
		Version: conf.Notion.Version,
	})
	history := syncer.NewHistory()
	s := syncer.New(conf, client, syncer.WithHistory(history))

	var rep syncer.Report
	switch mode {
	case config.ModeCourses:
		rep, err = s.SyncCourses(ctx)
	case config.ModeReminders:
		rep, err = s.BackfillReminders(ctx)
	case config.ModeNotes:
		rep, err = s.GenerateNotes(ctx)
	case config.ModeSetup:
		rep, err = s.Setup(ctx, flags.configPath)
	case config.ModeDaemon:
		if err := runDaemon(ctx, conf, s, history); err != nil {
			appLog.Error("daemon stopped", err)
			return 1
		}
		return 0
	}

	printSummary(rep, err)
	if !rep.OK() {
		return 1
	}
	return 0
}

// runDaemon schedules reminder backfill and serves the status API until
// ctx is cancelled.
func runDaemon(ctx context.Context, conf *config.Config, s *syncer.Syncer, history *syncer.History) error {
	loc, err := conf.Location()
	if err != nil {
		return err
	}

	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(conf.Reminder.Cron, func() {
		if _, err := s.BackfillReminders(ctx); err != nil {
			appLog.Error("scheduled reminder backfill failed", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid reminder.cron %q: %w", conf.Reminder.Cron, err)
	}
	c.Start()
	appLog.Info("reminder backfill scheduled", "cron", conf.Reminder.Cron, "timezone", loc.String())

	srvErr := web.StartServer(ctx, conf, history)

	stopCtx := c.Stop()
	<-stopCtx.Done()
	appLog.Info("coursesync exiting")
	return srvErr
}

// cronLogger routes scheduler messages through the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	appLog.Error("cron: "+msg, err, kv...)
}

// promptPassword asks for the portal password when stdin is a terminal.
func promptPassword(conf *config.Config) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("set source.password or " + config.EnvPortalPassword)
	}
	fmt.Fprintf(os.Stderr, "Portal password for %s: ", conf.Source.Username)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	conf.Source.Password = strings.TrimSpace(string(pw))
	return nil
}

func printSummary(rep syncer.Report, err error) {
	t := rep.Tally
	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", rep.Workflow, err)
	case t.Aborted:
		fmt.Fprintf(os.Stderr, "%s aborted after %d of its writes\n", rep.Workflow, t.Attempted())
	default:
		fmt.Fprintf(os.Stderr, "%s done: %d succeeded, %d skipped, %d failed\n",
			rep.Workflow, t.Succeeded, t.Skipped, len(t.Failures))
	}
	for _, f := range t.Failures {
		fmt.Fprintf(os.Stderr, "  - %s\n", f)
	}
}

func applyFlags(conf *config.Config, f flagConfig) {
	if f.semester != "" {
		conf.Semester.Name = f.semester
	}
	if f.start != "" {
		conf.Semester.Start = f.start
	}
	if f.end != "" {
		conf.Semester.End = f.end
	}
	if f.htmlFile != "" {
		conf.Source.HTMLFile = f.htmlFile
	}
	if f.listen != "" {
		conf.Listen = f.listen
	}
	if f.logLevel != "" {
		conf.Log.Level = f.logLevel
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	modes := make([]string, 0, len(config.Modes))
	for _, m := range config.Modes {
		modes = append(modes, string(m))
	}

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.StringVar(&cfg.envFile, "env", ".env", "Optional dotenv file with secrets")
	flag.StringVar(&cfg.mode, "mode", string(config.ModeCourses), "Workflow to run: "+strings.Join(modes, ", "))
	flag.StringVar(&cfg.semester, "semester", "", "Semester name, e.g. 114上 (overrides config)")
	flag.StringVar(&cfg.start, "start", "", "Semester start date YYYY-MM-DD (overrides config)")
	flag.StringVar(&cfg.end, "end", "", "Semester end date YYYY-MM-DD (overrides config)")
	flag.StringVar(&cfg.htmlFile, "html", "", "Read the course page from this file instead of logging in")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address in daemon mode (overrides config)")
	flag.StringVar(&cfg.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	flag.Parse()

	return cfg
}
