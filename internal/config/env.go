package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override secrets from the YAML file.
const (
	EnvNotionToken    = "NOTION_TOKEN"
	EnvPortalUsername = "PORTAL_USERNAME"
	EnvPortalPassword = "PORTAL_PASSWORD"
)

type secrets struct {
	token    string
	username string
	password string
}

// LoadDotEnv reads KEY=VALUE pairs from the given files (".env" when none)
// into the process environment. Missing files are skipped; variables
// already set win. Files that exist but cannot be parsed are reported and
// the remaining files are still loaded.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var errs []error
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			errs = append(errs, fmt.Errorf("config: load %s: %w", f, err))
		}
	}
	return errors.Join(errs...)
}

// ApplyEnv replaces credentials with environment values when present.
func (c *Config) ApplyEnv() {
	if c.fileSecrets == nil {
		c.fileSecrets = &secrets{
			token:    c.Notion.Token,
			username: c.Source.Username,
			password: c.Source.Password,
		}
	}
	if v := os.Getenv(EnvNotionToken); v != "" {
		c.Notion.Token = v
	}
	if v := os.Getenv(EnvPortalUsername); v != "" {
		c.Source.Username = v
	}
	if v := os.Getenv(EnvPortalPassword); v != "" {
		c.Source.Password = v
	}
}

// persistable returns the copy of c that Save writes.
func (c *Config) persistable() *Config {
	out := *c
	if c.fileSecrets != nil {
		out.Notion.Token = c.fileSecrets.token
		out.Source.Username = c.fileSecrets.username
		out.Source.Password = c.fileSecrets.password
	}
	return &out
}
