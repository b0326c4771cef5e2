package scrape

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	appLog "coursesync/internal/log"
)

// PageSource yields the HTML of the registration page that lists the
// student's selected courses.
type PageSource interface {
	Fetch(ctx context.Context) (string, error)
}

// FileSource reads a previously saved page from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(ctx context.Context) (string, error) {
	if s.Path == "" {
		return "", errors.New("scrape: html file path is empty")
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fmt.Errorf("scrape: read %s: %w", s.Path, err)
	}
	return string(data), nil
}

// sleep waits for d or until ctx is done. Swapped out in tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FetchWithRetry calls src up to attempts times, waiting backoff between
// failures. The last error is returned when every attempt fails.
func FetchWithRetry(ctx context.Context, src PageSource, attempts int, backoff time.Duration) (string, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 1; i <= attempts; i++ {
		html, err := src.Fetch(ctx)
		if err == nil {
			if i > 1 {
				appLog.Info("page source recovered", "attempt", i)
			}
			return html, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		appLog.Warn("page source failed", "attempt", i, "of", attempts, "error", err.Error())
		if i < attempts {
			if err := sleep(ctx, backoff); err != nil {
				return "", err
			}
		}
	}
	return "", fmt.Errorf("scrape: page source unavailable after %d attempts: %w", attempts, lastErr)
}
