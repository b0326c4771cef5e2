package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	appLog "coursesync/internal/log"
)

// Element ids and markers of the registration portal.
const (
	usernameInput  = "#ContentPlaceHolder1_ed_StudNo"
	passwordInput  = "#ContentPlaceHolder1_ed_pass"
	loginButton    = "#ContentPlaceHolder1_BtnLoginNew"
	logoutLink     = "#ContentPlaceHolder1_HyperLink5"
	courseURLMark  = "course_sele"
	defaultTimeout = 90 * time.Second
	pollInterval   = 500 * time.Millisecond
)

// dismissEvalModal clicks "cancel" on the course evaluation prompt that
// sometimes covers the page after login. It evaluates to true if it did.
const dismissEvalModal = `(() => {
  const r = document.evaluate("//div[@aria-describedby='evalModal']//button[text()='取消']",
    document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
  const b = r.singleNodeValue;
  if (!b) return false;
  b.click();
  return true;
})()`

// BrowserOptions configures a BrowserSource.
type BrowserOptions struct {
	LoginURL string
	Username string
	Password string

	// Headless runs Chromium without a window. Turn off to watch a login.
	Headless bool

	// Timeout bounds one whole fetch. If zero, defaultTimeout is used.
	Timeout time.Duration
}

// BrowserSource logs in to the portal with a Chromium instance driven by
// chromedp and returns the selected-courses page.
type BrowserSource struct {
	opts BrowserOptions
}

func NewBrowserSource(opts BrowserOptions) *BrowserSource {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &BrowserSource{opts: opts}
}

// Fetch performs the login sequence:
//   - fill student number and password, submit
//   - accept any JavaScript alert the portal raises
//   - dismiss the evaluation modal if it shows up
//   - wait until the URL reaches the course selection page
//   - read the document, then log out
func (s *BrowserSource) Fetch(parentCtx context.Context) (string, error) {
	if s.opts.LoginURL == "" {
		return "", errors.New("scrape: login URL is required")
	}
	if s.opts.Username == "" || s.opts.Password == "" {
		return "", errors.New("scrape: portal credentials are required")
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.opts.Headless),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(parentCtx, allocOpts...)
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer timeoutCancel()

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if e, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			appLog.Debug("accepting portal dialog", "message", e.Message)
			go func() {
				if err := chromedp.Run(ctx, page.HandleJavaScriptDialog(true)); err != nil {
					appLog.Warn("dialog accept failed", "error", err.Error())
				}
			}()
		}
	})

	var html string
	tasks := chromedp.Tasks{
		chromedp.Navigate(s.opts.LoginURL),
		chromedp.WaitVisible(usernameInput, chromedp.ByID),
		chromedp.SendKeys(usernameInput, s.opts.Username, chromedp.ByID),
		chromedp.SendKeys(passwordInput, s.opts.Password, chromedp.ByID),
		chromedp.Click(loginButton, chromedp.ByID),
		chromedp.ActionFunc(waitForCoursePage),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return "", fmt.Errorf("scrape: browser login failed: %w", err)
	}
	appLog.Info("course page loaded", "bytes", len(html))

	logout(ctx)
	return html, nil
}

// waitForCoursePage polls the current location until it is the course
// selection page, dismissing the evaluation modal along the way.
func waitForCoursePage(ctx context.Context) error {
	for {
		var dismissed bool
		if err := chromedp.Evaluate(dismissEvalModal, &dismissed).Do(ctx); err == nil && dismissed {
			appLog.Info("dismissed evaluation modal")
		}

		var loc string
		if err := chromedp.Location(&loc).Do(ctx); err != nil {
			return err
		}
		if strings.Contains(loc, courseURLMark) {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s page: %w", courseURLMark, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func logout(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Click(logoutLink, chromedp.ByID, chromedp.NodeVisible)); err != nil {
		appLog.Warn("portal logout failed", "error", err.Error())
		return
	}
	appLog.Debug("logged out of portal")
}
