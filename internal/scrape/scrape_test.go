package scrape

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const coursePage = `<html><body>
<table id="ContentPlaceHolder1_grd_selects">
  <tr><th>選</th><th>課程代碼</th><th>課程名稱</th><th>學分</th><th>授課教師</th><th>上課時間</th><th>教室</th><th>必選修</th></tr>
  <tr><td>1</td><td> CS101 </td><td>演算法(英文授課)</td><td>3</td><td>/王小明/</td><td>一/3/4/5</td><td>E101</td><td>必</td></tr>
  <tr><td>2</td><td>GE200</td><td>通識講座</td><td>2</td><td></td><td>未排定</td><td>/</td><td></td></tr>
  <tr></tr>
</table>
<table id="other"><tr><td>ignore me</td></tr></table>
</body></html>`

func TestExtractRows(t *testing.T) {
	tbl, err := ExtractRows(coursePage, "ContentPlaceHolder1_grd_selects")
	if err != nil {
		t.Fatalf("ExtractRows: %v", err)
	}
	if len(tbl.Header) != 8 || tbl.Header[2] != "課程名稱" {
		t.Fatalf("header = %v", tbl.Header)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %v", tbl.Rows)
	}
	first := tbl.Rows[0]
	if first[1] != "CS101" || first[4] != "王小明" || first[5] != "一/3/4/5" {
		t.Fatalf("first row = %q", first)
	}
	if tbl.Rows[1][6] != "" {
		t.Fatalf("slash padding kept: %q", tbl.Rows[1][6])
	}
}

func TestExtractRowsMissingTable(t *testing.T) {
	if _, err := ExtractRows(coursePage, "nope"); err == nil || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("error = %v", err)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte(coursePage), 0o600); err != nil {
		t.Fatal(err)
	}
	html, err := FileSource{Path: path}.Fetch(context.Background())
	if err != nil || html != coursePage {
		t.Fatalf("Fetch = %d bytes, %v", len(html), err)
	}
	if _, err := (FileSource{Path: path + ".missing"}).Fetch(context.Background()); err == nil {
		t.Fatalf("missing file accepted")
	}
}

type flakySource struct {
	failures int
	calls    int
}

func (f *flakySource) Fetch(context.Context) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("portal down")
	}
	return "<html></html>", nil
}

func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	orig := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = orig })
	return &waits
}

func TestFetchWithRetryRecovers(t *testing.T) {
	waits := stubSleep(t)
	src := &flakySource{failures: 2}

	html, err := FetchWithRetry(context.Background(), src, 3, 5*time.Second)
	if err != nil || html == "" {
		t.Fatalf("FetchWithRetry = %q, %v", html, err)
	}
	if src.calls != 3 {
		t.Fatalf("calls = %d", src.calls)
	}
	if len(*waits) != 2 || (*waits)[0] != 5*time.Second {
		t.Fatalf("waits = %v", *waits)
	}
}

func TestFetchWithRetryGivesUp(t *testing.T) {
	waits := stubSleep(t)
	src := &flakySource{failures: 10}

	_, err := FetchWithRetry(context.Background(), src, 3, time.Second)
	if err == nil || !strings.Contains(err.Error(), "portal down") {
		t.Fatalf("error = %v", err)
	}
	if src.calls != 3 || len(*waits) != 2 {
		t.Fatalf("calls = %d, waits = %v", src.calls, *waits)
	}
}

func TestFetchWithRetryStopsOnCancel(t *testing.T) {
	stubSleep(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &flakySource{failures: 10}

	if _, err := FetchWithRetry(ctx, src, 3, time.Second); err == nil {
		t.Fatalf("expected error")
	}
	if src.calls != 1 {
		t.Fatalf("calls = %d", src.calls)
	}
}

func TestBrowserSourceRequiresCredentials(t *testing.T) {
	src := NewBrowserSource(BrowserOptions{LoginURL: "https://portal.example/login"})
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatalf("missing credentials accepted")
	}
}

func TestWriteCSV(t *testing.T) {
	tbl, err := ExtractRows(coursePage, "ContentPlaceHolder1_grd_selects")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "course_schedule.csv")
	if err := WriteCSV(path, tbl); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "\ufeff選,課程代碼,課程名稱") {
		t.Fatalf("missing BOM or header: %q", data)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 || !strings.Contains(lines[1], "演算法(英文授課)") {
		t.Fatalf("lines = %q", lines)
	}
}
