package ics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"coursesync/internal/model"
)

func sampleOccurrences(t *testing.T) []model.Occurrence {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		t.Fatal(err)
	}
	c := &model.Course{Code: "CS101", Name: "演算法", Room: "E101", Instructor: "王小明", Credits: "3"}
	start := time.Date(2025, 9, 1, 8, 10, 0, 0, loc)
	return []model.Occurrence{
		{Course: c, Week: 1, Start: start, End: start.Add(170 * time.Minute)},
		{Course: c, Week: 2, Start: start.AddDate(0, 0, 7), End: start.AddDate(0, 0, 7).Add(170 * time.Minute)},
		{Week: 3},
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	occs := sampleOccurrences(t)
	body := Encode(occs, Options{Name: "114上", Timezone: "Asia/Taipei", Stamp: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)})

	cal, err := ical.ParseCalendar(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseCalendar: %v\n%s", err, body)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}

	ev := events[0]
	if got := ev.GetProperty(ical.ComponentPropertySummary).Value; got != "演算法" {
		t.Fatalf("summary = %q", got)
	}
	if got := ev.GetProperty(ical.ComponentPropertyLocation).Value; got != "E101" {
		t.Fatalf("location = %q", got)
	}
	start, err := ev.GetStartAt()
	if err != nil || !start.Equal(occs[0].Start) {
		t.Fatalf("start = %v %v, want %v", start, err, occs[0].Start)
	}
	end, err := ev.GetEndAt()
	if err != nil || !end.Equal(occs[0].End) {
		t.Fatalf("end = %v %v", end, err)
	}
	uid := ev.GetProperty(ical.ComponentPropertyUniqueId).Value
	if uid != "CS101-w01-20250901T0010Z@coursesync" {
		t.Fatalf("uid = %q", uid)
	}
	if events[1].GetProperty(ical.ComponentPropertyUniqueId).Value == uid {
		t.Fatalf("uids collide")
	}
}

func TestEncodeIsStable(t *testing.T) {
	occs := sampleOccurrences(t)
	opts := Options{Stamp: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)}
	if Encode(occs, opts) != Encode(occs, opts) {
		t.Fatalf("encoding differs between runs")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "courses.ics")
	if err := WriteFile(path, sampleOccurrences(t), Options{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "BEGIN:VCALENDAR") {
		t.Fatalf("unexpected body: %q", data)
	}
	if err := WriteFile("", nil, Options{}); err == nil {
		t.Fatalf("empty path accepted")
	}
}
