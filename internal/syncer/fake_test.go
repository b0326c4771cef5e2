package syncer

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"coursesync/internal/notion"
)

type createCall struct {
	Database   string
	Properties map[string]map[string]json.RawMessage
}

type patchCall struct {
	PageID     string
	Properties map[string]map[string]json.RawMessage
}

// fakeNotion is an in-memory stand-in for the endpoints the workflows use.
type fakeNotion struct {
	t        *testing.T
	mu       sync.Mutex
	pageSize int

	pages   []map[string]any
	filters []json.RawMessage
	rounds  int

	creates   []createCall
	patches   []patchCall
	databases []map[string]any
	blocks    []string
	renamed   string

	// failCreate, failQuery make the n-th create (1-based) or every query
	// answer with an error.
	failCreate int
	failQuery  bool
}

func newFakeNotion(t *testing.T) (*fakeNotion, *notion.Client) {
	t.Helper()
	f := &fakeNotion{t: t, pageSize: 100}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, notion.NewClient(notion.Options{BaseURL: srv.URL, Token: "test"})
}

func (f *fakeNotion) addCoursePage(id, name string, week int, start string, reminded bool) {
	props := map[string]any{}
	if name != "" {
		props[PropCourseName] = map[string]any{
			"type":  "title",
			"title": []any{map[string]any{"plain_text": name, "text": map[string]any{"content": name}}},
		}
	}
	if week > 0 {
		props[PropWeek] = map[string]any{"type": "number", "number": week}
	}
	if start != "" {
		date := map[string]any{"start": start, "end": nil, "time_zone": "Asia/Taipei"}
		if reminded {
			date["reminder"] = map[string]any{"unit": "minute", "value": 20}
		}
		props[PropCourseDate] = map[string]any{"type": "date", "date": date}
	}
	f.pages = append(f.pages, map[string]any{"object": "page", "id": id, "properties": props})
}

func (f *fakeNotion) apiError(w http.ResponseWriter, status int, code, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"object": "error", "status": status, "code": code, "message": msg})
}

func (f *fakeNotion) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	path := r.URL.Path

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/query"):
		f.query(w, body)
	case r.Method == http.MethodPost && path == "/pages":
		f.create(w, body)
	case r.Method == http.MethodPatch && strings.HasPrefix(path, "/pages/"):
		f.patch(w, strings.TrimPrefix(path, "/pages/"), body)
	case r.Method == http.MethodGet && path == "/users/me":
		_, _ = io.WriteString(w, `{"object":"user","id":"bot-1","name":"課表同步","type":"bot"}`)
	case r.Method == http.MethodPost && path == "/databases":
		var req map[string]any
		_ = json.Unmarshal(body, &req)
		f.databases = append(f.databases, req)
		id := fmt.Sprintf("db-%d", len(f.databases))
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "database", "id": id, "url": "https://notion.so/" + id})
	case r.Method == http.MethodPatch && strings.HasPrefix(path, "/blocks/"):
		f.blocks = append(f.blocks, string(body))
		_, _ = io.WriteString(w, `{"object":"list","results":[]}`)
	default:
		f.t.Errorf("unexpected request %s %s", r.Method, path)
		http.NotFound(w, r)
	}
}

func (f *fakeNotion) query(w http.ResponseWriter, body []byte) {
	f.rounds++
	if f.failQuery {
		f.apiError(w, http.StatusInternalServerError, "internal_server_error", "query exploded")
		return
	}
	var req struct {
		Filter      json.RawMessage `json:"filter"`
		StartCursor string          `json:"start_cursor"`
	}
	_ = json.Unmarshal(body, &req)
	f.filters = append(f.filters, req.Filter)

	start := 0
	if req.StartCursor != "" {
		start, _ = strconv.Atoi(req.StartCursor)
	}
	end := start + f.pageSize
	if end > len(f.pages) {
		end = len(f.pages)
	}
	resp := map[string]any{"object": "list", "results": f.pages[start:end], "has_more": end < len(f.pages), "next_cursor": nil}
	if end < len(f.pages) {
		resp["next_cursor"] = strconv.Itoa(end)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeNotion) create(w http.ResponseWriter, body []byte) {
	var req struct {
		Parent struct {
			DatabaseID string `json:"database_id"`
		} `json:"parent"`
		Properties map[string]map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		f.apiError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	f.creates = append(f.creates, createCall{Database: req.Parent.DatabaseID, Properties: req.Properties})
	if len(f.creates) == f.failCreate {
		f.apiError(w, http.StatusBadRequest, "validation_error", "body failed validation")
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"object": "page", "id": fmt.Sprintf("page-%d", len(f.creates))})
}

func (f *fakeNotion) patch(w http.ResponseWriter, id string, body []byte) {
	var req struct {
		Properties map[string]map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		f.apiError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	f.patches = append(f.patches, patchCall{PageID: id, Properties: req.Properties})

	if title, ok := req.Properties["title"]; ok {
		var items []struct {
			Text struct {
				Content string `json:"content"`
			} `json:"text"`
		}
		_ = json.Unmarshal(title["title"], &items)
		if len(items) > 0 {
			f.renamed = items[0].Text.Content
		}
	}

	for _, p := range f.pages {
		if p["id"] != id {
			continue
		}
		props := p["properties"].(map[string]any)
		for name, v := range req.Properties {
			if date, ok := v["date"]; ok {
				props[name] = map[string]any{"type": "date", "date": date}
			}
		}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"object": "page", "id": id})
}

func decodeText(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var items []struct {
		Text struct {
			Content string `json:"content"`
		} `json:"text"`
	}
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		t.Fatalf("text %s: %v", raw, err)
	}
	return items[0].Text.Content
}
